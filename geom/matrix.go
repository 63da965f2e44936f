package geom

import (
	"github.com/chewxy/math32"
)

// Matrix is a 4x4 column-major matrix. Element (row, col) is stored at
// col*4+row and the translation lives at indices 12, 13 and 14.
type Matrix [16]float32

func IdentityMatrix() Matrix {
	return Matrix{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func MakeTranslation(t Vector3f) Matrix {
	m := IdentityMatrix()
	m[12] = t.X
	m[13] = t.Y
	m[14] = t.Z
	return m
}

func MakeScale(s Vector3f) Matrix {
	m := IdentityMatrix()
	m[0] = s.X
	m[5] = s.Y
	m[10] = s.Z
	return m
}

func MakeRotation(q Quaternion) Matrix {
	q.Normalize()

	xx, yy, zz := q.X*q.X, q.Y*q.Y, q.Z*q.Z
	xy, xz, yz := q.X*q.Y, q.X*q.Z, q.Y*q.Z
	xw, yw, zw := q.X*q.W, q.Y*q.W, q.Z*q.W

	return Matrix{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// MakeTRS returns the matrix that scales, then rotates, then translates.
func MakeTRS(t Vector3f, r Quaternion, s Vector3f) Matrix {
	m := MakeRotation(r)
	for i := 0; i < 3; i++ {
		m[i] *= s.X
		m[4+i] *= s.Y
		m[8+i] *= s.Z
	}
	m[12] = t.X
	m[13] = t.Y
	m[14] = t.Z
	return m
}

func MultiplyMatrix(lhs Matrix, rhs Matrix) Matrix {
	var m Matrix
	MultiplyTo(&m, &lhs, &rhs)
	return m
}

// MultiplyTo stores lhs * rhs in dst. dst may alias either operand.
func MultiplyTo(dst *Matrix, lhs *Matrix, rhs *Matrix) {
	var out Matrix
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c*4+r] = lhs[r]*rhs[c*4] +
				lhs[4+r]*rhs[c*4+1] +
				lhs[8+r]*rhs[c*4+2] +
				lhs[12+r]*rhs[c*4+3]
		}
	}
	*dst = out
}

// InvertRigidTo stores the inverse of the rigid transform m in dst. The
// rotation block is transposed and the translation recomputed, so m must not
// carry scale.
func InvertRigidTo(dst *Matrix, m Matrix) {
	dst[0], dst[1], dst[2], dst[3] = m[0], m[4], m[8], 0
	dst[4], dst[5], dst[6], dst[7] = m[1], m[5], m[9], 0
	dst[8], dst[9], dst[10], dst[11] = m[2], m[6], m[10], 0

	tx, ty, tz := m[12], m[13], m[14]
	dst[12] = -(dst[0]*tx + dst[4]*ty + dst[8]*tz)
	dst[13] = -(dst[1]*tx + dst[5]*ty + dst[9]*tz)
	dst[14] = -(dst[2]*tx + dst[6]*ty + dst[10]*tz)
	dst[15] = 1
}

func (m Matrix) InvertRigid() Matrix {
	var inv Matrix
	InvertRigidTo(&inv, m)
	return inv
}

// Invert returns the general inverse of m. It returns false when m is
// singular.
func (m Matrix) Invert() (Matrix, bool) {
	a00, a01, a02, a03 := m[0], m[1], m[2], m[3]
	a10, a11, a12, a13 := m[4], m[5], m[6], m[7]
	a20, a21, a22, a23 := m[8], m[9], m[10], m[11]
	a30, a31, a32, a33 := m[12], m[13], m[14], m[15]

	b00 := a00*a11 - a01*a10
	b01 := a00*a12 - a02*a10
	b02 := a00*a13 - a03*a10
	b03 := a01*a12 - a02*a11
	b04 := a01*a13 - a03*a11
	b05 := a02*a13 - a03*a12
	b06 := a20*a31 - a21*a30
	b07 := a20*a32 - a22*a30
	b08 := a20*a33 - a23*a30
	b09 := a21*a32 - a22*a31
	b10 := a21*a33 - a23*a31
	b11 := a22*a33 - a23*a32

	det := b00*b11 - b01*b10 + b02*b09 + b03*b08 - b04*b07 + b05*b06
	if AlmostEqualRelativeAndAbs(det, 0) {
		return Matrix{}, false
	}
	det = 1 / det

	return Matrix{
		(a11*b11 - a12*b10 + a13*b09) * det,
		(a02*b10 - a01*b11 - a03*b09) * det,
		(a31*b05 - a32*b04 + a33*b03) * det,
		(a22*b04 - a21*b05 - a23*b03) * det,
		(a12*b08 - a10*b11 - a13*b07) * det,
		(a00*b11 - a02*b08 + a03*b07) * det,
		(a32*b02 - a30*b05 - a33*b01) * det,
		(a20*b05 - a22*b02 + a23*b01) * det,
		(a10*b10 - a11*b08 + a13*b06) * det,
		(a01*b08 - a00*b10 - a03*b06) * det,
		(a30*b04 - a31*b02 + a33*b00) * det,
		(a21*b02 - a20*b04 - a23*b00) * det,
		(a11*b07 - a10*b09 - a12*b06) * det,
		(a00*b09 - a01*b07 + a02*b06) * det,
		(a31*b01 - a30*b03 - a32*b00) * det,
		(a20*b03 - a21*b01 + a22*b00) * det,
	}, true
}

func (m Matrix) Transposed() Matrix {
	var t Matrix
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			t[r*4+c] = m[c*4+r]
		}
	}
	return t
}

func (m Matrix) TransformPoint(p Vector3f) Vector3f {
	return Vector3f{
		X: m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		Y: m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		Z: m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// TransformDirection applies the rotation and scale of m to d, ignoring
// the translation.
func (m Matrix) TransformDirection(d Vector3f) Vector3f {
	return Vector3f{
		X: m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		Y: m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		Z: m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

func (m Matrix) DecomposeTranslation() Vector3f {
	return Vector3f{m[12], m[13], m[14]}
}

// DecomposeScale returns the length of each basis column.
func (m Matrix) DecomposeScale() Vector3f {
	return Vector3f{
		X: Vector3f{m[0], m[1], m[2]}.Length(),
		Y: Vector3f{m[4], m[5], m[6]}.Length(),
		Z: Vector3f{m[8], m[9], m[10]}.Length(),
	}
}

// DecomposeRotation returns the rotation block of m with the given scale
// divided out and the translation removed.
func (m Matrix) DecomposeRotation(scale Vector3f) Matrix {
	r := IdentityMatrix()
	axes := [3]float32{scale.X, scale.Y, scale.Z}
	for c := 0; c < 3; c++ {
		s := axes[c]
		if s == 0 {
			continue
		}
		for i := 0; i < 3; i++ {
			r[c*4+i] = m[c*4+i] / s
		}
	}
	return r
}

// ExtractQuaternion returns the rotation of m as a quaternion.
func (m Matrix) ExtractQuaternion() Quaternion {
	r := m.DecomposeRotation(m.DecomposeScale())

	r00, r11, r22 := r[0], r[5], r[10]
	r10, r20 := r[1], r[2]
	r01, r21 := r[4], r[6]
	r02, r12 := r[8], r[9]

	trace := r00 + r11 + r22
	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		return NewQuaternion((r21-r12)/s, (r02-r20)/s, (r10-r01)/s, 0.25*s)

	case r00 > r11 && r00 > r22:
		s := math32.Sqrt(1+r00-r11-r22) * 2
		return NewQuaternion(0.25*s, (r01+r10)/s, (r02+r20)/s, (r21-r12)/s)

	case r11 > r22:
		s := math32.Sqrt(1+r11-r00-r22) * 2
		return NewQuaternion((r01+r10)/s, 0.25*s, (r12+r21)/s, (r02-r20)/s)

	default:
		s := math32.Sqrt(1+r22-r00-r11) * 2
		return NewQuaternion((r02+r20)/s, (r12+r21)/s, 0.25*s, (r10-r01)/s)
	}
}

func (m Matrix) AlmostEqual(m2 Matrix) bool {
	for i := range m {
		if !AlmostEqualRelativeAndAbs(m[i], m2[i]) {
			return false
		}
	}
	return true
}

func (m Matrix) EqualWithEpsilon(m2 Matrix, epsilon float32) bool {
	for i := range m {
		if !EqualWithEpsilon(m[i], m2[i], epsilon) {
			return false
		}
	}
	return true
}
