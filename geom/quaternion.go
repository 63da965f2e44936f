package geom

import (
	"github.com/chewxy/math32"
)

// SlerpThreshold is the cosine above which Slerp falls back to a normalized
// linear interpolation.
const SlerpThreshold float32 = 0.9995

// Quaternion represents a rotation. Constructors and setters keep it unit
// length, falling back to the identity when normalization is impossible.
type Quaternion struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
	W float32 `json:"w"`
}

// NewQuaternion returns the normalized quaternion (x, y, z, w).
func NewQuaternion(x, y, z, w float32) Quaternion {
	q := Quaternion{X: x, Y: y, Z: z, W: w}
	q.Normalize()
	return q
}

func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// AxisAngle returns the rotation of angle degrees around axis.
func AxisAngle(axis Vector3f, degrees float32) Quaternion {
	half := DegToRad(degrees) * 0.5
	sin := math32.Sin(half)
	cos := math32.Cos(half)
	a := Normalized(axis)
	return NewQuaternion(a.X*sin, a.Y*sin, a.Z*sin, cos)
}

// EulerAngles returns the rotation described by angles in degrees, applied
// around Y first, then X, then Z.
func EulerAngles(angles Vector3f) Quaternion {
	qX := AxisAngle(Right(), angles.X)
	qY := AxisAngle(Up(), angles.Y)
	qZ := AxisAngle(Back(), angles.Z)
	return Multiply(Multiply(qY, qX), qZ)
}

// Multiply returns the Hamilton product lhs * rhs: the rotation that
// applies rhs first, then lhs.
func Multiply(lhs Quaternion, rhs Quaternion) Quaternion {
	return NewQuaternion(
		lhs.W*rhs.X+lhs.X*rhs.W+lhs.Y*rhs.Z-lhs.Z*rhs.Y,
		lhs.W*rhs.Y-lhs.X*rhs.Z+lhs.Y*rhs.W+lhs.Z*rhs.X,
		lhs.W*rhs.Z+lhs.X*rhs.Y-lhs.Y*rhs.X+lhs.Z*rhs.W,
		lhs.W*rhs.W-lhs.X*rhs.X-lhs.Y*rhs.Y-lhs.Z*rhs.Z,
	)
}

func DotQuaternion(a Quaternion, b Quaternion) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
}

// LerpQuaternion interpolates the components linearly and normalizes the
// result.
func LerpQuaternion(a Quaternion, b Quaternion, t float32) Quaternion {
	return NewQuaternion(
		Lerp(a.X, b.X, t),
		Lerp(a.Y, b.Y, t),
		Lerp(a.Z, b.Z, t),
		Lerp(a.W, b.W, t),
	)
}

// Slerp interpolates along the shortest arc between start and end.
func Slerp(start Quaternion, end Quaternion, t float32) Quaternion {
	q0 := start.Normalized()
	q1 := end.Normalized()

	cos := DotQuaternion(q0, q1)
	if cos < 0 {
		q1 = q1.Negated()
		cos = -cos
	}

	if cos > SlerpThreshold {
		return LerpQuaternion(q0, q1, t)
	}

	theta0 := math32.Acos(Clamp(cos, -1, 1))
	thetaT := theta0 * t
	sinTheta0 := math32.Sin(theta0)
	sinThetaT := math32.Sin(thetaT)

	s0 := math32.Cos(thetaT) - cos*sinThetaT/sinTheta0
	s1 := sinThetaT / sinTheta0

	return NewQuaternion(
		s0*q0.X+s1*q1.X,
		s0*q0.Y+s1*q1.Y,
		s0*q0.Z+s1*q1.Z,
		s0*q0.W+s1*q1.W,
	)
}

// RotationBetweenVectors returns the shortest rotation that turns start
// into end.
func RotationBetweenVectors(start Vector3f, end Vector3f) Quaternion {
	start = Normalized(start)
	end = Normalized(end)

	cos := Dot(start, end)
	if cos < -1+0.001 {
		// Nearly opposite directions: half turn around any perpendicular
		// axis, then the small remaining arc from -start to end.
		axis := Cross(Back(), start)
		if axis.LengthSquared() < 0.01 {
			axis = Cross(Right(), start)
		}
		return Multiply(RotationBetweenVectors(start.Negated(), end), AxisAngle(axis, 180))
	}

	axis := Cross(start, end)
	s := math32.Sqrt((1 + cos) * 2)
	invS := 1 / s
	return NewQuaternion(axis.X*invS, axis.Y*invS, axis.Z*invS, s*0.5)
}

// LookRotation returns a rotation whose forward axis points along forward
// and whose up axis is up re-orthogonalized against forward.
func LookRotation(forward Vector3f, up Vector3f) Quaternion {
	rotateForward := RotationBetweenVectors(Forward(), forward)

	right := Cross(forward, up)
	up = Cross(right, forward)

	newUp := rotateForward.RotateVector(Up())
	if Dot(Normalized(newUp), Normalized(up)) < -1+0.001 {
		// Both ups are orthogonal to forward, so a half turn around it keeps
		// forward in place.
		halfTurn := AxisAngle(forward, 180)
		rotateUp := RotationBetweenVectors(newUp.Negated(), up)
		return Multiply(rotateUp, Multiply(halfTurn, rotateForward))
	}

	rotateUp := RotationBetweenVectors(newUp, up)
	return Multiply(rotateUp, rotateForward)
}

// Normalize scales q to unit length. It sets q to the identity and returns
// false when q is too close to zero.
func (q *Quaternion) Normalize() bool {
	normSquared := DotQuaternion(*q, *q)
	if AlmostEqualRelativeAndAbs(normSquared, 0) {
		*q = IdentityQuaternion()
		return false
	}

	if normSquared != 1 {
		inv := 1 / math32.Sqrt(normSquared)
		q.X *= inv
		q.Y *= inv
		q.Z *= inv
		q.W *= inv
	}
	return true
}

func (q Quaternion) Normalized() Quaternion {
	q.Normalize()
	return q
}

// Inverted returns the conjugate of q, which is its inverse when q is unit
// length.
func (q Quaternion) Inverted() Quaternion {
	return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Negated flips every component. The result represents the same rotation.
func (q Quaternion) Negated() Quaternion {
	return Quaternion{X: -q.X, Y: -q.Y, Z: -q.Z, W: -q.W}
}

func (q Quaternion) RotateVector(v Vector3f) Vector3f {
	w2 := q.W * q.W
	x2 := q.X * q.X
	y2 := q.Y * q.Y
	z2 := q.Z * q.Z
	zw := q.Z * q.W
	xy := q.X * q.Y
	xz := q.X * q.Z
	yw := q.Y * q.W
	yz := q.Y * q.Z
	xw := q.X * q.W

	m00 := w2 + x2 - z2 - y2
	m01 := xy + zw + zw + xy
	m02 := xz - yw + xz - yw
	m10 := -zw + xy - zw + xy
	m11 := y2 - z2 + w2 - x2
	m12 := yz + yz + xw + xw
	m20 := yw + xz + xz + yw
	m21 := yz + yz - xw - xw
	m22 := z2 - y2 - x2 + w2

	return Vector3f{
		X: m00*v.X + m10*v.Y + m20*v.Z,
		Y: m01*v.X + m11*v.Y + m21*v.Z,
		Z: m02*v.X + m12*v.Y + m22*v.Z,
	}
}

func (q Quaternion) InverseRotateVector(v Vector3f) Vector3f {
	return q.Inverted().RotateVector(v)
}

// AlmostEqual reports whether q and q2 have almost the same components.
// q and its negation represent the same rotation but are not equal.
func (q Quaternion) AlmostEqual(q2 Quaternion) bool {
	return AlmostEqualRelativeAndAbs(DotQuaternion(q, q2), 1)
}
