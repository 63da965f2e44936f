package geom

import (
	"github.com/chewxy/math32"
)

// Vector3f is a 3D vector. The zero value is the zero vector.
type Vector3f struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func NewVector3f(x, y, z float32) Vector3f {
	return Vector3f{X: x, Y: y, Z: z}
}

func Zero() Vector3f {
	return Vector3f{}
}

func One() Vector3f {
	return Vector3f{1, 1, 1}
}

// Forward returns the forward direction, which looks down negative Z.
func Forward() Vector3f {
	return Vector3f{0, 0, -1}
}

func Back() Vector3f {
	return Vector3f{0, 0, 1}
}

func Up() Vector3f {
	return Vector3f{0, 1, 0}
}

func Down() Vector3f {
	return Vector3f{0, -1, 0}
}

func Right() Vector3f {
	return Vector3f{1, 0, 0}
}

func Left() Vector3f {
	return Vector3f{-1, 0, 0}
}

func Add(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Mul(a Vector3f, s float32) Vector3f {
	return Vector3f{a.X * s, a.Y * s, a.Z * s}
}

func Dot(a Vector3f, b Vector3f) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func Cross(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.Y*b.Z - a.Z*b.Y, a.Z*b.X - a.X*b.Z, a.X*b.Y - a.Y*b.X}
}

// Normalized returns a unit vector with the direction of a, or the zero
// vector when a is too short to have a direction.
func Normalized(a Vector3f) Vector3f {
	lengthSquared := a.LengthSquared()
	if AlmostEqualRelativeAndAbs(lengthSquared, 0) {
		return Vector3f{}
	}
	return Mul(a, 1/math32.Sqrt(lengthSquared))
}

// LerpVector interpolates linearly between a and b. t is not clamped.
func LerpVector(a Vector3f, b Vector3f, t float32) Vector3f {
	return Vector3f{
		X: Lerp(a.X, b.X, t),
		Y: Lerp(a.Y, b.Y, t),
		Z: Lerp(a.Z, b.Z, t),
	}
}

// AngleBetween returns the angle between a and b in degrees.
func AngleBetween(a Vector3f, b Vector3f) float32 {
	length := a.Length() * b.Length()
	if AlmostEqualRelativeAndAbs(length, 0) {
		return 0
	}

	cos := Clamp(Dot(a, b)/length, -1, 1)
	return RadToDeg(math32.Acos(cos))
}

func Min(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{math32.Min(a.X, b.X), math32.Min(a.Y, b.Y), math32.Min(a.Z, b.Z)}
}

func Max(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{math32.Max(a.X, b.X), math32.Max(a.Y, b.Y), math32.Max(a.Z, b.Z)}
}

func (v *Vector3f) Add(v2 Vector3f) {
	v.X += v2.X
	v.Y += v2.Y
	v.Z += v2.Z
}

func (v Vector3f) Scaled(s float32) Vector3f {
	return Mul(v, s)
}

func (v Vector3f) Negated() Vector3f {
	return Vector3f{-v.X, -v.Y, -v.Z}
}

func (v Vector3f) Dot(v2 Vector3f) float32 {
	return Dot(v, v2)
}

func (v Vector3f) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vector3f) Length() float32 {
	return math32.Sqrt(v.LengthSquared())
}

func (v *Vector3f) NormalizeInPlace() {
	*v = Normalized(*v)
}

func (v Vector3f) Normalized() Vector3f {
	return Normalized(v)
}

func (v Vector3f) ComponentMax() float32 {
	return math32.Max(v.X, math32.Max(v.Y, v.Z))
}

func (v Vector3f) ComponentMin() float32 {
	return math32.Min(v.X, math32.Min(v.Y, v.Z))
}

func (v Vector3f) Equal(v2 Vector3f) bool {
	return v.X == v2.X && v.Y == v2.Y && v.Z == v2.Z
}

func (v Vector3f) EqualWithEpsilon(v2 Vector3f, epsilon float32) bool {
	return EqualWithEpsilon(v.X, v2.X, epsilon) &&
		EqualWithEpsilon(v.Y, v2.Y, epsilon) &&
		EqualWithEpsilon(v.Z, v2.Z, epsilon)
}

// AlmostEqual compares each component with AlmostEqualRelativeAndAbs.
func (v Vector3f) AlmostEqual(v2 Vector3f) bool {
	return AlmostEqualRelativeAndAbs(v.X, v2.X) &&
		AlmostEqualRelativeAndAbs(v.Y, v2.Y) &&
		AlmostEqualRelativeAndAbs(v.Z, v2.Z)
}
