package geom

import (
	"github.com/chewxy/math32"
)

const (
	// FloatEpsilon is the float32 machine epsilon.
	FloatEpsilon float32 = 1.19209290e-07

	// MaxDelta is the absolute tolerance used by AlmostEqualRelativeAndAbs
	// for values close to zero.
	MaxDelta float32 = 1.0e-10
)

// AlmostEqualRelativeAndAbs reports whether a and b are equal within an
// absolute tolerance near zero and a relative tolerance elsewhere.
func AlmostEqualRelativeAndAbs(a, b float32) bool {
	diff := math32.Abs(a - b)
	if diff <= MaxDelta {
		return true
	}

	largest := math32.Max(math32.Abs(a), math32.Abs(b))
	return diff <= largest*FloatEpsilon
}

func EqualWithEpsilon(a float32, b float32, epsilon float32) bool {
	return math32.Abs(a-b) <= epsilon
}

func Swap(a *float32, b *float32) {
	*a, *b = *b, *a
}

func Clamp(value, min, max float32) float32 {
	return math32.Min(max, math32.Max(min, value))
}

func Clamp01(value float32) float32 {
	return Clamp(value, 0, 1)
}

func Lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

func DegToRad(degrees float32) float32 {
	return degrees * (math32.Pi / 180)
}

func RadToDeg(radians float32) float32 {
	return radians * (180 / math32.Pi)
}
