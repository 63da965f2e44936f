package collision

import (
	"github.com/aukilabs/spatial/geom"
	"github.com/chewxy/math32"
)

// satEpsilon pads the absolute relative rotation so that nearly parallel
// edges produce a near-zero cross product instead of a false separation.
const satEpsilon float32 = 1e-6

type intersectionFunc func(a Shape, b Shape) bool

// intersectionTests holds the pairwise overlap test of every kind pair. Both
// orders of a pair are registered so lookups never need to swap.
var intersectionTests = newIntersectionTests()

func newIntersectionTests() [kindCount][kindCount]intersectionFunc {
	var tests [kindCount][kindCount]intersectionFunc

	register := func(a, b Kind, test intersectionFunc) {
		tests[a][b] = test
		if a != b {
			tests[b][a] = func(x, y Shape) bool {
				return test(y, x)
			}
		}
	}

	register(KindSphere, KindSphere, func(a, b Shape) bool {
		return sphereSphereIntersection(a.(*Sphere), b.(*Sphere))
	})
	register(KindSphere, KindBox, func(a, b Shape) bool {
		return sphereBoxIntersection(a.(*Sphere), b.(*Box))
	})
	register(KindBox, KindBox, func(a, b Shape) bool {
		return boxBoxIntersection(a.(*Box), b.(*Box))
	})
	register(KindPlane, KindSphere, func(a, b Shape) bool {
		return planeSphereIntersection(a.(*Plane), b.(*Sphere))
	})
	register(KindPlane, KindBox, func(a, b Shape) bool {
		return planeBoxIntersection(a.(*Plane), b.(*Box))
	})
	register(KindPlane, KindPlane, func(a, b Shape) bool {
		return planePlaneIntersection(a.(*Plane), b.(*Plane))
	})
	return tests
}

// Intersects reports whether a and b overlap. Both shapes must be expressed
// in the same space. It returns false when either shape is nil.
func Intersects(a Shape, b Shape) bool {
	if a == nil || b == nil {
		return false
	}

	test := intersectionTests[a.Kind()][b.Kind()]
	if test == nil {
		return false
	}
	return test(a, b)
}

func sphereSphereIntersection(a *Sphere, b *Sphere) bool {
	radii := a.radius + b.radius
	diff := geom.Sub(a.center, b.center)
	return diff.LengthSquared() <= radii*radii
}

func sphereBoxIntersection(s *Sphere, b *Box) bool {
	d := geom.Sub(s.center, b.center)
	extents := b.Extents()
	halfSizes := [3]float32{extents.X, extents.Y, extents.Z}

	closest := b.center
	for i, axis := range b.axes() {
		dist := geom.Clamp(geom.Dot(d, axis), -halfSizes[i], halfSizes[i])
		closest.Add(geom.Mul(axis, dist))
	}

	diff := geom.Sub(closest, s.center)
	return diff.LengthSquared() <= s.radius*s.radius
}

// boxBoxIntersection runs the separating axis test over the 3 face axes of
// each box and the 9 edge cross products.
func boxBoxIntersection(a *Box, b *Box) bool {
	axesA := a.axes()
	axesB := b.axes()
	eA := extentsArray(a)
	eB := extentsArray(b)

	d := geom.Sub(b.center, a.center)

	var r, absR [3][3]float32
	var t [3]float32
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = geom.Dot(axesA[i], axesB[j])
			absR[i][j] = math32.Abs(r[i][j]) + satEpsilon
		}
		t[i] = geom.Dot(d, axesA[i])
	}

	for i := 0; i < 3; i++ {
		ra := eA[i]
		rb := eB[0]*absR[i][0] + eB[1]*absR[i][1] + eB[2]*absR[i][2]
		if math32.Abs(t[i]) > ra+rb {
			return false
		}
	}

	for j := 0; j < 3; j++ {
		ra := eA[0]*absR[0][j] + eA[1]*absR[1][j] + eA[2]*absR[2][j]
		rb := eB[j]
		if math32.Abs(t[0]*r[0][j]+t[1]*r[1][j]+t[2]*r[2][j]) > ra+rb {
			return false
		}
	}

	for i := 0; i < 3; i++ {
		i1, i2 := (i+1)%3, (i+2)%3
		for j := 0; j < 3; j++ {
			j1, j2 := (j+1)%3, (j+2)%3

			ra := eA[i1]*absR[i2][j] + eA[i2]*absR[i1][j]
			rb := eB[j1]*absR[i][j2] + eB[j2]*absR[i][j1]
			if math32.Abs(t[i2]*r[i1][j]-t[i1]*r[i2][j]) > ra+rb {
				return false
			}
		}
	}
	return true
}

func planeSphereIntersection(p *Plane, s *Sphere) bool {
	return math32.Abs(p.SignedDistance(s.center)) <= s.radius
}

func planeBoxIntersection(p *Plane, b *Box) bool {
	e := extentsArray(b)
	var radius float32
	for i, axis := range b.axes() {
		radius += e[i] * math32.Abs(geom.Dot(axis, p.normal))
	}
	return math32.Abs(p.SignedDistance(b.center)) <= radius
}

// planePlaneIntersection reports false only for distinct parallel planes.
func planePlaneIntersection(a *Plane, b *Plane) bool {
	if !geom.AlmostEqualRelativeAndAbs(geom.Cross(a.normal, b.normal).LengthSquared(), 0) {
		return true
	}
	return math32.Abs(a.SignedDistance(b.center)) <= nearZeroThreshold
}

func extentsArray(b *Box) [3]float32 {
	e := b.Extents()
	return [3]float32{e.X, e.Y, e.Z}
}
