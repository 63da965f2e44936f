package collision

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/spatial/geom"
	"github.com/chewxy/math32"
)

type Sphere struct {
	center   geom.Vector3f
	radius   float32
	changeID ChangeID
}

func NewSphere(radius float32, center geom.Vector3f) *Sphere {
	s := &Sphere{
		center: center,
		radius: radius,
	}
	s.onChanged()
	return s
}

func (s *Sphere) Kind() Kind {
	return KindSphere
}

func (s *Sphere) ChangeID() *ChangeID {
	return &s.changeID
}

func (s *Sphere) Center() geom.Vector3f {
	return s.center
}

func (s *Sphere) SetCenter(center geom.Vector3f) {
	s.center = center
	s.onChanged()
}

func (s *Sphere) Radius() float32 {
	return s.radius
}

func (s *Sphere) SetRadius(radius float32) {
	s.radius = radius
	s.onChanged()
}

func (s *Sphere) RayIntersection(r Ray, result *RayHit) bool {
	diff := geom.Sub(r.Origin(), s.center)
	b := 2 * geom.Dot(diff, r.Direction())
	c := geom.Dot(diff, diff) - s.radius*s.radius
	discriminant := b*b - 4*c
	if discriminant < 0 {
		return false
	}

	sqrt := math32.Sqrt(discriminant)
	tMinus := (-b - sqrt) / 2
	tPlus := (-b + sqrt) / 2
	if tMinus < 0 && tPlus < 0 {
		return false
	}

	// A negative near root means the origin is inside the sphere.
	distance := tMinus
	if tMinus < 0 {
		distance = tPlus
	}

	result.Distance = distance
	result.Point = r.Point(distance)
	return true
}

func (s *Sphere) ShapeIntersection(other Shape) bool {
	return Intersects(s, other)
}

func (s *Sphere) Transform(p TransformProvider) Shape {
	result := &Sphere{}
	s.transform(p, result)
	return result
}

func (s *Sphere) TransformInto(p TransformProvider, dst Shape) error {
	if err := checkTransformDestination(s, dst); err != nil {
		return err
	}

	sphere, ok := dst.(*Sphere)
	if !ok {
		logs.WithTag("source", s.Kind().String()).
			WithTag("destination", dst.Kind().String()).
			Warn("cannot transform sphere into a different shape")
		return nil
	}

	s.transform(p, sphere)
	return nil
}

func (s *Sphere) transform(p TransformProvider, dst *Sphere) {
	m := p.WorldModelMatrix()
	dst.center = m.TransformPoint(s.center)
	dst.radius = s.radius * maxScale(m)
	dst.onChanged()
}

func (s *Sphere) Copy() Shape {
	return NewSphere(s.radius, s.center)
}

func (s *Sphere) onChanged() {
	s.changeID.Update()
}
