package collision

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/spatial/geom"
	"github.com/chewxy/math32"
)

// nearZeroThreshold is the smallest ray/normal cosine considered not
// parallel.
const nearZeroThreshold float32 = 1e-6

// Plane is an infinite plane through center, facing normal.
type Plane struct {
	center   geom.Vector3f
	normal   geom.Vector3f
	changeID ChangeID
}

func NewPlane(center geom.Vector3f, normal geom.Vector3f) *Plane {
	p := &Plane{
		center: center,
		normal: geom.Normalized(normal),
	}
	p.onChanged()
	return p
}

func (p *Plane) Kind() Kind {
	return KindPlane
}

func (p *Plane) ChangeID() *ChangeID {
	return &p.changeID
}

func (p *Plane) Center() geom.Vector3f {
	return p.center
}

func (p *Plane) SetCenter(center geom.Vector3f) {
	p.center = center
	p.onChanged()
}

func (p *Plane) Normal() geom.Vector3f {
	return p.normal
}

func (p *Plane) SetNormal(normal geom.Vector3f) {
	p.normal = geom.Normalized(normal)
	p.onChanged()
}

// SignedDistance returns the distance of point to the plane, positive on
// the side the normal points to.
func (p *Plane) SignedDistance(point geom.Vector3f) float32 {
	return geom.Dot(geom.Sub(point, p.center), p.normal)
}

func (p *Plane) RayIntersection(r Ray, result *RayHit) bool {
	denominator := geom.Dot(r.Direction(), p.normal)
	if math32.Abs(denominator) <= nearZeroThreshold {
		return false
	}

	distance := geom.Dot(geom.Sub(p.center, r.Origin()), p.normal) / denominator
	if distance < 0 {
		return false
	}

	result.Distance = distance
	result.Point = r.Point(distance)
	return true
}

func (p *Plane) ShapeIntersection(other Shape) bool {
	return Intersects(p, other)
}

func (p *Plane) Transform(provider TransformProvider) Shape {
	result := &Plane{}
	p.transform(provider, result)
	return result
}

func (p *Plane) TransformInto(provider TransformProvider, dst Shape) error {
	if err := checkTransformDestination(p, dst); err != nil {
		return err
	}

	plane, ok := dst.(*Plane)
	if !ok {
		logs.WithTag("source", p.Kind().String()).
			WithTag("destination", dst.Kind().String()).
			Warn("cannot transform plane into a different shape")
		return nil
	}

	p.transform(provider, plane)
	return nil
}

func (p *Plane) transform(provider TransformProvider, dst *Plane) {
	m := provider.WorldModelMatrix()
	scale := m.DecomposeScale()
	rotation := m.DecomposeRotation(scale)

	// Normals follow the inverse transpose, which for a TRS matrix means
	// dividing by the scale before rotating.
	normal := p.normal
	if scale.X != 0 {
		normal.X /= scale.X
	}
	if scale.Y != 0 {
		normal.Y /= scale.Y
	}
	if scale.Z != 0 {
		normal.Z /= scale.Z
	}

	dst.center = m.TransformPoint(p.center)
	dst.normal = geom.Normalized(rotation.TransformDirection(normal))
	dst.onChanged()
}

func (p *Plane) Copy() Shape {
	return NewPlane(p.center, p.normal)
}

func (p *Plane) onChanged() {
	p.changeID.Update()
}
