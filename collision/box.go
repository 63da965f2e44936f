package collision

import (
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/spatial/geom"
	"github.com/chewxy/math32"
)

// Box is an oriented box. Its rotation is stored as a rotation-only matrix
// whose columns are the box local axes.
type Box struct {
	center   geom.Vector3f
	size     geom.Vector3f
	rotation geom.Matrix
	changeID ChangeID
}

func NewBox(size geom.Vector3f, center geom.Vector3f) *Box {
	b := &Box{
		center:   center,
		size:     size,
		rotation: geom.IdentityMatrix(),
	}
	b.onChanged()
	return b
}

func (b *Box) Kind() Kind {
	return KindBox
}

func (b *Box) ChangeID() *ChangeID {
	return &b.changeID
}

func (b *Box) Center() geom.Vector3f {
	return b.center
}

func (b *Box) SetCenter(center geom.Vector3f) {
	b.center = center
	b.onChanged()
}

func (b *Box) Size() geom.Vector3f {
	return b.size
}

func (b *Box) SetSize(size geom.Vector3f) {
	b.size = size
	b.onChanged()
}

// Extents returns the half size of the box.
func (b *Box) Extents() geom.Vector3f {
	return geom.Mul(b.size, 0.5)
}

func (b *Box) Rotation() geom.Quaternion {
	return b.rotation.ExtractQuaternion()
}

func (b *Box) SetRotation(rotation geom.Quaternion) {
	b.rotation = geom.MakeRotation(rotation)
	b.onChanged()
}

func (b *Box) RotationMatrix() geom.Matrix {
	return b.rotation
}

// axes returns the box local axes in box space.
func (b *Box) axes() [3]geom.Vector3f {
	m := &b.rotation
	return [3]geom.Vector3f{
		{X: m[0], Y: m[1], Z: m[2]},
		{X: m[4], Y: m[5], Z: m[6]},
		{X: m[8], Y: m[9], Z: m[10]},
	}
}

func (b *Box) RayIntersection(r Ray, result *RayHit) bool {
	tMin := math32.Inf(-1)
	tMax := math32.Inf(1)

	delta := geom.Sub(b.center, r.Origin())
	extents := b.Extents()
	min := [3]float32{-extents.X, -extents.Y, -extents.Z}
	max := [3]float32{extents.X, extents.Y, extents.Z}

	for i, axis := range b.axes() {
		e := geom.Dot(axis, delta)
		f := geom.Dot(r.Direction(), axis)

		if !geom.AlmostEqualRelativeAndAbs(f, 0) {
			t1 := (e + min[i]) / f
			t2 := (e + max[i]) / f
			if t1 > t2 {
				geom.Swap(&t1, &t2)
			}

			if t2 < tMax {
				tMax = t2
			}
			if t1 > tMin {
				tMin = t1
			}
			if tMax < tMin {
				return false
			}
		} else if -e+min[i] > 0 || -e+max[i] < 0 {
			// Parallel to the slab and outside of it.
			return false
		}
	}

	if tMax < 0 {
		return false
	}

	// The origin is inside the box when tMin is negative, so the ray leaves
	// through the far face.
	distance := tMin
	if tMin < 0 {
		distance = tMax
	}

	result.Distance = distance
	result.Point = r.Point(distance)
	return true
}

func (b *Box) ShapeIntersection(other Shape) bool {
	return Intersects(b, other)
}

func (b *Box) Transform(p TransformProvider) Shape {
	result := &Box{}
	b.transform(p, result)
	return result
}

func (b *Box) TransformInto(p TransformProvider, dst Shape) error {
	if err := checkTransformDestination(b, dst); err != nil {
		return err
	}

	box, ok := dst.(*Box)
	if !ok {
		logs.WithTag("source", b.Kind().String()).
			WithTag("destination", dst.Kind().String()).
			Warn("cannot transform box into a different shape")
		return nil
	}

	b.transform(p, box)
	return nil
}

func (b *Box) transform(p TransformProvider, dst *Box) {
	m := p.WorldModelMatrix()
	scale := m.DecomposeScale()
	worldRotation := m.DecomposeRotation(scale)

	dst.center = m.TransformPoint(b.center)
	dst.size = geom.Vector3f{
		X: b.size.X * scale.X,
		Y: b.size.Y * scale.Y,
		Z: b.size.Z * scale.Z,
	}
	geom.MultiplyTo(&dst.rotation, &worldRotation, &b.rotation)
	dst.onChanged()
}

func (b *Box) Copy() Shape {
	c := NewBox(b.size, b.center)
	c.rotation = b.rotation
	return c
}

func (b *Box) onChanged() {
	b.changeID.Update()
}
