package collision

import (
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/spatial/geom"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/require"
)

func TestRay(t *testing.T) {
	r := NewRay(geom.Vector3f{X: 1}, geom.Vector3f{Z: -10})
	require.True(t, geom.Forward().Equal(r.Direction()))
	require.True(t, geom.Vector3f{X: 1, Z: -3}.Equal(r.Point(3)))

	r = NewRayFromTo(geom.Zero(), geom.Vector3f{Y: 4})
	require.True(t, geom.Up().Equal(r.Direction()))

	r = DefaultRay()
	require.True(t, geom.Forward().Equal(r.Direction()))

	r.SetDirection(geom.Vector3f{X: 3})
	require.True(t, geom.Right().Equal(r.Direction()))
}

func TestRayHit(t *testing.T) {
	h := NewRayHit()
	require.False(t, h.IsHit())
	require.True(t, math32.IsInf(h.Distance, 1))

	h.Set(RayHit{Distance: 2, Point: geom.One()})
	require.True(t, h.IsHit())

	h.Reset()
	require.False(t, h.IsHit())
	require.True(t, geom.Zero().Equal(h.Point))
}

func TestSphereRayIntersection(t *testing.T) {
	sphere := NewSphere(2, geom.Zero())

	t.Run("round trip", func(t *testing.T) {
		for _, d := range []float32{2.5, 5, 10, 100} {
			hit := NewRayHit()
			r := NewRay(geom.Vector3f{Z: d}, geom.Forward())
			require.True(t, sphere.RayIntersection(r, &hit))
			require.True(t, geom.EqualWithEpsilon(hit.Distance, d-2, 1e-4), "distance %v", hit.Distance)
			require.True(t, geom.Vector3f{Z: 2}.EqualWithEpsilon(hit.Point, 1e-4))
		}
	})

	t.Run("origin inside", func(t *testing.T) {
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{Z: 1}, geom.Forward())
		require.True(t, sphere.RayIntersection(r, &hit))
		require.True(t, geom.EqualWithEpsilon(hit.Distance, 3, 1e-4))
	})

	t.Run("miss", func(t *testing.T) {
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{X: 3, Z: 5}, geom.Forward())
		require.False(t, sphere.RayIntersection(r, &hit))
		require.False(t, hit.IsHit())
	})

	t.Run("behind", func(t *testing.T) {
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{Z: 5}, geom.Back())
		require.False(t, sphere.RayIntersection(r, &hit))
	})
}

func TestSphereTransform(t *testing.T) {
	sphere := NewSphere(2, geom.Vector3f{X: 1})
	p := newCountingTransform(geom.MakeTRS(
		geom.Vector3f{Y: 3},
		geom.AxisAngle(geom.Back(), 90),
		geom.Vector3f{X: 1, Y: 3, Z: -5},
	))

	world := sphere.Transform(p).(*Sphere)
	require.True(t, geom.Vector3f{Y: 4}.EqualWithEpsilon(world.Center(), 1e-5), "center %+v", world.Center())
	require.True(t, geom.EqualWithEpsilon(world.Radius(), 10, 1e-4))

	t.Run("into existing", func(t *testing.T) {
		dst := NewSphere(0, geom.Zero())
		before := dst.ChangeID().Get()
		require.NoError(t, sphere.TransformInto(p, dst))
		require.True(t, geom.EqualWithEpsilon(dst.Radius(), 10, 1e-4))
		require.NotEqual(t, before, dst.ChangeID().Get())
	})

	t.Run("into itself", func(t *testing.T) {
		err := sphere.TransformInto(p, sphere)
		require.Error(t, err)
		require.True(t, errors.IsType(err, ErrTypeInvalidArgument))
	})

	t.Run("into other kind", func(t *testing.T) {
		dst := NewBox(geom.One(), geom.Zero())
		require.NoError(t, sphere.TransformInto(p, dst))
		require.True(t, geom.Zero().Equal(dst.Center()))
	})
}

func TestBoxRayIntersection(t *testing.T) {
	t.Run("outside", func(t *testing.T) {
		box := NewBox(geom.Vector3f{X: 2, Y: 2, Z: 2}, geom.Zero())
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{Z: 5}, geom.Forward())
		require.True(t, box.RayIntersection(r, &hit))
		require.True(t, geom.EqualWithEpsilon(hit.Distance, 4, 1e-5))
		require.True(t, geom.Vector3f{Z: 1}.EqualWithEpsilon(hit.Point, 1e-5))
	})

	t.Run("origin inside", func(t *testing.T) {
		box := NewBox(geom.Vector3f{X: 2, Y: 4, Z: 6}, geom.Zero())

		tests := []struct {
			direction geom.Vector3f
			distance  float32
		}{
			{direction: geom.Right(), distance: 1},
			{direction: geom.Left(), distance: 1},
			{direction: geom.Up(), distance: 2},
			{direction: geom.Down(), distance: 2},
			{direction: geom.Forward(), distance: 3},
			{direction: geom.Back(), distance: 3},
		}

		for _, test := range tests {
			hit := NewRayHit()
			r := NewRay(geom.Zero(), test.direction)
			require.True(t, box.RayIntersection(r, &hit))
			require.True(t, geom.EqualWithEpsilon(hit.Distance, test.distance, 1e-5), "%+v: %v", test.direction, hit.Distance)
		}
	})

	t.Run("origin inside off center", func(t *testing.T) {
		box := NewBox(geom.Vector3f{X: 2, Y: 2, Z: 2}, geom.Vector3f{X: 10})
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{X: 10.5}, geom.Right())
		require.True(t, box.RayIntersection(r, &hit))
		require.True(t, geom.EqualWithEpsilon(hit.Distance, 0.5, 1e-5))
	})

	t.Run("rotated", func(t *testing.T) {
		box := NewBox(geom.Vector3f{X: 2, Y: 2, Z: 2}, geom.Zero())
		box.SetRotation(geom.AxisAngle(geom.Up(), 45))

		hit := NewRayHit()
		r := NewRay(geom.Vector3f{Z: 5}, geom.Forward())
		require.True(t, box.RayIntersection(r, &hit))
		require.True(t, geom.EqualWithEpsilon(hit.Distance, 5-math32.Sqrt2, 1e-4), "distance %v", hit.Distance)
	})

	t.Run("parallel outside", func(t *testing.T) {
		box := NewBox(geom.Vector3f{X: 2, Y: 2, Z: 2}, geom.Zero())
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{Y: 3, Z: 5}, geom.Forward())
		require.False(t, box.RayIntersection(r, &hit))
	})

	t.Run("behind", func(t *testing.T) {
		box := NewBox(geom.Vector3f{X: 2, Y: 2, Z: 2}, geom.Zero())
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{Z: 5}, geom.Back())
		require.False(t, box.RayIntersection(r, &hit))
	})

	t.Run("miss diagonal", func(t *testing.T) {
		box := NewBox(geom.Vector3f{X: 2, Y: 2, Z: 2}, geom.Zero())
		hit := NewRayHit()
		r := NewRayFromTo(geom.Vector3f{X: 3, Z: 5}, geom.Vector3f{X: 3.5, Z: 0})
		require.False(t, box.RayIntersection(r, &hit))
	})
}

func TestBoxTransform(t *testing.T) {
	box := NewBox(geom.Vector3f{X: 1, Y: 2, Z: 3}, geom.Vector3f{X: 1})
	box.SetRotation(geom.AxisAngle(geom.Back(), 90))

	worldRotation := geom.AxisAngle(geom.Up(), 90)
	p := newCountingTransform(geom.MakeTRS(geom.Vector3f{X: 1, Y: 2, Z: 3}, worldRotation, geom.Vector3f{X: 2, Y: 2, Z: 2}))

	world := box.Transform(p).(*Box)
	require.True(t, geom.Vector3f{X: 1, Y: 2, Z: 1}.EqualWithEpsilon(world.Center(), 1e-5), "center %+v", world.Center())
	require.True(t, geom.Vector3f{X: 2, Y: 4, Z: 6}.EqualWithEpsilon(world.Size(), 1e-5), "size %+v", world.Size())

	expected := geom.MakeRotation(geom.Multiply(worldRotation, geom.AxisAngle(geom.Back(), 90)))
	require.True(t, expected.EqualWithEpsilon(world.RotationMatrix(), 1e-5))

	t.Run("into itself", func(t *testing.T) {
		err := box.TransformInto(p, box)
		require.True(t, errors.IsType(err, ErrTypeInvalidArgument))
	})

	t.Run("into nil", func(t *testing.T) {
		err := box.TransformInto(p, nil)
		require.True(t, errors.IsType(err, ErrTypeInvalidArgument))
	})
}

func TestBoxAccessors(t *testing.T) {
	box := NewBox(geom.Vector3f{X: 2, Y: 4, Z: 6}, geom.Zero())
	require.True(t, geom.Vector3f{X: 1, Y: 2, Z: 3}.Equal(box.Extents()))

	rotation := geom.AxisAngle(geom.Vector3f{X: 1, Y: 1}, 60)
	box.SetRotation(rotation)
	require.True(t, geom.EqualWithEpsilon(math32.Abs(geom.DotQuaternion(rotation, box.Rotation())), 1, 1e-5))

	c := box.Copy().(*Box)
	require.Equal(t, box.RotationMatrix(), c.RotationMatrix())
	require.True(t, box.Size().Equal(c.Size()))
}

func TestPlaneRayIntersection(t *testing.T) {
	plane := NewPlane(geom.Vector3f{Y: -1}, geom.Vector3f{Y: 10})
	require.True(t, geom.Up().Equal(plane.Normal()))

	t.Run("hit", func(t *testing.T) {
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{Y: 4}, geom.Down())
		require.True(t, plane.RayIntersection(r, &hit))
		require.True(t, geom.EqualWithEpsilon(hit.Distance, 5, 1e-5))
		require.True(t, geom.Vector3f{Y: -1}.EqualWithEpsilon(hit.Point, 1e-5))
	})

	t.Run("hit from below", func(t *testing.T) {
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{Y: -3}, geom.Up())
		require.True(t, plane.RayIntersection(r, &hit))
		require.True(t, geom.EqualWithEpsilon(hit.Distance, 2, 1e-5))
	})

	t.Run("parallel", func(t *testing.T) {
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{Y: 4}, geom.Forward())
		require.False(t, plane.RayIntersection(r, &hit))
	})

	t.Run("behind", func(t *testing.T) {
		hit := NewRayHit()
		r := NewRay(geom.Vector3f{Y: 4}, geom.Up())
		require.False(t, plane.RayIntersection(r, &hit))
	})
}

func TestPlaneTransform(t *testing.T) {
	plane := NewPlane(geom.Zero(), geom.Up())
	p := newCountingTransform(geom.MakeTRS(geom.Vector3f{Y: 5}, geom.AxisAngle(geom.Back(), 90), geom.Vector3f{X: 1, Y: 4, Z: 1}))

	world := plane.Transform(p).(*Plane)
	require.True(t, geom.Vector3f{Y: 5}.EqualWithEpsilon(world.Center(), 1e-5))
	require.True(t, geom.Left().EqualWithEpsilon(world.Normal(), 1e-5), "normal %+v", world.Normal())
	require.True(t, geom.EqualWithEpsilon(world.Normal().Length(), 1, 1e-5))
}

func TestShapeMutatorsBumpChangeID(t *testing.T) {
	sphere := NewSphere(1, geom.Zero())
	box := NewBox(geom.One(), geom.Zero())
	plane := NewPlane(geom.Zero(), geom.Up())

	mutations := []struct {
		name   string
		shape  Shape
		mutate func()
	}{
		{name: "sphere center", shape: sphere, mutate: func() { sphere.SetCenter(geom.One()) }},
		{name: "sphere radius", shape: sphere, mutate: func() { sphere.SetRadius(3) }},
		{name: "box center", shape: box, mutate: func() { box.SetCenter(geom.One()) }},
		{name: "box size", shape: box, mutate: func() { box.SetSize(geom.One()) }},
		{name: "box rotation", shape: box, mutate: func() { box.SetRotation(geom.IdentityQuaternion()) }},
		{name: "plane center", shape: plane, mutate: func() { plane.SetCenter(geom.One()) }},
		{name: "plane normal", shape: plane, mutate: func() { plane.SetNormal(geom.Right()) }},
	}

	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			before := m.shape.ChangeID().Get()
			m.mutate()
			require.True(t, m.shape.ChangeID().CheckChanged(before))
		})
	}
}
