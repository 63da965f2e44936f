package collision

import (
	"github.com/aukilabs/spatial/geom"
)

// Ray is a half-line with an origin and a unit direction.
type Ray struct {
	origin    geom.Vector3f
	direction geom.Vector3f
}

// NewRay returns a ray starting at origin. direction is normalized, and the
// caller must not pass a zero vector.
func NewRay(origin geom.Vector3f, direction geom.Vector3f) Ray {
	return Ray{
		origin:    origin,
		direction: geom.Normalized(direction),
	}
}

// NewRayFromTo returns a ray starting at from and passing through to.
func NewRayFromTo(from geom.Vector3f, to geom.Vector3f) Ray {
	return NewRay(from, geom.Sub(to, from))
}

func DefaultRay() Ray {
	return Ray{direction: geom.Forward()}
}

func (r Ray) Origin() geom.Vector3f {
	return r.origin
}

func (r Ray) Direction() geom.Vector3f {
	return r.direction
}

func (r *Ray) SetOrigin(origin geom.Vector3f) {
	r.origin = origin
}

func (r *Ray) SetDirection(direction geom.Vector3f) {
	r.direction = geom.Normalized(direction)
}

// Point returns the point at distance along the ray.
func (r Ray) Point(distance float32) geom.Vector3f {
	return geom.Add(r.origin, geom.Mul(r.direction, distance))
}
