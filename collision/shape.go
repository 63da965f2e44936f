package collision

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/spatial/geom"
)

const (
	ErrTypeInvalidArgument = "invalid_argument"
)

// Kind identifies the concrete type of a Shape.
type Kind int

const (
	KindSphere Kind = iota
	KindBox
	KindPlane

	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindBox:
		return "box"
	case KindPlane:
		return "plane"
	default:
		return "unknown"
	}
}

// TransformProvider supplies the current world matrix of the object a
// collider is attached to.
type TransformProvider interface {
	WorldModelMatrix() geom.Matrix
}

// A Shape is a collision volume expressed in the space of its owner.
type Shape interface {
	Kind() Kind

	// ChangeID returns the token bumped by every mutation of the shape.
	ChangeID() *ChangeID

	// RayIntersection reports whether the ray hits the shape and writes the
	// hit distance and point into result.
	RayIntersection(r Ray, result *RayHit) bool

	// ShapeIntersection reports whether the shape overlaps other.
	ShapeIntersection(other Shape) bool

	// Transform returns a copy of the shape transformed by the provider's
	// world matrix.
	Transform(p TransformProvider) Shape

	// TransformInto refreshes dst with the shape transformed by the
	// provider's world matrix. dst must have the same Kind and must not be
	// the shape itself.
	TransformInto(p TransformProvider, dst Shape) error

	Copy() Shape
}

func checkTransformDestination(src Shape, dst Shape) error {
	if dst == nil {
		return errors.New("transform destination is nil").
			WithType(ErrTypeInvalidArgument).
			WithTag("kind", src.Kind().String())
	}

	if src == dst {
		return errors.New("shape cannot be transformed into itself").
			WithType(ErrTypeInvalidArgument).
			WithTag("kind", src.Kind().String())
	}
	return nil
}

// maxScale returns the largest absolute scale factor of m, the sphere
// radius multiplier that keeps the scaled volume enclosed.
func maxScale(m geom.Matrix) float32 {
	scale := m.DecomposeScale()
	max := scale.ComponentMax()
	if min := -scale.ComponentMin(); min > max {
		return min
	}
	return max
}
