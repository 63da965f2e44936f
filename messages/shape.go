package messages

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/spatial/collision"
	"github.com/aukilabs/spatial/geom"
)

const (
	ShapeKindSphere = "sphere"
	ShapeKindBox    = "box"
	ShapeKindPlane  = "plane"
)

// ShapeDef describes a collision shape in entity space.
type ShapeDef struct {
	Kind     string           `json:"kind"`
	Center   geom.Vector3f    `json:"center"`
	Radius   float32          `json:"radius,omitempty"`
	Size     geom.Vector3f    `json:"size,omitempty"`
	Rotation *geom.Quaternion `json:"rotation,omitempty"`
	Normal   geom.Vector3f    `json:"normal,omitempty"`
}

// Shape builds the collision shape described by d.
func (d ShapeDef) Shape() (collision.Shape, error) {
	switch d.Kind {
	case ShapeKindSphere:
		if d.Radius < 0 {
			return nil, d.invalid("sphere radius is negative")
		}
		return collision.NewSphere(d.Radius, d.Center), nil

	case ShapeKindBox:
		if d.Size.X < 0 || d.Size.Y < 0 || d.Size.Z < 0 {
			return nil, d.invalid("box size is negative")
		}

		box := collision.NewBox(d.Size, d.Center)
		if d.Rotation != nil {
			box.SetRotation(*d.Rotation)
		}
		return box, nil

	case ShapeKindPlane:
		if geom.Normalized(d.Normal).Equal(geom.Zero()) {
			return nil, d.invalid("plane normal is zero")
		}
		return collision.NewPlane(d.Center, d.Normal), nil

	default:
		return nil, d.invalid("unknown shape kind")
	}
}

func (d ShapeDef) invalid(msg string) error {
	return errors.New(msg).
		WithType(ErrTypeBadRequest).
		WithTag("kind", d.Kind)
}

// NewShapeDef describes s. It returns nil for a nil shape.
func NewShapeDef(s collision.Shape) *ShapeDef {
	switch s := s.(type) {
	case *collision.Sphere:
		return &ShapeDef{
			Kind:   ShapeKindSphere,
			Center: s.Center(),
			Radius: s.Radius(),
		}

	case *collision.Box:
		rotation := s.Rotation()
		return &ShapeDef{
			Kind:     ShapeKindBox,
			Center:   s.Center(),
			Size:     s.Size(),
			Rotation: &rotation,
		}

	case *collision.Plane:
		return &ShapeDef{
			Kind:   ShapeKindPlane,
			Center: s.Center(),
			Normal: s.Normal(),
		}

	default:
		return nil
	}
}
