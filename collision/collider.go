package collision

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

// Collider binds a local shape to a transform provider and caches the
// shape transformed into world space.
//
// A collider is not safe for concurrent use.
type Collider struct {
	transformProvider TransformProvider
	attachedSystem    *System

	localShape       Shape
	cachedWorldShape Shape
	worldShapeDirty  bool
	shapeID          uint32
}

// NewCollider returns a collider for shape, placed in the world by p.
func NewCollider(p TransformProvider, shape Shape) (*Collider, error) {
	if p == nil {
		return nil, errors.New("collider transform provider is nil").
			WithType(ErrTypeInvalidArgument)
	}

	if shape == nil {
		return nil, errors.New("collider shape is nil").
			WithType(ErrTypeInvalidArgument)
	}

	return &Collider{
		transformProvider: p,
		localShape:        shape,
		shapeID:           EmptyChangeID,
	}, nil
}

func (c *Collider) TransformProvider() TransformProvider {
	return c.transformProvider
}

func (c *Collider) Shape() Shape {
	return c.localShape
}

// SetShape replaces the local shape and drops the world space cache. A nil
// shape excludes the collider from queries.
func (c *Collider) SetShape(shape Shape) {
	c.localShape = shape
	c.cachedWorldShape = nil
	c.shapeID = EmptyChangeID
}

// MarkWorldShapeDirty forces the world space shape to be rebuilt on the
// next query. It must be called whenever the provider's world matrix
// changes.
func (c *Collider) MarkWorldShapeDirty() {
	c.worldShapeDirty = true
}

// TransformedShape returns the local shape in world space, or nil when the
// collider has no shape.
func (c *Collider) TransformedShape() Shape {
	c.updateCachedWorldShape()
	return c.cachedWorldShape
}

func (c *Collider) AttachedSystem() *System {
	return c.attachedSystem
}

// SetAttachedSystem moves the collider to s, removing it from the system it
// was previously attached to. A nil s detaches the collider.
func (c *Collider) SetAttachedSystem(s *System) {
	if c.attachedSystem == s {
		return
	}

	if c.attachedSystem != nil {
		c.attachedSystem.RemoveCollider(c)
	}

	c.attachedSystem = s
	if s != nil {
		s.AddCollider(c)
	}
}

func (c *Collider) needsUpdate() bool {
	return c.localShape != nil &&
		(c.localShape.ChangeID().CheckChanged(c.shapeID) ||
			c.worldShapeDirty ||
			c.cachedWorldShape == nil)
}

func (c *Collider) updateCachedWorldShape() {
	if !c.needsUpdate() {
		return
	}

	if c.cachedWorldShape == nil {
		c.cachedWorldShape = c.localShape.Transform(c.transformProvider)
	} else if err := c.localShape.TransformInto(c.transformProvider, c.cachedWorldShape); err != nil {
		logs.Warn(errors.New("refreshing collider world shape failed").Wrap(err))
		c.cachedWorldShape = c.localShape.Transform(c.transformProvider)
	}

	c.shapeID = c.localShape.ChangeID().Get()
	c.worldShapeDirty = false
}
