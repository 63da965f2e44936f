package collision

import (
	"cmp"
	"slices"
)

// ColliderHit is a ray hit against a collider.
type ColliderHit struct {
	RayHit
	Collider *Collider
}

// Reset sets the hit back to the no hit state.
func (h *ColliderHit) Reset() {
	h.RayHit.Reset()
	h.Collider = nil
}

// System is a registry of colliders answering ray and overlap queries with
// a linear scan.
//
// A system is not safe for concurrent use. Attaching, detaching and
// querying must be serialized by the caller.
type System struct {
	colliders []*Collider
}

func NewSystem() *System {
	return &System{}
}

// AddCollider appends c to the system. Use Collider.SetAttachedSystem to
// keep the collider attachment consistent.
func (s *System) AddCollider(c *Collider) {
	s.colliders = append(s.colliders, c)
}

// RemoveCollider removes c while preserving insertion order.
func (s *System) RemoveCollider(c *Collider) {
	if i := slices.Index(s.colliders, c); i >= 0 {
		s.colliders = slices.Delete(s.colliders, i, i+1)
	}
}

func (s *System) Len() int {
	return len(s.colliders)
}

// Colliders returns the registered colliders in insertion order. The
// returned slice must not be modified.
func (s *System) Colliders() []*Collider {
	return s.colliders
}

// Raycast returns the collider nearest to the ray origin along the ray and
// writes the hit into result. It returns nil when nothing is hit.
func (s *System) Raycast(r Ray, result *RayHit) *Collider {
	result.Reset()

	var hitCollider *Collider
	tmp := NewRayHit()

	for _, c := range s.colliders {
		shape := c.TransformedShape()
		if shape == nil {
			continue
		}

		if shape.RayIntersection(r, &tmp) && tmp.Distance < result.Distance {
			result.Set(tmp)
			hitCollider = c
		}
	}
	return hitCollider
}

// RaycastAll reports every collider hit by the ray into results, sorted by
// ascending distance. Entries of results are reused and the slice grows
// when needed. Entries past the hit count are reset. It returns the
// possibly grown slice and the number of hits.
func (s *System) RaycastAll(r Ray, results []ColliderHit) ([]ColliderHit, int) {
	hitCount := 0
	tmp := NewRayHit()

	for _, c := range s.colliders {
		shape := c.TransformedShape()
		if shape == nil {
			continue
		}

		if !shape.RayIntersection(r, &tmp) {
			continue
		}

		if hitCount >= len(results) {
			results = append(results, ColliderHit{})
		}

		results[hitCount].Set(tmp)
		results[hitCount].Collider = c
		hitCount++
	}

	for i := hitCount; i < len(results); i++ {
		results[i].Reset()
	}

	slices.SortStableFunc(results[:hitCount], func(a, b ColliderHit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return results, hitCount
}

// Intersects returns the first collider overlapping c, or nil.
func (s *System) Intersects(c *Collider) *Collider {
	shape := c.TransformedShape()
	if shape == nil {
		return nil
	}

	for _, other := range s.colliders {
		if other == c {
			continue
		}

		if otherShape := other.TransformedShape(); otherShape != nil && shape.ShapeIntersection(otherShape) {
			return other
		}
	}
	return nil
}

// IntersectsAll calls fn with every collider overlapping c.
func (s *System) IntersectsAll(c *Collider, fn func(*Collider)) {
	shape := c.TransformedShape()
	if shape == nil {
		return
	}

	for _, other := range s.colliders {
		if other == c {
			continue
		}

		if otherShape := other.TransformedShape(); otherShape != nil && shape.ShapeIntersection(otherShape) {
			fn(other)
		}
	}
}
