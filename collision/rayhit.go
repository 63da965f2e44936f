package collision

import (
	"github.com/aukilabs/spatial/geom"
	"github.com/chewxy/math32"
)

// RayHit is the result of a ray intersection. A distance of +Inf means no
// hit.
type RayHit struct {
	Distance float32
	Point    geom.Vector3f
}

func NewRayHit() RayHit {
	return RayHit{Distance: math32.Inf(1)}
}

func (h *RayHit) Set(other RayHit) {
	*h = other
}

func (h *RayHit) Reset() {
	h.Distance = math32.Inf(1)
	h.Point = geom.Vector3f{}
}

func (h RayHit) IsHit() bool {
	return !math32.IsInf(h.Distance, 1)
}
