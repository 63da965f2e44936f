// Package splat orders point cloud primitives back to front so they can be
// alpha blended without a depth buffer.
package splat

import (
	"github.com/aukilabs/spatial/geom"
)

// IndicesPerQuad is the number of indices emitted per point when points are
// expanded into two triangles.
const IndicesPerQuad = 6

// QuadIndexCount returns the size of the quad index buffer for n points.
func QuadIndexCount(n int) int {
	return n * IndicesPerQuad
}

// DepthSorter is the interface implemented by Sorter and its decorators.
type DepthSorter interface {
	// Count returns the number of points the sorter was built for.
	Count() int

	// Sort orders the points farthest first and writes six quad indices per
	// point into out.
	Sort(centers []float32, model geom.Matrix, camera geom.Matrix, out []uint32)

	// SortRaw orders the points farthest first and writes the sorted point
	// indices into out.
	SortRaw(centers []float32, model geom.Matrix, camera geom.Matrix, out []uint32)
}

// Sorter sorts a fixed number of points by camera space depth.
//
// Every buffer is allocated once at construction and reused by every sort.
// A sorter is not safe for concurrent use.
type Sorter struct {
	count int
	pivot Pivot

	order []uint32
	depth []float32

	view      geom.Matrix
	modelView geom.Matrix
}

type Option func(*Sorter)

// WithPivot sets the quicksort pivot strategy. PivotMiddle is the default.
func WithPivot(p Pivot) Option {
	return func(s *Sorter) {
		s.pivot = p
	}
}

// NewSorter returns a sorter for count points. A negative count is treated
// as zero.
func NewSorter(count int, options ...Option) *Sorter {
	if count < 0 {
		count = 0
	}

	s := &Sorter{
		count: count,
		pivot: PivotMiddle,
		order: make([]uint32, count),
		depth: make([]float32, count),
	}
	for i := range s.order {
		s.order[i] = uint32(i)
	}

	for _, o := range options {
		o(s)
	}
	return s
}

func (s *Sorter) Count() int {
	return s.count
}

// Order returns the current permutation, farthest point first. The slice
// is owned by the sorter and is overwritten by the next sort.
func (s *Sorter) Order() []uint32 {
	return s.order
}

// Depth returns the camera space depth of point i computed by the last
// sort.
func (s *Sorter) Depth(i int) float32 {
	return s.depth[i]
}

// Sort orders the points and writes the quad index buffer. centers holds
// x, y, z per point in model space. model and camera are the model and camera
// world matrices, camera being a rigid transform. out must hold exactly
// QuadIndexCount(Count()) indices.
func (s *Sorter) Sort(centers []float32, model geom.Matrix, camera geom.Matrix, out []uint32) {
	assertSizes(s.count, centers, out, QuadIndexCount(s.count))
	if s.count == 0 {
		return
	}

	s.sort(centers, model, camera)

	idx := 0
	for _, i := range s.order {
		base := i * 4

		out[idx] = base
		out[idx+1] = base + 1
		out[idx+2] = base + 2

		out[idx+3] = base
		out[idx+4] = base + 2
		out[idx+5] = base + 3
		idx += IndicesPerQuad
	}
}

// SortRaw orders the points and copies the permutation into out, for
// renderers expanding quads in the vertex shader. out must hold exactly
// Count() indices.
func (s *Sorter) SortRaw(centers []float32, model geom.Matrix, camera geom.Matrix, out []uint32) {
	assertSizes(s.count, centers, out, s.count)
	if s.count == 0 {
		return
	}

	s.sort(centers, model, camera)
	copy(out, s.order)
}

func (s *Sorter) sort(centers []float32, model geom.Matrix, camera geom.Matrix) {
	geom.InvertRigidTo(&s.view, camera)
	geom.MultiplyTo(&s.modelView, &s.view, &model)

	mv := &s.modelView
	for i, b := 0, 0; i < s.count; i, b = i+1, b+3 {
		x := centers[b]
		y := centers[b+1]
		z := centers[b+2]

		cz := mv[2]*x + mv[6]*y + mv[10]*z + mv[14]

		// The camera looks down negative Z, so negating gives a distance.
		s.depth[i] = -cz
	}

	quickSort(s.order, s.depth, 0, s.count-1, s.pivot)
}
