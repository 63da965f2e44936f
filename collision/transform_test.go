package collision

import (
	"github.com/aukilabs/spatial/geom"
)

// countingTransform is a transform provider recording how many times the
// world matrix was read.
type countingTransform struct {
	matrix geom.Matrix
	calls  int
}

func newCountingTransform(m geom.Matrix) *countingTransform {
	return &countingTransform{matrix: m}
}

func (t *countingTransform) WorldModelMatrix() geom.Matrix {
	t.calls++
	return t.matrix
}

func identityTransform() *countingTransform {
	return newCountingTransform(geom.IdentityMatrix())
}

func translation(x, y, z float32) *countingTransform {
	return newCountingTransform(geom.MakeTranslation(geom.Vector3f{X: x, Y: y, Z: z}))
}
