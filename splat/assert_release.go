//go:build !splatdebug

package splat

// assertSizes is a no-op outside of splatdebug builds. Sizes are the
// caller's responsibility on the hot path.
func assertSizes(count int, centers []float32, out []uint32, outSize int) {}
