//go:build splatdebug

package splat

import (
	"fmt"
)

func assertSizes(count int, centers []float32, out []uint32, outSize int) {
	if len(centers) != count*3 {
		panic(fmt.Sprintf("splat: %d centers values for %d points", len(centers), count))
	}
	if len(out) != outSize {
		panic(fmt.Sprintf("splat: output holds %d indices, want %d", len(out), outSize))
	}
}
