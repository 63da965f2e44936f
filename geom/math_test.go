package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlmostEqualRelativeAndAbs(t *testing.T) {
	t.Run("near zero", func(t *testing.T) {
		require.True(t, AlmostEqualRelativeAndAbs(0, 1e-11))
		require.False(t, AlmostEqualRelativeAndAbs(0, 1e-6))
	})

	t.Run("relative", func(t *testing.T) {
		require.True(t, AlmostEqualRelativeAndAbs(1000, 1000.00006))
		require.False(t, AlmostEqualRelativeAndAbs(1000, 1000.1))
	})
}

func TestEqualWithEpsilon(t *testing.T) {
	require.True(t, EqualWithEpsilon(0.1, 0.2, 0.11))
	require.False(t, EqualWithEpsilon(0.1, 0.3, 0.11))
}

func TestClampAndLerp(t *testing.T) {
	require.Equal(t, float32(1), Clamp(3, -1, 1))
	require.Equal(t, float32(-1), Clamp(-3, -1, 1))
	require.Equal(t, float32(0.5), Clamp01(0.5))
	require.Equal(t, float32(5), Lerp(0, 10, 0.5))
	require.Equal(t, float32(15), Lerp(0, 10, 1.5))
}

func TestAngleConversion(t *testing.T) {
	require.True(t, EqualWithEpsilon(RadToDeg(DegToRad(90)), 90, 1e-4))
}
