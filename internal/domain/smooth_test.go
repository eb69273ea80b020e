package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothNoneIsIdentity(t *testing.T) {
	g := makeGrid(4, 4)
	out, err := Smooth(g, SmoothSpec{Method: SmoothingNone})
	require.NoError(t, err)
	assert.Same(t, g, out)
}

func TestSmoothGaussian(t *testing.T) {
	t.Run("uniform field is unchanged", func(t *testing.T) {
		g := makeGrid(6, 6)
		for i := range g.Values {
			g.Values[i] = 55.0
		}
		out, err := Smooth(g, SmoothSpec{Method: SmoothingGaussian, Sigma: 1})
		require.NoError(t, err)
		for i, v := range out.Values {
			assert.InDelta(t, 55.0, v, 1e-9, "cell %d", i)
		}
	})

	t.Run("spike is attenuated, not moved", func(t *testing.T) {
		g := makeGrid(9, 9)
		for i := range g.Values {
			g.Values[i] = 50.0
		}
		g.Values[4*9+4] = 70.0

		out, err := Smooth(g, SmoothSpec{Method: SmoothingGaussian, Sigma: 1})
		require.NoError(t, err)

		center := out.At(4, 4)
		assert.Less(t, center, 70.0)
		assert.Greater(t, center, 50.0)
		assert.Greater(t, out.At(4, 5), 50.0, "energy spreads to neighbors")
		for i := 0; i < 9; i++ {
			for j := 0; j < 9; j++ {
				assert.LessOrEqual(t, out.At(i, j), center, "peak stays at the spike")
			}
		}
	})

	t.Run("mask is preserved exactly", func(t *testing.T) {
		g := makeGrid(8, 8)
		for j := 0; j < 3; j++ {
			for i := 0; i < 8; i++ {
				maskCell(g, i, j)
			}
		}
		out, err := Smooth(g, SmoothSpec{Method: SmoothingGaussian, Sigma: 1.2})
		require.NoError(t, err)

		require.NoError(t, RequireSameMask(g, out))
		assert.True(t, math.IsNaN(out.At(0, 0)))
		require.NoError(t, out.Validate())
	})

	t.Run("input grid is not mutated", func(t *testing.T) {
		g := makeGrid(5, 5)
		before := g.At(2, 2)
		g.Values[0] = 90

		_, err := Smooth(g, SmoothSpec{Method: SmoothingGaussian, Sigma: 1})
		require.NoError(t, err)
		assert.Equal(t, before, g.At(2, 2))
		assert.Equal(t, 90.0, g.Values[0])
	})

	t.Run("sigma must be positive", func(t *testing.T) {
		g := makeGrid(4, 4)
		_, err := Smooth(g, SmoothSpec{Method: SmoothingGaussian, Sigma: 0})
		assert.ErrorIs(t, err, ErrInput)
	})

	t.Run("fully masked grid", func(t *testing.T) {
		g := makeGrid(3, 3)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				maskCell(g, i, j)
			}
		}
		_, err := Smooth(g, SmoothSpec{Method: SmoothingGaussian, Sigma: 1})
		assert.ErrorIs(t, err, ErrNoValidCells)
	})
}

func TestSmoothSavitzkyGolay(t *testing.T) {
	t.Run("quadratic field is reproduced", func(t *testing.T) {
		// A polynomial at or below the fit order passes through unchanged
		// away from the borders.
		g := makeGrid(11, 11)
		for i := 0; i < 11; i++ {
			for j := 0; j < 11; j++ {
				x, y := float64(j-5), float64(i-5)
				g.Values[i*11+j] = 60 + 0.5*x*x + 0.25*y*y
			}
		}

		out, err := Smooth(g, SmoothSpec{Method: SmoothingSavitzkyGolay, Window: 5, Order: 2})
		require.NoError(t, err)

		for i := 3; i < 8; i++ {
			for j := 3; j < 8; j++ {
				assert.InDelta(t, g.At(i, j), out.At(i, j), 1e-9)
			}
		}
	})

	t.Run("invalid window", func(t *testing.T) {
		g := makeGrid(5, 5)
		_, err := Smooth(g, SmoothSpec{Method: SmoothingSavitzkyGolay, Window: 4, Order: 2})
		assert.ErrorIs(t, err, ErrInput)
	})

	t.Run("order exceeding window", func(t *testing.T) {
		g := makeGrid(5, 5)
		_, err := Smooth(g, SmoothSpec{Method: SmoothingSavitzkyGolay, Window: 5, Order: 7})
		assert.ErrorIs(t, err, ErrInput)
	})
}

func TestGaussianKernel(t *testing.T) {
	k := gaussianKernel(1.0)

	require.Equal(t, 7, len(k), "radius 3 at sigma 1")
	sum := 0.0
	for _, w := range k {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12, "kernel is normalized")
	for i := 0; i < len(k)/2; i++ {
		assert.InDelta(t, k[i], k[len(k)-1-i], 1e-12, "kernel is symmetric")
	}
	assert.Greater(t, k[3], k[2], "peak at center")
}

func TestSavitzkyGolayKernel(t *testing.T) {
	// The classic 5-point quadratic weights: (-3, 12, 17, 12, -3) / 35.
	k, err := savitzkyGolayKernel(5, 2)
	require.NoError(t, err)
	want := []float64{-3.0 / 35, 12.0 / 35, 17.0 / 35, 12.0 / 35, -3.0 / 35}
	require.Equal(t, len(want), len(k))
	for i := range want {
		assert.InDelta(t, want[i], k[i], 1e-9)
	}
}

func TestSmoothKeepsCoastlineSharpInValues(t *testing.T) {
	// A warm pool against a masked coast must not leak into values across
	// the mask, and the coastal cells must stay close to their own water.
	g := makeGrid(8, 8)
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			if j < 4 {
				maskCell(g, i, j)
			} else {
				g.Values[i*8+j] = 48.0
			}
		}
	}
	g.Values[3*8+6] = 52.0

	out, err := Smooth(g, SmoothSpec{Method: SmoothingGaussian, Sigma: 1})
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		for j := 4; j < 8; j++ {
			v := out.At(i, j)
			assert.GreaterOrEqual(t, v, 48.0-1e-9)
			assert.LessOrEqual(t, v, 52.0+1e-9)
		}
	}
}
