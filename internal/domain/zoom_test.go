package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFineMultiplier(t *testing.T) {
	policy := DefaultTierPolicy()

	tests := []struct {
		name     string
		spacing  float64
		expected float64
	}{
		{"coarse 5km grid hits the cap", 5000, 4},
		{"2km blended grid", 2000, 3},
		{"1km grid", 1000, 2},
		{"already at break spacing", 750, 2},
		{"finer than break spacing keeps intermediate density", 500, 2},
		{"unknown spacing keeps intermediate density", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.FineMultiplier(tt.spacing, 2))
		})
	}

	t.Run("uncapped policy", func(t *testing.T) {
		p := TierPolicy{BreakSpacingM: 750, FineCap: 0}
		assert.Equal(t, 7.0, p.FineMultiplier(5000, 2))
	})

	t.Run("zero break spacing keeps intermediate density", func(t *testing.T) {
		p := TierPolicy{BreakSpacingM: 0, FineCap: 4}
		assert.Equal(t, 2.0, p.FineMultiplier(5000, 2))
	})
}

func TestDefaultTiers(t *testing.T) {
	tiers := DefaultTiers(2000, DefaultTierPolicy())
	require.Len(t, tiers, 3)

	wide, mid, fine := tiers[0], tiers[1], tiers[2]

	assert.Equal(t, TierWide, wide.Name)
	assert.Equal(t, 1.0, wide.Multiplier)
	assert.Equal(t, SmoothingNone, wide.Smoothing)

	assert.Equal(t, TierIntermediate, mid.Name)
	assert.Equal(t, 2.0, mid.Multiplier)
	assert.Equal(t, SmoothingGaussian, mid.Smoothing)
	assert.Equal(t, 1.0, mid.GaussianSigma)

	assert.Equal(t, TierFine, fine.Name)
	assert.Equal(t, 3.0, fine.Multiplier)
	assert.Equal(t, mid.SmoothSpec(), fine.SmoothSpec(),
		"intermediate and fine share one smoothing pass")

	assert.Less(t, wide.Zoom, mid.Zoom)
	assert.Less(t, mid.Zoom, fine.Zoom)

	require.NoError(t, ValidateTiers(tiers))
}

func TestValidateTiers(t *testing.T) {
	valid := ZoomTierSpec{Name: "wide", Zoom: 5, Multiplier: 1}

	t.Run("empty set", func(t *testing.T) {
		assert.ErrorIs(t, ValidateTiers(nil), ErrInput)
	})

	t.Run("missing name", func(t *testing.T) {
		assert.ErrorIs(t, ValidateTiers([]ZoomTierSpec{{Zoom: 5, Multiplier: 1}}), ErrInput)
	})

	t.Run("multiplier below one", func(t *testing.T) {
		bad := valid
		bad.Multiplier = 0.5
		assert.ErrorIs(t, ValidateTiers([]ZoomTierSpec{bad}), ErrInput)
	})

	t.Run("decreasing multipliers", func(t *testing.T) {
		a, b := valid, valid
		a.Multiplier = 3
		b.Name = "fine"
		b.Multiplier = 2
		assert.ErrorIs(t, ValidateTiers([]ZoomTierSpec{a, b}), ErrInput)
	})

	t.Run("even savitzky-golay window", func(t *testing.T) {
		bad := valid
		bad.Smoothing = SmoothingSavitzkyGolay
		bad.SavGolWindow = 4
		bad.SavGolOrder = 2
		assert.ErrorIs(t, ValidateTiers([]ZoomTierSpec{bad}), ErrInput)
	})

	t.Run("savitzky-golay order exceeding window", func(t *testing.T) {
		bad := valid
		bad.Smoothing = SmoothingSavitzkyGolay
		bad.SavGolWindow = 5
		bad.SavGolOrder = 5
		assert.ErrorIs(t, ValidateTiers([]ZoomTierSpec{bad}), ErrInput)
	})

	t.Run("gaussian without sigma", func(t *testing.T) {
		bad := valid
		bad.Smoothing = SmoothingGaussian
		assert.ErrorIs(t, ValidateTiers([]ZoomTierSpec{bad}), ErrInput)
	})

	t.Run("well-formed set", func(t *testing.T) {
		tiers := []ZoomTierSpec{
			{Name: "wide", Zoom: 5, Multiplier: 1},
			{Name: "fine", Zoom: 10, Multiplier: 4, Smoothing: SmoothingGaussian, GaussianSigma: 1.5},
		}
		require.NoError(t, ValidateTiers(tiers))
	})
}

func TestMethodStrings(t *testing.T) {
	assert.Equal(t, "none", SmoothingNone.String())
	assert.Equal(t, "gaussian", SmoothingGaussian.String())
	assert.Equal(t, "savitzky-golay", SmoothingSavitzkyGolay.String())
	assert.Equal(t, "bilinear", InterpBilinear.String())
	assert.Equal(t, "nearest", InterpNearest.String())
}
