package domain

import (
	"fmt"
	"math"
)

// SmoothingMethod selects the low-pass filter applied before resampling.
// Methods are tagged variants chosen per tier, never looked up by string key
// at runtime.
type SmoothingMethod int

const (
	SmoothingNone SmoothingMethod = iota
	SmoothingGaussian
	SmoothingSavitzkyGolay
)

func (m SmoothingMethod) String() string {
	switch m {
	case SmoothingNone:
		return "none"
	case SmoothingGaussian:
		return "gaussian"
	case SmoothingSavitzkyGolay:
		return "savitzky-golay"
	}
	return fmt.Sprintf("smoothing(%d)", int(m))
}

// InterpolationMethod selects the densification scheme.
type InterpolationMethod int

const (
	InterpBilinear InterpolationMethod = iota
	InterpNearest
)

func (m InterpolationMethod) String() string {
	switch m {
	case InterpBilinear:
		return "bilinear"
	case InterpNearest:
		return "nearest"
	}
	return fmt.Sprintf("interpolation(%d)", int(m))
}

// Tier names for the default zoom set.
const (
	TierWide         = "wide"
	TierIntermediate = "intermediate"
	TierFine         = "fine"
)

// ZoomTierSpec describes one output detail level: how much to densify the
// native grid and how to denoise it first.
type ZoomTierSpec struct {
	Name       string
	Zoom       int
	Multiplier float64

	Smoothing     SmoothingMethod
	GaussianSigma float64 // cells, for SmoothingGaussian
	SavGolWindow  int     // odd window length, for SmoothingSavitzkyGolay
	SavGolOrder   int     // polynomial order, for SmoothingSavitzkyGolay

	Interpolation InterpolationMethod
}

// TierPolicy holds the knobs for deriving the fine tier's multiplier.
type TierPolicy struct {
	// BreakSpacingM is the cell spacing needed to resolve a 0.5°F break.
	// Defaults to 750 m, the spacing of the densest supported source;
	// densifying beyond it would imply confidence the data cannot back.
	BreakSpacingM float64

	// FineCap bounds the fine multiplier regardless of how coarse the
	// native grid is.
	FineCap float64
}

// DefaultTierPolicy returns the production policy values.
func DefaultTierPolicy() TierPolicy {
	return TierPolicy{BreakSpacingM: 750, FineCap: 4}
}

// FineMultiplier derives the fine tier's density multiplier from the native
// spacing: the smallest multiplier whose resulting cell size does not exceed
// the break-resolving spacing, clamped between the intermediate tier's
// multiplier and the cap.
func (p TierPolicy) FineMultiplier(nativeSpacingM, intermediate float64) float64 {
	if nativeSpacingM <= 0 || p.BreakSpacingM <= 0 {
		return intermediate
	}
	m := math.Ceil(nativeSpacingM / p.BreakSpacingM)
	if m < intermediate {
		m = intermediate
	}
	if p.FineCap > 0 && m > p.FineCap {
		m = p.FineCap
	}
	return m
}

// DefaultTiers builds the standard wide/intermediate/fine tier set for a grid
// with the given native spacing. Wide renders the native grid untouched;
// intermediate and fine share one Gaussian-smoothed grid and differ only in
// density.
func DefaultTiers(nativeSpacingM float64, policy TierPolicy) []ZoomTierSpec {
	const intermediateMultiplier = 2
	return []ZoomTierSpec{
		{
			Name:          TierWide,
			Zoom:          5,
			Multiplier:    1,
			Smoothing:     SmoothingNone,
			Interpolation: InterpBilinear,
		},
		{
			Name:          TierIntermediate,
			Zoom:          8,
			Multiplier:    intermediateMultiplier,
			Smoothing:     SmoothingGaussian,
			GaussianSigma: 1,
			Interpolation: InterpBilinear,
		},
		{
			Name:          TierFine,
			Zoom:          10,
			Multiplier:    policy.FineMultiplier(nativeSpacingM, intermediateMultiplier),
			Smoothing:     SmoothingGaussian,
			GaussianSigma: 1,
			Interpolation: InterpBilinear,
		},
	}
}

// ValidateTiers enforces the tier invariants: every multiplier ≥ 1 and
// multipliers non-decreasing in tier order.
func ValidateTiers(tiers []ZoomTierSpec) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: no zoom tiers requested", ErrInput)
	}
	prev := 0.0
	for _, t := range tiers {
		if t.Name == "" {
			return fmt.Errorf("%w: tier with zoom %d has no name", ErrInput, t.Zoom)
		}
		if t.Multiplier < 1 {
			return fmt.Errorf("%w: tier %s multiplier %g < 1", ErrInput, t.Name, t.Multiplier)
		}
		if t.Multiplier < prev {
			return fmt.Errorf("%w: tier %s multiplier %g decreases from %g", ErrInput, t.Name, t.Multiplier, prev)
		}
		if t.Smoothing == SmoothingSavitzkyGolay {
			if t.SavGolWindow < 3 || t.SavGolWindow%2 == 0 {
				return fmt.Errorf("%w: tier %s savitzky-golay window %d must be odd and >= 3", ErrInput, t.Name, t.SavGolWindow)
			}
			if t.SavGolOrder < 0 || t.SavGolOrder >= t.SavGolWindow {
				return fmt.Errorf("%w: tier %s savitzky-golay order %d invalid for window %d", ErrInput, t.Name, t.SavGolOrder, t.SavGolWindow)
			}
		}
		if t.Smoothing == SmoothingGaussian && t.GaussianSigma <= 0 {
			return fmt.Errorf("%w: tier %s gaussian sigma %g must be positive", ErrInput, t.Name, t.GaussianSigma)
		}
		prev = t.Multiplier
	}
	return nil
}
