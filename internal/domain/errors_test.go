package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category error
	}{
		{"multiple timesteps", ErrMultipleTimesteps, ErrInput},
		{"missing variable", ErrMissingVariable, ErrInput},
		{"unexpected dimensionality", ErrUnexpectedDimensionality, ErrInput},
		{"no valid cells", ErrNoValidCells, ErrMask},
		{"non-monotonic axis", ErrNonMonotonicAxis, ErrInterpolation},
		{"singular interpolation", ErrSingularInterpolation, ErrInterpolation},
		{"insufficient valid neighbors", ErrInsufficientValidNeighbors, ErrInterpolation},
		{"degenerate domain", ErrDegenerateDomain, ErrRender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.category)
		})
	}

	t.Run("categories are distinct", func(t *testing.T) {
		assert.NotErrorIs(t, ErrNoValidCells, ErrInput)
		assert.NotErrorIs(t, ErrDegenerateDomain, ErrInterpolation)
	})

	t.Run("wrapping preserves the chain", func(t *testing.T) {
		err := fmt.Errorf("open snapshot: %w", ErrMissingVariable)
		assert.ErrorIs(t, err, ErrMissingVariable)
		assert.ErrorIs(t, err, ErrInput)
	})
}

func TestRunError(t *testing.T) {
	base := &RunError{
		Dataset: "blended_sst",
		Region:  "gulf_of_maine",
		Date:    "20260815",
		Stage:   "crop",
		Err:     ErrNoValidCells,
	}

	t.Run("message without tier", func(t *testing.T) {
		assert.Equal(t,
			"run blended_sst/gulf_of_maine/20260815: crop: mask error: no valid cells in grid",
			base.Error())
	})

	t.Run("message with tier", func(t *testing.T) {
		e := *base
		e.Tier = "fine"
		e.Stage = "resample"
		e.Err = ErrInsufficientValidNeighbors
		assert.Contains(t, e.Error(), "tier fine")
		assert.Contains(t, e.Error(), "resample")
	})

	t.Run("unwraps to the cause and its category", func(t *testing.T) {
		assert.ErrorIs(t, base, ErrNoValidCells)
		assert.ErrorIs(t, base, ErrMask)
		assert.NotErrorIs(t, base, ErrInput)
	})

	t.Run("extractable with errors.As", func(t *testing.T) {
		wrapped := fmt.Errorf("batch: %w", base)
		var re *RunError
		assert.True(t, errors.As(wrapped, &re))
		assert.Equal(t, "crop", re.Stage)
	})
}
