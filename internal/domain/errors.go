package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Every failure the pipeline can produce wraps exactly one
// of these, so callers can classify with errors.Is(err, ErrInterpolation)
// without knowing the specific cause.
var (
	ErrInput         = errors.New("input error")
	ErrMask          = errors.New("mask error")
	ErrInterpolation = errors.New("interpolation error")
	ErrRender        = errors.New("render error")
	ErrIO            = errors.New("io error")
)

// Specific sentinels, each wrapping its category.
var (
	// ErrMultipleTimesteps is returned when the source time dimension has
	// length > 1. Time-averaging is deliberately unsupported: a blended
	// snapshot would smear the fronts the product exists to show.
	ErrMultipleTimesteps = fmt.Errorf("%w: time dimension has more than one step", ErrInput)

	// ErrMissingVariable is returned when the configured temperature or
	// coordinate variable is absent from the source.
	ErrMissingVariable = fmt.Errorf("%w: variable not found", ErrInput)

	// ErrUnexpectedDimensionality is returned when the variable does not
	// reduce to a 2D (lat, lon) array after dropping singleton dimensions.
	ErrUnexpectedDimensionality = fmt.Errorf("%w: unexpected dimensionality", ErrInput)

	// ErrNoValidCells is returned when a grid contains zero unmasked cells,
	// e.g. a region crop that landed entirely on land.
	ErrNoValidCells = fmt.Errorf("%w: no valid cells in grid", ErrMask)

	// ErrNonMonotonicAxis is returned when a 1D coordinate axis changes
	// direction and grid interpolation cannot be built over it.
	ErrNonMonotonicAxis = fmt.Errorf("%w: non-monotonic coordinate axis", ErrInterpolation)

	// ErrSingularInterpolation is returned for degenerate coordinates:
	// duplicate axis values or an axis with fewer than two points.
	ErrSingularInterpolation = fmt.Errorf("%w: singular or degenerate coordinates", ErrInterpolation)

	// ErrInsufficientValidNeighbors is returned when resampling produces a
	// fully masked tile, i.e. no target cell had a single valid native cell
	// in its support.
	ErrInsufficientValidNeighbors = fmt.Errorf("%w: insufficient valid neighbors", ErrInterpolation)

	// ErrDegenerateDomain is returned when a color domain collapses to a
	// single value and normalization is impossible.
	ErrDegenerateDomain = fmt.Errorf("%w: degenerate color domain", ErrRender)
)

// RunError wraps a stage failure with the identity of the run it aborted.
// Data errors are not retried; the caller logs the full context and moves on
// to sibling runs.
type RunError struct {
	Dataset string
	Region  string
	Date    string
	Tier    string // empty for failures before tier fan-out
	Stage   string
	Err     error
}

func (e *RunError) Error() string {
	if e.Tier == "" {
		return fmt.Sprintf("run %s/%s/%s: %s: %v", e.Dataset, e.Region, e.Date, e.Stage, e.Err)
	}
	return fmt.Sprintf("run %s/%s/%s tier %s: %s: %v", e.Dataset, e.Region, e.Date, e.Tier, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
