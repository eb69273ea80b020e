package domain

import "context"

// GridLoader reads one SST snapshot for a dataset from a source path.
type GridLoader interface {
	// Load returns the snapshot as a Fahrenheit grid with the mask derived
	// from the source's fill values.
	Load(ctx context.Context, source string, spec DatasetSpec) (*RasterGrid, error)
}
