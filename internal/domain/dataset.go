package domain

import "fmt"

// DatasetSpec describes how to read one upstream SST product.
type DatasetSpec struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Variable string `json:"variable"`

	// Unit of the stored values. UnitAuto resolves from the variable's
	// units attribute, falling back to value-range detection.
	Unit Unit `json:"unit"`

	// FillValue is the sentinel for missing data when the variable carries
	// no _FillValue attribute of its own.
	FillValue float64 `json:"fill_value"`

	// ResolutionM is the declared native cell spacing; 0 means derive it
	// from the coordinate axes.
	ResolutionM float64 `json:"resolution_m"`
}

// Built-in dataset catalog. The variable names and resolutions match the
// upstream CoastWatch products the maps are generated from.
var defaultDatasets = []DatasetSpec{
	{
		ID:          "blended_sst",
		Name:        "NOAA Blended SST",
		Variable:    "analysed_sst",
		Unit:        UnitAuto,
		FillValue:   -32768,
		ResolutionM: 2000,
	},
	{
		ID:          "east_coast_sst",
		Name:        "East Coast SST",
		Variable:    "sst",
		Unit:        UnitAuto,
		FillValue:   -999,
		ResolutionM: 750,
	},
}

// DatasetByID resolves one of the built-in dataset specs.
func DatasetByID(id string) (DatasetSpec, error) {
	for _, d := range defaultDatasets {
		if d.ID == id {
			return d, nil
		}
	}
	return DatasetSpec{}, fmt.Errorf("%w: unknown dataset %q", ErrInput, id)
}

// Datasets returns the built-in dataset catalog.
func Datasets() []DatasetSpec {
	out := make([]DatasetSpec, len(defaultDatasets))
	copy(out, defaultDatasets)
	return out
}
