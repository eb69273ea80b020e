package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// RegionSpec names a fishing region and the bounding box its maps cover.
type RegionSpec struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Bounds BBox   `json:"bounds"`
}

// defaultRegions is the built-in Atlantic/Gulf catalog. Overridable with a
// JSON regions file (see LoadRegions).
var defaultRegions = []RegionSpec{
	{ID: "gulf_of_maine", Name: "Gulf of Maine", Bounds: BBox{MinLat: 41.5, MinLon: -71.0, MaxLat: 45.0, MaxLon: -66.0}},
	{ID: "cape_cod", Name: "Cape Cod and Georges Bank", Bounds: BBox{MinLat: 39.5, MinLon: -71.25, MaxLat: 43.5, MaxLon: -65.25}},
	{ID: "ne_canyons", Name: "NE Canyons Overview", Bounds: BBox{MinLat: 36.0, MinLon: -77.0, MaxLat: 42.0, MaxLon: -65.0}},
	{ID: "carolinas", Name: "Carolinas", Bounds: BBox{MinLat: 33.0, MinLon: -79.0, MaxLat: 37.0, MaxLon: -72.0}},
	{ID: "sc_ga", Name: "South Carolina and Georgia", Bounds: BBox{MinLat: 30.5, MinLon: -81.75, MaxLat: 34.25, MaxLon: -75.0}},
	{ID: "florida_overview", Name: "Florida Overview", Bounds: BBox{MinLat: 23.0, MinLon: -88.0, MaxLat: 31.0, MaxLon: -77.0}},
	{ID: "bahamas", Name: "Bahamas", Bounds: BBox{MinLat: 21.5, MinLon: -80.0, MaxLat: 28.0, MaxLon: -74.0}},
	{ID: "gulf_of_mexico", Name: "Gulf of Mexico", Bounds: BBox{MinLat: 18.0, MinLon: -98.0, MaxLat: 31.0, MaxLon: -80.0}},
}

// RegionCatalog resolves region IDs to their specs.
type RegionCatalog struct {
	byID map[string]RegionSpec
}

// DefaultRegions returns the built-in catalog.
func DefaultRegions() *RegionCatalog {
	return newCatalog(defaultRegions)
}

// LoadRegions reads a catalog from a JSON file holding a list of RegionSpec.
func LoadRegions(path string) (*RegionCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}
	var regions []RegionSpec
	if err := json.Unmarshal(data, &regions); err != nil {
		return nil, fmt.Errorf("parse regions file: %w", err)
	}
	for _, r := range regions {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: region with empty id in %s", ErrInput, path)
		}
		if r.Bounds.MinLat >= r.Bounds.MaxLat || r.Bounds.MinLon >= r.Bounds.MaxLon {
			return nil, fmt.Errorf("%w: region %s has empty bounds", ErrInput, r.ID)
		}
	}
	return newCatalog(regions), nil
}

func newCatalog(regions []RegionSpec) *RegionCatalog {
	byID := make(map[string]RegionSpec, len(regions))
	for _, r := range regions {
		byID[r.ID] = r
	}
	return &RegionCatalog{byID: byID}
}

// Get looks up a region by ID.
func (c *RegionCatalog) Get(id string) (RegionSpec, error) {
	r, ok := c.byID[id]
	if !ok {
		return RegionSpec{}, fmt.Errorf("%w: unknown region %q", ErrInput, id)
	}
	return r, nil
}

// All returns every region, sorted by ID for deterministic iteration.
func (c *RegionCatalog) All() []RegionSpec {
	out := make([]RegionSpec, 0, len(c.byID))
	for _, r := range c.byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
