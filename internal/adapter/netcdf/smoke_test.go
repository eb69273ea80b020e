//go:build realdata

package netcdf

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
)

// These tests read a real downloaded snapshot and require SST_SNAPSHOT to
// point at a NetCDF file holding the blended_sst product.
// Run with: go test -tags=realdata ./internal/adapter/netcdf/ -v -count=1

func smokeSource(t *testing.T) string {
	t.Helper()
	path := os.Getenv("SST_SNAPSHOT")
	if path == "" {
		t.Fatal("SST_SNAPSHOT must be set to run real-data tests")
	}
	return path
}

func TestSmoke_LoadBlendedSST(t *testing.T) {
	path := smokeSource(t)

	spec, err := domain.DatasetByID("blended_sst")
	require.NoError(t, err)

	loader := NewLoader(testLogger())
	g, err := loader.Load(context.Background(), path, spec)
	require.NoError(t, err)

	assert.Greater(t, g.Rows, 100, "real products are not toy grids")
	assert.Greater(t, g.Cols, 100)
	assert.Greater(t, domain.ValidCount(g.Mask), 0)
	require.NoError(t, g.Validate())

	// Atlantic coverage and plausible ocean temperatures in Fahrenheit.
	assert.Less(t, g.Bounds.MinLat, g.Bounds.MaxLat)
	for i, v := range g.Values {
		if !g.Mask[i] {
			continue
		}
		assert.Greater(t, v, 20.0, "cell %d below freezing seawater", i)
		assert.Less(t, v, 110.0, "cell %d hotter than any ocean", i)
	}
}

func TestSmoke_CropToRegions(t *testing.T) {
	path := smokeSource(t)

	spec, err := domain.DatasetByID("blended_sst")
	require.NoError(t, err)

	loader := NewLoader(testLogger())
	g, err := loader.Load(context.Background(), path, spec)
	require.NoError(t, err)

	for _, region := range domain.DefaultRegions().All() {
		cropped, err := g.Crop(region.Bounds)
		if err != nil {
			t.Logf("region %s outside snapshot coverage: %v", region.ID, err)
			continue
		}
		assert.Greater(t, domain.ValidCount(cropped.Mask), 0, "region %s has no water cells", region.ID)
	}
}
