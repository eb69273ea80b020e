package artifact

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
)

func TestManifestRoundTrip(t *testing.T) {
	run := testRun("run-1")
	tiers := []domain.ManifestTier{
		{
			Tier: "wide", Zoom: 5, Multiplier: 1, Width: 20, Height: 12,
			Bounds: domain.BBox{MinLat: 41.5, MinLon: -71, MaxLat: 45, MaxLon: -66},
			Files: []domain.ManifestFile{
				{Path: "sst_zoom_5.png", SHA256: "0abc", Bytes: 512},
			},
		},
	}
	generatedAt := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)

	m := buildManifest(run, tiers, generatedAt)
	assert.Equal(t, "NOAA Blended SST", m.DatasetName)
	assert.Equal(t, "analysed_sst", m.Variable)
	assert.Equal(t, "Gulf of Maine", m.RegionName)
	assert.Equal(t, run.Request.Region.Bounds, m.Bounds)

	data, err := encodeManifest(m)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1], "manifest ends with a newline")

	path := filepath.Join(t.TempDir(), ManifestName)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	if diff := cmp.Diff(&m, loaded); diff != "" {
		t.Errorf("manifest changed across encode/decode (-want +got):\n%s", diff)
	}
}

func TestLoadManifestErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorIs(t, err, domain.ErrIO)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ManifestName)
		require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))
		_, err := LoadManifest(path)
		assert.ErrorIs(t, err, domain.ErrInput)
	})
}

func TestFileEntry(t *testing.T) {
	e := fileEntry("sst_zoom_5.png", []byte("pixels"))
	assert.Equal(t, "sst_zoom_5.png", e.Path)
	assert.Equal(t, int64(6), e.Bytes)
	assert.Len(t, e.SHA256, 64)
}
