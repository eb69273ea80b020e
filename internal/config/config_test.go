package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "output", cfg.OutputDir)
	assert.Empty(t, cfg.RegionsFile)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 8, cfg.GridCacheSize)
	assert.True(t, cfg.TIFFEnabled)
	assert.Equal(t, 256, cfg.TileSize)
	assert.Equal(t, 3, cfg.IORetryMax)
	assert.Equal(t, 200*time.Millisecond, cfg.IORetryBackoff)
	assert.Equal(t, 0, cfg.CoastalFillMargin)
	assert.Equal(t, 750.0, cfg.BreakSpacingM)
	assert.Equal(t, 4.0, cfg.FineMultiplierCap)
	assert.Equal(t, 0.0, cfg.ColorDomainMin)
	assert.Equal(t, 0.0, cfg.ColorDomainMax)
	assert.Equal(t, 2.0, cfg.ColorPercentileLow)
	assert.Equal(t, 98.0, cfg.ColorPercentileHigh)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/var/sst/tiles")
	t.Setenv("REGIONS_FILE", "/etc/sst/regions.json")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("WORKERS", "8")
	t.Setenv("GRID_CACHE_SIZE", "16")
	t.Setenv("TIFF_ENABLED", "false")
	t.Setenv("TILE_SIZE", "512")
	t.Setenv("IO_RETRY_MAX", "5")
	t.Setenv("IO_RETRY_BACKOFF", "1s")
	t.Setenv("COASTAL_FILL_MARGIN", "2")
	t.Setenv("BREAK_SPACING_M", "500")
	t.Setenv("FINE_MULTIPLIER_CAP", "6")
	t.Setenv("COLOR_DOMAIN_MIN", "40")
	t.Setenv("COLOR_DOMAIN_MAX", "85")
	t.Setenv("COLOR_PERCENTILE_LOW", "5")
	t.Setenv("COLOR_PERCENTILE_HIGH", "95")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/sst/tiles", cfg.OutputDir)
	assert.Equal(t, "/etc/sst/regions.json", cfg.RegionsFile)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 16, cfg.GridCacheSize)
	assert.False(t, cfg.TIFFEnabled)
	assert.Equal(t, 512, cfg.TileSize)
	assert.Equal(t, 5, cfg.IORetryMax)
	assert.Equal(t, time.Second, cfg.IORetryBackoff)
	assert.Equal(t, 2, cfg.CoastalFillMargin)
	assert.Equal(t, 500.0, cfg.BreakSpacingM)
	assert.Equal(t, 6.0, cfg.FineMultiplierCap)
	assert.Equal(t, 40.0, cfg.ColorDomainMin)
	assert.Equal(t, 85.0, cfg.ColorDomainMax)
	assert.Equal(t, 5.0, cfg.ColorPercentileLow)
	assert.Equal(t, 95.0, cfg.ColorPercentileHigh)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidWorkers(t *testing.T) {
	t.Setenv("WORKERS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKERS")
}

func TestLoad_WorkersTooLarge(t *testing.T) {
	t.Setenv("WORKERS", "999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKERS")
}

func TestLoad_InvalidTileSize(t *testing.T) {
	t.Setenv("TILE_SIZE", "-1")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TILE_SIZE")
}

func TestLoad_TileSizeZeroDisablesSlicing(t *testing.T) {
	t.Setenv("TILE_SIZE", "0")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.TileSize)
}

func TestLoad_InvalidBreakSpacing(t *testing.T) {
	t.Setenv("BREAK_SPACING_M", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BREAK_SPACING_M")
}

func TestLoad_InvalidColorDomain(t *testing.T) {
	t.Setenv("COLOR_DOMAIN_MIN", "80")
	t.Setenv("COLOR_DOMAIN_MAX", "40")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COLOR_DOMAIN_MIN")
}

func TestLoad_InvalidPercentiles(t *testing.T) {
	t.Setenv("COLOR_PERCENTILE_LOW", "98")
	t.Setenv("COLOR_PERCENTILE_HIGH", "2")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COLOR_PERCENTILE")
}

func TestLoad_GridCacheSizeIgnoresGarbage(t *testing.T) {
	t.Setenv("GRID_CACHE_SIZE", "not-a-number")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.GridCacheSize)
}
