package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	OutputDir       string
	RegionsFile     string // optional JSON catalog overriding the built-in regions
	HTTPAddr        string // ops endpoint address; empty disables the server
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	Workers       int
	GridCacheSize int

	// Artifact output configuration.
	TIFFEnabled    bool
	TileSize       int // web tile edge in pixels; 0 disables slicing
	IORetryMax     int
	IORetryBackoff time.Duration

	// Transform configuration.
	CoastalFillMargin int
	BreakSpacingM     float64
	FineMultiplierCap float64

	// Color domain configuration. Min == Max requests the percentile
	// auto-domain computed from each snapshot.
	ColorDomainMin      float64
	ColorDomainMax      float64
	ColorPercentileLow  float64
	ColorPercentileHigh float64
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is merged first when
// present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	retryBackoff, err := envDuration("IO_RETRY_BACKOFF", 200*time.Millisecond)
	if err != nil {
		return nil, err
	}
	workers, err := envInt("WORKERS", 4)
	if err != nil {
		return nil, err
	}
	tileSize, err := envInt("TILE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	retryMax, err := envInt("IO_RETRY_MAX", 3)
	if err != nil {
		return nil, err
	}
	fillMargin, err := envInt("COASTAL_FILL_MARGIN", 0)
	if err != nil {
		return nil, err
	}
	breakSpacing, err := envFloat("BREAK_SPACING_M", 750)
	if err != nil {
		return nil, err
	}
	fineCap, err := envFloat("FINE_MULTIPLIER_CAP", 4)
	if err != nil {
		return nil, err
	}
	domainMin, err := envFloat("COLOR_DOMAIN_MIN", 0)
	if err != nil {
		return nil, err
	}
	domainMax, err := envFloat("COLOR_DOMAIN_MAX", 0)
	if err != nil {
		return nil, err
	}
	pctLow, err := envFloat("COLOR_PERCENTILE_LOW", 2)
	if err != nil {
		return nil, err
	}
	pctHigh, err := envFloat("COLOR_PERCENTILE_HIGH", 98)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OutputDir:       envOrDefault("OUTPUT_DIR", "output"),
		RegionsFile:     os.Getenv("REGIONS_FILE"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		Workers:         workers,
		GridCacheSize:   parseGridCacheSize(),

		TIFFEnabled:    envBool("TIFF_ENABLED", true),
		TileSize:       tileSize,
		IORetryMax:     retryMax,
		IORetryBackoff: retryBackoff,

		CoastalFillMargin: fillMargin,
		BreakSpacingM:     breakSpacing,
		FineMultiplierCap: fineCap,

		ColorDomainMin:      domainMin,
		ColorDomainMax:      domainMax,
		ColorPercentileLow:  pctLow,
		ColorPercentileHigh: pctHigh,
	}

	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.Workers < 1 || cfg.Workers > 64 {
		return nil, errors.New("WORKERS must be between 1 and 64")
	}
	if cfg.TileSize < 0 {
		return nil, errors.New("TILE_SIZE must be 0 or positive")
	}
	if cfg.IORetryMax < 0 {
		return nil, errors.New("IO_RETRY_MAX must be 0 or positive")
	}
	if cfg.CoastalFillMargin < 0 {
		return nil, errors.New("COASTAL_FILL_MARGIN must be 0 or positive")
	}
	if cfg.BreakSpacingM <= 0 {
		return nil, errors.New("BREAK_SPACING_M must be positive")
	}
	if cfg.FineMultiplierCap < 1 {
		return nil, errors.New("FINE_MULTIPLIER_CAP must be at least 1")
	}
	if cfg.ColorDomainMin > cfg.ColorDomainMax {
		return nil, errors.New("COLOR_DOMAIN_MIN must not exceed COLOR_DOMAIN_MAX")
	}
	if cfg.ColorPercentileLow < 0 || cfg.ColorPercentileHigh > 100 || cfg.ColorPercentileLow >= cfg.ColorPercentileHigh {
		return nil, errors.New("COLOR_PERCENTILE_LOW/HIGH must satisfy 0 <= low < high <= 100")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func envBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}

func parseGridCacheSize() int {
	if s := os.Getenv("GRID_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 8
}
