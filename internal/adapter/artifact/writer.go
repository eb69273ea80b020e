// Package artifact persists rendered zoom-tier images, web tiles, and run
// manifests to the local filesystem.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/tiff"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/config"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/observability"
)

// stagingDir collects in-flight runs under the output root so a publish is a
// single directory rename on the same filesystem.
const stagingDir = ".staging"

const maxRetryBackoff = 5 * time.Second

// Writer persists rendered runs under the output root, one directory per
// (region, dataset, date) key. It implements pipeline.ArtifactStore.
type Writer struct {
	root         string
	tiffEnabled  bool
	tileSize     int
	retryMax     int
	retryBackoff time.Duration
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewWriter creates a filesystem artifact writer for the configured output
// directory.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	return &Writer{
		root:         cfg.OutputDir,
		tiffEnabled:  cfg.TIFFEnabled,
		tileSize:     cfg.TileSize,
		retryMax:     cfg.IORetryMax,
		retryBackoff: cfg.IORetryBackoff,
		metrics:      metrics,
		logger:       logger,
	}
}

// CleanStaging removes staging directories left behind by interrupted runs.
// Call once at startup, before any workers write.
func (w *Writer) CleanStaging() error {
	if err := os.RemoveAll(filepath.Join(w.root, stagingDir)); err != nil {
		return fmt.Errorf("%w: clean staging: %v", domain.ErrIO, err)
	}
	return nil
}

// WriteRun writes every artifact of a rendered run into a staging directory,
// then publishes it with a rename. Consumers never observe a partial run: the
// final directory either holds the complete previous run or the complete new
// one.
func (w *Writer) WriteRun(ctx context.Context, run domain.RenderedRun) ([]domain.TileArtifact, string, error) {
	if len(run.Tiers) == 0 {
		return nil, "", fmt.Errorf("%w: run %s has no rendered tiers", domain.ErrRender, run.Request.Key())
	}

	staging := filepath.Join(w.root, stagingDir, run.RunID)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, "", fmt.Errorf("%w: create staging dir: %v", domain.ErrIO, err)
	}
	defer os.RemoveAll(staging)

	generatedAt := domain.Now()
	tiers := make([]domain.ManifestTier, 0, len(run.Tiers))
	for _, tier := range run.Tiers {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		mt, err := w.writeTier(ctx, staging, tier)
		if err != nil {
			return nil, "", err
		}
		tiers = append(tiers, mt)
	}

	manifest := buildManifest(run, tiers, generatedAt)
	data, err := encodeManifest(manifest)
	if err != nil {
		return nil, "", err
	}
	if err := w.writeFile(ctx, filepath.Join(staging, ManifestName), data); err != nil {
		return nil, "", err
	}
	w.metrics.ArtifactsWritten.WithLabelValues("manifest").Inc()

	final := filepath.Join(w.root, run.Request.Region.ID, run.Request.Dataset.ID, run.Request.Date)
	if err := w.publish(staging, final); err != nil {
		return nil, "", err
	}

	artifacts := make([]domain.TileArtifact, 0, len(run.Tiers))
	for i, tier := range run.Tiers {
		art := domain.TileArtifact{
			Tier:        tier.Tier.Name,
			Zoom:        tier.Tier.Zoom,
			Path:        filepath.Join(final, tierPNGName(tier.Tier.Zoom)),
			Width:       tiers[i].Width,
			Height:      tiers[i].Height,
			Bounds:      tier.Bounds,
			SourceHash:  run.SourceHash,
			GeneratedAt: generatedAt,
		}
		if w.tiffEnabled {
			art.TIFFPath = filepath.Join(final, tierTIFFName(tier.Tier.Zoom))
		}
		artifacts = append(artifacts, art)
	}

	w.logger.Info("run published",
		"run", run.Request.Key(),
		"run_id", run.RunID,
		"dir", final,
		"tiers", len(artifacts),
	)
	return artifacts, filepath.Join(final, ManifestName), nil
}

// writeTier encodes and writes one tier's PNG, optional TIFF, and optional
// web tiles, returning the manifest entry listing every file written.
func (w *Writer) writeTier(ctx context.Context, dir string, tier domain.RenderedTier) (domain.ManifestTier, error) {
	bounds := tier.Image.Bounds()
	mt := domain.ManifestTier{
		Tier:       tier.Tier.Name,
		Zoom:       tier.Tier.Zoom,
		Multiplier: tier.Tier.Multiplier,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Bounds:     tier.Bounds,
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, tier.Image); err != nil {
		return mt, fmt.Errorf("%w: encode png zoom %d: %v", domain.ErrRender, tier.Tier.Zoom, err)
	}
	name := tierPNGName(tier.Tier.Zoom)
	if err := w.writeFile(ctx, filepath.Join(dir, name), buf.Bytes()); err != nil {
		return mt, err
	}
	w.metrics.ArtifactsWritten.WithLabelValues("png").Inc()
	mt.Files = append(mt.Files, fileEntry(name, buf.Bytes()))

	if w.tiffEnabled {
		buf.Reset()
		opts := &tiff.Options{Compression: tiff.Deflate, Predictor: true}
		if err := tiff.Encode(&buf, tier.Image, opts); err != nil {
			return mt, fmt.Errorf("%w: encode tiff zoom %d: %v", domain.ErrRender, tier.Tier.Zoom, err)
		}
		name := tierTIFFName(tier.Tier.Zoom)
		if err := w.writeFile(ctx, filepath.Join(dir, name), buf.Bytes()); err != nil {
			return mt, err
		}
		w.metrics.ArtifactsWritten.WithLabelValues("tiff").Inc()
		mt.Files = append(mt.Files, fileEntry(name, buf.Bytes()))
	}

	if w.tileSize > 0 {
		for _, tile := range SliceTiles(tier.Image, w.tileSize) {
			if tile.Transparent() {
				w.metrics.TilesSkipped.Inc()
				continue
			}
			buf.Reset()
			if err := png.Encode(&buf, tile.Image); err != nil {
				return mt, fmt.Errorf("%w: encode tile z%d %d/%d: %v", domain.ErrRender, tier.Tier.Zoom, tile.Col, tile.Row, err)
			}
			name := filepath.Join("tiles", fmt.Sprintf("z%d", tier.Tier.Zoom), fmt.Sprintf("%d_%d.png", tile.Col, tile.Row))
			if err := w.writeFile(ctx, filepath.Join(dir, name), buf.Bytes()); err != nil {
				return mt, err
			}
			w.metrics.ArtifactsWritten.WithLabelValues("tile").Inc()
			mt.Files = append(mt.Files, fileEntry(name, buf.Bytes()))
		}
	}

	return mt, nil
}

// writeFile writes data through a temp file and rename, retrying transient
// filesystem errors with exponential backoff.
func (w *Writer) writeFile(ctx context.Context, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: create dir for %s: %v", domain.ErrIO, path, err)
	}

	backoff := w.retryBackoff
	var lastErr error
	for attempt := 0; attempt <= w.retryMax; attempt++ {
		if attempt > 0 {
			w.metrics.IORetries.Inc()
			if !sleepWithContext(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff, maxRetryBackoff)
		}
		if lastErr = writeFileAtomic(path, data); lastErr == nil {
			w.metrics.ArtifactBytes.Add(float64(len(data)))
			return nil
		}
		w.logger.Warn("artifact write failed",
			"path", path, "attempt", attempt+1, "error", lastErr)
	}
	return fmt.Errorf("%w: write %s: %v", domain.ErrIO, path, lastErr)
}

// publish replaces the final run directory with the staging directory.
func (w *Writer) publish(staging, final string) error {
	if err := os.MkdirAll(filepath.Dir(final), 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrIO, filepath.Dir(final), err)
	}
	if err := os.RemoveAll(final); err != nil {
		return fmt.Errorf("%w: remove previous run %s: %v", domain.ErrIO, final, err)
	}
	if err := os.Rename(staging, final); err != nil {
		return fmt.Errorf("%w: publish %s: %v", domain.ErrIO, final, err)
	}
	return nil
}

func tierPNGName(zoom int) string {
	return fmt.Sprintf("sst_zoom_%d.png", zoom)
}

func tierTIFFName(zoom int) string {
	return fmt.Sprintf("sst_zoom_%d.tiff", zoom)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
