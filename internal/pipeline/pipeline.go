package pipeline

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/observability"
)

// ArtifactStore persists one rendered run and reports the published
// artifacts and the manifest path.
type ArtifactStore interface {
	WriteRun(ctx context.Context, run domain.RenderedRun) ([]domain.TileArtifact, string, error)
}

// Pipeline stage names, used as metric labels and RunError context.
const (
	stageLoad     = "load"
	stageCrop     = "crop"
	stageFill     = "fill"
	stagePlan     = "plan"
	stageSmooth   = "smooth"
	stageResample = "resample"
	stageColorize = "colorize"
	stagePublish  = "publish"
)

// Orchestrator executes load-crop-smooth-resample-colorize-publish runs.
type Orchestrator struct {
	loader      domain.GridLoader
	store       ArtifactStore
	logger      *slog.Logger
	metrics     *observability.Metrics
	policy      domain.TierPolicy
	percentiles [2]float64
	ready       atomic.Bool
}

// New creates an Orchestrator with the given ports and observability. The
// percentiles bound the automatic color domain when a request does not pin
// one explicitly.
func New(loader domain.GridLoader, store ArtifactStore, logger *slog.Logger, metrics *observability.Metrics, policy domain.TierPolicy, percentiles [2]float64) *Orchestrator {
	return &Orchestrator{
		loader:      loader,
		store:       store,
		logger:      logger,
		metrics:     metrics,
		policy:      policy,
		percentiles: percentiles,
	}
}

// CheckReadiness returns nil once at least one run has published, or an
// error describing why the service is not yet ready.
func (o *Orchestrator) CheckReadiness(_ context.Context) error {
	if !o.ready.Load() {
		return errors.New("no run has completed yet")
	}
	return nil
}

// Run executes one run request end to end. Failures are returned inside the
// result rather than aborting the process: a bad snapshot for one region
// must not take down its siblings. Every failure is a RunError naming the
// stage that died.
func (o *Orchestrator) Run(ctx context.Context, req domain.RunRequest) domain.RunResult {
	start := time.Now()
	res := domain.RunResult{Request: req, RunID: uuid.NewString()}
	logger := o.logger.With("run", req.Key(), "run_id", res.RunID)

	o.metrics.ActiveRuns.Inc()
	defer o.metrics.ActiveRuns.Dec()
	logger.Info("run started", "source", req.Source)

	rendered, err := o.render(ctx, req, res.RunID, logger)
	if err != nil {
		return o.fail(res, err, start, logger)
	}
	rendered.ProcessingMS = time.Since(start).Milliseconds()

	if err := o.runStage(stagePublish, "", req, func() error {
		var err error
		res.Artifacts, res.ManifestPath, err = o.store.WriteRun(ctx, *rendered)
		return err
	}); err != nil {
		return o.fail(res, err, start, logger)
	}

	res.Duration = time.Since(start)
	o.metrics.RunsCompleted.Inc()
	o.metrics.RunDuration.Observe(res.Duration.Seconds())
	o.ready.Store(true)
	logger.Info("run completed",
		"duration_ms", res.Duration.Milliseconds(),
		"artifacts", len(res.Artifacts),
		"manifest", res.ManifestPath,
	)
	return res
}

// render produces the colorized tier images for a request, stopping at the
// first stage failure.
func (o *Orchestrator) render(ctx context.Context, req domain.RunRequest, runID string, logger *slog.Logger) (*domain.RenderedRun, error) {
	var native *domain.RasterGrid
	if err := o.runStage(stageLoad, "", req, func() error {
		var err error
		native, err = o.loader.Load(ctx, req.Source, req.Dataset)
		return err
	}); err != nil {
		return nil, err
	}
	logger.Debug("snapshot loaded",
		"rows", native.Rows, "cols", native.Cols,
		"resolution_m", native.ResolutionM, "hash", native.SourceHash)

	var region *domain.RasterGrid
	if err := o.runStage(stageCrop, "", req, func() error {
		var err error
		region, err = native.Crop(req.Region.Bounds)
		if err != nil {
			return err
		}
		return domain.RequireValidCells(region)
	}); err != nil {
		return nil, err
	}

	if req.CoastalFillMargin > 0 {
		if err := o.runStage(stageFill, "", req, func() error {
			region = domain.CoastalFill(region, req.CoastalFillMargin)
			return nil
		}); err != nil {
			return nil, err
		}
	}

	tiers := req.Tiers
	color := req.Color
	if err := o.runStage(stagePlan, "", req, func() error {
		if len(tiers) == 0 {
			tiers = domain.DefaultTiers(region.ResolutionM, o.policy)
		}
		if err := domain.ValidateTiers(tiers); err != nil {
			return err
		}
		if len(color.Anchors) == 0 {
			color.Anchors = domain.DefaultRamp()
		}
		if color.Min == color.Max {
			lo, hi, err := domain.AutoDomain(region, o.percentiles[0], o.percentiles[1])
			if err != nil {
				return err
			}
			color.Min, color.Max = lo, hi
		}
		return nil
	}); err != nil {
		return nil, err
	}
	logger.Info("run planned",
		"tiers", len(tiers),
		"color_min_f", color.Min, "color_max_f", color.Max,
		"rows", region.Rows, "cols", region.Cols)

	// Tiers that share smoothing parameters share one smoothed grid; with
	// the default policy the intermediate and fine tiers both read the
	// single Gaussian pass.
	smoothed := make(map[domain.SmoothSpec]*domain.RasterGrid, len(tiers))
	for _, tier := range tiers {
		spec := tier.SmoothSpec()
		if _, ok := smoothed[spec]; ok {
			continue
		}
		var sg *domain.RasterGrid
		if err := o.runStage(stageSmooth, tier.Name, req, func() error {
			var err error
			sg, err = domain.Smooth(region, spec)
			if err != nil {
				return err
			}
			return domain.RequireSameMask(region, sg)
		}); err != nil {
			return nil, err
		}
		smoothed[spec] = sg
	}

	run := &domain.RenderedRun{
		RunID:       runID,
		Request:     req,
		SourceHash:  native.SourceHash,
		ColorDomain: [2]float64{color.Min, color.Max},
	}
	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var rg *domain.RasterGrid
		if err := o.runStage(stageResample, tier.Name, req, func() error {
			var err error
			rg, err = domain.Resample(smoothed[tier.SmoothSpec()], tier.ResampleSpec())
			return err
		}); err != nil {
			return nil, err
		}

		var img *image.NRGBA
		if err := o.runStage(stageColorize, tier.Name, req, func() error {
			var err error
			img, err = domain.Colorize(rg, color)
			return err
		}); err != nil {
			return nil, err
		}

		run.Tiers = append(run.Tiers, domain.RenderedTier{
			Tier:       tier,
			Image:      img,
			Bounds:     rg.Bounds,
			SourceHash: rg.SourceHash,
		})
		logger.Debug("tier rendered",
			"tier", tier.Name, "zoom", tier.Zoom,
			"rows", rg.Rows, "cols", rg.Cols)
	}
	return run, nil
}

// runStage times f, records its duration and failure metrics, and wraps any
// error with the run and stage identity.
func (o *Orchestrator) runStage(stage, tier string, req domain.RunRequest, f func() error) error {
	start := time.Now()
	err := f()
	o.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		o.metrics.RunFailures.WithLabelValues(stage).Inc()
		return &domain.RunError{
			Dataset: req.Dataset.ID,
			Region:  req.Region.ID,
			Date:    req.Date,
			Tier:    tier,
			Stage:   stage,
			Err:     err,
		}
	}
	return nil
}

func (o *Orchestrator) fail(res domain.RunResult, err error, start time.Time, logger *slog.Logger) domain.RunResult {
	res.Err = err
	res.Duration = time.Since(start)
	logger.Error("run failed", "error", err, "duration_ms", res.Duration.Milliseconds())
	return res
}
