// Command sstmaps renders zoom-tiered SST map artifacts from a NetCDF
// snapshot. One invocation processes one dataset snapshot for one or more
// regions, publishing PNG/TIFF images, web tiles, and a manifest per
// (region, dataset, date) run directory.
//
// Usage:
//
//	sstmaps -source data/blended_20260815.nc -dataset blended_sst \
//	  -region gulf_of_maine,cape_cod -date 20260815
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/adapter/artifact"
	httpadapter "github.com/ryancoughlin/sea-surface-temperatures/internal/adapter/http"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/adapter/netcdf"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/config"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/observability"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/pipeline"
)

func main() {
	var (
		sourceFlag  = flag.String("source", "", "path of the source NetCDF snapshot (required)")
		datasetFlag = flag.String("dataset", "blended_sst", "dataset id to process")
		regionFlag  = flag.String("region", "all", "region id, comma-separated ids, or all")
		dateFlag    = flag.String("date", "", "snapshot date as YYYYMMDD (required)")
		outFlag     = flag.String("out", "", "output directory, overriding OUTPUT_DIR")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *outFlag != "" {
		cfg.OutputDir = *outFlag
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if *sourceFlag == "" || *dateFlag == "" {
		flag.Usage()
		logger.Error("both -source and -date are required")
		os.Exit(2)
	}
	if _, err := time.Parse("20060102", *dateFlag); err != nil {
		logger.Error("invalid -date, want YYYYMMDD", "date", *dateFlag)
		os.Exit(2)
	}

	dataset, err := domain.DatasetByID(*datasetFlag)
	if err != nil {
		logger.Error("unknown dataset", "dataset", *datasetFlag, "error", err)
		os.Exit(2)
	}

	regions, err := selectRegions(cfg, *regionFlag)
	if err != nil {
		logger.Error("region selection failed", "region", *regionFlag, "error", err)
		os.Exit(2)
	}

	loader := netcdf.NewLoader(logger)
	cached, err := netcdf.NewCachingLoader(loader, cfg.GridCacheSize, metrics, logger)
	if err != nil {
		logger.Error("grid cache init failed", "error", err)
		os.Exit(1)
	}

	writer := artifact.NewWriter(cfg, metrics, logger)
	if err := writer.CleanStaging(); err != nil {
		logger.Warn("staging cleanup failed", "error", err)
	}

	policy := domain.TierPolicy{BreakSpacingM: cfg.BreakSpacingM, FineCap: cfg.FineMultiplierCap}
	orch := pipeline.New(cached, writer, logger, metrics, policy,
		[2]float64{cfg.ColorPercentileLow, cfg.ColorPercentileHigh})
	pool := pipeline.NewPool(orch, cfg.Workers, logger)

	// The ops server is optional for a batch renderer; enable it with
	// HTTP_ADDR when running under an orchestrator that scrapes metrics.
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, orch, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	color := domain.ColorMapSpec{Min: cfg.ColorDomainMin, Max: cfg.ColorDomainMax}
	reqs := make([]domain.RunRequest, 0, len(regions))
	for _, region := range regions {
		reqs = append(reqs, domain.RunRequest{
			Dataset:           dataset,
			Region:            region,
			Date:              *dateFlag,
			Source:            *sourceFlag,
			Color:             color,
			CoastalFillMargin: cfg.CoastalFillMargin,
		})
	}

	results := pool.RunAll(ctx, reqs)
	if srv != nil {
		srv.RecordResults(results)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if failed > 0 {
		logger.Error("batch finished with failures", "failed", failed, "total", len(results))
		os.Exit(1)
	}
	logger.Info("batch finished", "runs", len(results))
}

// selectRegions resolves the -region flag against the catalog, which is the
// built-in set unless REGIONS_FILE points at a JSON override.
func selectRegions(cfg *config.Config, flagValue string) ([]domain.RegionSpec, error) {
	catalog := domain.DefaultRegions()
	if cfg.RegionsFile != "" {
		var err error
		catalog, err = domain.LoadRegions(cfg.RegionsFile)
		if err != nil {
			return nil, err
		}
	}

	if flagValue == "all" || flagValue == "" {
		return catalog.All(), nil
	}

	ids := strings.Split(flagValue, ",")
	regions := make([]domain.RegionSpec, 0, len(ids))
	for _, id := range ids {
		region, err := catalog.Get(strings.TrimSpace(id))
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}
