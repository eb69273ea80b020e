package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// tile generation pipeline.
type Metrics struct {
	RunsCompleted prometheus.Counter
	RunFailures   *prometheus.CounterVec // labels: stage={load,crop,fill,plan,smooth,resample,colorize,publish}
	ActiveRuns    prometheus.Gauge

	RunDuration   prometheus.Histogram
	StageDuration *prometheus.HistogramVec // labels: stage

	// Artifact output metrics.
	ArtifactsWritten *prometheus.CounterVec // labels: kind={png,tiff,tile,manifest}
	ArtifactBytes    prometheus.Counter
	TilesSkipped     prometheus.Counter
	IORetries        prometheus.Counter

	// Snapshot cache metrics.
	GridCacheHits   prometheus.Counter
	GridCacheMisses prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sstmaps",
			Name:      "runs_completed_total",
			Help:      "Total region/dataset/date runs that published successfully.",
		}),
		RunFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sstmaps",
			Name:      "run_failures_total",
			Help:      "Run failures by pipeline stage.",
		}, []string{"stage"}),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sstmaps",
			Name:      "active_runs",
			Help:      "Number of runs currently executing.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sstmaps",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-transform-publish run.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sstmaps",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		ArtifactsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sstmaps",
			Name:      "artifacts_written_total",
			Help:      "Rendered artifacts written by kind.",
		}, []string{"kind"}),
		ArtifactBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sstmaps",
			Name:      "artifact_bytes_total",
			Help:      "Total bytes of published artifacts.",
		}),
		TilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sstmaps",
			Name:      "tiles_skipped_total",
			Help:      "Web tiles skipped because every pixel was transparent.",
		}),
		IORetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sstmaps",
			Name:      "io_retries_total",
			Help:      "Artifact write attempts retried after transient errors.",
		}),
		GridCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sstmaps",
			Name:      "grid_cache_hits_total",
			Help:      "Snapshot loads served from the in-memory grid cache.",
		}),
		GridCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sstmaps",
			Name:      "grid_cache_misses_total",
			Help:      "Snapshot loads that had to parse the source file.",
		}),
	}

	prometheus.MustRegister(
		m.RunsCompleted,
		m.RunFailures,
		m.ActiveRuns,
		m.RunDuration,
		m.StageDuration,
		m.ArtifactsWritten,
		m.ArtifactBytes,
		m.TilesSkipped,
		m.IORetries,
		m.GridCacheHits,
		m.GridCacheMisses,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsCompleted:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sstmaps", Name: "runs_completed_total"}),
		RunFailures:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sstmaps", Name: "run_failures_total"}, []string{"stage"}),
		ActiveRuns:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sstmaps", Name: "active_runs"}),
		RunDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sstmaps", Name: "run_duration_seconds"}),
		StageDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "sstmaps", Name: "stage_duration_seconds"}, []string{"stage"}),
		ArtifactsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sstmaps", Name: "artifacts_written_total"}, []string{"kind"}),
		ArtifactBytes:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sstmaps", Name: "artifact_bytes_total"}),
		TilesSkipped:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sstmaps", Name: "tiles_skipped_total"}),
		IORetries:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sstmaps", Name: "io_retries_total"}),
		GridCacheHits:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sstmaps", Name: "grid_cache_hits_total"}),
		GridCacheMisses:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sstmaps", Name: "grid_cache_misses_total"}),
	}
}
