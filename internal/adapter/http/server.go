// Package http exposes the ops endpoints: health, readiness, metrics, and a
// summary of the most recent run batch.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// RunStatus is the wire form of one run result on /runs.
type RunStatus struct {
	Run        string `json:"run"`
	RunID      string `json:"run_id,omitempty"`
	Artifacts  int    `json:"artifacts"`
	Manifest   string `json:"manifest,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Server exposes health, readiness, metrics, and run status HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	runs       atomic.Pointer[[]RunStatus]
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /runs routes.
func NewServer(addr string, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// RecordResults publishes the outcome of a finished batch on /runs.
func (s *Server) RecordResults(results []domain.RunResult) {
	statuses := make([]RunStatus, len(results))
	for i, r := range results {
		statuses[i] = RunStatus{
			Run:        r.Request.Key(),
			RunID:      r.RunID,
			Artifacts:  len(r.Artifacts),
			Manifest:   r.ManifestPath,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			statuses[i].Error = r.Err.Error()
		}
	}
	s.runs.Store(&statuses)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRuns(w http.ResponseWriter, _ *http.Request) {
	if statuses := s.runs.Load(); statuses != nil {
		writeJSON(w, http.StatusOK, *statuses)
		return
	}
	writeJSON(w, http.StatusOK, []RunStatus{})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
