package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/ryancoughlin/sea-surface-temperatures/internal/adapter/http"
	"github.com/ryancoughlin/sea-surface-temperatures/internal/domain"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("no run has completed yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no run has completed yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRunsEmptyBeforeAnyBatch(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var statuses []httpadapter.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	assert.Empty(t, statuses)
}

func TestRunsReportsRecordedBatch(t *testing.T) {
	srv := newTestServer(nil)
	srv.RecordResults([]domain.RunResult{
		{
			Request: domain.RunRequest{
				Dataset: domain.DatasetSpec{ID: "blended_sst"},
				Region:  domain.RegionSpec{ID: "gulf_of_maine"},
				Date:    "20260815",
			},
			RunID:        "run-1",
			Artifacts:    []domain.TileArtifact{{Zoom: 5}, {Zoom: 8}, {Zoom: 10}},
			ManifestPath: "/out/gulf_of_maine/blended_sst/20260815/manifest.json",
			Duration:     1500 * time.Millisecond,
		},
		{
			Request: domain.RunRequest{
				Dataset: domain.DatasetSpec{ID: "blended_sst"},
				Region:  domain.RegionSpec{ID: "bahamas"},
				Date:    "20260815",
			},
			RunID:    "run-2",
			Duration: 20 * time.Millisecond,
			Err:      errors.New("crop: no valid cells"),
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var statuses []httpadapter.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	require.Len(t, statuses, 2)

	assert.Equal(t, "blended_sst/gulf_of_maine/20260815", statuses[0].Run)
	assert.Equal(t, 3, statuses[0].Artifacts)
	assert.Equal(t, int64(1500), statuses[0].DurationMS)
	assert.Empty(t, statuses[0].Error)

	assert.Equal(t, "blended_sst/bahamas/20260815", statuses[1].Run)
	assert.Zero(t, statuses[1].Artifacts)
	assert.Equal(t, "crop: no valid cells", statuses[1].Error)
}
