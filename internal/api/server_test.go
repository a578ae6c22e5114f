package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opendatahub-br/dadosgov-harvester/internal/catalog"
	"github.com/opendatahub-br/dadosgov-harvester/internal/progress/sinks"
)

type staticStatus struct {
	snap sinks.Snapshot
}

func (s staticStatus) Current() sinks.Snapshot { return s.snap }

func TestHealthzEndpoint(t *testing.T) {
	t.Parallel()

	srv := NewServer(8080, staticStatus{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestStatusEndpointServesSnapshot(t *testing.T) {
	t.Parallel()

	snap := sinks.Snapshot{
		RunID:          "run-1",
		Running:        true,
		Started:        time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		PagesFetched:   7,
		RecordsSeen:    3500,
		UniqueRecords:  3200,
		PartitionsDone: 1,
		Partitions: map[catalog.PartitionKey]catalog.PartitionStatus{
			"cc-by": catalog.PartitionSucceeded,
		},
	}
	srv := NewServer(8080, staticStatus{snap: snap}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got sinks.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, snap.RunID, got.RunID)
	require.True(t, got.Running)
	require.Equal(t, 7, got.PagesFetched)
	require.Equal(t, catalog.PartitionSucceeded, got.Partitions["cc-by"])
}

func TestMetricsEndpointExposesPrometheus(t *testing.T) {
	t.Parallel()

	srv := NewServer(8080, staticStatus{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	t.Parallel()

	srv := NewServer(8080, staticStatus{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}
