package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/config"
	"github.com/lexcraftlabs/glossgen/internal/qagate"
	"github.com/lexcraftlabs/glossgen/internal/report"
	"github.com/lexcraftlabs/glossgen/internal/review"
	"github.com/lexcraftlabs/glossgen/internal/store"
)

func newTestServer(t *testing.T) (*Server, *report.FileStore, *review.FileSink) {
	t.Helper()
	dir := t.TempDir()

	reports, err := report.NewFileStore(filepath.Join(dir, "reports"), zap.NewNop())
	require.NoError(t, err)
	reviews, err := review.NewFileSink(filepath.Join(dir, "reviews.jsonl"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { reviews.Close() })

	s, err := New(config.ServerConfig{Port: 0}, reports, reviews, zap.NewNop())
	require.NoError(t, err)
	return s, reports, reviews
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "glossgen", body.Service)
}

func TestMetrics(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReport_Found(t *testing.T) {
	s, reports, _ := newTestServer(t)

	r, err := report.Build("batch-1", &qagate.Result{Snapshot: &store.Snapshot{
		Scope: store.Scope{Language: "es", Level: "A2"},
	}})
	require.NoError(t, err)
	require.NoError(t, reports.Save(r))

	req := httptest.NewRequest(http.MethodGet, "/reports/batch-1", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got report.ValidationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "batch-1", got.BatchID)
	assert.Equal(t, "es", got.Language)
}

func TestReport_NotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/reports/absent", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviews(t *testing.T) {
	s, _, reviews := newTestServer(t)

	entry := &catalog.ManualReviewEntry{
		ItemKey:       "es|vocabulary|banco",
		Attempts:      3,
		LastError:     "shape/definition: definition is empty",
		SourcePayload: `{"target_item":"banco"}`,
	}
	require.NoError(t, reviews.Append(context.Background(), entry))

	req := httptest.NewRequest(http.MethodGet, "/reviews", nil)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []catalog.ManualReviewEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "es|vocabulary|banco", got[0].ItemKey)
	assert.Equal(t, 3, got[0].Attempts)
}

func TestNew_RequiresReportStore(t *testing.T) {
	_, err := New(config.ServerConfig{}, nil, nil, zap.NewNop())
	assert.Error(t, err)
}
