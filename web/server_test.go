// ABOUTME: Tests for the web UI routes
// ABOUTME: Serves a small in-memory registry through httptest recorders
package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipedrive/objects"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := objects.NewRegistry()
	construct := func(kind objects.Kind, data map[string]any) {
		_, err := reg.RefreshOrConstruct(kind, data)
		require.NoError(t, err)
	}
	construct(objects.KindPipeline, map[string]any{"id": 1, "name": "Sales"})
	construct(objects.KindStage, map[string]any{"id": 11, "name": "Lead", "pipeline_id": 1, "order_nr": 1})
	construct(objects.KindStage, map[string]any{"id": 12, "name": "Proposal", "pipeline_id": 1, "order_nr": 2})
	construct(objects.KindDeal, map[string]any{
		"id": 100, "title": "Widgets", "value": 5000, "currency": "USD", "status": "open",
		"pipeline_id": 1, "stage_id": 11, "org_id": 7, "org_name": "Acme",
	})
	construct(objects.KindNote, map[string]any{
		"id": 900, "content": "Call back Monday",
		"deal_id": 100, "deal": map[string]any{"title": "Widgets"},
	})

	s, err := NewServer(reg)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestDashboard(t *testing.T) {
	rec := get(t, newTestServer(t), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 deals")
	assert.Contains(t, rec.Body.String(), "Sales")
}

func TestPipelinesPage(t *testing.T) {
	rec := get(t, newTestServer(t), "/pipelines")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `href="/deals/100"`)
	assert.Contains(t, body, "Acme")
	assert.Less(t, strings.Index(body, "Lead"), strings.Index(body, "Proposal"))
}

func TestDealPage(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/deals/100")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "next: Proposal")
	assert.Contains(t, rec.Body.String(), "Call back Monday")

	assert.Equal(t, http.StatusNotFound, get(t, s, "/deals/999").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/deals/abc").Code)
}

func TestPipelineGraph(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/graphs/pipeline/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	assert.Equal(t, http.StatusNotFound, get(t, s, "/graphs/pipeline/2").Code)
}

func TestMetricsAndUnknownPaths(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, get(t, s, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/nope").Code)
}
