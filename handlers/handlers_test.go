// ABOUTME: Tests for the MCP tool handlers
// ABOUTME: Runs each tool against a fake Pipedrive API served by httptest
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipedrive/api"
)

// fakePipedrive serves a tiny account: one pipeline with two stages, one deal, one
// person at a stub organization.
type fakePipedrive struct {
	t    *testing.T
	mu   sync.Mutex
	deal map[string]any
	puts []map[string]any
}

func newFakePipedrive(t *testing.T) *fakePipedrive {
	return &fakePipedrive{t: t, deal: map[string]any{
		"id": 100, "title": "Widgets", "status": "open", "value": 5000, "currency": "USD",
		"pipeline_id": 1, "stage_id": 11, "org_id": 7, "org_name": "Acme",
		"person_id": 5, "person_name": "Ada", "abc123": 1,
	}}
}

func (f *fakePipedrive) write(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(f.t, json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data}))
}

func (f *fakePipedrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ada := map[string]any{
		"id": 5, "name": "Ada", "org_id": map[string]any{"value": 7, "name": "Acme"},
		"email": []any{map[string]any{"value": "ada@example.com", "primary": true}},
	}

	switch {
	case r.URL.Path == "/v1/dealFields":
		f.write(w, []map[string]any{
			{"key": "title", "name": "Title"},
			{"key": "abc123", "name": "Priority", "options": []map[string]any{{"id": 1, "label": "Low"}, {"id": 2, "label": "High"}}},
		})
	case strings.HasSuffix(r.URL.Path, "Fields"):
		f.write(w, []map[string]any{})
	case r.URL.Path == "/v1/persons/find":
		assert.Equal(f.t, "ada", r.URL.Query().Get("term"))
		f.write(w, []map[string]any{ada})
	case r.URL.Path == "/v1/persons/5":
		f.write(w, ada)
	case r.URL.Path == "/v1/pipelines":
		f.write(w, []map[string]any{{"id": 1, "name": "Sales"}})
	case r.URL.Path == "/v1/pipelines/1":
		f.write(w, map[string]any{"id": 1, "name": "Sales"})
	case r.URL.Path == "/v1/stages":
		f.write(w, []map[string]any{
			{"id": 12, "name": "Proposal", "pipeline_id": 1, "order_nr": 2},
			{"id": 11, "name": "Lead", "pipeline_id": 1, "order_nr": 1},
		})
	case r.URL.Path == "/v1/pipelines/1/deals":
		f.write(w, []map[string]any{f.deal})
	case r.URL.Path == "/v1/deals/100" && r.Method == http.MethodGet:
		f.write(w, f.deal)
	case r.URL.Path == "/v1/deals/100" && r.Method == http.MethodPut:
		var body map[string]any
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		f.puts = append(f.puts, body)
		for k, v := range body {
			f.deal[k] = v
		}
		f.write(w, f.deal)
	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL, api.WithHTTPClient(srv.Client()), api.WithAPIToken("test"))
	require.NoError(t, err)
	return client
}

func TestFindPersons(t *testing.T) {
	h := NewPersonHandlers(newTestClient(t, newFakePipedrive(t)))

	_, out, err := h.FindPersons(context.Background(), nil, FindPersonsInput{Term: "ada"})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, PersonOutput{ID: 5, Name: "Ada", Organization: "Acme", Email: "ada@example.com"}, out.Persons[0])

	_, _, err = h.FindPersons(context.Background(), nil, FindPersonsInput{})
	assert.Error(t, err)
}

func TestGetPerson(t *testing.T) {
	client := newTestClient(t, newFakePipedrive(t))
	h := NewPersonHandlers(client)

	// loading the pipeline deals links the deal to Ada
	_, err := client.PipelineDeals(context.Background(), 1, api.ListOptions{})
	require.NoError(t, err)

	_, out, err := h.GetPerson(context.Background(), nil, GetPersonInput{ID: 5})
	require.NoError(t, err)
	assert.Equal(t, "Ada", out.Person.Name)
	assert.False(t, out.Person.Stub)
	assert.Equal(t, "Ada", out.Fields["name"])
	require.Len(t, out.Deals, 1)
	assert.Equal(t, "Widgets", out.Deals[0].Title)
}

func TestListPipelines(t *testing.T) {
	h := NewDealHandlers(newTestClient(t, newFakePipedrive(t)))

	_, out, err := h.ListPipelines(context.Background(), nil, ListPipelinesInput{})
	require.NoError(t, err)
	require.Len(t, out.Pipelines, 1)
	assert.Equal(t, "Sales", out.Pipelines[0].Name)
	assert.Equal(t, []string{"Lead", "Proposal"}, out.Pipelines[0].Stages)
}

func TestListPipelineDeals(t *testing.T) {
	h := NewDealHandlers(newTestClient(t, newFakePipedrive(t)))

	_, out, err := h.ListPipelineDeals(context.Background(), nil, ListPipelineDealsInput{PipelineID: 1})
	require.NoError(t, err)
	assert.Equal(t, "Sales", out.Pipeline)
	require.Equal(t, 1, out.Count)

	deal := out.Deals[0]
	assert.Equal(t, "Lead", deal.Stage)
	assert.Equal(t, "Proposal", deal.NextStage)
	assert.Equal(t, "Acme", deal.Org)
	assert.Equal(t, "Ada", deal.Person)
	assert.Equal(t, "5000", deal.Value)

	_, _, err = h.ListPipelineDeals(context.Background(), nil, ListPipelineDealsInput{})
	assert.Error(t, err)
}

func TestGetDealMapsCustomFields(t *testing.T) {
	h := NewDealHandlers(newTestClient(t, newFakePipedrive(t)))

	_, out, err := h.GetDeal(context.Background(), nil, GetDealInput{ID: 100})
	require.NoError(t, err)
	assert.Equal(t, "Widgets", out.Deal.Title)
	assert.Equal(t, "Low", out.Fields["priority"])
	assert.NotContains(t, out.Fields, "abc123")
}

func TestSetFieldSavesOnlyTheChangedKey(t *testing.T) {
	fake := newFakePipedrive(t)
	h := NewDealHandlers(newTestClient(t, fake))

	_, out, err := h.SetField(context.Background(), nil, SetFieldInput{Kind: "deal", ID: 100, Field: "priority", Value: "High"})
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123"}, out.Saved)
	assert.Equal(t, "High", out.Fields["priority"])

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.puts, 1)
	assert.Equal(t, map[string]any{"abc123": "2"}, fake.puts[0])
}

func TestSetFieldRejectsBadInput(t *testing.T) {
	fake := newFakePipedrive(t)
	h := NewDealHandlers(newTestClient(t, fake))
	ctx := context.Background()

	_, _, err := h.SetField(ctx, nil, SetFieldInput{Kind: "widget", ID: 100, Field: "title", Value: "x"})
	assert.Error(t, err)

	_, _, err = h.SetField(ctx, nil, SetFieldInput{Kind: "deal", ID: 100, Field: "priority", Value: "Urgent"})
	assert.Error(t, err)

	_, _, err = h.SetField(ctx, nil, SetFieldInput{Kind: "deal", ID: 100, Field: "nickname", Value: "x"})
	assert.Error(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.puts)
}

func TestGeneratePipelineGraph(t *testing.T) {
	h := NewVizHandlers(newTestClient(t, newFakePipedrive(t)))

	_, out, err := h.GenerateGraph(context.Background(), nil, GenerateGraphInput{Type: "pipeline", EntityID: 1})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, "deal_100")
	assert.Positive(t, out.EdgeCount)

	_, _, err = h.GenerateGraph(context.Background(), nil, GenerateGraphInput{Type: "galaxy", EntityID: 1})
	assert.Error(t, err)
}

func TestNewServerRegistersTools(t *testing.T) {
	assert.NotPanics(t, func() {
		NewServer(newTestClient(t, newFakePipedrive(t)), "test")
	})
}
