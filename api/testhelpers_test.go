package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/pipedrive/objects"
)

const testToken = "secret-token"

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithHTTPClient(srv.Client()), WithAPIToken(testToken)}, opts...)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func writeEnvelope(t *testing.T, w http.ResponseWriter, data any, pagination *Pagination) {
	t.Helper()
	body := map[string]any{"success": true, "data": data}
	if pagination != nil {
		body["additional_data"] = map[string]any{"pagination": pagination}
	}
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(body))
}

// memoryFieldCache is an in-process FieldCache.
type memoryFieldCache struct {
	mu      sync.Mutex
	schemas map[objects.Kind]objects.Schema
	puts    int
}

func newMemoryFieldCache() *memoryFieldCache {
	return &memoryFieldCache{schemas: map[objects.Kind]objects.Schema{}}
}

func (m *memoryFieldCache) Get(kind objects.Kind) (objects.Schema, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schemas[kind]
	return s, ok, nil
}

func (m *memoryFieldCache) Put(kind objects.Kind, schema objects.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[kind] = schema
	m.puts++
	return nil
}
