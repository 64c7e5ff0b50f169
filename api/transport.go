// ABOUTME: HTTP transport for the Pipedrive v1 REST API
// ABOUTME: Wraps requests with auth, request ids and JSON envelope decoding
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Transport performs raw API calls. Endpoints are relative to the v1 root, e.g. "persons/12".
type Transport interface {
	Fetch(ctx context.Context, endpoint string, params url.Values) (*Envelope, error)
	Send(ctx context.Context, method, endpoint string, body any) (*Envelope, error)
}

// Envelope is the JSON wrapper every v1 response uses.
type Envelope struct {
	Success        bool            `json:"success"`
	Data           json.RawMessage `json:"data"`
	Error          string          `json:"error,omitempty"`
	AdditionalData AdditionalData  `json:"additional_data"`
}

// AdditionalData holds response metadata.
type AdditionalData struct {
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the cursor of a list response.
type Pagination struct {
	Start                 int  `json:"start"`
	Limit                 int  `json:"limit"`
	MoreItemsInCollection bool `json:"more_items_in_collection"`
	NextStart             int  `json:"next_start"`
}

// Items decodes Data into a list of payloads. A single object becomes a one-item list;
// null or absent data yields no items.
func (e *Envelope) Items() ([]map[string]any, error) {
	if e == nil {
		return nil, nil
	}
	raw := bytes.TrimSpace(e.Data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if raw[0] == '[' {
		var items []map[string]any
		if err := dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("failed to decode data list: %w", err)
		}
		return items, nil
	}
	var item map[string]any
	if err := dec.Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode data object: %w", err)
	}
	if len(item) == 0 {
		return nil, nil
	}
	return []map[string]any{item}, nil
}

const apiVersion = "v1/"

type httpTransport struct {
	baseURL string
	http    *http.Client
}

func newHTTPTransport(baseURL string, client *http.Client) *httpTransport {
	return &httpTransport{
		baseURL: strings.TrimRight(baseURL, "/") + "/" + apiVersion,
		http:    client,
	}
}

func (t *httpTransport) Fetch(ctx context.Context, endpoint string, params url.Values) (*Envelope, error) {
	return t.do(ctx, http.MethodGet, endpoint, params, nil)
}

func (t *httpTransport) Send(ctx context.Context, method, endpoint string, body any) (*Envelope, error) {
	return t.do(ctx, method, endpoint, nil, body)
}

func (t *httpTransport) do(ctx context.Context, method, endpoint string, params url.Values, body any) (*Envelope, error) {
	u, err := url.Parse(t.baseURL + strings.TrimLeft(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to build url for %s: %w", endpoint, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, */*")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.http.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("failed to %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &HTTPError{
			Method:     method,
			URL:        redactURL(resp.Request.URL),
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	if !env.Success && env.Error != "" {
		return nil, fmt.Errorf("%w: %s %s: %s", ErrUnsuccessful, method, endpoint, env.Error)
	}
	return &env, nil
}

// apiTokenTransport adds the api_token query parameter to every request.
type apiTokenTransport struct {
	base  http.RoundTripper
	token string
}

func (t *apiTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	q := cloned.URL.Query()
	q.Set("api_token", t.token)
	cloned.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(cloned)
}
