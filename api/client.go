// ABOUTME: Pipedrive API client materializing responses into cached records
// ABOUTME: Provides generic get/list/create/update/delete helpers and SaveChanges
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/harperreed/pipedrive/objects"
)

// DefaultBaseURL is the public API host. Company domains such as
// https://acme.pipedrive.com/ work as well.
const DefaultBaseURL = "https://api.pipedrive.com/"

// Client talks to the Pipedrive API and keeps every returned entity in its Registry.
type Client struct {
	baseURL   string
	http      *http.Client
	transport Transport
	registry  *objects.Registry

	apiToken    string
	oauthConfig *oauth2.Config
	oauthToken  *oauth2.Token

	fieldCache   FieldCache
	loadFields   bool
	schemaMu     sync.Mutex
	schemaLoaded bool
}

// New constructs a Client. Either WithAPIToken, WithOAuthToken or WithTransport must
// be supplied.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		http:       &http.Client{Timeout: 30 * time.Second},
		loadFields: true,
	}

	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply client option: %w", err)
		}
	}

	if c.registry == nil {
		c.registry = objects.NewRegistry()
	}
	if c.transport != nil {
		return c, nil
	}

	switch {
	case c.oauthToken != nil:
		c.wrapTransportWithOAuth()
	case c.apiToken != "":
		c.wrapTransportWithAPIToken()
	default:
		return nil, ErrNoToken
	}
	c.transport = newHTTPTransport(c.baseURL, c.http)
	return c, nil
}

func (c *Client) wrapTransportWithAPIToken() {
	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = &apiTokenTransport{base: base, token: c.apiToken}
}

func (c *Client) wrapTransportWithOAuth() {
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
	var src oauth2.TokenSource
	if c.oauthConfig != nil {
		src = c.oauthConfig.TokenSource(ctx, c.oauthToken)
	} else {
		src = oauth2.StaticTokenSource(c.oauthToken)
	}
	timeout := c.http.Timeout
	c.http = oauth2.NewClient(ctx, src)
	c.http.Timeout = timeout
}

// Registry returns the record cache this client populates.
func (c *Client) Registry() *objects.Registry {
	return c.registry
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) (*Envelope, error) {
	if err := c.ensureSchemas(ctx); err != nil {
		return nil, err
	}
	return c.transport.Fetch(ctx, endpoint, params)
}

func (c *Client) send(ctx context.Context, method, endpoint string, body any) (*Envelope, error) {
	if err := c.ensureSchemas(ctx); err != nil {
		return nil, err
	}
	return c.transport.Send(ctx, method, endpoint, body)
}

// asEntities refreshes or constructs a record for every item of env.
func (c *Client) asEntities(kind objects.Kind, env *Envelope) ([]*objects.Record, error) {
	items, err := env.Items()
	if err != nil {
		return nil, err
	}
	records := make([]*objects.Record, 0, len(items))
	for _, item := range items {
		rec, err := c.registry.RefreshOrConstruct(kind, item)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", kind, err)
		}
		records = append(records, rec)
	}
	recordsLoadedTotal.WithLabelValues(string(kind)).Add(float64(len(records)))
	return records, nil
}

// asEntity expects exactly one item in env.
func (c *Client) asEntity(kind objects.Kind, env *Envelope) (*objects.Record, error) {
	records, err := c.asEntities(kind, env)
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, fmt.Errorf("%w: no %s in response", objects.ErrNotFound, kind)
	case 1:
		return records[0], nil
	}
	return nil, fmt.Errorf("%w %s, got %d", ErrMultipleResults, kind, len(records))
}

func entityPath(kind objects.Kind, id int64, sub ...string) string {
	path := kind.Endpoint() + "/" + strconv.FormatInt(id, 10)
	for _, s := range sub {
		path += "/" + s
	}
	return path
}

func (c *Client) getEntity(ctx context.Context, kind objects.Kind, id int64) (*objects.Record, error) {
	env, err := c.fetch(ctx, entityPath(kind, id), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %d: %w", kind, id, err)
	}
	return c.asEntity(kind, env)
}

func (c *Client) listEntities(ctx context.Context, kind objects.Kind, params url.Values) ([]*objects.Record, error) {
	env, err := c.fetch(ctx, kind.Endpoint(), params)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind.Endpoint(), err)
	}
	return c.asEntities(kind, env)
}

func (c *Client) createEntity(ctx context.Context, kind objects.Kind, fields map[string]any) (*objects.Record, error) {
	env, err := c.send(ctx, http.MethodPost, kind.Endpoint(), fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", kind, err)
	}
	return c.asEntity(kind, env)
}

func (c *Client) updateEntity(ctx context.Context, kind objects.Kind, id int64, fields map[string]any) (*objects.Record, error) {
	env, err := c.send(ctx, http.MethodPut, entityPath(kind, id), fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %d: %w", kind, id, err)
	}
	return c.asEntity(kind, env)
}

func (c *Client) deleteEntity(ctx context.Context, kind objects.Kind, id int64) error {
	if _, err := c.send(ctx, http.MethodDelete, entityPath(kind, id), nil); err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", kind, id, err)
	}
	return nil
}

// Get fetches any kind by id. It backs the CLI's generic get command.
func (c *Client) Get(ctx context.Context, kind objects.Kind, id int64) (*objects.Record, error) {
	return c.getEntity(ctx, kind, id)
}

// SaveChanges writes the record's modified fields back with a PUT and refreshes the
// record from the response. A string "null" is sent as JSON null. Records without
// modifications are returned without a request. On failure the modifications are kept.
func (c *Client) SaveChanges(ctx context.Context, rec *objects.Record) (*objects.Record, error) {
	modified := rec.ModifiedFields()
	if len(modified) == 0 {
		return rec, nil
	}

	params := make(map[string]any, len(modified))
	for _, key := range modified {
		value, _ := rec.Raw(key)
		if s, ok := value.(string); ok && s == "null" {
			value = nil
		}
		params[key] = value
	}
	log.Info().Str("record", rec.String()).Interface("changes", params).Msg("saving changes")

	return c.updateEntity(ctx, rec.Kind(), rec.ID(), params)
}
