package api

// Functional options configuring a Client in New. Transport-level options (debug
// logging, timeouts) act on the underlying http.Client before the auth wrapper is
// installed, so WithHTTPClient should come first when combined with them.

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/harperreed/pipedrive/objects"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithAPIToken authenticates with a personal API token sent as the api_token parameter.
func WithAPIToken(token string) Option {
	return func(c *Client) error {
		if token == "" {
			return fmt.Errorf("api token must not be empty")
		}
		c.apiToken = token
		return nil
	}
}

// WithOAuthToken authenticates with an OAuth bearer token. When cfg is non-nil the
// token is refreshed through cfg as it expires.
func WithOAuthToken(cfg *oauth2.Config, tok *oauth2.Token) Option {
	return func(c *Client) error {
		if tok == nil {
			return fmt.Errorf("oauth token must not be nil")
		}
		c.oauthConfig = cfg
		c.oauthToken = tok
		return nil
	}
}

// WithHTTPClient bases the client on a copy of hc. The caller's client is never
// modified, so auth and debug wrappers stay private to this Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		copied := *hc
		c.http = &copied
		return nil
	}
}

// WithHTTPTimeout sets the http.Client timeout. The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging dumps each request and response at debug level when enabled.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			c.http.Transport = &debugTransport{base: c.http.Transport}
		}
		return nil
	}
}

// WithTransport replaces the HTTP transport entirely, e.g. with a fake in tests.
// No token is required when a transport is supplied.
func WithTransport(t Transport) Option {
	return func(c *Client) error {
		c.transport = t
		return nil
	}
}

// WithRegistry shares an existing record registry instead of creating a new one.
func WithRegistry(reg *objects.Registry) Option {
	return func(c *Client) error {
		if reg == nil {
			return fmt.Errorf("registry must not be nil")
		}
		c.registry = reg
		return nil
	}
}

// WithFieldCache persists custom field schemas between runs.
func WithFieldCache(cache FieldCache) Option {
	return func(c *Client) error {
		c.fieldCache = cache
		return nil
	}
}

// WithoutCustomFields disables the lazy custom field discovery.
func WithoutCustomFields() Option {
	return func(c *Client) error {
		c.loadFields = false
		return nil
	}
}
