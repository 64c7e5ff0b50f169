// ABOUTME: Shared state for CLI commands: settings, API client, field cache and database
// ABOUTME: Each resource is opened on first use and released by Close
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/harperreed/pipedrive/api"
	"github.com/harperreed/pipedrive/config"
	"github.com/harperreed/pipedrive/db"
	"github.com/harperreed/pipedrive/fieldcache"
)

// Session carries the resources a command needs.
type Session struct {
	Settings *config.Settings
	Out      io.Writer

	client   *api.Client
	cache    *fieldcache.Cache
	database *sql.DB
}

// NewSession returns a session writing to stdout.
func NewSession(settings *config.Settings) *Session {
	return &Session{Settings: settings, Out: os.Stdout}
}

// Client builds the API client from the settings. OAuth sessions use the token
// saved by 'auth login'.
func (s *Session) Client() (*api.Client, error) {
	if s.client != nil {
		return s.client, nil
	}
	if err := s.Settings.Validate(); err != nil {
		return nil, err
	}

	var opts []api.Option
	if s.Settings.OAuth {
		tok, err := api.LoadToken(api.TokenPath())
		if err != nil {
			return nil, fmt.Errorf("no OAuth token, run 'pipedrive auth login' first: %w", err)
		}
		cfg := api.NewOAuthConfig(s.Settings.ClientID, s.Settings.ClientSecret, s.Settings.RedirectURL)
		opts = append(opts, api.WithOAuthToken(cfg, tok))
	} else {
		opts = append(opts, api.WithAPIToken(s.Settings.APIToken))
	}

	if s.Settings.FieldCacheDir != "" {
		cache, err := fieldcache.Open(s.Settings.FieldCacheDir)
		if err != nil {
			log.Printf("Warning: field cache unavailable: %v", err)
		} else {
			s.cache = cache
			opts = append(opts, api.WithFieldCache(cache))
		}
	}

	client, err := api.New(s.Settings.APIBaseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	s.client = client
	return client, nil
}

// FieldCache returns the schema cache, opening it if no client has yet.
func (s *Session) FieldCache() (*fieldcache.Cache, error) {
	if s.cache != nil {
		return s.cache, nil
	}
	cache, err := fieldcache.Open(s.Settings.FieldCacheDir)
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return cache, nil
}

// DB opens the local snapshot database.
func (s *Session) DB() (*sql.DB, error) {
	if s.database != nil {
		return s.database, nil
	}
	path := s.Settings.DBPath
	if path == "" {
		path = db.DefaultPath()
	}
	database, err := db.OpenDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s.database = database
	return database, nil
}

// Close releases whatever the session opened. It is safe to call twice.
func (s *Session) Close() {
	if s.database != nil {
		_ = s.database.Close()
		s.database = nil
	}
	if s.cache != nil {
		_ = s.cache.Close()
		s.cache = nil
	}
}
