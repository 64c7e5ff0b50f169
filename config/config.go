// ABOUTME: Settings for the Pipedrive client: credentials, endpoints and local paths
// ABOUTME: Loaded from a JSON settings file, then .env, then PIPEDRIVE_* environment
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

const (
	// AppName names the XDG directories.
	AppName = "pipedrive"

	// LocalFileName is looked up in the working directory before the XDG config file.
	LocalFileName = "pipedrive_settings.json"

	// EnvPrefix prefixes every environment override, e.g. PIPEDRIVE_API_TOKEN.
	EnvPrefix = "PIPEDRIVE"

	DefaultAPIBaseURL  = "https://api.pipedrive.com/"
	DefaultRedirectURL = "http://localhost:8080/oauth/callback"
	DefaultLogLevel    = "warn"
)

// ErrMissingCredentials is returned by Validate when no usable credentials are set.
var ErrMissingCredentials = errors.New("missing credentials")

// Settings holds everything needed to build an API client.
type Settings struct {
	APIBaseURL    string `json:"api_base_url,omitempty" envconfig:"API_BASE_URL"`
	APIToken      string `json:"token,omitempty" envconfig:"API_TOKEN"`
	ClientID      string `json:"client_id,omitempty" envconfig:"CLIENT_ID"`
	ClientSecret  string `json:"client_secret,omitempty" envconfig:"CLIENT_SECRET"`
	RedirectURL   string `json:"redirect_url,omitempty" envconfig:"REDIRECT_URL"`
	OAuth         bool   `json:"oauth,omitempty" envconfig:"OAUTH"`
	LogLevel      string `json:"log_level,omitempty" envconfig:"LOG_LEVEL"`
	FieldCacheDir string `json:"field_cache_dir,omitempty" envconfig:"FIELD_CACHE_DIR"`
	DBPath        string `json:"db_path,omitempty" envconfig:"DB_PATH"`

	path string
}

// Defaults returns settings with every optional value filled in.
func Defaults() *Settings {
	return &Settings{
		APIBaseURL:    DefaultAPIBaseURL,
		RedirectURL:   DefaultRedirectURL,
		LogLevel:      DefaultLogLevel,
		FieldCacheDir: filepath.Join(xdg.CacheHome, AppName, "fields"),
		DBPath:        filepath.Join(xdg.DataHome, AppName, "pipedrive.db"),
	}
}

// ConfigPath returns the XDG settings file location.
func ConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "settings.json")
}

// Load reads settings. With an explicit path only that file is read and it must
// exist; otherwise pipedrive_settings.json in the working directory is tried, then the
// XDG config file. A .env file in the working directory and PIPEDRIVE_* variables
// override file values.
func Load(path string) (*Settings, error) {
	s := Defaults()

	if path != "" {
		if err := s.readFile(path); err != nil {
			return nil, err
		}
	} else {
		for _, candidate := range []string{LocalFileName, ConfigPath()} {
			err := s.readFile(candidate)
			if err == nil {
				break
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
		if s.path == "" {
			s.path = ConfigPath()
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, s); err != nil {
		return nil, fmt.Errorf("failed to read %s_* environment: %w", EnvPrefix, err)
	}
	return s, nil
}

func (s *Settings) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read settings %s: %w", path, err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	s.path = path
	return nil
}

// Path returns the file the settings were loaded from, or where Save writes them.
func (s *Settings) Path() string {
	if s.path == "" {
		return ConfigPath()
	}
	return s.path
}

// Save writes the settings as JSON with owner-only permissions.
func (s *Settings) Save() error {
	path := s.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	s.path = path
	return nil
}

// Validate checks the settings needed to reach the API.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_base_url %q", s.APIBaseURL)
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	if s.OAuth {
		if s.ClientID == "" || s.ClientSecret == "" {
			return fmt.Errorf("%w: oauth needs client_id and client_secret", ErrMissingCredentials)
		}
		return nil
	}
	if s.APIToken == "" {
		return fmt.Errorf("%w: set token in %s or %s_API_TOKEN", ErrMissingCredentials, s.Path(), EnvPrefix)
	}
	return nil
}

// Level parses LogLevel. An empty level means warn.
func (s *Settings) Level() (zerolog.Level, error) {
	if strings.TrimSpace(s.LogLevel) == "" {
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s.LogLevel, err)
	}
	return lvl, nil
}
