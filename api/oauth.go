// ABOUTME: OAuth configuration and token management for Pipedrive apps
// ABOUTME: Handles the authorization code flow and token storage at XDG paths
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
)

// OAuthBaseURL hosts the authorize and token endpoints.
const OAuthBaseURL = "https://oauth.pipedrive.com/oauth/"

// Endpoint is the Pipedrive OAuth endpoint. Client credentials go in the Basic header.
var Endpoint = oauth2.Endpoint{
	AuthURL:   OAuthBaseURL + "authorize",
	TokenURL:  OAuthBaseURL + "token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// NewOAuthConfig creates the OAuth2 config of a Pipedrive app.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     Endpoint,
	}
}

// AuthCodeURL returns the URL a user visits to authorize the app.
func AuthCodeURL(cfg *oauth2.Config, state string) (string, error) {
	if cfg.ClientID == "" || cfg.RedirectURL == "" {
		return "", fmt.Errorf("client id and redirect url are required to build the authorization url")
	}
	return cfg.AuthCodeURL(state), nil
}

// ExchangeCode trades an authorization code for a token.
func ExchangeCode(ctx context.Context, cfg *oauth2.Config, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

// RefreshToken obtains a fresh access token from tok's refresh token.
func RefreshToken(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil || tok.RefreshToken == "" {
		return nil, fmt.Errorf("a refresh token is required")
	}
	expired := &oauth2.Token{RefreshToken: tok.RefreshToken}
	fresh, err := cfg.TokenSource(ctx, expired).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return fresh, nil
}

// TokenPath returns the XDG-compliant path for storing the OAuth token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "pipedrive", "oauth-token.json")
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}
