// ABOUTME: Authentication CLI commands
// ABOUTME: Stores an API token or runs the OAuth authorization-code flow
package cli

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/harperreed/pipedrive/api"
)

// AuthTokenCommand prompts for an API token and saves it to the settings file.
func AuthTokenCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("auth token", flag.ExitOnError)
	_ = fs.Parse(args)

	token := strings.TrimSpace(fs.Arg(0))
	if token == "" {
		fmt.Print("Pipedrive API token: ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	s.Settings.APIToken = token
	s.Settings.OAuth = false
	if err := s.Settings.Save(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.Out, "✓ Token saved to %s\n", s.Settings.Path())
	return nil
}

func (s *Session) oauthConfig() (*oauth2.Config, error) {
	if s.Settings.ClientID == "" || s.Settings.ClientSecret == "" {
		return nil, fmt.Errorf("client_id and client_secret must be set in %s", s.Settings.Path())
	}
	return api.NewOAuthConfig(s.Settings.ClientID, s.Settings.ClientSecret, s.Settings.RedirectURL), nil
}

// AuthURLCommand prints the authorization URL for a manual flow.
func AuthURLCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("auth url", flag.ExitOnError)
	state := fs.String("state", "", "State parameter (default: random)")
	_ = fs.Parse(args)

	cfg, err := s.oauthConfig()
	if err != nil {
		return err
	}
	if *state == "" {
		*state = uuid.New().String()
	}
	authURL, err := api.AuthCodeURL(cfg, *state)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(s.Out, authURL)
	return nil
}

// AuthExchangeCommand trades an authorization code for a token and saves it.
func AuthExchangeCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("auth exchange", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("authorization code is required")
	}
	cfg, err := s.oauthConfig()
	if err != nil {
		return err
	}
	tok, err := api.ExchangeCode(context.Background(), cfg, fs.Arg(0))
	if err != nil {
		return err
	}
	return s.saveOAuthToken(tok)
}

// AuthLoginCommand opens the browser and waits for the OAuth redirect on the
// configured redirect URL.
func AuthLoginCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("auth login", flag.ExitOnError)
	timeout := fs.Duration("timeout", 5*time.Minute, "How long to wait for the browser")
	noBrowser := fs.Bool("no-browser", false, "Only print the URL")
	_ = fs.Parse(args)

	cfg, err := s.oauthConfig()
	if err != nil {
		return err
	}
	redirect, err := url.Parse(cfg.RedirectURL)
	if err != nil || redirect.Host == "" {
		return fmt.Errorf("invalid redirect_url %q", cfg.RedirectURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	state := uuid.New().String()
	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errChan <- fmt.Errorf("oauth state mismatch")
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "no code", http.StatusBadRequest)
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := api.ExchangeCode(ctx, cfg, code)
		if err != nil {
			http.Error(w, "exchange failed", http.StatusBadGateway)
			errChan <- err
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	authURL, err := api.AuthCodeURL(cfg, state)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(s.Out, "Opening browser for Pipedrive OAuth...")
	_, _ = fmt.Fprintf(s.Out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	if !*noBrowser {
		_ = openBrowser(authURL)
	}

	select {
	case token := <-callbackChan:
		return s.saveOAuthToken(token)
	case err := <-errChan:
		return fmt.Errorf("authorization failed: %w", err)
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for authorization")
	}
}

func (s *Session) saveOAuthToken(tok *oauth2.Token) error {
	path := api.TokenPath()
	if err := api.SaveToken(path, tok); err != nil {
		return err
	}
	if !s.Settings.OAuth {
		s.Settings.OAuth = true
		if err := s.Settings.Save(); err != nil {
			return err
		}
	}
	_, _ = fmt.Fprintf(s.Out, "\n✓ Authenticated successfully\n")
	_, _ = fmt.Fprintf(s.Out, "✓ Token saved to %s\n", path)
	return nil
}

// AuthStatusCommand reports which credentials the settings select.
func AuthStatusCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("auth status", flag.ExitOnError)
	_ = fs.Parse(args)

	_, _ = fmt.Fprintf(s.Out, "Settings: %s\n", s.Settings.Path())
	_, _ = fmt.Fprintf(s.Out, "API URL:  %s\n", s.Settings.APIBaseURL)
	if !s.Settings.OAuth {
		if s.Settings.APIToken == "" {
			_, _ = fmt.Fprintln(s.Out, "Auth:     not configured (run 'pipedrive auth token')")
		} else {
			_, _ = fmt.Fprintln(s.Out, "Auth:     API token")
		}
		return nil
	}

	tok, err := api.LoadToken(api.TokenPath())
	if err != nil {
		_, _ = fmt.Fprintln(s.Out, "Auth:     OAuth, no token (run 'pipedrive auth login')")
		return nil
	}
	status := "valid"
	if !tok.Valid() {
		status = "expired, refreshed on next request"
	}
	_, _ = fmt.Fprintf(s.Out, "Auth:     OAuth, token %s\n", status)
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	if _, err := exec.LookPath(cmd); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: %s not found\n", cmd)
		return err
	}
	return exec.Command(cmd, args...).Start()
}
