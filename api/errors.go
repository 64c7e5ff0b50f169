// ABOUTME: Error types returned by the Pipedrive API client
// ABOUTME: HTTPError carries status, redacted URL and raw body for non-2xx responses
package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

var (
	// ErrNoToken is returned by New when neither an API token nor an OAuth token is configured.
	ErrNoToken = errors.New("an API token or OAuth token is required")

	// ErrMultipleResults is returned when a single-entity endpoint returns several items.
	ErrMultipleResults = errors.New("expected one result")

	// ErrUnsuccessful is returned for a 2xx response whose envelope reports success=false.
	ErrUnsuccessful = errors.New("request was not successful")
)

// HTTPError is returned for any response with a 4xx or 5xx status.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	var hint string
	switch e.StatusCode {
	case http.StatusBadRequest:
		hint = "please check your request body and try again"
	case http.StatusUnauthorized, http.StatusForbidden:
		hint = "please check your credentials, make sure you have permission to perform this action and try again"
	default:
		hint = "please check the URL and try again"
	}
	msg := fmt.Sprintf("%s %s returned %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), hint)
	if e.Body != "" && e.StatusCode != http.StatusUnauthorized && e.StatusCode != http.StatusForbidden {
		msg += "\nraw message: " + e.Body
	}
	return msg
}

// IsNotFound reports whether err is an HTTPError with a 404 or 410 status.
func IsNotFound(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusNotFound || httpErr.StatusCode == http.StatusGone
}

// IsUnauthorized reports whether err is an HTTPError with a 401 or 403 status.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden
}

// redactURL hides the api_token query parameter.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	q := u.Query()
	if q.Has("api_token") {
		q.Set("api_token", "REDACTED")
		clean := *u
		clean.RawQuery = q.Encode()
		return clean.String()
	}
	return u.String()
}
