// ABOUTME: Webhook subscriptions and the recent-changes feed
// ABOUTME: These responses are not entities and are returned as raw JSON
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Webhook describes a subscription to create.
type Webhook struct {
	SubscriptionURL string `json:"subscription_url"`
	EventAction     string `json:"event_action"`
	EventObject     string `json:"event_object"`
	UserID          int64  `json:"user_id,omitempty"`
	HTTPAuthUser    string `json:"http_auth_user,omitempty"`
	HTTPAuthPass    string `json:"http_auth_password,omitempty"`
}

func (c *Client) ListWebhooks(ctx context.Context) (json.RawMessage, error) {
	return c.raw(ctx, "webhooks", nil)
}

// CreateWebhook subscribes a URL to events such as ("added", "deal") or ("*", "*").
func (c *Client) CreateWebhook(ctx context.Context, hook Webhook) (json.RawMessage, error) {
	if hook.SubscriptionURL == "" || hook.EventAction == "" || hook.EventObject == "" {
		return nil, fmt.Errorf("subscription url, event action and event object are required")
	}
	return c.rawSend(ctx, http.MethodPost, "webhooks", hook)
}

func (c *Client) DeleteWebhook(ctx context.Context, id int64) error {
	_, err := c.rawSend(ctx, http.MethodDelete, "webhooks/"+idParam(id), nil)
	return err
}

// RecentChangesTimeFormat is the layout of the since_timestamp parameter (UTC).
const RecentChangesTimeFormat = "2006-01-02 15:04:05"

// RecentChanges returns every change made after since.
func (c *Client) RecentChanges(ctx context.Context, since time.Time) (json.RawMessage, error) {
	return c.raw(ctx, "recents", url.Values{"since_timestamp": {since.UTC().Format(RecentChangesTimeFormat)}})
}
