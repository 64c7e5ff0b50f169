// ABOUTME: Webhook CLI commands
// ABOUTME: Lists, creates and deletes webhook subscriptions
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/pipedrive/api"
)

type webhookRow struct {
	ID              int64  `json:"id"`
	SubscriptionURL string `json:"subscription_url"`
	EventAction     string `json:"event_action"`
	EventObject     string `json:"event_object"`
	IsActive        any    `json:"is_active"`
}

// WebhooksListCommand lists the account's webhooks.
func WebhooksListCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("webhooks list", flag.ExitOnError)
	_ = fs.Parse(args)

	client, err := s.Client()
	if err != nil {
		return err
	}
	raw, err := client.ListWebhooks(context.Background())
	if err != nil {
		return err
	}

	var hooks []webhookRow
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &hooks); err != nil {
			return fmt.Errorf("failed to decode webhooks: %w", err)
		}
	}
	if len(hooks) == 0 {
		_, _ = fmt.Fprintln(s.Out, "No webhooks found")
		return nil
	}

	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEVENT\tURL\tACTIVE")
	_, _ = fmt.Fprintln(w, "--\t-----\t---\t------")
	for _, h := range hooks {
		_, _ = fmt.Fprintf(w, "%d\t%s.%s\t%s\t%v\n", h.ID, h.EventAction, h.EventObject, h.SubscriptionURL, h.IsActive)
	}
	_ = w.Flush()
	return nil
}

// WebhooksAddCommand subscribes a URL to an event.
func WebhooksAddCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("webhooks add", flag.ExitOnError)
	action := fs.String("action", "*", "Event action: added, updated, merged, deleted or *")
	object := fs.String("object", "*", "Event object: deal, person, organization, ... or *")
	user := fs.String("user", "", "HTTP basic auth user")
	password := fs.String("password", "", "HTTP basic auth password")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("subscription URL is required")
	}

	client, err := s.Client()
	if err != nil {
		return err
	}
	raw, err := client.CreateWebhook(context.Background(), api.Webhook{
		SubscriptionURL: fs.Arg(0),
		EventAction:     *action,
		EventObject:     *object,
		HTTPAuthUser:    *user,
		HTTPAuthPass:    *password,
	})
	if err != nil {
		return err
	}

	var created webhookRow
	_ = json.Unmarshal(raw, &created)
	_, _ = fmt.Fprintf(s.Out, "✓ Webhook created: %d (%s.%s)\n", created.ID, *action, *object)
	return nil
}

// WebhooksDeleteCommand removes a webhook.
func WebhooksDeleteCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("webhooks delete", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("webhook ID is required")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	client, err := s.Client()
	if err != nil {
		return err
	}
	if err := client.DeleteWebhook(context.Background(), id); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.Out, "✓ Webhook deleted: %d\n", id)
	return nil
}
