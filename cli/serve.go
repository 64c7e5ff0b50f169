// ABOUTME: Web UI subcommand
// ABOUTME: Serves the dashboard over freshly loaded records or a restored snapshot
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/pipedrive/api"
	"github.com/harperreed/pipedrive/db"
	"github.com/harperreed/pipedrive/objects"
	"github.com/harperreed/pipedrive/web"
)

// ServeCommand starts the read-only web UI.
func ServeCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "localhost:8080", "Listen address")
	snapshotID := fs.String("snapshot", "", "Serve a saved snapshot instead of live data")
	persons := fs.Int("persons", 500, "Maximum persons to load (0 to skip)")
	_ = fs.Parse(args)

	var reg *objects.Registry
	if *snapshotID != "" {
		database, err := s.DB()
		if err != nil {
			return err
		}
		reg = objects.NewRegistry()
		n, err := db.RestoreSnapshot(database, *snapshotID, reg)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(s.Out, "Restored %d records from %s\n", n, *snapshotID)
	} else {
		client, err := s.Client()
		if err != nil {
			return err
		}
		ctx := context.Background()
		if _, err := loadPipelines(ctx, client, 0, 0); err != nil {
			return err
		}
		if *persons > 0 {
			if _, err := client.ListPersons(ctx, api.ListOptions{Limit: *persons}); err != nil {
				return fmt.Errorf("failed to list persons: %w", err)
			}
		}
		reg = client.Registry()
	}

	server, err := web.NewServer(reg)
	if err != nil {
		return err
	}
	return server.Start(*addr)
}
