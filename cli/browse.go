// ABOUTME: Interactive pipeline board subcommand
// ABOUTME: Loads pipelines with their deals, then hands the registry to the TUI
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/pipedrive/tui"
)

// BrowseCommand opens the pipeline board. Field edits are saved through the client.
func BrowseCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	pipelineID := fs.Int64("pipeline", 0, "Only this pipeline")
	limit := fs.Int("limit", 0, "Maximum deals per pipeline (0 for all)")
	_ = fs.Parse(args)

	client, err := s.Client()
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(s.Out, "Loading pipelines...")
	if _, err := loadPipelines(context.Background(), client, *pipelineID, *limit); err != nil {
		return err
	}
	return tui.Run(client.Registry(), client)
}
