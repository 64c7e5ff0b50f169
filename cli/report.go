// ABOUTME: Report CLI commands
// ABOUTME: Loads pipelines or persons from the API and prints the plain-text reports
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/harperreed/pipedrive/api"
	"github.com/harperreed/pipedrive/objects"
	"github.com/harperreed/pipedrive/report"
)

// ReportPipelineCommand prints every pipeline's deals grouped by stage.
func ReportPipelineCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("report pipeline", flag.ExitOnError)
	pipelineID := fs.Int64("pipeline", 0, "Only this pipeline")
	limit := fs.Int("limit", 0, "Maximum deals per pipeline (0 for all)")
	_ = fs.Parse(args)

	client, err := s.Client()
	if err != nil {
		return err
	}
	pipelines, err := loadPipelines(context.Background(), client, *pipelineID, *limit)
	if err != nil {
		return err
	}
	return report.PipelineReport(s.Out, pipelines)
}

// loadPipelines fetches pipelines with their stages and deals so the registry
// links them together. pipelineID 0 loads all of them.
func loadPipelines(ctx context.Context, client *api.Client, pipelineID int64, limit int) ([]*objects.Record, error) {
	var pipelines []*objects.Record
	if pipelineID != 0 {
		p, err := client.GetPipeline(ctx, pipelineID)
		if err != nil {
			return nil, err
		}
		pipelines = []*objects.Record{p}
	} else {
		all, err := client.ListPipelines(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list pipelines: %w", err)
		}
		pipelines = all
	}

	if _, err := client.ListStages(ctx, pipelineID); err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	for _, p := range pipelines {
		if _, err := client.PipelineDeals(ctx, p.ID(), api.ListOptions{Limit: limit}); err != nil {
			return nil, fmt.Errorf("failed to list deals of %s: %w", p, err)
		}
		p.SortStages()
	}
	return pipelines, nil
}

// ReportPersonsCommand prints persons with their organizations.
func ReportPersonsCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("report persons", flag.ExitOnError)
	limit := fs.Int("limit", 5000, "Maximum persons to load")
	show := fs.Int("show", 5, "Persons to print (0 for all)")
	withOrgs := fs.Bool("orgs", false, "Also load organizations so they are no longer stubs")
	_ = fs.Parse(args)

	client, err := s.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	persons, err := client.ListPersons(ctx, api.ListOptions{Limit: *limit})
	if err != nil {
		return fmt.Errorf("failed to list persons: %w", err)
	}
	if *withOrgs {
		if _, err := client.ListOrganizations(ctx, api.ListOptions{Limit: *limit}); err != nil {
			return fmt.Errorf("failed to list organizations: %w", err)
		}
	}
	return report.PersonsReport(s.Out, persons, *show)
}
