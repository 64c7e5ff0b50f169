// ABOUTME: Visualization CLI commands
// ABOUTME: Renders pipeline and organization graphs and the terminal dashboard
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/harperreed/pipedrive/api"
	"github.com/harperreed/pipedrive/viz"
)

// VizPipelineCommand renders one pipeline's stages, deals and organizations.
func VizPipelineCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("viz pipeline", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "Output format: dot, svg or png")
	limit := fs.Int("limit", 0, "Maximum deals to load (0 for all)")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("pipeline ID is required")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}
	gvFormat, err := parseFormat(*format)
	if err != nil {
		return err
	}

	client, err := s.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()
	if _, err := loadPipelines(ctx, client, id, *limit); err != nil {
		return err
	}

	return writeOutput(s.Out, *output, func(w io.Writer) error {
		return viz.NewGraphGenerator(client.Registry()).RenderPipelineGraph(ctx, id, gvFormat, w)
	})
}

// VizOrgCommand renders an organization with its persons and deals as DOT.
func VizOrgCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("viz org", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("organization ID is required")
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	client, err := s.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if _, err := client.GetOrganization(ctx, id); err != nil {
		return fmt.Errorf("failed to get organization %d: %w", id, err)
	}
	if _, err := client.OrganizationPersons(ctx, id, api.ListOptions{}); err != nil {
		return fmt.Errorf("failed to list organization persons: %w", err)
	}
	if _, err := client.OrganizationDeals(ctx, id, api.ListOptions{}); err != nil {
		return fmt.Errorf("failed to list organization deals: %w", err)
	}

	dot, err := viz.NewGraphGenerator(client.Registry()).GenerateOrgGraph(ctx, id)
	if err != nil {
		return err
	}
	return writeOutput(s.Out, *output, func(w io.Writer) error {
		_, err := io.WriteString(w, dot)
		return err
	})
}

// DashboardCommand prints pipeline totals and the deals and persons needing attention.
func DashboardCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	persons := fs.Int("persons", 500, "Maximum persons to load (0 to skip)")
	_ = fs.Parse(args)

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

	stats := viz.GenerateDashboardStats(client.Registry(), time.Now())
	_, _ = fmt.Fprint(s.Out, viz.RenderDashboard(stats))
	return nil
}

func parseFormat(name string) (graphviz.Format, error) {
	switch strings.ToLower(name) {
	case "dot", "xdot":
		return graphviz.XDOT, nil
	case "svg":
		return graphviz.SVG, nil
	case "png":
		return graphviz.PNG, nil
	}
	return "", fmt.Errorf("unsupported format %q (use dot, svg or png)", name)
}

// writeOutput writes to path, or to out when path is empty.
func writeOutput(out io.Writer, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(out)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(out, "✓ Graph written to %s\n", path)
	return nil
}
