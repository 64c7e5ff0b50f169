// ABOUTME: Field assignment command
// ABOUTME: Sets fields by attribute name and pushes only the modified keys
package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"

	"github.com/harperreed/pipedrive/objects"
)

// SetCommand assigns fields of one record: set <kind> <id> name=value...
func SetCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Show the changes without saving")
	_ = fs.Parse(args)

	if fs.NArg() < 3 {
		return fmt.Errorf("usage: set [--dry-run] <kind> <id> <field>=<value>...")
	}
	kind, err := objects.ParseKind(fs.Arg(0))
	if err != nil {
		return err
	}
	id, err := parseID(fs.Arg(1))
	if err != nil {
		return err
	}
	assignments, err := parseAssignments(fs.Args()[2:])
	if err != nil {
		return err
	}

	client, err := s.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	rec, err := client.Get(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("failed to get %s %d: %w", kind, id, err)
	}

	names := make([]string, 0, len(assignments))
	for name := range assignments {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := rec.Set(name, assignments[name]); err != nil {
			return fmt.Errorf("failed to set %s: %w", name, err)
		}
	}

	modified := rec.ModifiedFields()
	if len(modified) == 0 {
		_, _ = fmt.Fprintf(s.Out, "No tracked fields changed on %s\n", rec)
		return nil
	}
	if *dryRun {
		_, _ = fmt.Fprintf(s.Out, "Would update %s: %v\n", rec, modified)
		return nil
	}

	if _, err := client.SaveChanges(ctx, rec); err != nil {
		return fmt.Errorf("failed to save %s: %w", rec, err)
	}
	_, _ = fmt.Fprintf(s.Out, "✓ Updated %s: %v\n", rec, modified)
	return nil
}
