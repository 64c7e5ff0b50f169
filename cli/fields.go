// ABOUTME: Custom field CLI commands
// ABOUTME: Lists, refreshes and clears the cached custom field schemas
package cli

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/pipedrive/objects"
)

// FieldsListCommand prints the custom fields of one kind by attribute name.
func FieldsListCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("fields list", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("kind is required (persons, organizations or deals)")
	}
	kind, err := objects.ParseKind(fs.Arg(0))
	if err != nil {
		return err
	}
	if !kind.HasCustomFields() {
		return fmt.Errorf("%s records have no custom fields", kind)
	}

	client, err := s.Client()
	if err != nil {
		return err
	}
	if err := client.LoadSchemas(context.Background()); err != nil {
		return err
	}

	schema := client.Registry().Store(kind).Schema()
	if len(schema) == 0 {
		_, _ = fmt.Fprintf(s.Out, "No custom fields for %s\n", kind)
		return nil
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tKEY\tOPTIONS")
	_, _ = fmt.Fprintln(w, "----\t---\t-------")
	for _, name := range names {
		cf := schema[name]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", name, cf.Key, dash(strings.Join(cf.Labels(), ", ")))
	}
	_ = w.Flush()
	return nil
}

// FieldsRefreshCommand re-reads every schema from the API into the cache.
func FieldsRefreshCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("fields refresh", flag.ExitOnError)
	_ = fs.Parse(args)

	client, err := s.Client()
	if err != nil {
		return err
	}
	if err := client.RefreshSchemas(context.Background()); err != nil {
		return err
	}

	for _, kind := range objects.Kinds {
		if !kind.HasCustomFields() {
			continue
		}
		_, _ = fmt.Fprintf(s.Out, "✓ %s: %d custom field(s)\n", kind.Title(), len(client.Registry().Store(kind).Schema()))
	}
	return nil
}

// FieldsClearCommand empties the schema cache so the next run rediscovers fields.
func FieldsClearCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("fields clear", flag.ExitOnError)
	_ = fs.Parse(args)

	cache, err := s.FieldCache()
	if err != nil {
		return err
	}
	if err := cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear field cache: %w", err)
	}
	_, _ = fmt.Fprintf(s.Out, "✓ Field cache cleared: %s\n", s.Settings.FieldCacheDir)
	return nil
}

// FieldsStatusCommand shows when each kind's schema was cached.
func FieldsStatusCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("fields status", flag.ExitOnError)
	_ = fs.Parse(args)

	cache, err := s.FieldCache()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tCACHED")
	_, _ = fmt.Fprintln(w, "----\t------")
	for _, kind := range objects.Kinds {
		if !kind.HasCustomFields() {
			continue
		}
		at, ok, err := cache.SavedAt(kind)
		if err != nil {
			return err
		}
		when := "never"
		if ok {
			when = at.Local().Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", kind, when)
	}
	_ = w.Flush()
	return nil
}
