// ABOUTME: Generic entity CLI commands: list, get, create, delete
// ABOUTME: Works for every kind the client knows, printing tables via tabwriter
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/pipedrive/api"
	"github.com/harperreed/pipedrive/objects"
)

// ListCommand lists records of one kind.
func ListCommand(s *Session, kind objects.Kind, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	limit := fs.Int("limit", 50, "Maximum results (0 for all)")
	term := fs.String("term", "", "Search term (persons, deals, products)")
	pipeline := fs.Int64("pipeline", 0, "Pipeline id (stages only)")
	_ = fs.Parse(args)

	client, err := s.Client()
	if err != nil {
		return err
	}

	recs, err := listRecords(context.Background(), client, kind, *term, *pipeline, *limit)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		_, _ = fmt.Fprintf(s.Out, "No %s records found\n", kind)
		return nil
	}
	writeRecords(s.Out, kind, recs)
	return nil
}

func listRecords(ctx context.Context, client *api.Client, kind objects.Kind, term string, pipelineID int64, limit int) ([]*objects.Record, error) {
	opts := api.ListOptions{Limit: limit}

	var recs []*objects.Record
	var err error
	switch kind {
	case objects.KindPerson:
		if term != "" {
			recs, err = client.FindPersons(ctx, term, opts)
		} else {
			recs, err = client.ListPersons(ctx, opts)
		}
	case objects.KindOrganization:
		recs, err = client.ListOrganizations(ctx, opts)
	case objects.KindDeal:
		if term != "" {
			recs, err = client.FindDeals(ctx, term, opts)
		} else {
			recs, err = client.ListDeals(ctx, opts)
		}
	case objects.KindPipeline:
		recs, err = client.ListPipelines(ctx)
	case objects.KindStage:
		recs, err = client.ListStages(ctx, pipelineID)
	case objects.KindNote:
		recs, err = client.ListNotes(ctx, opts)
	case objects.KindActivity:
		recs, err = client.ListActivities(ctx, nil)
	case objects.KindUser:
		recs, err = client.ListUsers(ctx)
	case objects.KindProduct:
		if term != "" {
			recs, err = client.FindProducts(ctx, term)
		} else {
			recs, err = client.ListProducts(ctx, nil)
		}
	default:
		return nil, fmt.Errorf("%w: %q", objects.ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
	}

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// writeRecords prints one table row per record with columns chosen by kind.
func writeRecords(out io.Writer, kind objects.Kind, recs []*objects.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := columns(kind)
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	_, _ = fmt.Fprintln(w, strings.Join(underline(header), "\t"))
	for _, rec := range recs {
		_, _ = fmt.Fprintln(w, strings.Join(row(rec), "\t"))
	}
	_ = w.Flush()
}

func columns(kind objects.Kind) []string {
	switch kind {
	case objects.KindPerson:
		return []string{"ID", "NAME", "ORGANIZATION", "EMAIL"}
	case objects.KindOrganization:
		return []string{"ID", "NAME", "OWNER", "PEOPLE"}
	case objects.KindDeal:
		return []string{"ID", "TITLE", "ORGANIZATION", "PERSON", "STAGE", "VALUE", "STATUS"}
	case objects.KindStage:
		return []string{"ID", "NAME", "PIPELINE", "ORDER"}
	case objects.KindNote:
		return []string{"ID", "DEAL", "PERSON", "CONTENT"}
	case objects.KindActivity:
		return []string{"ID", "SUBJECT", "TYPE", "DUE", "DONE"}
	case objects.KindUser:
		return []string{"ID", "NAME", "EMAIL"}
	case objects.KindProduct:
		return []string{"ID", "NAME", "CODE"}
	}
	return []string{"ID", "NAME"}
}

func row(rec *objects.Record) []string {
	id := strconv.FormatInt(rec.ID(), 10)
	switch rec.Kind() {
	case objects.KindPerson:
		return []string{id, dash(rec.Name()), dash(rec.OrgName()), dash(rec.EmailAddress())}
	case objects.KindOrganization:
		return []string{id, dash(rec.Name()), nameOf(rec.Owner()), dash(rec.Text("people_count"))}
	case objects.KindDeal:
		value := rec.Text("value")
		if value != "" {
			value = strings.TrimSpace(value + " " + rec.Text("currency"))
		}
		return []string{id, dash(rec.Name()), dash(rec.OrgName()), dash(rec.PersonName()), nameOf(rec.Stage()), dash(value), dash(rec.Text("status"))}
	case objects.KindStage:
		return []string{id, dash(rec.Name()), nameOf(rec.Pipeline()), dash(rec.Text("order_nr"))}
	case objects.KindNote:
		return []string{id, nameOf(rec.Deal()), nameOf(rec.Person()), dash(truncate(rec.Text("content"), 50))}
	case objects.KindActivity:
		return []string{id, dash(rec.Text("subject")), dash(rec.Text("type")), dash(rec.Text("due_date")), dash(rec.Text("done"))}
	case objects.KindUser:
		return []string{id, dash(rec.Name()), dash(rec.EmailAddress())}
	case objects.KindProduct:
		return []string{id, dash(rec.Name()), dash(rec.Text("code"))}
	}
	return []string{id, dash(rec.Name())}
}

// GetCommand fetches one record and prints every field by name.
func GetCommand(s *Session, kind objects.Kind, args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("%s ID is required", kind)
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	client, err := s.Client()
	if err != nil {
		return err
	}
	rec, err := client.Get(context.Background(), kind, id)
	if err != nil {
		return fmt.Errorf("failed to get %s %d: %w", kind, id, err)
	}

	dump, err := rec.Dump()
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", rec, err)
	}
	_, _ = fmt.Fprintln(s.Out, rec)
	_, _ = fmt.Fprint(s.Out, dump)
	return nil
}

// CreateCommand creates a record from key=value pairs using storage keys.
func CreateCommand(s *Session, kind objects.Kind, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	_ = fs.Parse(args)

	fields, err := parseAssignments(fs.Args())
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return fmt.Errorf("at least one key=value pair is required")
	}
	payload := make(map[string]any, len(fields))
	for k, v := range fields {
		payload[k] = v
	}

	client, err := s.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	var rec *objects.Record
	switch kind {
	case objects.KindPerson:
		rec, err = client.CreatePerson(ctx, payload)
	case objects.KindOrganization:
		rec, err = client.CreateOrganization(ctx, payload)
	case objects.KindDeal:
		rec, err = client.CreateDeal(ctx, payload)
	case objects.KindNote:
		rec, err = client.CreateNote(ctx, payload)
	case objects.KindActivity:
		rec, err = client.CreateActivity(ctx, payload)
	case objects.KindProduct:
		rec, err = client.CreateProduct(ctx, payload)
	default:
		return fmt.Errorf("cannot create %s records", kind)
	}
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", kind, err)
	}

	_, _ = fmt.Fprintf(s.Out, "✓ Created %s\n", rec)
	return nil
}

// DeleteCommand deletes one record.
func DeleteCommand(s *Session, kind objects.Kind, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("%s ID is required", kind)
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

	switch kind {
	case objects.KindPerson:
		err = client.DeletePerson(ctx, id)
	case objects.KindOrganization:
		err = client.DeleteOrganization(ctx, id)
	case objects.KindDeal:
		err = client.DeleteDeal(ctx, id)
	case objects.KindNote:
		err = client.DeleteNote(ctx, id)
	case objects.KindActivity:
		err = client.DeleteActivity(ctx, id)
	case objects.KindProduct:
		err = client.DeleteProduct(ctx, id)
	default:
		return fmt.Errorf("cannot delete %s records", kind)
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", kind, id, err)
	}

	_, _ = fmt.Fprintf(s.Out, "✓ Deleted %s %d\n", kind, id)
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

// parseAssignments turns ["a=1", "b=x=y"] into {"a": "1", "b": "x=y"}.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		out[name] = value
	}
	return out, nil
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func nameOf(rec *objects.Record) string {
	if rec == nil {
		return "-"
	}
	return dash(rec.Name())
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func underline(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.Repeat("-", len(h))
	}
	return out
}
