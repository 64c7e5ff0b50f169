// ABOUTME: Snapshot CLI commands
// ABOUTME: Saves the loaded registry to SQLite and restores it for offline reports and browsing
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/pipedrive/api"
	"github.com/harperreed/pipedrive/db"
	"github.com/harperreed/pipedrive/objects"
	"github.com/harperreed/pipedrive/report"
	"github.com/harperreed/pipedrive/tui"
)

// SnapshotSaveCommand loads the chosen kinds from the API and saves every cached
// record, stubs included.
func SnapshotSaveCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("snapshot save", flag.ExitOnError)
	note := fs.String("note", "", "Note stored with the snapshot")
	kinds := fs.String("kinds", "pipelines,persons,organizations", "Comma-separated kinds to load")
	limit := fs.Int("limit", 0, "Maximum records per kind (0 for all)")
	_ = fs.Parse(args)

	wanted, err := parseKinds(*kinds)
	if err != nil {
		return err
	}

	client, err := s.Client()
	if err != nil {
		return err
	}
	database, err := s.DB()
	if err != nil {
		return err
	}
	ctx := context.Background()

	for _, kind := range wanted {
		if err := loadKind(ctx, client, kind, *limit); err != nil {
			return err
		}
	}

	snap, err := db.SaveSnapshot(database, client.Registry(), *note)
	if err != nil {
		return err
	}
	total := 0
	for _, kind := range objects.Kinds {
		total += client.Registry().Store(kind).Len()
	}

	_, _ = fmt.Fprintf(s.Out, "✓ Snapshot saved: %s (%d records)\n", snap.ID, total)
	return nil
}

// loadKind fetches one kind. Pipelines bring their stages and deals along.
func loadKind(ctx context.Context, client *api.Client, kind objects.Kind, limit int) error {
	opts := api.ListOptions{Limit: limit}
	var err error
	switch kind {
	case objects.KindPipeline:
		_, err = loadPipelines(ctx, client, 0, limit)
	case objects.KindPerson:
		_, err = client.ListPersons(ctx, opts)
	case objects.KindOrganization:
		_, err = client.ListOrganizations(ctx, opts)
	case objects.KindDeal:
		_, err = client.ListDeals(ctx, opts)
	case objects.KindStage:
		_, err = client.ListStages(ctx, 0)
	case objects.KindNote:
		_, err = client.ListNotes(ctx, opts)
	case objects.KindActivity:
		_, err = client.ListActivities(ctx, nil)
	case objects.KindUser:
		_, err = client.ListUsers(ctx)
	case objects.KindProduct:
		_, err = client.ListProducts(ctx, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s records: %w", kind, err)
	}
	return nil
}

func parseKinds(list string) ([]objects.Kind, error) {
	var kinds []objects.Kind
	seen := make(map[objects.Kind]bool)
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		kind, err := objects.ParseKind(part)
		if err != nil {
			return nil, err
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no kinds given")
	}
	return kinds, nil
}

// SnapshotListCommand lists saved snapshots, newest first.
func SnapshotListCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("snapshot list", flag.ExitOnError)
	_ = fs.Parse(args)

	database, err := s.DB()
	if err != nil {
		return err
	}
	snaps, err := db.ListSnapshots(database)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		_, _ = fmt.Fprintln(s.Out, "No snapshots found")
		return nil
	}

	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTAKEN\tRECORDS\tNOTE")
	_, _ = fmt.Fprintln(w, "--\t-----\t-------\t----")
	for _, snap := range snaps {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", snap.ID, snap.TakenAt.Local().Format("2006-01-02 15:04"), snap.RecordCount, dash(snap.Note))
	}
	_ = w.Flush()
	return nil
}

// SnapshotShowCommand lists the records stored in a snapshot.
func SnapshotShowCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("snapshot show", flag.ExitOnError)
	kindName := fs.String("kind", "", "Only records of this kind")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("snapshot ID is required")
	}
	var kind objects.Kind
	if *kindName != "" {
		k, err := objects.ParseKind(*kindName)
		if err != nil {
			return err
		}
		kind = k
	}

	database, err := s.DB()
	if err != nil {
		return err
	}
	snap, err := db.GetSnapshot(database, fs.Arg(0))
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("snapshot %s not found", fs.Arg(0))
	}
	records, err := db.LoadSnapshotRecords(database, snap.ID, kind)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(s.Out, "Snapshot %s taken %s\n", snap.ID, snap.TakenAt.Local().Format("2006-01-02 15:04"))
	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tID\tNAME\tSTUB")
	_, _ = fmt.Fprintln(w, "----\t--\t----\t----")
	for _, r := range records {
		stub := ""
		if r.IsStub {
			stub = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", r.Kind, r.ID, dash(r.Name), dash(stub))
	}
	_ = w.Flush()
	return nil
}

// SnapshotRestoreCommand restores a snapshot into an empty registry and prints its
// pipeline report, or opens the board on it with --browse.
func SnapshotRestoreCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("snapshot restore", flag.ExitOnError)
	browse := fs.Bool("browse", false, "Open the pipeline board on the restored records")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("snapshot ID is required")
	}

	database, err := s.DB()
	if err != nil {
		return err
	}
	reg := objects.NewRegistry()
	n, err := db.RestoreSnapshot(database, fs.Arg(0), reg)
	if err != nil {
		return err
	}

	pipelines := reg.Store(objects.KindPipeline).All()
	if *browse {
		return tui.Run(reg, nil)
	}

	_, _ = fmt.Fprintf(s.Out, "✓ Restored %d records\n", n)
	for _, kind := range objects.Kinds {
		if count := reg.Store(kind).Len(); count > 0 {
			_, _ = fmt.Fprintf(s.Out, "  %s: %d\n", kind.Title(), count)
		}
	}
	if len(pipelines) == 0 {
		return nil
	}
	_, _ = fmt.Fprintln(s.Out)
	return report.PipelineReport(s.Out, pipelines)
}

// SnapshotDeleteCommand deletes a snapshot and its records.
func SnapshotDeleteCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("snapshot delete", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("snapshot ID is required")
	}
	database, err := s.DB()
	if err != nil {
		return err
	}
	if err := db.DeleteSnapshot(database, fs.Arg(0)); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.Out, "✓ Snapshot deleted: %s\n", fs.Arg(0))
	return nil
}
