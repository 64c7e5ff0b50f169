// ABOUTME: Recent changes CLI command
// ABOUTME: Polls the recents feed from the last sync time recorded in the local database
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/pipedrive/db"
)

const recentsStream = "recents"

type recentChange struct {
	Item string         `json:"item"`
	ID   int64          `json:"id"`
	Data map[string]any `json:"data"`
}

func (c recentChange) label() string {
	for _, key := range []string{"name", "title", "subject", "content"} {
		if v, ok := c.Data[key].(string); ok && v != "" {
			return truncate(v, 50)
		}
	}
	return ""
}

// ChangesCommand lists everything changed since the previous run, or since --since.
func ChangesCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("changes", flag.ExitOnError)
	sinceFlag := fs.String("since", "", "Start time (RFC3339 or 2006-01-02); does not move the sync cursor")
	window := fs.Duration("window", 24*time.Hour, "Look-back on the first run")
	_ = fs.Parse(args)

	client, err := s.Client()
	if err != nil {
		return err
	}
	database, err := s.DB()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	since, explicit, err := changesSince(database, *sinceFlag, now.Add(-*window))
	if err != nil {
		return err
	}

	if !explicit {
		if err := db.UpdateSyncStatus(database, recentsStream, db.StatusSyncing, nil); err != nil {
			return err
		}
	}

	raw, err := client.RecentChanges(context.Background(), since)
	if err != nil {
		if !explicit {
			msg := err.Error()
			_ = db.UpdateSyncStatus(database, recentsStream, db.StatusError, &msg)
		}
		return err
	}

	var changes []recentChange
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &changes); err != nil {
			return fmt.Errorf("failed to decode recent changes: %w", err)
		}
	}

	if !explicit {
		if err := db.MarkSynced(database, recentsStream, now); err != nil {
			return err
		}
	}

	if len(changes) == 0 {
		_, _ = fmt.Fprintf(s.Out, "No changes since %s\n", since.Local().Format("2006-01-02 15:04"))
		return nil
	}

	_, _ = fmt.Fprintf(s.Out, "%d change(s) since %s\n", len(changes), since.Local().Format("2006-01-02 15:04"))
	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ITEM\tID\tNAME")
	_, _ = fmt.Fprintln(w, "----\t--\t----")
	for _, c := range changes {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", c.Item, c.ID, dash(c.label()))
	}
	_ = w.Flush()
	return nil
}

// changesSince resolves the start time. explicit is true when --since was given.
func changesSince(database *sql.DB, flagValue string, fallback time.Time) (time.Time, bool, error) {
	if flagValue != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.ParseInLocation(layout, flagValue, time.Local); err == nil {
				return t, true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("invalid --since %q", flagValue)
	}

	state, err := db.GetSyncState(database, recentsStream)
	if err != nil {
		return time.Time{}, false, err
	}
	if state != nil && state.LastSyncTime != nil {
		return *state.LastSyncTime, false, nil
	}
	return fallback, false, nil
}

// SyncStatusCommand prints the cursor of every polling stream.
func SyncStatusCommand(s *Session, args []string) error {
	fs := flag.NewFlagSet("changes status", flag.ExitOnError)
	_ = fs.Parse(args)

	database, err := s.DB()
	if err != nil {
		return err
	}
	states, err := db.GetAllSyncStates(database)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		_, _ = fmt.Fprintln(s.Out, "Never synced")
		return nil
	}

	w := tabwriter.NewWriter(s.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STREAM\tLAST SYNC\tSTATUS\tERROR")
	_, _ = fmt.Fprintln(w, "------\t---------\t------\t-----")
	for _, state := range states {
		last := "never"
		if state.LastSyncTime != nil {
			last = state.LastSyncTime.Local().Format("2006-01-02 15:04")
		}
		errMsg := ""
		if state.ErrorMessage != nil {
			errMsg = *state.ErrorMessage
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", state.Stream, last, state.Status, dash(errMsg))
	}
	_ = w.Flush()
	return nil
}
