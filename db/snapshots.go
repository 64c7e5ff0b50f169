// ABOUTME: Database operations for registry snapshots and their records
// ABOUTME: Saves a session cache to SQLite and restores it into a fresh registry
package db

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/harperreed/pipedrive/objects"
)

// Snapshot is one saved copy of a registry.
type Snapshot struct {
	ID          string
	TakenAt     time.Time
	Note        string
	RecordCount int
}

// StoredRecord is one record row of a snapshot.
type StoredRecord struct {
	SnapshotID string
	Kind       objects.Kind
	ID         int64
	Name       string
	IsStub     bool
	Fields     map[string]any
}

// SaveSnapshot writes every record of reg, stubs included, in one transaction.
func SaveSnapshot(db *sql.DB, reg *objects.Registry, note string) (*Snapshot, error) {
	snap := &Snapshot{
		ID:      ulid.Make().String(),
		TakenAt: time.Now().UTC(),
		Note:    note,
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO snapshots (id, taken_at, note) VALUES (?, ?, ?)`,
		snap.ID, snap.TakenAt, note); err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO records (snapshot_id, kind, id, name, is_stub, fields)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, kind := range objects.Kinds {
		for _, rec := range reg.Store(kind).All() {
			fields, err := json.Marshal(rec.Fields())
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s %d: %w", kind, rec.ID(), err)
			}
			if _, err := stmt.Exec(snap.ID, string(kind), rec.ID(), rec.Name(), rec.IsStub(), string(fields)); err != nil {
				return nil, fmt.Errorf("failed to save %s %d: %w", kind, rec.ID(), err)
			}
			snap.RecordCount++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	log.Debug().Str("snapshot", snap.ID).Int("records", snap.RecordCount).Msg("saved snapshot")
	return snap, nil
}

// ListSnapshots returns every snapshot, newest first.
func ListSnapshots(db *sql.DB) ([]Snapshot, error) {
	rows, err := db.Query(`
		SELECT s.id, s.taken_at, COALESCE(s.note, ''), COUNT(r.id)
		FROM snapshots s
		LEFT JOIN records r ON r.snapshot_id = s.id
		GROUP BY s.id
		ORDER BY s.taken_at DESC, s.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.TakenAt, &s.Note, &s.RecordCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return snaps, nil
}

// GetSnapshot returns one snapshot, or nil, nil when id is unknown.
func GetSnapshot(db *sql.DB, id string) (*Snapshot, error) {
	var s Snapshot
	err := db.QueryRow(`
		SELECT s.id, s.taken_at, COALESCE(s.note, ''),
			(SELECT COUNT(*) FROM records r WHERE r.snapshot_id = s.id)
		FROM snapshots s
		WHERE s.id = ?
	`, id).Scan(&s.ID, &s.TakenAt, &s.Note, &s.RecordCount)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &s, nil
}

// LoadSnapshotRecords returns the records of a snapshot ordered by kind and id.
// An empty kind returns every kind.
func LoadSnapshotRecords(db *sql.DB, snapshotID string, kind objects.Kind) ([]StoredRecord, error) {
	query := `
		SELECT snapshot_id, kind, id, COALESCE(name, ''), is_stub, fields
		FROM records
		WHERE snapshot_id = ?`
	args := []any{snapshotID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY kind, id`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []StoredRecord
	for rows.Next() {
		var r StoredRecord
		var k, raw string
		if err := rows.Scan(&r.SnapshotID, &k, &r.ID, &r.Name, &r.IsStub, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot record: %w", err)
		}
		r.Kind = objects.Kind(k)

		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		dec.UseNumber()
		if err := dec.Decode(&r.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode %s %d: %w", k, r.ID, err)
		}
		if r.Fields == nil {
			r.Fields = map[string]any{}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot records: %w", err)
	}
	return records, nil
}

// RestoreSnapshot loads a snapshot into reg. Stubs go in first through
// GetOrConstruct so they never clobber live data; full records then go through
// RefreshOrConstruct, which links them and upgrades any matching stub. It returns
// the number of records restored.
func RestoreSnapshot(db *sql.DB, snapshotID string, reg *objects.Registry) (int, error) {
	snap, err := GetSnapshot(db, snapshotID)
	if err != nil {
		return 0, err
	}
	if snap == nil {
		return 0, fmt.Errorf("snapshot %s not found", snapshotID)
	}

	records, err := LoadSnapshotRecords(db, snapshotID, "")
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, pass := range []bool{true, false} {
		for _, r := range records {
			if r.IsStub != pass {
				continue
			}
			if _, ok := r.Fields["id"]; !ok {
				r.Fields["id"] = r.ID
			}
			if r.IsStub {
				_, err = reg.GetOrConstruct(r.Kind, r.Fields, true)
			} else {
				_, err = reg.RefreshOrConstruct(r.Kind, r.Fields)
			}
			if err != nil {
				return restored, fmt.Errorf("failed to restore %s %d: %w", r.Kind, r.ID, err)
			}
			restored++
		}
	}
	return restored, nil
}

// DeleteSnapshot removes a snapshot and its records.
func DeleteSnapshot(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("snapshot %s not found", id)
	}
	return nil
}
