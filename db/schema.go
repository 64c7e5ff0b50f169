// ABOUTME: Database schema definitions
// ABOUTME: Snapshot, snapshot record and sync cursor tables
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id TEXT PRIMARY KEY,
	taken_at DATETIME NOT NULL,
	note TEXT
);

CREATE INDEX IF NOT EXISTS idx_snapshots_taken_at ON snapshots(taken_at);

CREATE TABLE IF NOT EXISTS records (
	snapshot_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	id INTEGER NOT NULL,
	name TEXT,
	is_stub INTEGER NOT NULL DEFAULT 0,
	fields TEXT NOT NULL,
	PRIMARY KEY (snapshot_id, kind, id),
	FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_records_kind ON records(snapshot_id, kind);
CREATE INDEX IF NOT EXISTS idx_records_name ON records(name);

CREATE TABLE IF NOT EXISTS sync_state (
	stream TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	status TEXT NOT NULL DEFAULT 'idle',
	error_message TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// InitSchema creates any missing tables and indexes.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
