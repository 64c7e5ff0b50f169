// ABOUTME: Database operations for the sync_state table
// ABOUTME: Tracks the recent-changes cursor and status of each polling stream
package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Sync statuses.
const (
	StatusIdle    = "idle"
	StatusSyncing = "syncing"
	StatusError   = "error"
)

// SyncState is the cursor of one polling stream, e.g. "recents".
type SyncState struct {
	Stream       string
	LastSyncTime *time.Time
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetSyncState retrieves the state of a stream. It returns nil, nil when the
// stream has never run.
func GetSyncState(db *sql.DB, stream string) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT stream, last_sync_time, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE stream = ?
	`, stream).Scan(
		&state.Stream,
		&lastSyncTime,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		t := lastSyncTime.Time
		state.LastSyncTime = &t
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// UpdateSyncStatus records a status change without moving the cursor.
func UpdateSyncStatus(db *sql.DB, stream, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (stream, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(stream) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, stream, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// MarkSynced moves the cursor of a stream to at and resets it to idle.
func MarkSynced(db *sql.DB, stream string, at time.Time) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (stream, last_sync_time, status, created_at, updated_at)
		VALUES (?, ?, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(stream) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, stream, at.UTC())

	if err != nil {
		return fmt.Errorf("failed to mark %s synced: %w", stream, err)
	}

	return nil
}

// GetAllSyncStates retrieves the state of every stream.
func GetAllSyncStates(db *sql.DB) ([]SyncState, error) {
	rows, err := db.Query(`
		SELECT stream, last_sync_time, status, error_message, created_at, updated_at
		FROM sync_state
		ORDER BY stream
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []SyncState
	for rows.Next() {
		var state SyncState
		var lastSyncTime sql.NullTime
		var errorMessage sql.NullString

		if err := rows.Scan(
			&state.Stream,
			&lastSyncTime,
			&state.Status,
			&errorMessage,
			&state.CreatedAt,
			&state.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}

		if lastSyncTime.Valid {
			t := lastSyncTime.Time
			state.LastSyncTime = &t
		}
		if errorMessage.Valid {
			state.ErrorMessage = &errorMessage.String
		}

		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}

	return states, nil
}
