package db

import (
	"testing"
	"time"
)

func TestSyncState(t *testing.T) {
	db := openTestDB(t)

	state, err := GetSyncState(db, "recents")
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state != nil {
		t.Fatalf("expected no state for a new stream, got %+v", state)
	}

	msg := "boom"
	if err := UpdateSyncStatus(db, "recents", StatusError, &msg); err != nil {
		t.Fatalf("UpdateSyncStatus failed: %v", err)
	}
	state, err = GetSyncState(db, "recents")
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state.Status != StatusError || state.ErrorMessage == nil || *state.ErrorMessage != "boom" {
		t.Errorf("unexpected state after error: %+v", state)
	}
	if state.LastSyncTime != nil {
		t.Errorf("cursor should not move on a status update")
	}

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := MarkSynced(db, "recents", at); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}
	state, err = GetSyncState(db, "recents")
	if err != nil {
		t.Fatalf("GetSyncState failed: %v", err)
	}
	if state.Status != StatusIdle || state.ErrorMessage != nil {
		t.Errorf("expected idle state without error, got %+v", state)
	}
	if state.LastSyncTime == nil || !state.LastSyncTime.Equal(at) {
		t.Errorf("expected cursor %v, got %v", at, state.LastSyncTime)
	}

	states, err := GetAllSyncStates(db)
	if err != nil {
		t.Fatalf("GetAllSyncStates failed: %v", err)
	}
	if len(states) != 1 {
		t.Errorf("expected 1 stream, got %d", len(states))
	}
}
