package library

import (
	"errors"
	"testing"
)

func TestTx_CommitPersists(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	g := &Group{Name: "Gundam"}
	if err := tx.AddGroup(g); err != nil {
		t.Fatalf("AddGroup in tx: %v", err)
	}
	sr := &Series{GroupID: ptr(g.ID), Title: "Gundam SEED"}
	if err := tx.AddSeries(sr); err != nil {
		t.Fatalf("AddSeries in tx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := store.GetSeries(sr.ID)
	if err != nil {
		t.Fatalf("GetSeries after commit: %v", err)
	}
	if got.GroupID == nil || *got.GroupID != g.ID {
		t.Errorf("GroupID = %v, want %d", got.GroupID, g.ID)
	}
}

func TestTx_RollbackDiscards(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	g := &Group{Name: "Gundam"}
	if err := tx.AddGroup(g); err != nil {
		t.Fatalf("AddGroup in tx: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	if _, err := store.GetGroup(g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after rollback, got %v", err)
	}
}

func TestTx_ReadsOwnWrites(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	g := &Group{Name: "Gundam"}
	if err := tx.AddGroup(g); err != nil {
		t.Fatalf("AddGroup in tx: %v", err)
	}

	got, err := tx.GetGroup(g.ID)
	if err != nil {
		t.Fatalf("GetGroup in tx: %v", err)
	}
	if got.Name != "Gundam" {
		t.Errorf("Name = %q", got.Name)
	}

	got.Name = "Mobile Suit Gundam"
	if err := tx.UpdateGroup(got); err != nil {
		t.Fatalf("UpdateGroup in tx: %v", err)
	}
}
