package filesystem_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/decpomdp-go/domain/controller"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/storage/filesystem"
)

func snapshot(id, runID string, iteration int) *run.Snapshot {
	return &run.Snapshot{
		ID:        id,
		RunID:     runID,
		Problem:   "broadcast",
		Iteration: iteration,
		Status:    run.StatusRunning,
		Controllers: []run.AgentController{
			{Agent: "sender-1", Controller: controller.Seed("n0", "wait", []symbol.Observation{"empty", "full"})},
		},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, iteration, 0, time.UTC),
	}
}

func TestSnapshotStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "snapshots")
	store, err := filesystem.NewSnapshotStore(dir)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}

	for _, s := range []*run.Snapshot{snapshot("r1-1", "r1", 1), snapshot("r1-2", "r1", 2), snapshot("r2-1", "r2", 1)} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save(%s) error = %v", s.ID, err)
		}
	}
	if err := store.Save(ctx, snapshot("r1-1", "r1", 1)); !errors.Is(err, run.ErrSnapshotExists) {
		t.Errorf("Save() duplicate error = %v, want %v", err, run.ErrSnapshotExists)
	}

	got, err := store.Get(ctx, "r1-2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Iteration != 2 || got.TotalNodes() != 1 {
		t.Errorf("Get() = %+v", got)
	}

	latest, err := store.Latest(ctx, "r1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != "r1-2" {
		t.Errorf("Latest() = %s, want r1-2", latest.ID)
	}

	list, err := store.List(ctx, run.ListFilter{RunID: "r1"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("List() = %d snapshots, want 2", len(list))
	}

	if err := store.Delete(ctx, "r1-2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "r1-2"); !errors.Is(err, run.ErrSnapshotNotFound) {
		t.Errorf("Get() after delete error = %v, want %v", err, run.ErrSnapshotNotFound)
	}
	if err := store.Delete(ctx, "r1-2"); !errors.Is(err, run.ErrSnapshotNotFound) {
		t.Errorf("Delete() twice error = %v, want %v", err, run.ErrSnapshotNotFound)
	}
}

func TestSnapshotStore_IgnoresForeignFiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store, err := filesystem.NewSnapshotStore(dir)
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, snapshot("only", "r", 1)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	list, err := store.List(ctx, run.ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("List() = %d snapshots, want 1", len(list))
	}
}

func TestSnapshotStore_InvalidIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := filesystem.NewSnapshotStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		if _, err := store.Get(ctx, id); !errors.Is(err, run.ErrInvalidSnapshotID) {
			t.Errorf("Get(%q) error = %v, want %v", id, err, run.ErrInvalidSnapshotID)
		}
	}
	if err := store.Save(ctx, snapshot("x", "", 1)); !errors.Is(err, run.ErrInvalidSnapshotID) {
		t.Errorf("Save() without run ID error = %v, want %v", err, run.ErrInvalidSnapshotID)
	}
}
