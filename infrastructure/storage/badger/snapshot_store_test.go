package badger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/decpomdp-go/domain/controller"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/storage/badger"
)

func newStore(t *testing.T) *badger.SnapshotStore {
	t.Helper()
	store, err := badger.NewSnapshotStore(badger.DefaultConfig(), badger.WithInMemory())
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func snapshot(id, runID string, iteration int) *run.Snapshot {
	return &run.Snapshot{
		ID:        id,
		RunID:     runID,
		Problem:   "dectiger",
		Iteration: iteration,
		Status:    run.StatusRunning,
		Value:     float64(iteration),
		Controllers: []run.AgentController{
			{Agent: "agent-1", Controller: controller.Seed("n0", "listen", []symbol.Observation{"hear-left", "hear-right"})},
		},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, iteration, 0, time.UTC),
	}
}

func TestSnapshotStore_SaveGet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)

	if err := store.Save(ctx, snapshot("s1", "run-1", 1)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, snapshot("s1", "run-1", 1)); !errors.Is(err, run.ErrSnapshotExists) {
		t.Errorf("Save() duplicate error = %v, want %v", err, run.ErrSnapshotExists)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.RunID != "run-1" || got.Value != 1 {
		t.Errorf("Get() = %+v", got)
	}
	if got.TotalNodes() != 1 {
		t.Errorf("TotalNodes() = %d, want 1", got.TotalNodes())
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, run.ErrSnapshotNotFound) {
		t.Errorf("Get(missing) error = %v, want %v", err, run.ErrSnapshotNotFound)
	}
}

func TestSnapshotStore_InvalidID(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)

	if err := store.Save(ctx, snapshot("", "run-1", 1)); !errors.Is(err, run.ErrInvalidSnapshotID) {
		t.Errorf("Save() error = %v, want %v", err, run.ErrInvalidSnapshotID)
	}
	if _, err := store.Get(ctx, ""); !errors.Is(err, run.ErrInvalidSnapshotID) {
		t.Errorf("Get() error = %v, want %v", err, run.ErrInvalidSnapshotID)
	}
	if _, err := store.Latest(ctx, ""); !errors.Is(err, run.ErrInvalidSnapshotID) {
		t.Errorf("Latest() error = %v, want %v", err, run.ErrInvalidSnapshotID)
	}
}

func TestSnapshotStore_Latest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)

	for _, s := range []*run.Snapshot{
		snapshot("a2", "run-a", 2),
		snapshot("a10", "run-a", 10),
		snapshot("a1", "run-a", 1),
		snapshot("b7", "run-ab", 7),
	} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("Save(%s) error = %v", s.ID, err)
		}
	}

	got, err := store.Latest(ctx, "run-a")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got.ID != "a10" {
		t.Errorf("Latest() = %s, want a10", got.ID)
	}

	if _, err := store.Latest(ctx, "run-z"); !errors.Is(err, run.ErrSnapshotNotFound) {
		t.Errorf("Latest(run-z) error = %v, want %v", err, run.ErrSnapshotNotFound)
	}
}

func TestSnapshotStore_ListDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newStore(t)

	for i, id := range []string{"x1", "x2", "x3"} {
		if err := store.Save(ctx, snapshot(id, "run-x", i+1)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	if err := store.Save(ctx, snapshot("y1", "run-y", 1)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	list, err := store.List(ctx, run.ListFilter{RunID: "run-x", Descending: true, Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != "x3" || list[1].ID != "x2" {
		t.Errorf("List() returned %d snapshots, want [x3 x2]", len(list))
	}

	if err := store.Delete(ctx, "x3"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "x3"); !errors.Is(err, run.ErrSnapshotNotFound) {
		t.Errorf("Delete() twice error = %v, want %v", err, run.ErrSnapshotNotFound)
	}

	latest, err := store.Latest(ctx, "run-x")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != "x2" {
		t.Errorf("Latest() after delete = %s, want x2", latest.ID)
	}

	all, err := store.List(ctx, run.ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List() = %d snapshots, want 3", len(all))
	}
}

func TestSnapshotStore_Persists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	store, err := badger.NewSnapshotStore(badger.DefaultConfig(), badger.WithDir(dir))
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}
	if err := store.Save(ctx, snapshot("p1", "run-p", 1)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := badger.NewSnapshotStore(badger.DefaultConfig(), badger.WithDir(dir))
	if err != nil {
		t.Fatalf("NewSnapshotStore() reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	if _, err := reopened.Get(ctx, "p1"); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}
