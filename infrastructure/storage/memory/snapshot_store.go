package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// SnapshotStore is an in-memory implementation of run.Store. Snapshots are
// held encoded so callers never share controllers with the store.
type SnapshotStore struct {
	snapshots map[string][]byte
	order     []string
	mu        sync.RWMutex
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string][]byte),
	}
}

// Save persists a new snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snap *run.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if snap.ID == "" || snap.RunID == "" {
		return run.ErrInvalidSnapshotID
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshots[snap.ID]; exists {
		return run.ErrSnapshotExists
	}

	s.snapshots[snap.ID] = data
	s.order = append(s.order, snap.ID)
	return nil
}

// Get retrieves a snapshot by ID.
func (s *SnapshotStore) Get(ctx context.Context, id string) (*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if id == "" {
		return nil, run.ErrInvalidSnapshotID
	}

	s.mu.RLock()
	data, ok := s.snapshots[id]
	s.mu.RUnlock()

	if !ok {
		return nil, run.ErrSnapshotNotFound
	}
	return decode(data)
}

// Latest returns the snapshot with the highest iteration for a run.
func (s *SnapshotStore) Latest(ctx context.Context, runID string) (*run.Snapshot, error) {
	if runID == "" {
		return nil, run.ErrInvalidSnapshotID
	}

	snapshots, err := s.List(ctx, run.ListFilter{RunID: runID})
	if err != nil {
		return nil, err
	}

	var latest *run.Snapshot
	for _, snap := range snapshots {
		if latest == nil || snap.Iteration >= latest.Iteration {
			latest = snap
		}
	}
	if latest == nil {
		return nil, run.ErrSnapshotNotFound
	}
	return latest, nil
}

// List returns snapshots matching the filter.
func (s *SnapshotStore) List(ctx context.Context, filter run.ListFilter) ([]*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*run.Snapshot, 0, len(s.order))
	for _, id := range s.order {
		snap, err := decode(s.snapshots[id])
		if err != nil {
			continue
		}
		result = append(result, snap)
	}
	return filter.Apply(result), nil
}

// Delete removes a snapshot by ID.
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if id == "" {
		return run.ErrInvalidSnapshotID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshots[id]; !exists {
		return run.ErrSnapshotNotFound
	}

	delete(s.snapshots, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes all snapshots from the store.
func (s *SnapshotStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = make(map[string][]byte)
	s.order = nil
}

// Len returns the number of stored snapshots.
func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}

func decode(data []byte) (*run.Snapshot, error) {
	var snap run.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Ensure SnapshotStore implements run.Store
var _ run.Store = (*SnapshotStore)(nil)
