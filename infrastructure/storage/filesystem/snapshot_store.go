// Package filesystem provides a snapshot store backed by a directory of
// JSON files.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

const ext = ".json"

// SnapshotStore implements run.Store with one file per snapshot.
type SnapshotStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewSnapshotStore creates the directory if needed and returns a store on it.
func NewSnapshotStore(basePath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(basePath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotStore{basePath: basePath}, nil
}

func (s *SnapshotStore) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", run.ErrInvalidSnapshotID
	}
	return filepath.Join(s.basePath, id+ext), nil
}

// Save writes a new snapshot. The file appears atomically.
func (s *SnapshotStore) Save(ctx context.Context, snap *run.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.RunID == "" {
		return run.ErrInvalidSnapshotID
	}
	path, err := s.path(snap.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return run.ErrSnapshotExists
	}

	tmp, err := os.CreateTemp(s.basePath, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// Get reads a snapshot by ID.
func (s *SnapshotStore) Get(ctx context.Context, id string) (*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return readSnapshot(path)
}

func readSnapshot(path string) (*run.Snapshot, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is built from a validated ID
	if errors.Is(err, fs.ErrNotExist) {
		return nil, run.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap run.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &snap, nil
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

// List reads every snapshot in the directory and applies the filter.
func (s *SnapshotStore) List(ctx context.Context, filter run.ListFilter) ([]*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, err
	}

	var result []*run.Snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ext {
			continue
		}
		snap, err := readSnapshot(filepath.Join(s.basePath, name))
		if err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	return filter.Apply(result), nil
}

// Delete removes a snapshot file.
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return run.ErrSnapshotNotFound
	}
	return err
}

var _ run.Store = (*SnapshotStore)(nil)
