package run

import (
	"cmp"
	"context"
	"slices"
)

// Store persists iteration snapshots.
// Implementations may be in-memory, BadgerDB, SQLite, PostgreSQL or plain files.
type Store interface {
	// Save persists a new snapshot.
	Save(ctx context.Context, s *Snapshot) error

	// Get retrieves a snapshot by ID.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Latest returns the snapshot with the highest iteration for a run.
	Latest(ctx context.Context, runID string) (*Snapshot, error)

	// List returns snapshots matching the filter in creation order.
	List(ctx context.Context, filter ListFilter) ([]*Snapshot, error)

	// Delete removes a snapshot by ID.
	Delete(ctx context.Context, id string) error
}

// ListFilter specifies criteria for listing snapshots.
type ListFilter struct {
	// RunID restricts results to one run (empty means all).
	RunID string

	// Problem restricts results to one problem name (empty means all).
	Problem string

	// Status filters by run status (empty means all).
	Status []Status

	// Limit is the maximum number of snapshots to return (0 = no limit).
	Limit int

	// Offset is the number of snapshots to skip.
	Offset int

	// Descending reverses the order.
	Descending bool
}

// Matches reports whether s satisfies the filter's predicates.
func (f ListFilter) Matches(s *Snapshot) bool {
	if f.RunID != "" && s.RunID != f.RunID {
		return false
	}
	if f.Problem != "" && s.Problem != f.Problem {
		return false
	}
	if len(f.Status) > 0 && !slices.Contains(f.Status, s.Status) {
		return false
	}
	return true
}

// Apply sorts, filters and paginates snapshots in memory. Backends without
// native querying use it after loading candidates.
func (f ListFilter) Apply(snapshots []*Snapshot) []*Snapshot {
	out := make([]*Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if f.Matches(s) {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b *Snapshot) int {
		c := Compare(a, b)
		if f.Descending {
			return -c
		}
		return c
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*Snapshot{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Compare orders snapshots by creation time, run ID and iteration.
func Compare(a, b *Snapshot) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Or(cmp.Compare(a.RunID, b.RunID), cmp.Compare(a.Iteration, b.Iteration))
}
