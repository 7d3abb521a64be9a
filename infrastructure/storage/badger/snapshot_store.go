package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// SnapshotStore is a BadgerDB-backed implementation of run.Store.
//
// Keys:
//
//	<prefix>snapshot/<id>                         JSON snapshot
//	<prefix>run/<runID>/<iteration:8 bytes BE><id> snapshot ID
//
// The run index keeps a run's snapshots ordered by iteration so Latest is a
// single reverse seek.
type SnapshotStore struct {
	db        *badger.DB
	keyPrefix string
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
	closeOnce sync.Once
}

// NewSnapshotStore opens a BadgerDB snapshot store.
func NewSnapshotStore(cfg Config, opts ...Option) (*SnapshotStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &SnapshotStore{
		db:        db,
		keyPrefix: cfg.KeyPrefix,
		gcStop:    make(chan struct{}),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return s, nil
}

func (s *SnapshotStore) startGC(interval time.Duration, ratio float64) {
	s.gcWg.Add(1)
	go func() {
		defer s.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.gcStop:
				return
			case <-ticker.C:
				// Each successful pass may leave more to reclaim.
				for s.db.RunValueLogGC(ratio) == nil {
				}
			}
		}
	}()
}

func (s *SnapshotStore) snapshotKey(id string) []byte {
	return []byte(s.keyPrefix + "snapshot/" + id)
}

func (s *SnapshotStore) runPrefix(runID string) []byte {
	return []byte(s.keyPrefix + "run/" + runID + "/")
}

func (s *SnapshotStore) indexKey(snap *run.Snapshot) []byte {
	key := s.runPrefix(snap.RunID)
	key = binary.BigEndian.AppendUint64(key, uint64(snap.Iteration)) // #nosec G115 -- iterations are non-negative
	return append(key, snap.ID...)
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

	return s.db.Update(func(txn *badger.Txn) error {
		key := s.snapshotKey(snap.ID)
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return run.ErrSnapshotExists
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(s.indexKey(snap), []byte(snap.ID))
	})
}

// Get retrieves a snapshot by ID.
func (s *SnapshotStore) Get(ctx context.Context, id string) (*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, run.ErrInvalidSnapshotID
	}

	var snap *run.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		snap, err = s.get(txn, id)
		return err
	})
	return snap, err
}

func (s *SnapshotStore) get(txn *badger.Txn, id string) (*run.Snapshot, error) {
	item, err := txn.Get(s.snapshotKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, run.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap run.Snapshot
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &snap)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Latest returns the snapshot with the highest iteration for a run.
func (s *SnapshotStore) Latest(ctx context.Context, runID string) (*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, run.ErrInvalidSnapshotID
	}

	var snap *run.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := s.runPrefix(runID)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(append(prefix, 0xFF))
		if !it.ValidForPrefix(prefix) {
			return run.ErrSnapshotNotFound
		}
		id, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		snap, err = s.get(txn, string(id))
		return err
	})
	return snap, err
}

// List returns snapshots matching the filter.
func (s *SnapshotStore) List(ctx context.Context, filter run.ListFilter) ([]*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result []*run.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(s.keyPrefix + "snapshot/")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var snap run.Snapshot
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &snap)
			})
			if err != nil {
				return err
			}
			if filter.Matches(&snap) {
				result = append(result, &snap)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
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

	return s.db.Update(func(txn *badger.Txn) error {
		snap, err := s.get(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(s.snapshotKey(id)); err != nil {
			return err
		}
		return txn.Delete(s.indexKey(snap))
	})
}

// Close stops background GC and closes the database.
func (s *SnapshotStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.gcStop)
		s.gcWg.Wait()
		err = s.db.Close()
	})
	return err
}

var _ run.Store = (*SnapshotStore)(nil)
