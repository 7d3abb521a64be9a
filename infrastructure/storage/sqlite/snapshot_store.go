package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// SnapshotStore is a SQLite-backed implementation of run.Store.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore opens a SQLite snapshot store.
func NewSnapshotStore(cfg Config, opts ...Option) (*SnapshotStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &SnapshotStore{db: db}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewSnapshotStoreFromDB creates a snapshot store on an existing connection.
func NewSnapshotStoreFromDB(db *sql.DB) (*SnapshotStore, error) {
	s := &SnapshotStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SnapshotStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			problem TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			status TEXT NOT NULL,
			value REAL NOT NULL,
			data BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id, iteration);
		CREATE INDEX IF NOT EXISTS idx_snapshots_problem ON snapshots(problem);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, run_id, problem, iteration, status, value, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.RunID, snap.Problem, snap.Iteration, string(snap.Status),
		snap.Value, data, snap.CreatedAt.UnixNano(),
	)
	if isConstraintViolation(err) {
		return run.ErrSnapshotExists
	}
	return err
}

// Get retrieves a snapshot by ID.
func (s *SnapshotStore) Get(ctx context.Context, id string) (*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, run.ErrInvalidSnapshotID
	}

	return s.scanOne(s.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE id = ?", id))
}

// Latest returns the snapshot with the highest iteration for a run.
func (s *SnapshotStore) Latest(ctx context.Context, runID string) (*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, run.ErrInvalidSnapshotID
	}

	return s.scanOne(s.db.QueryRowContext(ctx,
		"SELECT data FROM snapshots WHERE run_id = ? ORDER BY iteration DESC, created_at DESC LIMIT 1",
		runID,
	))
}

func (s *SnapshotStore) scanOne(row *sql.Row) (*run.Snapshot, error) {
	var data []byte
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, run.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}

	var snap run.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// List returns snapshots matching the filter. Run and problem filters are
// applied in SQL; status, ordering and paging follow run.ListFilter.
func (s *SnapshotStore) List(ctx context.Context, filter run.ListFilter) ([]*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := "SELECT data FROM snapshots"
	var (
		where []string
		args  []any
	)
	if filter.RunID != "" {
		where = append(where, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Problem != "" {
		where = append(where, "problem = ?")
		args = append(args, filter.Problem)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*run.Snapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var snap run.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, err
		}
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
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

	result, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return run.ErrSnapshotNotFound
	}
	return nil
}

// Close closes the database connection.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

var _ run.Store = (*SnapshotStore)(nil)
