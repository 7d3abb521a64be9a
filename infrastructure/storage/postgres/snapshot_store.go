package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

const uniqueViolation = "23505"

// SnapshotStore is a PostgreSQL-backed implementation of run.Store.
// Filtering, ordering and paging all run in SQL.
type SnapshotStore struct {
	pool   *pgxpool.Pool
	schema string
	table  string
}

// NewSnapshotStore connects to PostgreSQL and opens a snapshot store.
func NewSnapshotStore(ctx context.Context, cfg Config, opts ...Option) (*SnapshotStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := newStore(pool, cfg.Schema)
	if cfg.AutoMigrate {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewSnapshotStoreFromPool creates a snapshot store on an existing pool.
func NewSnapshotStoreFromPool(ctx context.Context, pool *pgxpool.Pool, schema string) (*SnapshotStore, error) {
	if !identifier.MatchString(schema) {
		return nil, ErrInvalidSchema
	}
	s := newStore(pool, schema)
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(pool *pgxpool.Pool, schema string) *SnapshotStore {
	return &SnapshotStore{
		pool:   pool,
		schema: pgx.Identifier{schema}.Sanitize(),
		table:  pgx.Identifier{schema, "snapshots"}.Sanitize(),
	}
}

func (s *SnapshotStore) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS " + s.schema,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			problem TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			status TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			data JSONB NOT NULL,
			created_at BIGINT NOT NULL
		)`, s.table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS snapshots_run_idx ON %s (run_id, iteration)", s.table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS snapshots_created_idx ON %s (created_at)", s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return errors.Join(ErrMigrationFailed, err)
		}
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

	_, err = s.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, run_id, problem, iteration, status, value, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, s.table),
		snap.ID, snap.RunID, snap.Problem, snap.Iteration, string(snap.Status),
		snap.Value, data, snap.CreatedAt.UnixNano(),
	)
	if isUniqueViolation(err) {
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

	return scanOne(s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE id = $1", s.table), id))
}

// Latest returns the snapshot with the highest iteration for a run.
func (s *SnapshotStore) Latest(ctx context.Context, runID string) (*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, run.ErrInvalidSnapshotID
	}

	return scanOne(s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE run_id = $1 ORDER BY iteration DESC, created_at DESC LIMIT 1", s.table),
		runID,
	))
}

func scanOne(row pgx.Row) (*run.Snapshot, error) {
	var data []byte
	err := row.Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, run.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func decode(data []byte) (*run.Snapshot, error) {
	var snap run.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// List returns snapshots matching the filter.
func (s *SnapshotStore) List(ctx context.Context, filter run.ListFilter) ([]*run.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query, args := buildListQuery(s.table, filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*run.Snapshot{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		snap, err := decode(data)
		if err != nil {
			return nil, err
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// buildListQuery renders filter as SQL. The ORDER BY mirrors run.Compare;
// run IDs sort bytewise under the "C" collation.
func buildListQuery(table string, filter run.ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.RunID != "" {
		where = append(where, "run_id = "+arg(filter.RunID))
	}
	if filter.Problem != "" {
		where = append(where, "problem = "+arg(filter.Problem))
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, st := range filter.Status {
			statuses[i] = string(st)
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}

	var b strings.Builder
	b.WriteString("SELECT data FROM ")
	b.WriteString(table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	dir := "ASC"
	if filter.Descending {
		dir = "DESC"
	}
	fmt.Fprintf(&b, ` ORDER BY created_at %[1]s, run_id COLLATE "C" %[1]s, iteration %[1]s`, dir)

	if filter.Limit > 0 {
		b.WriteString(" LIMIT " + arg(filter.Limit))
	}
	if filter.Offset > 0 {
		b.WriteString(" OFFSET " + arg(filter.Offset))
	}
	return b.String(), args
}

// Delete removes a snapshot by ID.
func (s *SnapshotStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if id == "" {
		return run.ErrInvalidSnapshotID
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return run.ErrSnapshotNotFound
	}
	return nil
}

// Close releases the connection pool.
func (s *SnapshotStore) Close() error {
	s.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ run.Store = (*SnapshotStore)(nil)
