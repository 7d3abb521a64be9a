// Package postgres provides a PostgreSQL-backed snapshot store.
package postgres

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config configures PostgreSQL storage.
type Config struct {
	// DSN is the connection string, as a URL or keyword/value pairs.
	DSN string

	// Schema holds the snapshots table.
	Schema string

	// MaxConns is the maximum pool size.
	MaxConns int32

	// MinConns is the number of connections kept open.
	MinConns int32

	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// ConnectTimeout bounds dialing and the initial ping.
	ConnectTimeout time.Duration

	// AutoMigrate creates the schema and table if they don't exist.
	AutoMigrate bool
}

// DefaultConfig returns a configuration with sensible pool defaults.
func DefaultConfig() Config {
	return Config{
		Schema:          "public",
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		AutoMigrate:     true,
	}
}

// Option configures PostgreSQL storage.
type Option func(*Config)

// WithDSN sets the connection string.
func WithDSN(dsn string) Option {
	return func(c *Config) {
		c.DSN = dsn
	}
}

// WithSchema sets the schema holding the snapshots table.
func WithSchema(schema string) Option {
	return func(c *Config) {
		c.Schema = schema
	}
}

// WithPoolSize sets the pool bounds.
func WithPoolSize(minConns, maxConns int32) Option {
	return func(c *Config) {
		c.MinConns = minConns
		c.MaxConns = maxConns
	}
}

// WithConnectTimeout sets the dial and ping timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ConnectTimeout = d
	}
}

// Errors
var (
	ErrConnectionFailed = errors.New("postgres: connection failed")
	ErrMigrationFailed  = errors.New("postgres: migration failed")
	ErrInvalidSchema    = errors.New("postgres: invalid schema name")
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the configuration without connecting.
func (c Config) Validate() error {
	if c.DSN == "" {
		return errors.Join(ErrConnectionFailed, errors.New("empty DSN"))
	}
	if !identifier.MatchString(c.Schema) {
		return ErrInvalidSchema
	}
	if c.MaxConns < 1 || c.MinConns < 0 || c.MinConns > c.MaxConns {
		return errors.Join(ErrConnectionFailed, errors.New("invalid pool size"))
	}
	return nil
}

func (c Config) poolConfig() (*pgxpool.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	pc, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	pc.MaxConns = c.MaxConns
	pc.MinConns = c.MinConns
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}
	if c.ConnectTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = c.ConnectTimeout
	}
	return pc, nil
}

func openPool(ctx context.Context, c Config) (*pgxpool.Pool, error) {
	pc, err := c.poolConfig()
	if err != nil {
		return nil, err
	}
	if c.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ConnectTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return pool, nil
}
