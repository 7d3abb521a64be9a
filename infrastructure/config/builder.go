package config

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/decpomdp-go/application"
	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	domainconfig "github.com/felixgeelhaar/decpomdp-go/domain/config"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/logging"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/observability"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/problems"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/resilience"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/storage/badger"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/storage/filesystem"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/storage/memory"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/storage/postgres"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/storage/sqlite"
)

// Builder builds solver components from configuration.
type Builder struct {
	config   *domainconfig.SolverConfig
	registry *problems.Registry
}

// NewBuilder creates a builder that resolves problems from the built-in
// registry.
func NewBuilder(config *domainconfig.SolverConfig) *Builder {
	return &Builder{config: config, registry: problems.Default()}
}

// WithRegistry resolves problem names against r instead.
func (b *Builder) WithRegistry(r *problems.Registry) *Builder {
	b.registry = r
	return b
}

// BuildResult contains the components built from configuration.
type BuildResult struct {
	// Problem is a fresh instance of the configured problem.
	Problem *decpomdp.Problem
	// Engine holds the engine options; pass them to application.NewEngineWithOptions.
	Engine []application.Option
	// Store is the snapshot store, nil when storage is disabled.
	Store run.Store
	// Logging is the logger configuration.
	Logging logging.Config
	// Observability holds provider options; empty when both signals are off.
	Observability []observability.Option

	closers []io.Closer
}

// Close releases the snapshot store.
func (r *BuildResult) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Build builds the solver components. Callers must Close the result.
func (b *Builder) Build() (*BuildResult, error) {
	cfg := b.config

	p, err := b.registry.Lookup(cfg.Problem)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainconfig.ErrBuildFailed, err)
	}

	result := &BuildResult{
		Problem: p,
		Engine:  b.engineOptions(),
		Logging: logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		},
		Observability: b.observabilityOptions(),
	}

	if err := b.buildStore(result); err != nil {
		return nil, fmt.Errorf("%w: storage: %w", domainconfig.ErrBuildFailed, err)
	}
	return result, nil
}

func (b *Builder) engineOptions() []application.Option {
	s := b.config.Solver
	beliefs := b.config.Beliefs

	convergence := application.ConvergencePolicy(application.FixedIterations{})
	if s.ImprovementThreshold > 0 {
		convergence = application.ImprovementThreshold(s.ImprovementThreshold)
	}

	return []application.Option{
		application.WithMaxIterations(s.MaxIterations),
		application.WithConvergence(convergence),
		application.WithMaxNewNodes(s.MaxBackupNodes),
		application.WithDominanceEpsilon(s.DominanceEpsilon),
		application.WithParallelism(s.Parallelism),
		application.WithRetain(s.RetainEnabled()),
		application.WithBeliefs(application.BeliefConfig{
			Count:          beliefs.Count,
			Horizon:        beliefs.Horizon,
			Policy:         application.RolloutPolicy(beliefs.Policy),
			Seed:           beliefs.Seed,
			MaxRollouts:    beliefs.MaxRollouts,
			MergeTolerance: beliefs.MergeTolerance,
		}),
	}
}

func (b *Builder) observabilityOptions() []observability.Option {
	o := b.config.Observability
	var opts []observability.Option

	if o.Tracing.Enabled && o.Tracing.Exporter != "none" {
		opts = append(opts,
			observability.WithTracing(observability.ExporterType(o.Tracing.Exporter), o.Tracing.Endpoint),
			observability.WithSampleRate(o.Tracing.SampleRate),
		)
		if o.Tracing.Insecure {
			opts = append(opts, observability.WithTracingInsecure())
		}
	}
	if o.Metrics.Enabled && o.Metrics.Exporter != "none" {
		opts = append(opts, observability.WithMetrics(observability.ExporterType(o.Metrics.Exporter)))
		if d := o.Metrics.Interval.Duration(); d > 0 {
			opts = append(opts, observability.WithMetricsInterval(d))
		}
	}
	return opts
}

func (b *Builder) buildStore(result *BuildResult) error {
	store, closer, err := OpenStore(b.config.Storage)
	if err != nil || store == nil {
		return err
	}
	if closer != nil {
		result.closers = append(result.closers, closer)
	}

	cb := b.config.Resilience.CircuitBreaker
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		Threshold: cb.Threshold,
		Timeout:   cb.Timeout.Duration(),
	})

	result.Store = store
	result.Engine = append(result.Engine,
		application.WithStore(store),
		application.WithStoreBreaker(breaker),
	)
	return nil
}

// OpenStore opens the configured snapshot store. It returns a nil store for
// the none backend and a nil closer for stores without resources to release.
func OpenStore(s domainconfig.StorageConfig) (run.Store, io.Closer, error) {
	switch s.Backend {
	case "", domainconfig.StorageNone:
		return nil, nil, nil
	case domainconfig.StorageMemory:
		return memory.NewSnapshotStore(), nil, nil
	case domainconfig.StorageFilesystem:
		fs, err := filesystem.NewSnapshotStore(s.Path)
		if err != nil {
			return nil, nil, err
		}
		return fs, nil, nil
	case domainconfig.StorageBadger:
		db, err := badger.NewSnapshotStore(badger.DefaultConfig(), badger.WithDir(s.Path))
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case domainconfig.StorageSQLite:
		db, err := sqlite.NewSnapshotStore(sqlite.DefaultConfig(), sqlite.WithPath(s.Path))
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case domainconfig.StoragePostgres:
		db, err := postgres.NewSnapshotStore(context.Background(), postgres.DefaultConfig(), postgres.WithDSN(s.Path))
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", s.Backend)
	}
}
