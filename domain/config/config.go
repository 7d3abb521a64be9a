// Package config provides domain models for solver configuration.
package config

import "time"

// SolverConfig represents the complete solver configuration.
type SolverConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes what the configuration is for.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Problem is the name of a built-in problem.
	Problem string `json:"problem" yaml:"problem"`

	// Solver contains policy iteration settings.
	Solver SolverSettings `json:"solver,omitempty" yaml:"solver,omitempty"`
	// Beliefs contains belief sampling settings.
	Beliefs BeliefSettings `json:"beliefs,omitempty" yaml:"beliefs,omitempty"`
	// Storage selects where iteration snapshots go.
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
	// Resilience contains settings for the snapshot store breaker.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
	// Logging contains log output settings.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Observability contains tracing and metrics settings.
	Observability ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"`
}

// SolverSettings contains policy iteration settings.
type SolverSettings struct {
	// MaxIterations is the number of backup/prune cycles allowed.
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	// ImprovementThreshold stops the run once the value at the initial
	// belief moves by less than this between iterations. Zero disables it.
	ImprovementThreshold float64 `json:"improvement_threshold,omitempty" yaml:"improvement_threshold,omitempty"`
	// MaxBackupNodes bounds the nodes one backup may add to one agent.
	MaxBackupNodes int `json:"max_backup_nodes,omitempty" yaml:"max_backup_nodes,omitempty"`
	// DominanceEpsilon is the LP optimum above which a node is dominated.
	DominanceEpsilon float64 `json:"dominance_epsilon,omitempty" yaml:"dominance_epsilon,omitempty"`
	// Parallelism bounds concurrent work within a phase (0 = GOMAXPROCS).
	Parallelism int `json:"parallelism,omitempty" yaml:"parallelism,omitempty"`
	// Retain enables the dominating-nodes retainer (default: true).
	Retain *bool `json:"retain,omitempty" yaml:"retain,omitempty"`
}

// RetainEnabled reports whether the retainer runs.
func (s SolverSettings) RetainEnabled() bool {
	return s.Retain == nil || *s.Retain
}

// BeliefSettings contains belief sampling settings.
type BeliefSettings struct {
	// Count is the number of belief points, the initial belief included.
	Count int `json:"count,omitempty" yaml:"count,omitempty"`
	// Horizon is the length of one rollout.
	Horizon int `json:"horizon,omitempty" yaml:"horizon,omitempty"`
	// Policy picks rollout actions: random or controller.
	Policy string `json:"policy,omitempty" yaml:"policy,omitempty"`
	// Seed seeds the rollout random source.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
	// MaxRollouts caps the rollouts per sampling phase (0 = 10 * count).
	MaxRollouts int `json:"max_rollouts,omitempty" yaml:"max_rollouts,omitempty"`
	// MergeTolerance is the distance under which two beliefs are the same point.
	MergeTolerance float64 `json:"merge_tolerance,omitempty" yaml:"merge_tolerance,omitempty"`
}

// Storage backends.
const (
	StorageNone       = "none"
	StorageMemory     = "memory"
	StorageBadger     = "badger"
	StorageSQLite     = "sqlite"
	StorageFilesystem = "filesystem"
	StoragePostgres   = "postgres"
)

// StorageConfig selects the snapshot store.
type StorageConfig struct {
	// Backend is one of none, memory, badger, sqlite, filesystem or postgres.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// Path is the database file or directory for persistent backends, or
	// the connection string for postgres.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// ResilienceConfig contains resilience settings.
type ResilienceConfig struct {
	// CircuitBreaker guards snapshot saves.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Threshold is failures before opening.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is console or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ObservabilityConfig contains tracing and metrics settings.
type ObservabilityConfig struct {
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Exporter is otlp, stdout or none.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Insecure bool   `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the fraction of runs traced.
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Exporter is stdout or none.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Interval is the export period.
	Interval Duration `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// Default returns the configuration every loaded file is layered onto.
func Default() *SolverConfig {
	return &SolverConfig{
		Version: "1.0",
		Solver: SolverSettings{
			MaxIterations:        20,
			ImprovementThreshold: 1e-6,
			MaxBackupNodes:       10000,
			DominanceEpsilon:     1e-9,
		},
		Beliefs: BeliefSettings{
			Count:          10,
			Horizon:        10,
			Policy:         "random",
			Seed:           1,
			MergeTolerance: 1e-6,
		},
		Storage: StorageConfig{Backend: StorageNone},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{Threshold: 3, Timeout: Duration(30 * time.Second)},
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{Exporter: "stdout", SampleRate: 1},
			Metrics: MetricsConfig{Exporter: "stdout", Interval: Duration(time.Minute)},
		},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return d.parse(s)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
