package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "no validation errors"
	case 1:
		return e[0].Error()
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

var (
	rolloutPolicies  = []string{"random", "controller"}
	storageBackends  = []string{StorageNone, StorageMemory, StorageBadger, StorageSQLite, StorageFilesystem, StoragePostgres}
	logLevels        = []string{"trace", "debug", "info", "warn", "error"}
	logFormats       = []string{"console", "json"}
	traceExporters   = []string{"otlp", "stdout", "none"}
	metricsExporters = []string{"stdout", "none"}
)

// Validator validates solver configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *SolverConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateSolver(config.Solver)
	v.validateBeliefs(config.Beliefs)
	v.validateStorage(config.Storage)
	v.validateResilience(config.Resilience)
	v.validateLogging(config.Logging)
	v.validateObservability(config.Observability)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) oneOf(path, value string, allowed []string) {
	if value != "" && !slices.Contains(allowed, value) {
		v.addError(path, fmt.Sprintf("must be one of %s, got %q", strings.Join(allowed, ", "), value))
	}
}

func (v *Validator) validateRequired(config *SolverConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
	if config.Problem == "" {
		v.addError("problem", "problem is required")
	}
}

func (v *Validator) validateSolver(s SolverSettings) {
	if s.MaxIterations <= 0 {
		v.addError("solver.max_iterations", "max_iterations must be positive")
	}
	if s.ImprovementThreshold < 0 {
		v.addError("solver.improvement_threshold", "improvement_threshold must be non-negative")
	}
	if s.MaxBackupNodes < 0 {
		v.addError("solver.max_backup_nodes", "max_backup_nodes must be non-negative")
	}
	if s.DominanceEpsilon < 0 {
		v.addError("solver.dominance_epsilon", "dominance_epsilon must be non-negative")
	}
	if s.Parallelism < 0 {
		v.addError("solver.parallelism", "parallelism must be non-negative")
	}
}

func (v *Validator) validateBeliefs(b BeliefSettings) {
	if b.Count <= 0 {
		v.addError("beliefs.count", "count must be positive")
	}
	if b.Horizon <= 0 {
		v.addError("beliefs.horizon", "horizon must be positive")
	}
	if b.MaxRollouts < 0 {
		v.addError("beliefs.max_rollouts", "max_rollouts must be non-negative")
	}
	if b.MergeTolerance < 0 {
		v.addError("beliefs.merge_tolerance", "merge_tolerance must be non-negative")
	}
	v.oneOf("beliefs.policy", b.Policy, rolloutPolicies)
}

func (v *Validator) validateStorage(s StorageConfig) {
	v.oneOf("storage.backend", s.Backend, storageBackends)
	switch s.Backend {
	case StorageBadger, StorageSQLite, StorageFilesystem, StoragePostgres:
		if s.Path == "" {
			v.addError("storage.path", fmt.Sprintf("path is required for the %s backend", s.Backend))
		}
	}
}

func (v *Validator) validateResilience(r ResilienceConfig) {
	if r.CircuitBreaker.Threshold < 0 {
		v.addError("resilience.circuit_breaker.threshold", "threshold must be non-negative")
	}
	if r.CircuitBreaker.Timeout < 0 {
		v.addError("resilience.circuit_breaker.timeout", "timeout must be non-negative")
	}
}

func (v *Validator) validateLogging(l LoggingConfig) {
	v.oneOf("logging.level", strings.ToLower(l.Level), logLevels)
	v.oneOf("logging.format", l.Format, logFormats)
}

func (v *Validator) validateObservability(o ObservabilityConfig) {
	if o.Tracing.Enabled {
		v.oneOf("observability.tracing.exporter", o.Tracing.Exporter, traceExporters)
		if o.Tracing.Exporter == "otlp" && o.Tracing.Endpoint == "" {
			v.addError("observability.tracing.endpoint", "endpoint is required for the otlp exporter")
		}
		if o.Tracing.SampleRate < 0 || o.Tracing.SampleRate > 1 {
			v.addError("observability.tracing.sample_rate", "sample_rate must be within [0, 1]")
		}
	}
	if o.Metrics.Enabled {
		v.oneOf("observability.metrics.exporter", o.Metrics.Exporter, metricsExporters)
		if o.Metrics.Interval < 0 {
			v.addError("observability.metrics.interval", "interval must be non-negative")
		}
	}
}
