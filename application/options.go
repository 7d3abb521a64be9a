package application

import (
	"github.com/felixgeelhaar/decpomdp-go/domain/numeric"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
	"github.com/felixgeelhaar/decpomdp-go/domain/telemetry"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/resilience"
)

// Option configures the engine.
type Option func(*EngineConfig)

// WithMaxIterations sets the iteration budget.
func WithMaxIterations(n int) Option {
	return func(c *EngineConfig) {
		c.MaxIterations = n
	}
}

// WithImprovementThreshold stops the run once the value at the initial
// belief changes by less than threshold between iterations.
func WithImprovementThreshold(threshold float64) Option {
	return func(c *EngineConfig) {
		c.Convergence = ImprovementThreshold(threshold)
	}
}

// WithConvergence sets a custom convergence policy.
func WithConvergence(p ConvergencePolicy) Option {
	return func(c *EngineConfig) {
		c.Convergence = p
	}
}

// WithMaxNewNodes bounds the nodes a single backup may add to one agent.
func WithMaxNewNodes(n int) Option {
	return func(c *EngineConfig) {
		c.MaxNewNodes = n
	}
}

// WithDominanceEpsilon sets the LP optimum above which a node is dominated.
func WithDominanceEpsilon(eps float64) Option {
	return func(c *EngineConfig) {
		c.DominanceEpsilon = eps
	}
}

// WithParallelism bounds concurrent work within a phase.
func WithParallelism(n int) Option {
	return func(c *EngineConfig) {
		c.Parallelism = n
	}
}

// WithRetain enables or disables the dominating-nodes retainer.
func WithRetain(enabled bool) Option {
	return func(c *EngineConfig) {
		c.Retain = enabled
	}
}

// WithBeliefs sets the belief sampling configuration.
func WithBeliefs(b BeliefConfig) Option {
	return func(c *EngineConfig) {
		c.Beliefs = b
	}
}

// WithEquationSolver sets the linear system backend.
func WithEquationSolver(s numeric.DenseSolver) Option {
	return func(c *EngineConfig) {
		c.EquationSolver = s
	}
}

// WithLPSolverFactory sets the linear program backend.
func WithLPSolverFactory(f numeric.LPSolverFactory) Option {
	return func(c *EngineConfig) {
		c.LPSolvers = f
	}
}

// WithStore persists a snapshot after every iteration.
func WithStore(s run.Store) Option {
	return func(c *EngineConfig) {
		c.Store = s
	}
}

// WithStoreBreaker sets the circuit breaker guarding snapshot saves.
func WithStoreBreaker(b *resilience.Breaker) Option {
	return func(c *EngineConfig) {
		c.StoreBreaker = b
	}
}

// WithTracer sets the tracer.
func WithTracer(t telemetry.Tracer) Option {
	return func(c *EngineConfig) {
		c.Tracer = t
	}
}

// WithMeter sets the meter.
func WithMeter(m telemetry.Meter) Option {
	return func(c *EngineConfig) {
		c.Meter = m
	}
}

// NewEngineWithOptions creates an engine with functional options.
func NewEngineWithOptions(opts ...Option) (*Engine, error) {
	config := DefaultEngineConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewEngine(config)
}
