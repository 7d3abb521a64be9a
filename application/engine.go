// Package application implements the policy-iteration phases for
// Dec-POMDP controllers and the engine that sequences them.
package application

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/ledger"
	"github.com/felixgeelhaar/decpomdp-go/domain/numeric"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/telemetry"
	"github.com/felixgeelhaar/decpomdp-go/domain/value"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/linalg"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/logging"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/observability"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/resilience"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/statemachine"
)

// BeliefConfig configures belief point sampling.
type BeliefConfig struct {
	Count          int
	Horizon        int
	Policy         RolloutPolicy
	Seed           uint64
	MaxRollouts    int
	MergeTolerance float64
}

// EngineConfig contains configuration for the engine.
type EngineConfig struct {
	MaxIterations    int
	Convergence      ConvergencePolicy
	MaxNewNodes      int
	DominanceEpsilon float64
	Parallelism      int
	Retain           bool
	Beliefs          BeliefConfig
	EquationSolver   numeric.DenseSolver
	LPSolvers        numeric.LPSolverFactory
	Store            run.Store
	StoreBreaker     *resilience.Breaker
	Tracer           telemetry.Tracer
	Meter            telemetry.Meter
}

// DefaultEngineConfig returns the configuration used when no option overrides it.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxIterations:    20,
		Convergence:      ImprovementThreshold(1e-6),
		MaxNewNodes:      10000,
		DominanceEpsilon: DefaultDominanceEpsilon,
		Parallelism:      runtime.GOMAXPROCS(0),
		Retain:           true,
		Beliefs: BeliefConfig{
			Count:          DefaultBeliefCount,
			Horizon:        DefaultBeliefHorizon,
			Policy:         PolicyRandom,
			Seed:           1,
			MergeTolerance: DefaultMergeTolerance,
		},
	}
}

// Engine runs policy iteration on a Dec-POMDP.
type Engine struct {
	config  EngineConfig
	metrics *observability.SolverMetrics
}

// NewEngine validates config, fills in defaults and creates an engine.
func NewEngine(config EngineConfig) (*Engine, error) {
	switch {
	case config.MaxIterations < 1:
		return nil, fmt.Errorf("%w: max iterations must be positive, got %d", ErrInvalidOption, config.MaxIterations)
	case config.Beliefs.Count < 1:
		return nil, fmt.Errorf("%w: belief count must be positive, got %d", ErrInvalidOption, config.Beliefs.Count)
	case config.Beliefs.Horizon < 1:
		return nil, fmt.Errorf("%w: belief horizon must be positive, got %d", ErrInvalidOption, config.Beliefs.Horizon)
	case config.Parallelism < 0:
		return nil, fmt.Errorf("%w: parallelism must not be negative, got %d", ErrInvalidOption, config.Parallelism)
	case config.DominanceEpsilon < 0:
		return nil, fmt.Errorf("%w: dominance epsilon must not be negative", ErrInvalidOption)
	}
	switch config.Beliefs.Policy {
	case "":
		config.Beliefs.Policy = PolicyRandom
	case PolicyRandom, PolicyController:
	default:
		return nil, fmt.Errorf("%w: unknown rollout policy %q", ErrInvalidOption, config.Beliefs.Policy)
	}

	if config.Convergence == nil {
		config.Convergence = ImprovementThreshold(1e-6)
	}
	if config.Parallelism == 0 {
		config.Parallelism = runtime.GOMAXPROCS(0)
	}
	if config.EquationSolver == nil {
		config.EquationSolver = linalg.NewDenseSolver()
	}
	if config.LPSolvers == nil {
		config.LPSolvers = linalg.SimplexFactory()
	}
	if config.Store != nil && config.StoreBreaker == nil {
		config.StoreBreaker = resilience.NewBreaker(resilience.DefaultBreakerConfig())
	}
	if config.Tracer == nil {
		config.Tracer = observability.NewNoopTracer()
	}
	if config.Meter == nil {
		config.Meter = observability.NewNoopMeter()
	}

	return &Engine{
		config:  config,
		metrics: observability.NewSolverMetrics(config.Meter),
	}, nil
}

// Config returns the effective configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Result is the outcome of a run.
type Result struct {
	RunID       string
	Problem     string
	Status      run.Status
	Value       float64
	History     []float64
	Iterations  int
	Controllers []run.AgentController
	Values      *value.Function
	SnapshotIDs []string
	Ledger      *ledger.Ledger
	Duration    time.Duration
}

// Converged reports whether the convergence policy ended the run.
func (r *Result) Converged() bool {
	return r.Status == run.StatusConverged
}

// Run improves the controllers of p in place until the convergence policy
// is satisfied or the iteration budget is spent. The returned result is
// non-nil even when err is set; its status is then failed.
func (e *Engine) Run(ctx context.Context, p *decpomdp.Problem) (*Result, error) {
	if p == nil {
		return nil, ErrProblemRequired
	}

	runID := uuid.NewString()
	runLedger := ledger.New(runID)

	machine, err := statemachine.NewSolverMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(runID, e.config.MaxIterations, runLedger))
	interp.Start()
	defer interp.Stop()

	ctx, span := e.config.Tracer.StartSpan(ctx, "decpomdp.run",
		telemetry.RunID(runID),
		telemetry.String(telemetry.KeyProblem, p.Name()),
	)
	defer span.End()

	s := &solve{
		engine:    e,
		problem:   p,
		runID:     runID,
		ledger:    runLedger,
		interp:    interp,
		values:    value.New(),
		evaluator: NewEvaluator(e.config.EquationSolver),
		backup:    NewBackup(e.config.MaxNewNodes, e.config.Parallelism),
		beliefs: NewBeliefGenerator().
			SetProblem(p).
			SetCount(e.config.Beliefs.Count).
			SetHorizon(e.config.Beliefs.Horizon).
			SetPolicy(e.config.Beliefs.Policy).
			SetMaxRollouts(e.config.Beliefs.MaxRollouts).
			SetRand(rand.New(rand.NewPCG(e.config.Beliefs.Seed, e.config.Beliefs.Seed+1))),
	}
	if tol := e.config.Beliefs.MergeTolerance; tol > 0 {
		s.beliefs.SetMergeTolerance(tol)
	}

	start := time.Now()
	runLedger.RecordRunStarted(p.Name(), p.NumAgents(), len(p.States()))
	logging.Info().
		Add(logging.RunID(runID)).
		Add(logging.Problem(p.Name())).
		Add(logging.Int("agents", p.NumAgents())).
		Add(logging.Int("states", len(p.States()))).
		Msg("run started")

	runErr := s.run(ctx)
	result := s.finish(ctx, runErr, time.Since(start))

	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(telemetry.StatusCodeError, runErr.Error())
	} else {
		span.SetAttributes(
			telemetry.Float64("decpomdp.value", result.Value),
			telemetry.String(telemetry.KeyStatus, string(result.Status)),
		)
		span.SetStatus(telemetry.StatusCodeOK, "")
	}
	return result, runErr
}

// solve holds the state of one run. It owns the problem's controllers for
// the duration of the run and hands them to one phase at a time.
type solve struct {
	engine    *Engine
	problem   *decpomdp.Problem
	runID     string
	ledger    *ledger.Ledger
	interp    *statemachine.Interpreter
	values    *value.Function
	evaluator *Evaluator
	backup    *Backup
	beliefs   *BeliefGenerator
	history   []float64
	snapshots []string
}

func (s *solve) run(ctx context.Context) error {
	if err := s.evaluate(ctx); err != nil {
		return err
	}
	v, err := s.initialValue()
	if err != nil {
		return err
	}
	s.history = append(s.history, v)

	for !s.interp.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.iterate(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *solve) iterate(ctx context.Context) error {
	cfg := s.engine.config

	err := s.phase(ctx, run.PhaseBackup, func(ctx context.Context) error {
		added, err := s.backup.Run(ctx, s.problem)
		if err != nil {
			return err
		}
		for i, nodes := range added {
			a := s.problem.Agent(i)
			s.ledger.RecordNodesAdded(s.iteration(), a.Name(), len(nodes), a.Controller().Len())
			s.engine.metrics.RecordNodesAdded(ctx, a.Name(), len(nodes))
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.phase(ctx, run.PhaseEvaluate, s.evaluate); err != nil {
		return err
	}

	var beliefs []*decpomdp.Belief
	err = s.phase(ctx, run.PhaseSample, func(context.Context) error {
		beliefs = s.beliefs.Generate()
		s.ledger.RecordBeliefsSampled(s.iteration(), len(beliefs))
		return nil
	})
	if err != nil {
		return err
	}

	err = s.phase(ctx, run.PhasePrune, func(ctx context.Context) error {
		pruner := NewPruner(cfg.DominanceEpsilon, cfg.Parallelism).
			SetProblem(s.problem).
			SetBeliefs(beliefs).
			SetValues(s.values).
			SetSolverFactory(cfg.LPSolvers).
			SetSolveObserver(func(d time.Duration) {
				s.engine.metrics.RecordLPSolve(ctx, d)
			})
		for i, a := range s.problem.Agents() {
			applied, err := pruner.Prune(ctx, i)
			for _, d := range applied {
				s.ledger.RecordNodePruned(s.iteration(), run.PhasePrune, ledger.NodePrunedDetails{
					Agent:       a.Name(),
					Node:        string(d.Node),
					Epsilon:     d.Epsilon,
					Replacement: masses(d.Replacement),
					Reason:      "dominated",
				})
			}
			s.engine.metrics.RecordNodesPruned(ctx, a.Name(), "dominated", len(applied))
			if err != nil {
				return err
			}
			if len(applied) > 0 {
				if err := s.evaluate(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if cfg.Retain {
		err = s.phase(ctx, run.PhaseRetain, func(ctx context.Context) error {
			removed, err := NewRetainer(cfg.Parallelism).
				SetProblem(s.problem).
				SetBeliefs(beliefs).
				SetValues(s.values).
				Retain(ctx)
			if err != nil {
				return err
			}
			total := 0
			for i, nodes := range removed {
				a := s.problem.Agent(i)
				for _, n := range nodes {
					s.ledger.RecordNodePruned(s.iteration(), run.PhaseRetain, ledger.NodePrunedDetails{
						Agent:  a.Name(),
						Node:   string(n),
						Reason: "not retained",
					})
				}
				s.engine.metrics.RecordNodesPruned(ctx, a.Name(), "retain", len(nodes))
				total += len(nodes)
			}
			if total > 0 {
				return s.evaluate(ctx)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	next := run.PhaseBackup
	err = s.phase(ctx, run.PhaseCheck, func(ctx context.Context) error {
		v, err := s.initialValue()
		if err != nil {
			return err
		}
		improvement := v - s.history[len(s.history)-1]
		s.history = append(s.history, v)

		sizes := s.controllerSizes()
		s.ledger.RecordIteration(s.iteration(), v, improvement, sizes)
		s.engine.metrics.RecordValue(ctx, s.problem.Name(), v)
		for i, a := range s.problem.Agents() {
			s.engine.metrics.RecordControllerSize(ctx, a.Name(), sizes[i])
		}

		switch {
		case cfg.Convergence.Converged(s.history):
			next = run.PhaseConverged
		case !s.interp.CanTransition(run.PhaseBackup):
			next = run.PhaseExhausted
		}

		logging.Info().
			Add(logging.RunID(s.runID)).
			Add(logging.Iteration(s.iteration())).
			Add(logging.Value(v)).
			Add(logging.Float("improvement", improvement)).
			Add(logging.Str("nodes", fmt.Sprint(sizes))).
			Msg("iteration completed")

		s.save(ctx, run.StatusForPhase(next), v)
		return nil
	})
	if err != nil {
		return err
	}

	if next != run.PhaseBackup {
		return s.interp.Transition(next)
	}
	return nil
}

// phase moves the machine into p and runs fn inside a span.
func (s *solve) phase(ctx context.Context, p run.Phase, fn func(context.Context) error) error {
	if err := s.interp.Transition(p); err != nil {
		return err
	}

	ctx, span := s.engine.config.Tracer.StartSpan(ctx, "decpomdp."+string(p),
		telemetry.RunID(s.runID),
		telemetry.Phase(string(p)),
		telemetry.Iteration(s.iteration()),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	s.engine.metrics.RecordPhase(ctx, string(p), elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(telemetry.StatusCodeError, err.Error())
		return fmt.Errorf("%s phase: %w", p, err)
	}
	span.SetStatus(telemetry.StatusCodeOK, "")

	logging.Debug().
		Add(logging.RunID(s.runID)).
		Add(logging.Iteration(s.iteration())).
		Add(logging.Phase(string(p))).
		Add(logging.Duration(elapsed)).
		Msg("phase completed")
	return nil
}

func (s *solve) evaluate(ctx context.Context) error {
	start := time.Now()
	n, err := s.evaluator.Evaluate(ctx, s.problem, s.values)
	if err != nil {
		return err
	}
	s.ledger.RecordEvaluated(s.iteration(), n, time.Since(start))
	s.engine.metrics.RecordEvaluation(ctx, n)
	return nil
}

// initialValue is the best joint value at the initial belief.
func (s *solve) initialValue() (float64, error) {
	jointNodes, err := s.problem.JointNodes()
	if err != nil {
		return 0, err
	}
	_, v, ok := s.values.Best(s.problem.InitialBelief(), jointNodes.All())
	if !ok {
		return 0, fmt.Errorf("%w: no evaluated joint node at the initial belief", numeric.ErrSolvingFailed)
	}
	return v, nil
}

func (s *solve) iteration() int {
	return s.interp.Iteration()
}

func (s *solve) controllerSizes() []int {
	sizes := make([]int, s.problem.NumAgents())
	for i, a := range s.problem.Agents() {
		sizes[i] = a.Controller().Len()
	}
	return sizes
}

func (s *solve) controllers() []run.AgentController {
	out := make([]run.AgentController, s.problem.NumAgents())
	for i, a := range s.problem.Agents() {
		out[i] = run.AgentController{Agent: a.Name(), Controller: a.Controller().Clone()}
	}
	return out
}

// save persists a snapshot. Store failures are logged and do not fail the run.
func (s *solve) save(ctx context.Context, status run.Status, v float64) {
	cfg := s.engine.config
	if cfg.Store == nil {
		return
	}

	snap := &run.Snapshot{
		ID:          uuid.NewString(),
		RunID:       s.runID,
		Problem:     s.problem.Name(),
		Iteration:   s.iteration(),
		Status:      status,
		Value:       v,
		Controllers: s.controllers(),
		Values:      s.values.Clone(),
		CreatedAt:   time.Now(),
	}
	err := cfg.StoreBreaker.Do(ctx, func(ctx context.Context) error {
		return cfg.Store.Save(ctx, snap)
	})
	if err != nil {
		logging.Warn().
			Add(logging.RunID(s.runID)).
			Add(logging.Iteration(s.iteration())).
			Add(logging.ErrorField(err)).
			Msg("snapshot not saved")
		return
	}
	s.snapshots = append(s.snapshots, snap.ID)
}

func (s *solve) finish(ctx context.Context, runErr error, elapsed time.Duration) *Result {
	var v float64
	if len(s.history) > 0 {
		v = s.history[len(s.history)-1]
	}

	if runErr != nil && !s.interp.IsTerminal() {
		phase := s.interp.Phase()
		if err := s.interp.Transition(run.PhaseFailed); err != nil {
			logging.Warn().Add(logging.ErrorField(err)).Msg("failed to record failure phase")
		}
		s.ledger.RecordRunFailed(s.iteration(), phase, runErr.Error())
		logging.Error().
			Add(logging.RunID(s.runID)).
			Add(logging.Phase(string(phase))).
			Add(logging.ErrorField(runErr)).
			Msg("run failed")
	}

	status := run.StatusForPhase(s.interp.Phase())
	if runErr != nil {
		status = run.StatusFailed
	} else {
		s.ledger.RecordRunCompleted(s.iteration(), s.interp.Phase(), v, s.controllerSizes())
		logging.Info().
			Add(logging.RunID(s.runID)).
			Add(logging.Str("status", string(status))).
			Add(logging.Iteration(s.iteration())).
			Add(logging.Value(v)).
			Add(logging.Duration(elapsed)).
			Msg("run completed")
	}
	s.engine.metrics.RecordRunEnd(ctx, s.problem.Name(), string(status), elapsed)

	return &Result{
		RunID:       s.runID,
		Problem:     s.problem.Name(),
		Status:      status,
		Value:       v,
		History:     s.history,
		Iterations:  s.iteration(),
		Controllers: s.controllers(),
		Values:      s.values,
		SnapshotIDs: s.snapshots,
		Ledger:      s.ledger,
		Duration:    elapsed,
	}
}

func masses(d *distribution.Distribution[symbol.Node]) map[string]float64 {
	out := make(map[string]float64, d.Len())
	for n, m := range d.All() {
		out[string(n)] = m
	}
	return out
}
