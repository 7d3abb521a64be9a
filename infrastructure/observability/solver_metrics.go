package observability

import (
	"context"
	"time"

	"github.com/felixgeelhaar/decpomdp-go/domain/telemetry"
)

// SolverMetrics holds the instruments recorded by policy-iteration runs.
type SolverMetrics struct {
	RunsTotal          telemetry.Counter
	RunDuration        telemetry.Histogram
	NodesAdded         telemetry.Counter
	NodesPruned        telemetry.Counter
	ControllerSize     telemetry.Gauge
	Value              telemetry.Gauge
	PhaseDuration      telemetry.Histogram
	EvaluationUnknowns telemetry.Histogram
	LPSolveDuration    telemetry.Histogram
}

// NewSolverMetrics registers the solver instruments on meter.
func NewSolverMetrics(meter telemetry.Meter) *SolverMetrics {
	return &SolverMetrics{
		RunsTotal: meter.Counter("decpomdp.runs_total",
			telemetry.WithDescription("Completed solver runs"),
			telemetry.WithUnit("{run}"),
		),
		RunDuration: meter.Histogram("decpomdp.run.duration_seconds",
			telemetry.WithDescription("Duration of solver runs"),
			telemetry.WithUnit("s"),
		),
		NodesAdded: meter.Counter("decpomdp.nodes_added_total",
			telemetry.WithDescription("Controller nodes added by backups"),
			telemetry.WithUnit("{node}"),
		),
		NodesPruned: meter.Counter("decpomdp.nodes_pruned_total",
			telemetry.WithDescription("Controller nodes removed by pruning and retention"),
			telemetry.WithUnit("{node}"),
		),
		ControllerSize: meter.Gauge("decpomdp.controller.nodes",
			telemetry.WithDescription("Nodes per agent controller after an iteration"),
			telemetry.WithUnit("{node}"),
		),
		Value: meter.Gauge("decpomdp.value",
			telemetry.WithDescription("Joint value at the initial belief"),
		),
		PhaseDuration: meter.Histogram("decpomdp.phase.duration_seconds",
			telemetry.WithDescription("Duration of solver phases"),
			telemetry.WithUnit("s"),
		),
		EvaluationUnknowns: meter.Histogram("decpomdp.evaluation.unknowns",
			telemetry.WithDescription("Unknowns per value function evaluation"),
			telemetry.WithUnit("{unknown}"),
		),
		LPSolveDuration: meter.Histogram("decpomdp.lp.duration_seconds",
			telemetry.WithDescription("Duration of dominance linear programs"),
			telemetry.WithUnit("s"),
		),
	}
}

// RecordRunEnd records a finished run.
func (m *SolverMetrics) RecordRunEnd(ctx context.Context, problem, status string, duration time.Duration) {
	attrs := []telemetry.Attribute{
		telemetry.String(telemetry.KeyProblem, problem),
		telemetry.String(telemetry.KeyStatus, status),
	}
	m.RunsTotal.Add(ctx, 1, attrs...)
	m.RunDuration.Record(ctx, duration.Seconds(), attrs...)
}

// RecordPhase records the duration of one phase.
func (m *SolverMetrics) RecordPhase(ctx context.Context, phase string, duration time.Duration) {
	m.PhaseDuration.Record(ctx, duration.Seconds(), telemetry.Phase(phase))
}

// RecordNodesAdded records a backup of one agent.
func (m *SolverMetrics) RecordNodesAdded(ctx context.Context, agent string, n int) {
	m.NodesAdded.Add(ctx, int64(n), telemetry.Agent(agent))
}

// RecordNodesPruned records removed nodes; reason is "dominated" or "retain".
func (m *SolverMetrics) RecordNodesPruned(ctx context.Context, agent, reason string, n int) {
	if n == 0 {
		return
	}
	m.NodesPruned.Add(ctx, int64(n), telemetry.Agent(agent), telemetry.String(telemetry.KeyReason, reason))
}

// RecordControllerSize records the node count of an agent's controller.
func (m *SolverMetrics) RecordControllerSize(ctx context.Context, agent string, nodes int) {
	m.ControllerSize.Record(ctx, float64(nodes), telemetry.Agent(agent))
}

// RecordValue records the joint value at the initial belief.
func (m *SolverMetrics) RecordValue(ctx context.Context, problem string, v float64) {
	m.Value.Record(ctx, v, telemetry.String(telemetry.KeyProblem, problem))
}

// RecordEvaluation records the size of a solved system.
func (m *SolverMetrics) RecordEvaluation(ctx context.Context, unknowns int) {
	m.EvaluationUnknowns.Record(ctx, float64(unknowns))
}

// RecordLPSolve records one dominance LP.
func (m *SolverMetrics) RecordLPSolve(ctx context.Context, duration time.Duration) {
	m.LPSolveDuration.Record(ctx, duration.Seconds())
}
