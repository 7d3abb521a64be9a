// Package run describes solver runs: their phases, statuses and the
// per-iteration snapshots persisted while a run progresses.
package run

// Phase is a step of the policy-iteration loop.
type Phase string

// Solver phases.
const (
	PhaseIdle      Phase = "idle"
	PhaseBackup    Phase = "backup"
	PhaseEvaluate  Phase = "evaluate"
	PhaseSample    Phase = "sample"
	PhasePrune     Phase = "prune"
	PhaseRetain    Phase = "retain"
	PhaseCheck     Phase = "check"
	PhaseConverged Phase = "converged"
	PhaseExhausted Phase = "exhausted"
	PhaseFailed    Phase = "failed"
)

// IsTerminal reports whether no further phase follows.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseConverged, PhaseExhausted, PhaseFailed:
		return true
	default:
		return false
	}
}

// Status is the outcome of a run.
type Status string

// Run statuses.
const (
	StatusRunning   Status = "running"
	StatusConverged Status = "converged"
	StatusExhausted Status = "exhausted"
	StatusFailed    Status = "failed"
)

// StatusForPhase maps a terminal phase to the run status.
func StatusForPhase(p Phase) Status {
	switch p {
	case PhaseConverged:
		return StatusConverged
	case PhaseExhausted:
		return StatusExhausted
	case PhaseFailed:
		return StatusFailed
	default:
		return StatusRunning
	}
}
