// Package statemachine drives the phases of a policy-iteration run with statekit.
package statemachine

import (
	"slices"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/decpomdp-go/domain/ledger"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// Context carries run state through the state machine.
type Context struct {
	RunID         string
	Phase         run.Phase
	Iteration     int
	MaxIterations int
	Ledger        *ledger.Ledger
}

// NewContext creates a new machine context.
func NewContext(runID string, maxIterations int, l *ledger.Ledger) *Context {
	return &Context{
		RunID:         runID,
		Phase:         run.PhaseIdle,
		MaxIterations: maxIterations,
		Ledger:        l,
	}
}

// Event types.
const (
	EventBackup   statekit.EventType = "BACKUP"
	EventEvaluate statekit.EventType = "EVALUATE"
	EventSample   statekit.EventType = "SAMPLE"
	EventPrune    statekit.EventType = "PRUNE"
	EventRetain   statekit.EventType = "RETAIN"
	EventCheck    statekit.EventType = "CHECK"
	EventConverge statekit.EventType = "CONVERGE"
	EventExhaust  statekit.EventType = "EXHAUST"
	EventFail     statekit.EventType = "FAIL"
)

const (
	stateIdle      statekit.StateID = statekit.StateID(run.PhaseIdle)
	stateBackup    statekit.StateID = statekit.StateID(run.PhaseBackup)
	stateEvaluate  statekit.StateID = statekit.StateID(run.PhaseEvaluate)
	stateSample    statekit.StateID = statekit.StateID(run.PhaseSample)
	statePrune     statekit.StateID = statekit.StateID(run.PhasePrune)
	stateRetain    statekit.StateID = statekit.StateID(run.PhaseRetain)
	stateCheck     statekit.StateID = statekit.StateID(run.PhaseCheck)
	stateConverged statekit.StateID = statekit.StateID(run.PhaseConverged)
	stateExhausted statekit.StateID = statekit.StateID(run.PhaseExhausted)
	stateFailed    statekit.StateID = statekit.StateID(run.PhaseFailed)
)

// NewSolverMachine creates the policy-iteration statechart.
func NewSolverMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("solver").
		WithInitial(stateIdle).
		WithContext(&Context{}).
		WithAction("recordTransition", recordTransition).
		WithAction("startIteration", startIteration).
		WithGuard("iterationsLeft", guardIterationsLeft).
		State(stateIdle).
			On(EventBackup).Target(stateBackup).Guard("iterationsLeft").Do("startIteration").Do("recordTransition").
			On(EventExhaust).Target(stateExhausted).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(stateBackup).
			On(EventEvaluate).Target(stateEvaluate).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(stateEvaluate).
			On(EventSample).Target(stateSample).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(stateSample).
			On(EventPrune).Target(statePrune).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(statePrune).
			On(EventRetain).Target(stateRetain).Do("recordTransition").
			On(EventCheck).Target(stateCheck).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(stateRetain).
			On(EventCheck).Target(stateCheck).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(stateCheck).
			On(EventBackup).Target(stateBackup).Guard("iterationsLeft").Do("startIteration").Do("recordTransition").
			On(EventConverge).Target(stateConverged).Do("recordTransition").
			On(EventExhaust).Target(stateExhausted).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(stateConverged).
			Final().
			Done().
		State(stateExhausted).
			Final().
			Done().
		State(stateFailed).
			Final().
			Done().
		Build()
}

// allowed mirrors the statechart so callers can check a move before sending it.
var allowed = map[run.Phase][]run.Phase{
	run.PhaseIdle:     {run.PhaseBackup, run.PhaseExhausted, run.PhaseFailed},
	run.PhaseBackup:   {run.PhaseEvaluate, run.PhaseFailed},
	run.PhaseEvaluate: {run.PhaseSample, run.PhaseFailed},
	run.PhaseSample:   {run.PhasePrune, run.PhaseFailed},
	run.PhasePrune:    {run.PhaseRetain, run.PhaseCheck, run.PhaseFailed},
	run.PhaseRetain:   {run.PhaseCheck, run.PhaseFailed},
	run.PhaseCheck:    {run.PhaseBackup, run.PhaseConverged, run.PhaseExhausted, run.PhaseFailed},
}

// Phases lists every phase in statechart order.
func Phases() []run.Phase {
	return []run.Phase{
		run.PhaseIdle, run.PhaseBackup, run.PhaseEvaluate, run.PhaseSample, run.PhasePrune,
		run.PhaseRetain, run.PhaseCheck, run.PhaseConverged, run.PhaseExhausted, run.PhaseFailed,
	}
}

// AllowedTransitions returns the phases reachable from one step.
func AllowedTransitions(from run.Phase) []run.Phase {
	return slices.Clone(allowed[from])
}

// EventForPhase returns the event that leads into the given phase.
func EventForPhase(to run.Phase) statekit.EventType {
	switch to {
	case run.PhaseBackup:
		return EventBackup
	case run.PhaseEvaluate:
		return EventEvaluate
	case run.PhaseSample:
		return EventSample
	case run.PhasePrune:
		return EventPrune
	case run.PhaseRetain:
		return EventRetain
	case run.PhaseCheck:
		return EventCheck
	case run.PhaseConverged:
		return EventConverge
	case run.PhaseExhausted:
		return EventExhaust
	case run.PhaseFailed:
		return EventFail
	default:
		return statekit.EventType(to)
	}
}

// PhaseForEvent is the inverse of EventForPhase.
func PhaseForEvent(eventType statekit.EventType) run.Phase {
	switch eventType {
	case EventBackup:
		return run.PhaseBackup
	case EventEvaluate:
		return run.PhaseEvaluate
	case EventSample:
		return run.PhaseSample
	case EventPrune:
		return run.PhasePrune
	case EventRetain:
		return run.PhaseRetain
	case EventCheck:
		return run.PhaseCheck
	case EventConverge:
		return run.PhaseConverged
	case EventExhaust:
		return run.PhaseExhausted
	case EventFail:
		return run.PhaseFailed
	default:
		return run.Phase(eventType)
	}
}
