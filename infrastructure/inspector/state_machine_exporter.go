package inspector

import (
	"context"

	"github.com/felixgeelhaar/decpomdp-go/domain/inspector"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/statemachine"
)

// StateMachineExporter exports the solver statechart.
type StateMachineExporter struct{}

// NewStateMachineExporter creates a state machine exporter.
func NewStateMachineExporter() *StateMachineExporter {
	return &StateMachineExporter{}
}

// Export exports the phases and their allowed transitions.
func (e *StateMachineExporter) Export(ctx context.Context) (*inspector.StateMachineExport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	export := &inspector.StateMachineExport{Initial: run.PhaseIdle}
	for _, phase := range statemachine.Phases() {
		export.States = append(export.States, inspector.StateExport{
			Name:        phase,
			Description: describePhase(phase),
			IsTerminal:  phase.IsTerminal(),
		})
		if phase.IsTerminal() {
			export.Terminal = append(export.Terminal, phase)
		}
		for _, to := range statemachine.AllowedTransitions(phase) {
			export.Transitions = append(export.Transitions, inspector.StateMachineTransition{
				From:  phase,
				To:    to,
				Label: transitionLabel(phase, to),
			})
		}
	}
	return export, nil
}

func describePhase(p run.Phase) string {
	switch p {
	case run.PhaseIdle:
		return "Seed controllers evaluated, no iteration started"
	case run.PhaseBackup:
		return "Add one node per action and observation mapping"
	case run.PhaseEvaluate:
		return "Solve the joint value equations"
	case run.PhaseSample:
		return "Roll out belief points"
	case run.PhasePrune:
		return "Remove nodes dominated by a mixture of others"
	case run.PhaseRetain:
		return "Keep only nodes best at some belief"
	case run.PhaseCheck:
		return "Record the value and test convergence"
	case run.PhaseConverged:
		return "Value stopped improving"
	case run.PhaseExhausted:
		return "Iteration budget spent"
	case run.PhaseFailed:
		return "A phase returned an error"
	default:
		return ""
	}
}

func transitionLabel(from, to run.Phase) string {
	switch {
	case to == run.PhaseFailed:
		return "on error"
	case to == run.PhaseBackup && from == run.PhaseCheck:
		return "iterations left"
	case to == run.PhaseCheck && from == run.PhasePrune:
		return "retain off"
	default:
		return ""
	}
}

var _ inspector.StateMachineExporter = (*StateMachineExporter)(nil)
