package statemachine

import (
	"fmt"
	"slices"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// Interpreter wraps the statekit interpreter with solver-specific helpers.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the solver state machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// Start enters the idle phase.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.Phase = run.Phase(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Phase returns the current phase.
func (i *Interpreter) Phase() run.Phase {
	return run.Phase(i.interp.State().Value)
}

// Transition moves the run into the target phase. It fails when the
// statechart has no such transition from the current phase or a guard
// rejects it.
func (i *Interpreter) Transition(to run.Phase) error {
	from := i.Phase()
	if !i.CanTransition(to) {
		return fmt.Errorf("transition from %s to %s not allowed", from, to)
	}

	i.interp.Send(statekit.Event{Type: EventForPhase(to)})

	if got := i.Phase(); got != to {
		return fmt.Errorf("transition from %s to %s not allowed", from, to)
	}
	i.ctx.Phase = to
	return nil
}

// CanTransition reports whether the statechart accepts a move to the
// target phase right now, guards included.
func (i *Interpreter) CanTransition(to run.Phase) bool {
	from := i.Phase()
	if !slices.Contains(allowed[from], to) {
		return false
	}
	if to == run.PhaseBackup {
		return guardIterationsLeft(i.ctx, statekit.Event{Type: EventBackup})
	}
	return true
}

// Iteration returns the number of backups started so far.
func (i *Interpreter) Iteration() int {
	return i.ctx.Iteration
}

// IsTerminal returns true if the run reached a final phase.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}
