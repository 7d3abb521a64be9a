package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// recordTransition writes the phase change to the ledger and updates the context.
// Actions receive a pointer to the machine context, so with *Context they get **Context.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}

	c := *ctx
	to := PhaseForEvent(event.Type)
	if c.Ledger != nil {
		c.Ledger.RecordTransition(c.Iteration, c.Phase, to)
	}
	c.Phase = to
}

// startIteration advances the iteration counter on every backup.
func startIteration(ctx **Context, _ statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Iteration++
}
