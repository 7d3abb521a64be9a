package statemachine

import (
	"github.com/felixgeelhaar/statekit"
)

// guardIterationsLeft blocks a new backup once the iteration limit is reached.
// A non-positive limit means unlimited.
func guardIterationsLeft(ctx *Context, _ statekit.Event) bool {
	if ctx == nil {
		return false
	}
	if ctx.MaxIterations <= 0 {
		return true
	}
	return ctx.Iteration < ctx.MaxIterations
}
