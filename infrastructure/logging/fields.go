package logging

import (
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// RunID adds a solver run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// Problem adds the problem name.
func Problem(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("problem", name)
	}
}

// Iteration adds the outer loop iteration.
func Iteration(i int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("iteration", i)
	}
}

// Phase adds the solver phase.
func Phase(phase string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("phase", phase)
	}
}

// AgentName adds the agent a controller belongs to.
func AgentName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("agent", name)
	}
}

// Node adds a controller node.
func Node(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("node", name)
	}
}

// NodeCount adds the number of nodes in a controller.
func NodeCount(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("nodes", n)
	}
}

// Added adds the number of nodes created by a backup.
func Added(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("added", n)
	}
}

// Pruned adds the number of nodes removed.
func Pruned(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("pruned", n)
	}
}

// Beliefs adds the number of sampled belief points.
func Beliefs(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("beliefs", n)
	}
}

// Unknowns adds the number of unknowns in an equation system.
func Unknowns(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("unknowns", n)
	}
}

// Value adds the value at the initial belief.
func Value(v float64) Field {
	return Float("value", v)
}

// Epsilon adds an LP dominance margin.
func Epsilon(eps float64) Field {
	return Float("epsilon", eps)
}

// Float adds a floating point field using the shortest exact representation.
func Float(key string, v float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, strconv.FormatFloat(v, 'g', -1, 64))
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Converged adds whether the run converged.
func Converged(ok bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("converged", ok)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component name field.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Str adds a generic string field.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Int adds a generic integer field.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}
