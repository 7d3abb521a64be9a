// Package symbol defines the named identifiers shared by problem models and
// controllers. Symbols compare and hash by name.
package symbol

// State is an environment state.
type State string

// Action is an action available to a single agent.
type Action string

// Observation is an observation received by a single agent.
type Observation string

// Node is a controller node.
type Node string

// Of converts names into a slice of symbols.
func Of[T ~string](names ...string) []T {
	out := make([]T, len(names))
	for i, n := range names {
		out[i] = T(n)
	}
	return out
}

// Names converts symbols back into plain strings.
func Names[T ~string](symbols []T) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = string(s)
	}
	return out
}
