// Package problems provides built-in Dec-POMDP benchmark problems and a
// registry to look them up by name.
package problems

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
)

var (
	// ErrUnknownProblem is returned when no problem is registered under a name.
	ErrUnknownProblem = errors.New("unknown problem")

	// ErrProblemExists is returned when a name is registered twice.
	ErrProblemExists = errors.New("problem already registered")
)

// Factory builds a fresh problem instance. Every call returns a problem
// with seed controllers, so runs never share controller state.
type Factory func() (*decpomdp.Problem, error)

// Registry maps problem names to factories.
type Registry struct {
	factories map[string]Factory
	summaries map[string]string
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		summaries: make(map[string]string),
	}
}

// Default returns a registry holding the built-in problems.
func Default() *Registry {
	r := NewRegistry()
	_ = r.Register(DecTigerName, "two agents choose between listening and opening one of two doors", DecTiger)
	_ = r.Register(BroadcastName, "two agents share a channel and must avoid collisions", Broadcast)
	_ = r.Register(TwoStateName, "one agent, two states, a rewarding action that is better in one state", TwoState)
	return r
}

// Register adds a factory under name.
func (r *Registry) Register(name, summary string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrProblemExists, name)
	}
	r.factories[name] = f
	r.summaries[name] = summary
	return nil
}

// Lookup builds the problem registered under name.
func (r *Registry) Lookup(name string) (*decpomdp.Problem, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProblem, name)
	}
	p, err := f()
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	return p, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Summary returns the one-line description of a registered problem.
func (r *Registry) Summary(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.summaries[name]
}

// Has checks if a problem is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[name]
	return ok
}
