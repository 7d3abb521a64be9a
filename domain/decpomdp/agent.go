package decpomdp

import (
	"fmt"
	"slices"

	"github.com/felixgeelhaar/decpomdp-go/domain/controller"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
)

// Agent is one decision maker with fixed action and observation sets. It
// owns the controller that the solver grows and prunes.
type Agent struct {
	name         string
	actions      []symbol.Action
	observations []symbol.Observation
	controller   *controller.Controller
}

// NewAgent creates an agent seeded with a one-node controller that plays
// the first action.
func NewAgent(name string, actions []symbol.Action, observations []symbol.Observation) (*Agent, error) {
	if name == "" || len(actions) == 0 || len(observations) == 0 {
		return nil, fmt.Errorf("%w: %q needs a name, actions and observations", ErrInvalidAgent, name)
	}
	if hasDuplicates(actions) || hasDuplicates(observations) {
		return nil, fmt.Errorf("%w: %q has duplicate actions or observations", ErrInvalidAgent, name)
	}
	return &Agent{
		name:         name,
		actions:      slices.Clone(actions),
		observations: slices.Clone(observations),
		controller:   controller.Seed("n0", actions[0], observations),
	}, nil
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Actions returns the agent's actions in declaration order.
func (a *Agent) Actions() []symbol.Action { return slices.Clone(a.actions) }

// Observations returns the agent's observations in declaration order.
func (a *Agent) Observations() []symbol.Observation { return slices.Clone(a.observations) }

// Controller returns the agent's controller.
func (a *Agent) Controller() *controller.Controller { return a.controller }

// SetController replaces the agent's controller after checking it against
// the agent's action and observation sets.
func (a *Agent) SetController(c *controller.Controller) error {
	if err := c.Validate(a.actions, a.observations); err != nil {
		return fmt.Errorf("%w: agent %s: %w", ErrInvalidController, a.name, err)
	}
	a.controller = c
	return nil
}

// HasAction reports whether act belongs to the agent.
func (a *Agent) HasAction(act symbol.Action) bool {
	return slices.Contains(a.actions, act)
}

// HasObservation reports whether o belongs to the agent.
func (a *Agent) HasObservation(o symbol.Observation) bool {
	return slices.Contains(a.observations, o)
}

func hasDuplicates[T comparable](items []T) bool {
	seen := make(map[T]bool, len(items))
	for _, item := range items {
		if seen[item] {
			return true
		}
		seen[item] = true
	}
	return false
}
