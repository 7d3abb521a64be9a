// Package decpomdp models decentralized partially observable Markov
// decision processes over joint actions and joint observations.
package decpomdp

import (
	"slices"

	"github.com/felixgeelhaar/decpomdp-go/domain/controller"
	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
)

// JointAction holds one action per agent.
type JointAction = vector.Vector[symbol.Action]

// JointObservation holds one observation per agent.
type JointObservation = vector.Vector[symbol.Observation]

// JointNode holds one controller node per agent.
type JointNode = vector.Vector[symbol.Node]

// Belief is a distribution over states.
type Belief = distribution.Distribution[symbol.State]

type stateAction struct {
	state  symbol.State
	action JointAction
}

type actionState struct {
	action JointAction
	state  symbol.State
}

// Problem is an immutable Dec-POMDP instance. Only the agents' controllers
// change over the solver's lifetime.
type Problem struct {
	name         string
	states       []symbol.State
	agents       []*Agent
	discount     float64
	initial      *Belief
	transitions  map[stateAction]*distribution.Distribution[symbol.State]
	rewards      map[stateAction]float64
	observations map[actionState]*distribution.Distribution[JointObservation]

	jointActions      *vector.Generator[symbol.Action]
	jointObservations *vector.Generator[symbol.Observation]
}

// Name returns the problem name.
func (p *Problem) Name() string { return p.name }

// States returns the states in declaration order.
func (p *Problem) States() []symbol.State { return slices.Clone(p.states) }

// Agents returns the agents in slot order.
func (p *Problem) Agents() []*Agent { return slices.Clone(p.agents) }

// Agent returns the agent in slot i.
func (p *Problem) Agent(i int) *Agent { return p.agents[i] }

// NumAgents returns the number of agents.
func (p *Problem) NumAgents() int { return len(p.agents) }

// Discount returns the discount factor.
func (p *Problem) Discount() float64 { return p.discount }

// InitialBelief returns a copy of the initial belief.
func (p *Problem) InitialBelief() *Belief { return p.initial.Clone() }

// JointActions enumerates every joint action.
func (p *Problem) JointActions() *vector.Generator[symbol.Action] { return p.jointActions }

// JointObservations enumerates every joint observation.
func (p *Problem) JointObservations() *vector.Generator[symbol.Observation] {
	return p.jointObservations
}

// Controllers returns each agent's controller in slot order.
func (p *Problem) Controllers() []*controller.Controller {
	out := make([]*controller.Controller, len(p.agents))
	for i, a := range p.agents {
		out[i] = a.controller
	}
	return out
}

// JointNodes enumerates the cartesian product of the agents' current
// controller nodes.
func (p *Problem) JointNodes() (*vector.Generator[symbol.Node], error) {
	choices := make([][]symbol.Node, len(p.agents))
	for i, a := range p.agents {
		choices[i] = a.controller.Nodes()
	}
	return vector.NewGenerator(choices...)
}

// Transition returns the successor distribution for (state, action).
func (p *Problem) Transition(s symbol.State, a JointAction) (*distribution.Distribution[symbol.State], bool) {
	d, ok := p.transitions[stateAction{s, a}]
	return d, ok
}

// TransitionProbability returns P(next | s, a), zero when unmodeled.
func (p *Problem) TransitionProbability(s symbol.State, a JointAction, next symbol.State) float64 {
	d, ok := p.transitions[stateAction{s, a}]
	if !ok {
		return 0
	}
	return d.Prob(next)
}

// BeliefTransitionProbability returns the sum over b(s) * P(next | s, a).
func (p *Problem) BeliefTransitionProbability(b *Belief, a JointAction, next symbol.State) float64 {
	return b.Expect(func(s symbol.State) float64 {
		return p.TransitionProbability(s, a, next)
	})
}

// Reward returns R(s, a), zero when unmodeled.
func (p *Problem) Reward(s symbol.State, a JointAction) float64 {
	return p.rewards[stateAction{s, a}]
}

// BeliefReward returns the sum over b(s) * R(s, a).
func (p *Problem) BeliefReward(b *Belief, a JointAction) float64 {
	return b.Expect(func(s symbol.State) float64 {
		return p.Reward(s, a)
	})
}

// Observation returns the joint observation distribution after a led to next.
func (p *Problem) Observation(a JointAction, next symbol.State) (*distribution.Distribution[JointObservation], bool) {
	d, ok := p.observations[actionState{a, next}]
	return d, ok
}

// ObservationProbability returns P(o | a, next), zero when unmodeled.
func (p *Problem) ObservationProbability(a JointAction, next symbol.State, o JointObservation) float64 {
	d, ok := p.observations[actionState{a, next}]
	if !ok {
		return 0
	}
	return d.Prob(o)
}

// BeliefObservationProbability returns the sum over b(s') * P(o | a, s').
func (p *Problem) BeliefObservationProbability(a JointAction, b *Belief, o JointObservation) float64 {
	return b.Expect(func(next symbol.State) float64 {
		return p.ObservationProbability(a, next, o)
	})
}

// UpdateBelief applies Bayes' rule for joint action a and joint observation
// o. It reports false when o has zero probability under b and a.
func (p *Problem) UpdateBelief(b *Belief, a JointAction, o JointObservation) (*Belief, bool) {
	entries := make([]distribution.Entry[symbol.State], 0, len(p.states))
	for _, next := range p.states {
		obs := p.ObservationProbability(a, next, o)
		if obs == 0 {
			continue
		}
		if w := obs * p.BeliefTransitionProbability(b, a, next); w > 0 {
			entries = append(entries, distribution.E(next, w))
		}
	}
	updated, err := distribution.FromWeights(entries...)
	if err != nil {
		return nil, false
	}
	return updated, true
}
