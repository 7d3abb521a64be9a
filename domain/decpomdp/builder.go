package decpomdp

import (
	"errors"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
)

// TransitionFunc returns the successor distribution for (state, joint action),
// or nil when the combination is unmodeled.
type TransitionFunc func(s symbol.State, a JointAction) *distribution.Distribution[symbol.State]

// RewardFunc returns the immediate reward for (state, joint action).
type RewardFunc func(s symbol.State, a JointAction) float64

// ObservationFunc returns the joint observation distribution after a led to
// next, or nil when unmodeled.
type ObservationFunc func(a JointAction, next symbol.State) *distribution.Distribution[JointObservation]

type agentSpec struct {
	name         string
	actions      []symbol.Action
	observations []symbol.Observation
}

// Builder assembles a Problem. Table entries override values produced by
// the corresponding function.
type Builder struct {
	name         string
	states       []symbol.State
	agents       []agentSpec
	discount     float64
	initial      *Belief
	transitionFn TransitionFunc
	rewardFn     RewardFunc
	observeFn    ObservationFunc
	transitions  map[stateAction]*distribution.Distribution[symbol.State]
	rewards      map[stateAction]float64
	observations map[actionState]*distribution.Distribution[JointObservation]
}

// NewBuilder starts a problem with discount 1 and a uniform initial belief.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:         name,
		discount:     1,
		transitions:  make(map[stateAction]*distribution.Distribution[symbol.State]),
		rewards:      make(map[stateAction]float64),
		observations: make(map[actionState]*distribution.Distribution[JointObservation]),
	}
}

// States declares the states in order.
func (b *Builder) States(states ...symbol.State) *Builder {
	b.states = append(b.states, states...)
	return b
}

// Agent declares the next agent slot.
func (b *Builder) Agent(name string, actions []symbol.Action, observations []symbol.Observation) *Builder {
	b.agents = append(b.agents, agentSpec{name: name, actions: actions, observations: observations})
	return b
}

// Discount sets the discount factor.
func (b *Builder) Discount(gamma float64) *Builder {
	b.discount = gamma
	return b
}

// InitialBelief sets the initial state distribution.
func (b *Builder) InitialBelief(belief *Belief) *Builder {
	b.initial = belief
	return b
}

// TransitionFunc sets a function evaluated for every (state, joint action).
func (b *Builder) TransitionFunc(fn TransitionFunc) *Builder {
	b.transitionFn = fn
	return b
}

// Transition sets the successor distribution for one (state, joint action).
func (b *Builder) Transition(s symbol.State, a JointAction, next *distribution.Distribution[symbol.State]) *Builder {
	b.transitions[stateAction{s, a}] = next
	return b
}

// RewardFunc sets a function evaluated for every (state, joint action).
func (b *Builder) RewardFunc(fn RewardFunc) *Builder {
	b.rewardFn = fn
	return b
}

// Reward sets the reward for one (state, joint action).
func (b *Builder) Reward(s symbol.State, a JointAction, r float64) *Builder {
	b.rewards[stateAction{s, a}] = r
	return b
}

// ObservationFunc sets a function evaluated for every (joint action, next state).
func (b *Builder) ObservationFunc(fn ObservationFunc) *Builder {
	b.observeFn = fn
	return b
}

// Observation sets the joint observation distribution for one (joint action, next state).
func (b *Builder) Observation(a JointAction, next symbol.State, o *distribution.Distribution[JointObservation]) *Builder {
	b.observations[actionState{a, next}] = o
	return b
}

// Build validates the declarations and returns the problem.
func (b *Builder) Build() (*Problem, error) {
	if len(b.states) == 0 {
		return nil, ErrNoStates
	}
	if hasDuplicates(b.states) {
		return nil, fmt.Errorf("%w: duplicate state", ErrUnknownState)
	}
	if len(b.agents) == 0 {
		return nil, ErrNoAgents
	}
	if !(b.discount > 0 && b.discount <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDiscount, b.discount)
	}

	p := &Problem{
		name:         b.name,
		states:       slices.Clone(b.states),
		discount:     b.discount,
		transitions:  make(map[stateAction]*distribution.Distribution[symbol.State]),
		rewards:      make(map[stateAction]float64),
		observations: make(map[actionState]*distribution.Distribution[JointObservation]),
	}

	actionChoices := make([][]symbol.Action, len(b.agents))
	obsChoices := make([][]symbol.Observation, len(b.agents))
	for i, spec := range b.agents {
		agent, err := NewAgent(spec.name, spec.actions, spec.observations)
		if err != nil {
			return nil, err
		}
		p.agents = append(p.agents, agent)
		actionChoices[i] = agent.actions
		obsChoices[i] = agent.observations
	}

	var err error
	if p.jointActions, err = vector.NewGenerator(actionChoices...); err != nil {
		return nil, fmt.Errorf("joint actions: %w", err)
	}
	if p.jointObservations, err = vector.NewGenerator(obsChoices...); err != nil {
		return nil, fmt.Errorf("joint observations: %w", err)
	}

	if b.initial == nil {
		p.initial, _ = distribution.Uniform(p.states)
	} else {
		p.initial = b.initial.Clone()
	}

	b.applyFuncs(p)
	for k, d := range b.transitions {
		p.transitions[k] = d.Clone()
	}
	for k, r := range b.rewards {
		p.rewards[k] = r
	}
	for k, d := range b.observations {
		p.observations[k] = d.Clone()
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (b *Builder) applyFuncs(p *Problem) {
	for a := range p.jointActions.All() {
		for _, s := range p.states {
			if b.transitionFn != nil {
				if d := b.transitionFn(s, a); d != nil {
					p.transitions[stateAction{s, a}] = d.Clone()
				}
			}
			if b.rewardFn != nil {
				if r := b.rewardFn(s, a); r != 0 {
					p.rewards[stateAction{s, a}] = r
				}
			}
			if b.observeFn != nil {
				if d := b.observeFn(a, s); d != nil {
					p.observations[actionState{a, s}] = d.Clone()
				}
			}
		}
	}
}

func (p *Problem) validate() error {
	var errs []error
	for s := range p.initial.All() {
		if !slices.Contains(p.states, s) {
			errs = append(errs, fmt.Errorf("%w: initial belief references %s", ErrUnknownState, s))
		}
	}
	for k, d := range p.transitions {
		errs = append(errs, p.checkStateAction(k.state, k.action)...)
		for next := range d.All() {
			if !slices.Contains(p.states, next) {
				errs = append(errs, fmt.Errorf("%w: transition target %s", ErrUnknownState, next))
			}
		}
	}
	for k := range p.rewards {
		errs = append(errs, p.checkStateAction(k.state, k.action)...)
	}
	for k, d := range p.observations {
		errs = append(errs, p.checkStateAction(k.state, k.action)...)
		for o := range d.All() {
			if !p.validJointObservation(o) {
				errs = append(errs, fmt.Errorf("%w: %v", ErrUnknownObservation, o))
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Problem) checkStateAction(s symbol.State, a JointAction) []error {
	var errs []error
	if !slices.Contains(p.states, s) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownState, s))
	}
	if !p.validJointAction(a) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrUnknownAction, a))
	}
	return errs
}

func (p *Problem) validJointAction(a JointAction) bool {
	if a.Len() != len(p.agents) {
		return false
	}
	for i, act := range a.Elements() {
		if !p.agents[i].HasAction(act) {
			return false
		}
	}
	return true
}

func (p *Problem) validJointObservation(o JointObservation) bool {
	if o.Len() != len(p.agents) {
		return false
	}
	for i, obs := range o.Elements() {
		if !p.agents[i].HasObservation(obs) {
			return false
		}
	}
	return true
}
