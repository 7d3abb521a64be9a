package application

import (
	"math/rand/v2"

	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
)

// RolloutPolicy selects joint actions while sampling beliefs.
type RolloutPolicy string

// Rollout policies.
const (
	PolicyRandom     RolloutPolicy = "random"
	PolicyController RolloutPolicy = "controller"
)

// Belief generator defaults.
const (
	DefaultBeliefCount    = 10
	DefaultBeliefHorizon  = 10
	DefaultMergeTolerance = 1e-6
)

// BeliefGenerator samples belief points by simulating rollouts from the
// initial belief and recording every belief reached.
type BeliefGenerator struct {
	problem        *decpomdp.Problem
	count          int
	horizon        int
	policy         RolloutPolicy
	rng            *rand.Rand
	mergeTolerance float64
	maxRollouts    int
}

// NewBeliefGenerator creates an unconfigured generator.
func NewBeliefGenerator() *BeliefGenerator {
	return &BeliefGenerator{
		horizon:        DefaultBeliefHorizon,
		policy:         PolicyRandom,
		mergeTolerance: DefaultMergeTolerance,
	}
}

// SetProblem sets the model to simulate.
func (g *BeliefGenerator) SetProblem(p *decpomdp.Problem) *BeliefGenerator {
	g.problem = p
	return g
}

// SetCount sets the number of belief points to return.
func (g *BeliefGenerator) SetCount(n int) *BeliefGenerator {
	g.count = n
	return g
}

// SetHorizon sets the rollout length.
func (g *BeliefGenerator) SetHorizon(h int) *BeliefGenerator {
	g.horizon = h
	return g
}

// SetPolicy sets how joint actions are picked during rollouts.
func (g *BeliefGenerator) SetPolicy(p RolloutPolicy) *BeliefGenerator {
	g.policy = p
	return g
}

// SetRand sets the random source.
func (g *BeliefGenerator) SetRand(rng *rand.Rand) *BeliefGenerator {
	g.rng = rng
	return g
}

// SetMergeTolerance sets the distance under which two beliefs count as one.
func (g *BeliefGenerator) SetMergeTolerance(tol float64) *BeliefGenerator {
	g.mergeTolerance = tol
	return g
}

// SetMaxRollouts bounds the number of rollouts. Zero means ten per point.
func (g *BeliefGenerator) SetMaxRollouts(n int) *BeliefGenerator {
	g.maxRollouts = n
	return g
}

// Generate returns up to count distinct beliefs, the initial belief first.
// It panics when the problem or a positive count has not been set.
func (g *BeliefGenerator) Generate() []*decpomdp.Belief {
	if g.problem == nil {
		panic("application: belief generator used before SetProblem")
	}
	if g.count <= 0 {
		panic("application: belief generator used before SetCount")
	}
	rng := g.rng
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	maxRollouts := g.maxRollouts
	if maxRollouts <= 0 {
		maxRollouts = 10 * g.count
	}

	initial := g.problem.InitialBelief()
	beliefs := []*decpomdp.Belief{initial}
	for rollout := 0; rollout < maxRollouts && len(beliefs) < g.count; rollout++ {
		beliefs = g.rollout(rng, initial, beliefs)
	}
	return beliefs
}

func (g *BeliefGenerator) rollout(rng *rand.Rand, initial *decpomdp.Belief, beliefs []*decpomdp.Belief) []*decpomdp.Belief {
	p := g.problem
	agents := p.Agents()

	belief := initial
	state := initial.Sample(rng)
	nodes := make([]symbol.Node, len(agents))
	for i, a := range agents {
		candidates := a.Controller().Nodes()
		nodes[i] = candidates[rng.IntN(len(candidates))]
	}

	for step := 0; step < g.horizon && len(beliefs) < g.count; step++ {
		action := g.jointAction(rng, agents, nodes)

		next, ok := p.Transition(state, action)
		if !ok {
			return beliefs
		}
		state = next.Sample(rng)
		obs, ok := p.Observation(action, state)
		if !ok {
			return beliefs
		}
		o := obs.Sample(rng)

		updated, ok := p.UpdateBelief(belief, action, o)
		if !ok {
			return beliefs
		}
		belief = updated
		if !containsClose(beliefs, belief, g.mergeTolerance) {
			beliefs = append(beliefs, belief)
		}

		if g.policy == PolicyController {
			for i, a := range agents {
				if follow, ok := a.Controller().FollowNode(nodes[i], action.At(i), o.At(i)); ok {
					nodes[i] = follow.Sample(rng)
				}
			}
		}
	}
	return beliefs
}

func (g *BeliefGenerator) jointAction(rng *rand.Rand, agents []*decpomdp.Agent, nodes []symbol.Node) decpomdp.JointAction {
	actions := make([]symbol.Action, len(agents))
	for i, a := range agents {
		if g.policy == PolicyController {
			if d, ok := a.Controller().Action(nodes[i]); ok {
				actions[i] = d.Sample(rng)
				continue
			}
		}
		choices := a.Actions()
		actions[i] = choices[rng.IntN(len(choices))]
	}
	return vector.Of(actions...)
}

func containsClose(beliefs []*decpomdp.Belief, b *decpomdp.Belief, tol float64) bool {
	for _, existing := range beliefs {
		if existing.CloseTo(b, tol) {
			return true
		}
	}
	return false
}
