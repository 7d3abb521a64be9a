package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/numeric"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/value"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/logging"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/resilience"
)

// DefaultDominanceEpsilon is the smallest LP optimum that counts as dominance.
const DefaultDominanceEpsilon = 1e-9

// replacementCutoff drops LP weights that are numerical noise.
const replacementCutoff = 1e-12

const epsilonVariable = "eps"

// Dominance is the outcome of a successful dominance test.
type Dominance struct {
	Node        symbol.Node
	Epsilon     float64
	Replacement *distribution.Distribution[symbol.Node]
}

type testOutcome struct {
	dominance Dominance
	ok        bool
}

// Pruner removes controller nodes that a convex combination of the agent's
// other nodes beats at every belief point, whatever the other agents do.
type Pruner struct {
	problem  *decpomdp.Problem
	beliefs  []*decpomdp.Belief
	values   *value.Function
	factory  numeric.LPSolverFactory
	epsilon  float64
	onSolve  func(time.Duration)
	parallel int
}

// NewPruner creates an unconfigured pruner running at most parallelism LP
// solves at once. A non-positive parallelism means GOMAXPROCS.
func NewPruner(epsilon float64, parallelism int) *Pruner {
	if epsilon <= 0 {
		epsilon = DefaultDominanceEpsilon
	}
	return &Pruner{
		epsilon:  epsilon,
		parallel: parallelism,
	}
}

// SetProblem sets the model whose controllers are pruned.
func (p *Pruner) SetProblem(problem *decpomdp.Problem) *Pruner {
	p.problem = problem
	return p
}

// SetBeliefs sets the belief points the dominance constraints range over.
func (p *Pruner) SetBeliefs(beliefs []*decpomdp.Belief) *Pruner {
	p.beliefs = beliefs
	return p
}

// SetValues sets the evaluated value function.
func (p *Pruner) SetValues(values *value.Function) *Pruner {
	p.values = values
	return p
}

// SetSolverFactory sets the LP backend. Each test gets its own solver.
func (p *Pruner) SetSolverFactory(factory numeric.LPSolverFactory) *Pruner {
	p.factory = factory
	return p
}

// SetSolveObserver registers a callback receiving the duration of every LP solve.
func (p *Pruner) SetSolveObserver(fn func(time.Duration)) *Pruner {
	p.onSolve = fn
	return p
}

func (p *Pruner) mustBeConfigured() {
	switch {
	case p.problem == nil:
		panic("application: pruner used before SetProblem")
	case len(p.beliefs) == 0:
		panic("application: pruner used before SetBeliefs")
	case p.values == nil:
		panic("application: pruner used before SetValues")
	case p.factory == nil:
		panic("application: pruner used before SetSolverFactory")
	}
}

// Test checks whether node of the given agent is dominated. It reports
// false when the agent has no other node, when the LP has no optimum or
// when the optimal epsilon does not exceed the threshold.
func (p *Pruner) Test(agent int, node symbol.Node) (Dominance, bool) {
	p.mustBeConfigured()

	c := p.problem.Agent(agent).Controller()
	if !c.Has(node) {
		return Dominance{}, false
	}
	var others []symbol.Node
	for _, n := range c.Nodes() {
		if n != node {
			others = append(others, n)
		}
	}
	if len(others) == 0 {
		return Dominance{}, false
	}

	contexts, err := p.contexts(agent, node)
	if err != nil {
		logging.Warn().
			Add(logging.AgentName(p.problem.Agent(agent).Name())).
			Add(logging.Node(string(node))).
			Add(logging.ErrorField(err)).
			Msg("dominance test skipped")
		return Dominance{}, false
	}

	lp := p.program(agent, others, contexts)

	start := time.Now()
	solution, ok := p.factory().SetLinearProgram(lp).Maximise()
	if p.onSolve != nil {
		p.onSolve(time.Since(start))
	}
	if !ok {
		return Dominance{}, false
	}

	eps := solution.Value(epsilonVariable)
	if eps <= p.epsilon {
		return Dominance{}, false
	}

	weights := make([]distribution.Entry[symbol.Node], 0, len(others))
	for _, n := range others {
		if x := solution.Value(weightVariable(n)); x > replacementCutoff {
			weights = append(weights, distribution.E(n, x))
		}
	}
	replacement, err := distribution.FromWeights(weights...)
	if err != nil {
		return Dominance{}, false
	}
	return Dominance{Node: node, Epsilon: eps, Replacement: replacement}, true
}

// contexts enumerates the joint nodes holding node in the agent's slot and
// any current node of every other agent.
func (p *Pruner) contexts(agent int, node symbol.Node) (*vector.Generator[symbol.Node], error) {
	choices := make([][]symbol.Node, p.problem.NumAgents())
	for i, a := range p.problem.Agents() {
		choices[i] = a.Controller().Nodes()
	}
	choices[agent] = []symbol.Node{node}
	return vector.NewGenerator(choices...)
}

// margin returns the smallest amount by which replacement beats node over
// every belief point and every joint node of the other agents.
func (p *Pruner) margin(agent int, node symbol.Node, replacement *distribution.Distribution[symbol.Node], contexts *vector.Generator[symbol.Node]) float64 {
	m := math.Inf(1)
	for _, b := range p.beliefs {
		for v := range contexts.All() {
			var mixed float64
			for k, w := range replacement.All() {
				mixed += w * p.beliefValue(b, v.With(agent, k))
			}
			m = min(m, mixed-p.beliefValue(b, v))
		}
	}
	return m
}

// program builds: maximize eps subject to sum(x) = 1 and, for every belief
// b and every joint node v holding node in the agent's slot,
// sum_k x_k V(b, v with k) - eps >= V(b, v).
func (p *Pruner) program(agent int, others []symbol.Node, contexts *vector.Generator[symbol.Node]) *numeric.LinearProgram {
	lp := numeric.NewLinearProgram()
	mustLP(lp.AddVariable(epsilonVariable, numeric.Free))
	mustLP(lp.SetObjective(epsilonVariable, 1))

	simplex := make(map[string]float64, len(others))
	for _, n := range others {
		mustLP(lp.AddVariable(weightVariable(n), numeric.NonNegative))
		simplex[weightVariable(n)] = 1
	}
	mustLP(lp.AddConstraint(numeric.Constraint{Coefficients: simplex, Relation: numeric.Equal, RHS: 1}))

	for _, b := range p.beliefs {
		for v := range contexts.All() {
			coefficients := make(map[string]float64, len(others)+1)
			coefficients[epsilonVariable] = -1
			for _, n := range others {
				coefficients[weightVariable(n)] = p.beliefValue(b, v.With(agent, n))
			}
			mustLP(lp.AddConstraint(numeric.Constraint{
				Coefficients: coefficients,
				Relation:     numeric.GreaterOrEqual,
				RHS:          p.beliefValue(b, v),
			}))
		}
	}
	return lp
}

func (p *Pruner) beliefValue(b *decpomdp.Belief, q decpomdp.JointNode) float64 {
	v, ok := p.values.BeliefValue(b, q)
	if !ok {
		panic(fmt.Sprintf("application: value function has no entry for joint node %s", q))
	}
	return v
}

func weightVariable(n symbol.Node) string {
	return "x:" + string(n)
}

func mustLP(err error) {
	if err != nil {
		panic(fmt.Sprintf("application: building dominance program: %v", err))
	}
}

// Prune tests every node of the agent concurrently against the controller
// as it stands, then removes the dominated ones in node order. A
// replacement that points at a node pruned earlier in the same pass is
// rewritten onto that node's replacement; a rewritten replacement is
// checked against the value function again and the node is kept when it no
// longer beats it by more than the threshold. Pruning redirects transitions
// of surviving nodes, so the value function is cleared whenever a node is
// removed and must be re-evaluated.
func (p *Pruner) Prune(ctx context.Context, agent int) ([]Dominance, error) {
	p.mustBeConfigured()

	a := p.problem.Agent(agent)
	nodes := a.Controller().Nodes()
	outcomes := make([]testOutcome, len(nodes))

	limiter := resilience.NewLimiter[testOutcome](p.parallel, len(nodes))
	defer func() { _ = limiter.Close() }()

	g, gctx := errgroup.WithContext(ctx)
	for i, n := range nodes {
		g.Go(func() error {
			out, err := limiter.Do(gctx, func(context.Context) (testOutcome, error) {
				d, ok := p.Test(agent, n)
				return testOutcome{dominance: d, ok: ok}, nil
			})
			if err != nil {
				return fmt.Errorf("dominance test %s: %w", n, err)
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := a.Controller()
	resolved := make(map[symbol.Node]*distribution.Distribution[symbol.Node])
	var applied []Dominance
	for _, out := range outcomes {
		if !out.ok {
			continue
		}
		d := out.dominance
		replacement, rewritten, ok := resolveReplacement(d.Node, d.Replacement, resolved)
		if !ok {
			continue
		}
		if rewritten {
			contexts, err := p.contexts(agent, d.Node)
			if err != nil {
				continue
			}
			eps := p.margin(agent, d.Node, replacement, contexts)
			if eps <= p.epsilon {
				logging.Debug().
					Add(logging.AgentName(a.Name())).
					Add(logging.Node(string(d.Node))).
					Add(logging.Epsilon(eps)).
					Msg("rewritten replacement no longer dominates, node kept")
				continue
			}
			d.Epsilon = eps
		}
		if err := c.PruneNode(d.Node, replacement); err != nil {
			return applied, fmt.Errorf("prune %s: %w", d.Node, err)
		}
		p.values.RemoveNode(agent, d.Node)

		for _, r := range resolved {
			if r.Contains(d.Node) {
				r.ReplaceEntryWithDistribution(d.Node, replacement)
			}
		}
		resolved[d.Node] = replacement.Clone()

		d.Replacement = replacement
		applied = append(applied, d)
		logging.Debug().
			Add(logging.AgentName(a.Name())).
			Add(logging.Node(string(d.Node))).
			Add(logging.Epsilon(d.Epsilon)).
			Msg("node pruned")
	}

	if len(applied) > 0 {
		p.values.Clear()
	}
	return applied, nil
}

// resolveReplacement rewrites replacement so it references live nodes
// only. Mass that ends up on node itself is dropped. rewritten reports
// whether the result differs from replacement; ok is false when nothing is
// left.
func resolveReplacement(node symbol.Node, replacement *distribution.Distribution[symbol.Node], resolved map[symbol.Node]*distribution.Distribution[symbol.Node]) (out *distribution.Distribution[symbol.Node], rewritten, ok bool) {
	out = replacement.Clone()
	for _, n := range replacement.Support() {
		if r, found := resolved[n]; found {
			out.ReplaceEntryWithDistribution(n, r)
			rewritten = true
		}
	}
	if !out.Contains(node) {
		return out, rewritten, true
	}

	weights := make([]distribution.Entry[symbol.Node], 0, out.Len())
	for n, m := range out.All() {
		if n != node {
			weights = append(weights, distribution.E(n, m))
		}
	}
	trimmed, err := distribution.FromWeights(weights...)
	if err != nil {
		return nil, true, false
	}
	return trimmed, true, true
}
