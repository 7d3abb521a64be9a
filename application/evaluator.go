package application

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/decpomdp-go/domain/controller"
	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/numeric"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/value"
)

// Evaluator fills in the undefined entries of a value function by solving
// the Bellman equations of the joint controller as one linear system.
type Evaluator struct {
	solver numeric.DenseSolver
}

// NewEvaluator creates an evaluator backed by solver.
func NewEvaluator(solver numeric.DenseSolver) *Evaluator {
	return &Evaluator{solver: solver}
}

type unknown struct {
	state symbol.State
	nodes decpomdp.JointNode
}

// Evaluate solves for every (state, joint node) of the current controllers
// that values does not define yet. Defined entries act as constants. It
// returns the number of unknowns solved and wraps numeric.ErrSolvingFailed
// when the system has no solution.
func (e *Evaluator) Evaluate(ctx context.Context, p *decpomdp.Problem, values *value.Function) (int, error) {
	jointNodes, err := p.JointNodes()
	if err != nil {
		return 0, fmt.Errorf("enumerate joint nodes: %w", err)
	}

	states := p.States()
	var unknowns []unknown
	index := make(map[value.Key]int)
	for q := range jointNodes.All() {
		for _, s := range states {
			if values.Has(s, q) {
				continue
			}
			index[value.Key{State: s, Nodes: q}] = len(unknowns)
			unknowns = append(unknowns, unknown{state: s, nodes: q})
		}
	}
	if len(unknowns) == 0 {
		return 0, nil
	}

	n := len(unknowns)
	a := numeric.NewMatrix(n, n)
	b := make([]float64, n)
	gamma := p.Discount()
	controllers := p.Controllers()

	for row, u := range unknowns {
		if row%256 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		a.Add(row, row, 1)

		actions, err := jointActionDistribution(controllers, u.nodes)
		if err != nil {
			return 0, err
		}
		for action, pa := range actions.All() {
			b[row] += pa * p.Reward(u.state, action)

			next, ok := p.Transition(u.state, action)
			if !ok {
				continue
			}
			for s2, pt := range next.All() {
				obs, ok := p.Observation(action, s2)
				if !ok {
					continue
				}
				for o, po := range obs.All() {
					follow, err := jointFollowDistribution(controllers, u.nodes, action, o)
					if err != nil {
						return 0, err
					}
					for q2, pq := range follow.All() {
						coef := gamma * pa * pt * po * pq
						if v, ok := values.Get(s2, q2); ok {
							b[row] += coef * v
							continue
						}
						col, ok := index[value.Key{State: s2, Nodes: q2}]
						if !ok {
							panic(fmt.Sprintf("application: joint node %s is not in the joint node space", q2))
						}
						a.Add(row, col, -coef)
					}
				}
			}
		}
	}

	solution, ok := e.solver.Solve(n, n, a, b)
	if !ok {
		return 0, fmt.Errorf("%w: %d unknowns", numeric.ErrSolvingFailed, n)
	}
	for i, u := range unknowns {
		values.Set(u.state, u.nodes, solution[i])
	}
	return n, nil
}

// jointActionDistribution is the product of each agent's action selection at q.
func jointActionDistribution(controllers []*controller.Controller, q decpomdp.JointNode) (*distribution.Distribution[decpomdp.JointAction], error) {
	parts := make([]*distribution.Distribution[symbol.Action], len(controllers))
	for i, c := range controllers {
		d, ok := c.Action(q.At(i))
		if !ok {
			return nil, fmt.Errorf("%w: %s", controller.ErrUnknownNode, q.At(i))
		}
		parts[i] = d
	}
	return distribution.Product(parts...), nil
}

// jointFollowDistribution is the product of each agent's follow-node
// distribution for its slot of q, a and o.
func jointFollowDistribution(controllers []*controller.Controller, q decpomdp.JointNode, a decpomdp.JointAction, o decpomdp.JointObservation) (*distribution.Distribution[decpomdp.JointNode], error) {
	parts := make([]*distribution.Distribution[symbol.Node], len(controllers))
	for i, c := range controllers {
		d, ok := c.FollowNode(q.At(i), a.At(i), o.At(i))
		if !ok {
			return nil, fmt.Errorf("%w: node %s action %s observation %s",
				controller.ErrMissingTransition, q.At(i), a.At(i), o.At(i))
		}
		parts[i] = d
	}
	return distribution.Product(parts...), nil
}
