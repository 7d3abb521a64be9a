package application

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/value"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/logging"
)

// Retainer keeps only the nodes that appear in the best joint node of some
// belief point.
type Retainer struct {
	problem     *decpomdp.Problem
	beliefs     []*decpomdp.Belief
	values      *value.Function
	parallelism int
}

// NewRetainer creates an unconfigured retainer.
func NewRetainer(parallelism int) *Retainer {
	return &Retainer{parallelism: parallelism}
}

// SetProblem sets the model whose controllers are reduced.
func (r *Retainer) SetProblem(p *decpomdp.Problem) *Retainer {
	r.problem = p
	return r
}

// SetBeliefs sets the belief points.
func (r *Retainer) SetBeliefs(beliefs []*decpomdp.Belief) *Retainer {
	r.beliefs = beliefs
	return r
}

// SetValues sets the evaluated value function.
func (r *Retainer) SetValues(values *value.Function) *Retainer {
	r.values = values
	return r
}

// Retain prunes every node outside the retain set and returns the removed
// nodes per agent. Removed nodes are replaced by the agent's node in the
// best joint node at the initial belief, which is always retained. The
// value function is cleared when anything is removed.
func (r *Retainer) Retain(ctx context.Context) ([][]symbol.Node, error) {
	if r.problem == nil {
		panic("application: retainer used before SetProblem")
	}
	if r.values == nil {
		panic("application: retainer used before SetValues")
	}

	jointNodes, err := r.problem.JointNodes()
	if err != nil {
		return nil, fmt.Errorf("enumerate joint nodes: %w", err)
	}

	beliefs := append([]*decpomdp.Belief{r.problem.InitialBelief()}, r.beliefs...)
	best := make([]decpomdp.JointNode, len(beliefs))

	var g errgroup.Group
	if r.parallelism > 0 {
		g.SetLimit(r.parallelism)
	}
	for i, b := range beliefs {
		g.Go(func() error {
			q, _, ok := r.values.Best(b, jointNodes.All())
			if !ok {
				return fmt.Errorf("no evaluated joint node for belief %s", b)
			}
			best[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	removed := make([][]symbol.Node, r.problem.NumAgents())
	total := 0
	for i, a := range r.problem.Agents() {
		keep := make(map[symbol.Node]bool)
		for _, q := range best {
			keep[q.At(i)] = true
		}
		replacement := distribution.Single(best[0].At(i))

		c := a.Controller()
		for _, n := range c.Nodes() {
			if keep[n] {
				continue
			}
			if err := c.PruneNode(n, replacement); err != nil {
				return removed, fmt.Errorf("retain agent %s: %w", a.Name(), err)
			}
			r.values.RemoveNode(i, n)
			removed[i] = append(removed[i], n)
		}
		total += len(removed[i])

		logging.Debug().
			Add(logging.AgentName(a.Name())).
			Add(logging.Pruned(len(removed[i]))).
			Add(logging.NodeCount(c.Len())).
			Msg("nodes retained")
	}

	if total > 0 {
		r.values.Clear()
	}
	return removed, nil
}
