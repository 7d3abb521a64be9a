package application

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/logging"
)

// Backup grows every agent controller exhaustively: for each action and
// each mapping from observations to existing nodes it adds one
// deterministic node.
type Backup struct {
	maxNewNodes int
	parallelism int
}

// NewBackup creates a backup phase. maxNewNodes bounds the nodes added to a
// single agent; zero or less means unbounded.
func NewBackup(maxNewNodes, parallelism int) *Backup {
	return &Backup{maxNewNodes: maxNewNodes, parallelism: parallelism}
}

// BackupSize returns |A|*|Q|^|O| for the agent. It reports false when the
// observation mappings alone exceed vector.MaxCombinations.
func BackupSize(a *decpomdp.Agent) (int, bool) {
	mappings := math.Pow(float64(a.Controller().Len()), float64(len(a.Observations())))
	if mappings > vector.MaxCombinations {
		return 0, false
	}
	return len(a.Actions()) * int(mappings), true
}

// Run backs up every agent of p and returns the added nodes per agent.
// Size limits are checked for all agents before any controller changes.
func (b *Backup) Run(ctx context.Context, p *decpomdp.Problem) ([][]symbol.Node, error) {
	agents := p.Agents()
	for _, a := range agents {
		size, ok := BackupSize(a)
		if !ok || (b.maxNewNodes > 0 && size > b.maxNewNodes) {
			return nil, fmt.Errorf("%w: agent %s would add %d nodes (limit %d)",
				ErrBackupTooLarge, a.Name(), size, b.maxNewNodes)
		}
	}

	added := make([][]symbol.Node, len(agents))
	g, ctx := errgroup.WithContext(ctx)
	if b.parallelism > 0 {
		g.SetLimit(b.parallelism)
	}
	for i, a := range agents {
		g.Go(func() error {
			nodes, err := backupAgent(ctx, a)
			if err != nil {
				return fmt.Errorf("backup agent %s: %w", a.Name(), err)
			}
			added[i] = nodes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return added, nil
}

// backupAgent mutates only the agent's own controller.
func backupAgent(ctx context.Context, a *decpomdp.Agent) ([]symbol.Node, error) {
	c := a.Controller()
	observations := a.Observations()

	choices := make([][]symbol.Node, len(observations))
	existing := c.Nodes()
	for i := range choices {
		choices[i] = existing
	}
	mappings, err := vector.NewGenerator(choices...)
	if err != nil {
		return nil, err
	}

	added := make([]symbol.Node, 0, len(a.Actions())*mappings.Len())
	for _, action := range a.Actions() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for mapping := range mappings.All() {
			node := c.NextNodeName()
			if err := c.AddDeterministicNode(node, action); err != nil {
				return nil, err
			}
			for j, o := range observations {
				if err := c.AddDeterministicTransition(node, action, o, mapping.At(j)); err != nil {
					return nil, err
				}
			}
			added = append(added, node)
		}
	}

	logging.Debug().
		Add(logging.AgentName(a.Name())).
		Add(logging.Added(len(added))).
		Add(logging.NodeCount(c.Len())).
		Msg("agent backed up")
	return added, nil
}
