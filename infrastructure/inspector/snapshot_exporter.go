package inspector

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/felixgeelhaar/decpomdp-go/domain/controller"
	"github.com/felixgeelhaar/decpomdp-go/domain/inspector"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// SnapshotExporter reads snapshots from a store and flattens them.
type SnapshotExporter struct {
	store run.Store
}

// NewSnapshotExporter creates a snapshot exporter.
func NewSnapshotExporter(store run.Store) *SnapshotExporter {
	return &SnapshotExporter{store: store}
}

// Export exports a snapshot by ID.
func (e *SnapshotExporter) Export(ctx context.Context, id string) (*inspector.SnapshotExport, error) {
	snap, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ExportSnapshot(snap), nil
}

// ExportLatest exports the last snapshot of a run.
func (e *SnapshotExporter) ExportLatest(ctx context.Context, runID string) (*inspector.SnapshotExport, error) {
	snap, err := e.store.Latest(ctx, runID)
	if err != nil {
		return nil, err
	}
	return ExportSnapshot(snap), nil
}

// ExportHistory exports one point per stored iteration of a run.
func (e *SnapshotExporter) ExportHistory(ctx context.Context, runID string) (*inspector.HistoryExport, error) {
	snaps, err := e.store.List(ctx, run.ListFilter{RunID: runID})
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%w: run %s", inspector.ErrNoData, runID)
	}
	slices.SortStableFunc(snaps, func(a, b *run.Snapshot) int {
		return cmp.Compare(a.Iteration, b.Iteration)
	})

	h := &inspector.HistoryExport{RunID: runID, Problem: snaps[0].Problem}
	for _, s := range snaps {
		nodes := make(map[string]int, len(s.Controllers))
		for _, ac := range s.Controllers {
			if ac.Controller != nil {
				nodes[ac.Agent] = ac.Controller.Len()
			}
		}
		h.Points = append(h.Points, inspector.HistoryPoint{
			Iteration: s.Iteration,
			Value:     s.Value,
			Status:    s.Status,
			Nodes:     nodes,
		})
	}
	return h, nil
}

// ExportSnapshot flattens a snapshot's controllers into graphs.
func ExportSnapshot(s *run.Snapshot) *inspector.SnapshotExport {
	out := &inspector.SnapshotExport{
		ID:        s.ID,
		RunID:     s.RunID,
		Problem:   s.Problem,
		Iteration: s.Iteration,
		Status:    s.Status,
		Value:     s.Value,
		CreatedAt: s.CreatedAt,
	}
	for _, ac := range s.Controllers {
		if ac.Controller == nil {
			continue
		}
		out.Controllers = append(out.Controllers, ExportController(ac.Agent, ac.Controller))
	}
	return out
}

// ExportController flattens one controller.
func ExportController(agent string, c *controller.Controller) inspector.ControllerExport {
	ce := inspector.ControllerExport{Agent: agent}
	for _, n := range c.Nodes() {
		node := inspector.NodeExport{ID: string(n)}
		if actions, ok := c.Action(n); ok {
			for _, e := range actions.Entries() {
				node.Actions = append(node.Actions, inspector.WeightedLabel{Label: string(e.Item), Prob: e.Mass})
			}
		}
		ce.Nodes = append(ce.Nodes, node)

		for _, edge := range c.Edges(n) {
			next, ok := c.FollowNode(n, edge.Action, edge.Observation)
			if !ok {
				continue
			}
			for _, e := range next.Entries() {
				ce.Edges = append(ce.Edges, inspector.EdgeExport{
					From:        string(n),
					To:          string(e.Item),
					Action:      string(edge.Action),
					Observation: string(edge.Observation),
					Prob:        e.Mass,
				})
			}
		}
	}
	return ce
}

var _ inspector.SnapshotExporter = (*SnapshotExporter)(nil)
