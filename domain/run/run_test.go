package run_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/decpomdp-go/domain/controller"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
)

func TestPhaseIsTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		phase  run.Phase
		want   bool
		status run.Status
	}{
		{run.PhaseIdle, false, run.StatusRunning},
		{run.PhaseBackup, false, run.StatusRunning},
		{run.PhasePrune, false, run.StatusRunning},
		{run.PhaseConverged, true, run.StatusConverged},
		{run.PhaseExhausted, true, run.StatusExhausted},
		{run.PhaseFailed, true, run.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			t.Parallel()
			if got := tt.phase.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
			if got := run.StatusForPhase(tt.phase); got != tt.status {
				t.Errorf("StatusForPhase() = %v, want %v", got, tt.status)
			}
		})
	}
}

func snapshots() []*run.Snapshot {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*run.Snapshot{
		{ID: "b1", RunID: "b", Problem: "dectiger", Iteration: 1, Status: run.StatusRunning, CreatedAt: base.Add(3 * time.Second)},
		{ID: "a1", RunID: "a", Problem: "dectiger", Iteration: 1, Status: run.StatusRunning, CreatedAt: base.Add(time.Second)},
		{ID: "a2", RunID: "a", Problem: "dectiger", Iteration: 2, Status: run.StatusConverged, CreatedAt: base.Add(2 * time.Second)},
		{ID: "c1", RunID: "c", Problem: "broadcast", Iteration: 1, Status: run.StatusFailed, CreatedAt: base.Add(4 * time.Second)},
	}
}

func ids(list []*run.Snapshot) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}

func TestListFilterApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter run.ListFilter
		want   []string
	}{
		{"all", run.ListFilter{}, []string{"a1", "a2", "b1", "c1"}},
		{"by run", run.ListFilter{RunID: "a"}, []string{"a1", "a2"}},
		{"by problem", run.ListFilter{Problem: "broadcast"}, []string{"c1"}},
		{"by status", run.ListFilter{Status: []run.Status{run.StatusConverged, run.StatusFailed}}, []string{"a2", "c1"}},
		{"descending", run.ListFilter{Descending: true, Limit: 2}, []string{"c1", "b1"}},
		{"offset", run.ListFilter{Offset: 3}, []string{"c1"}},
		{"offset past end", run.ListFilter{Offset: 10}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ids(tt.filter.Apply(snapshots()))
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Apply() = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestSnapshotTotalNodes(t *testing.T) {
	t.Parallel()

	obs := symbol.Of[symbol.Observation]("o")
	c := controller.Seed("n0", "a", obs)
	_ = c.AddDeterministicNode("n1", "a")

	s := &run.Snapshot{Controllers: []run.AgentController{
		{Agent: "a1", Controller: c},
		{Agent: "a2", Controller: controller.Seed("n0", "a", obs)},
		{Agent: "a3"},
	}}
	if got := s.TotalNodes(); got != 3 {
		t.Errorf("TotalNodes() = %d, want 3", got)
	}
}
