package inspector_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/decpomdp-go/domain/controller"
	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	domaininspector "github.com/felixgeelhaar/decpomdp-go/domain/inspector"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/inspector"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/storage/memory"
)

// tigerController listens in n0, then opens a door in n1 with even odds.
func tigerController(t *testing.T) *controller.Controller {
	t.Helper()

	c := controller.Seed("n0", "listen", []symbol.Observation{"hear-left", "hear-right"})
	doors := distribution.MustFromEntries(distribution.E[symbol.Action]("open-left", 0.5), distribution.E[symbol.Action]("open-right", 0.5))
	if err := c.AddNode("n1", doors); err != nil {
		t.Fatal(err)
	}
	for _, a := range []symbol.Action{"open-left", "open-right"} {
		for _, o := range []symbol.Observation{"hear-left", "hear-right"} {
			if err := c.AddDeterministicTransition("n1", a, o, "n0"); err != nil {
				t.Fatal(err)
			}
		}
	}
	return c
}

func seededStore(t *testing.T) run.Store {
	t.Helper()

	ctx := context.Background()
	store := memory.NewSnapshotStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, v := range []float64{-20, -12.5, -6.25} {
		err := store.Save(ctx, &run.Snapshot{
			ID:        "tiger-" + string(rune('1'+i)),
			RunID:     "tiger",
			Problem:   "dectiger",
			Iteration: i + 1,
			Status:    run.StatusRunning,
			Value:     v,
			Controllers: []run.AgentController{
				{Agent: "agent-1", Controller: tigerController(t)},
				{Agent: "agent-2", Controller: controller.Seed("n0", "listen", []symbol.Observation{"hear-left", "hear-right"})},
			},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func TestExportController(t *testing.T) {
	t.Parallel()

	ce := inspector.ExportController("agent-1", tigerController(t))
	if ce.Agent != "agent-1" || len(ce.Nodes) != 2 {
		t.Fatalf("ExportController() = %+v", ce)
	}
	if got := len(ce.Nodes[1].Actions); got != 2 {
		t.Errorf("n1 actions = %d, want 2", got)
	}
	// n0 loops on 2 observations; n1 has 2 actions x 2 observations.
	if got := len(ce.Edges); got != 6 {
		t.Errorf("edges = %d, want 6", got)
	}
}

func TestInspector_ExportSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	insp := inspector.NewStoreInspector(seededStore(t))

	tests := []struct {
		format domaininspector.ExportFormat
		want   []string
	}{
		{domaininspector.FormatJSON, []string{`"run_id": "tiger"`, `"agent": "agent-2"`, `"label": "open-left"`}},
		{domaininspector.FormatDOT, []string{"digraph", "cluster_0", `"agent-1/n1" -> "agent-1/n0"`, "open-left 0.5"}},
		{domaininspector.FormatMermaid, []string{"flowchart LR", "a0_n1 -->", "a1_n0"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()
			out, err := insp.ExportSnapshot(ctx, "tiger-2", tt.format)
			if err != nil {
				t.Fatalf("ExportSnapshot() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(string(out), want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}

	if _, err := insp.ExportSnapshot(ctx, "nope", domaininspector.FormatJSON); !errors.Is(err, run.ErrSnapshotNotFound) {
		t.Errorf("ExportSnapshot(nope) error = %v, want %v", err, run.ErrSnapshotNotFound)
	}
	if _, err := insp.ExportSnapshot(ctx, "tiger-1", "svg"); !errors.Is(err, domaininspector.ErrInvalidFormat) {
		t.Errorf("ExportSnapshot(svg) error = %v, want %v", err, domaininspector.ErrInvalidFormat)
	}
}

func TestInspector_ExportLatest(t *testing.T) {
	t.Parallel()

	out, err := inspector.NewStoreInspector(seededStore(t)).ExportLatest(context.Background(), "tiger", domaininspector.FormatJSON)
	if err != nil {
		t.Fatalf("ExportLatest() error = %v", err)
	}

	var export domaininspector.SnapshotExport
	if err := json.Unmarshal(out, &export); err != nil {
		t.Fatal(err)
	}
	if export.Iteration != 3 || export.Value != -6.25 {
		t.Errorf("ExportLatest() = iteration %d value %v, want 3, -6.25", export.Iteration, export.Value)
	}
}

func TestInspector_ExportHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	insp := inspector.NewStoreInspector(seededStore(t))

	out, err := insp.ExportHistory(ctx, "tiger", domaininspector.FormatJSON)
	if err != nil {
		t.Fatalf("ExportHistory() error = %v", err)
	}
	var h domaininspector.HistoryExport
	if err := json.Unmarshal(out, &h); err != nil {
		t.Fatal(err)
	}
	if len(h.Points) != 3 {
		t.Fatalf("points = %d, want 3", len(h.Points))
	}
	if h.Points[0].Value != -20 || h.Points[2].Nodes["agent-1"] != 2 {
		t.Errorf("points = %+v", h.Points)
	}

	if _, err := insp.ExportHistory(ctx, "tiger", domaininspector.FormatDOT); !errors.Is(err, domaininspector.ErrInvalidFormat) {
		t.Errorf("ExportHistory(dot) error = %v, want %v", err, domaininspector.ErrInvalidFormat)
	}
	if _, err := insp.ExportHistory(ctx, "missing", domaininspector.FormatJSON); !errors.Is(err, domaininspector.ErrNoData) {
		t.Errorf("ExportHistory(missing) error = %v, want %v", err, domaininspector.ErrNoData)
	}
}

func TestInspector_ExportStateMachine(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	insp := inspector.NewDefaultInspector(nil, inspector.NewStateMachineExporter())

	dot, err := insp.ExportStateMachine(ctx, domaininspector.FormatDOT)
	if err != nil {
		t.Fatalf("ExportStateMachine(dot) error = %v", err)
	}
	for _, want := range []string{`"check" -> "backup" [label="iterations left"]`, `"failed" [label="failed", style="rounded,filled", fillcolor=lightcoral]`} {
		if !strings.Contains(string(dot), want) {
			t.Errorf("dot missing %q:\n%s", want, dot)
		}
	}

	mermaid, err := insp.ExportStateMachine(ctx, domaininspector.FormatMermaid)
	if err != nil {
		t.Fatalf("ExportStateMachine(mermaid) error = %v", err)
	}
	for _, want := range []string{"[*] --> idle", "prune --> check: retain off", "converged --> [*]"} {
		if !strings.Contains(string(mermaid), want) {
			t.Errorf("mermaid missing %q:\n%s", want, mermaid)
		}
	}

	if _, err := insp.ExportSnapshot(ctx, "x", domaininspector.FormatJSON); !errors.Is(err, domaininspector.ErrExportFailed) {
		t.Errorf("ExportSnapshot() without exporter error = %v, want %v", err, domaininspector.ErrExportFailed)
	}
}

func TestStateMachineExporter(t *testing.T) {
	t.Parallel()

	sm, err := inspector.NewStateMachineExporter().Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sm.Initial != run.PhaseIdle {
		t.Errorf("Initial = %s, want idle", sm.Initial)
	}
	if len(sm.States) != 10 || len(sm.Terminal) != 3 {
		t.Errorf("states = %d terminal = %d, want 10 and 3", len(sm.States), len(sm.Terminal))
	}
	for _, s := range sm.States {
		if s.Description == "" {
			t.Errorf("state %s has no description", s.Name)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := inspector.NewStateMachineExporter().Export(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Export() cancelled error = %v", err)
	}
}

func TestJSONFormatter(t *testing.T) {
	t.Parallel()

	compact, err := inspector.NewJSONFormatter().Format(map[string]int{"n": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(compact) != `{"n":1}` {
		t.Errorf("Format() = %s", compact)
	}

	pretty, err := inspector.NewJSONFormatter(inspector.WithPrettyPrint()).Format(map[string]int{"n": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(pretty) != "{\n  \"n\": 1\n}" {
		t.Errorf("Format() pretty = %s", pretty)
	}
}
