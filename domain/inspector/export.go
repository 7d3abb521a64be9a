package inspector

import (
	"time"

	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// ExportFormat identifies the export format.
type ExportFormat string

const (
	FormatJSON    ExportFormat = "json"
	FormatDOT     ExportFormat = "dot"
	FormatMermaid ExportFormat = "mermaid"
)

// Formats lists the supported export formats.
func Formats() []ExportFormat {
	return []ExportFormat{FormatJSON, FormatDOT, FormatMermaid}
}

// SnapshotExport is a snapshot flattened into controller graphs.
type SnapshotExport struct {
	ID          string             `json:"id"`
	RunID       string             `json:"run_id"`
	Problem     string             `json:"problem"`
	Iteration   int                `json:"iteration"`
	Status      run.Status         `json:"status"`
	Value       float64            `json:"value"`
	CreatedAt   time.Time          `json:"created_at"`
	Controllers []ControllerExport `json:"controllers"`
}

// ControllerExport is one agent's controller as a graph.
type ControllerExport struct {
	Agent string       `json:"agent"`
	Nodes []NodeExport `json:"nodes"`
	Edges []EdgeExport `json:"edges"`
}

// NodeExport is a controller node and its action distribution.
type NodeExport struct {
	ID      string          `json:"id"`
	Actions []WeightedLabel `json:"actions"`
}

// WeightedLabel pairs a label with its probability.
type WeightedLabel struct {
	Label string  `json:"label"`
	Prob  float64 `json:"prob"`
}

// EdgeExport is one (action, observation) transition to a follow node.
type EdgeExport struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Action      string  `json:"action"`
	Observation string  `json:"observation"`
	Prob        float64 `json:"prob"`
}

// StateMachineExport describes the solver's phase statechart.
type StateMachineExport struct {
	Initial     run.Phase                `json:"initial"`
	Terminal    []run.Phase              `json:"terminal"`
	States      []StateExport            `json:"states"`
	Transitions []StateMachineTransition `json:"transitions"`
}

// StateExport is one phase.
type StateExport struct {
	Name        run.Phase `json:"name"`
	Description string    `json:"description"`
	IsTerminal  bool      `json:"is_terminal"`
}

// StateMachineTransition is an allowed move between phases.
type StateMachineTransition struct {
	From  run.Phase `json:"from"`
	To    run.Phase `json:"to"`
	Label string    `json:"label,omitempty"`
}

// HistoryExport is the value at the initial belief per iteration of a run.
type HistoryExport struct {
	RunID   string         `json:"run_id"`
	Problem string         `json:"problem"`
	Points  []HistoryPoint `json:"points"`
}

// HistoryPoint is one iteration's value and controller sizes.
type HistoryPoint struct {
	Iteration int            `json:"iteration"`
	Value     float64        `json:"value"`
	Status    run.Status     `json:"status"`
	Nodes     map[string]int `json:"nodes"`
}
