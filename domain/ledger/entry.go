// Package ledger provides an append-only audit trail of a solver run.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// EntryType classifies the type of ledger entry.
type EntryType string

const (
	EntryRunStarted         EntryType = "run_started"
	EntryRunCompleted       EntryType = "run_completed"
	EntryRunFailed          EntryType = "run_failed"
	EntryPhaseTransition    EntryType = "phase_transition"
	EntryNodesAdded         EntryType = "nodes_added"
	EntryNodePruned         EntryType = "node_pruned"
	EntryEvaluated          EntryType = "evaluated"
	EntryBeliefsSampled     EntryType = "beliefs_sampled"
	EntryIterationCompleted EntryType = "iteration_completed"
)

// Entry represents a single record in the ledger.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      EntryType       `json:"type"`
	RunID     string          `json:"run_id"`
	Iteration int             `json:"iteration"`
	Phase     run.Phase       `json:"phase,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// RunStartedDetails contains details for run started entries.
type RunStartedDetails struct {
	Problem string `json:"problem"`
	Agents  int    `json:"agents"`
	States  int    `json:"states"`
}

// RunCompletedDetails contains details for run completed entries.
type RunCompletedDetails struct {
	Status    run.Status `json:"status"`
	Value     float64    `json:"value"`
	Nodes     []int      `json:"nodes"`
	Iteration int        `json:"iterations"`
}

// RunFailedDetails contains details for run failed entries.
type RunFailedDetails struct {
	Reason string `json:"reason"`
}

// TransitionDetails contains details for phase transition entries.
type TransitionDetails struct {
	FromPhase run.Phase `json:"from_phase"`
	ToPhase   run.Phase `json:"to_phase"`
}

// NodesAddedDetails contains details for backup entries.
type NodesAddedDetails struct {
	Agent string `json:"agent"`
	Added int    `json:"added"`
	Total int    `json:"total"`
}

// NodePrunedDetails contains details for node pruned entries.
type NodePrunedDetails struct {
	Agent       string             `json:"agent"`
	Node        string             `json:"node"`
	Epsilon     float64            `json:"epsilon,omitempty"`
	Replacement map[string]float64 `json:"replacement"`
	Reason      string             `json:"reason"`
}

// EvaluatedDetails contains details for value function evaluations.
type EvaluatedDetails struct {
	Unknowns int           `json:"unknowns"`
	Duration time.Duration `json:"duration"`
}

// BeliefsSampledDetails contains details for belief sampling entries.
type BeliefsSampledDetails struct {
	Count int `json:"count"`
}

// IterationDetails contains details for iteration completed entries.
type IterationDetails struct {
	Value       float64 `json:"value"`
	Improvement float64 `json:"improvement"`
	Nodes       []int   `json:"nodes"`
}

// NewEntry creates a new ledger entry.
func NewEntry(entryType EntryType, runID string, iteration int, phase run.Phase, details any) Entry {
	var detailsJSON json.RawMessage
	if details != nil {
		detailsJSON, _ = json.Marshal(details)
	}

	return Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Type:      entryType,
		RunID:     runID,
		Iteration: iteration,
		Phase:     phase,
		Details:   detailsJSON,
	}
}

// DecodeDetails unmarshals the entry details into the given struct.
func (e Entry) DecodeDetails(v any) error {
	if e.Details == nil {
		return nil
	}
	return json.Unmarshal(e.Details, v)
}
