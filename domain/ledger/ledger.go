package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// Ledger provides an append-only record of everything a run did.
type Ledger struct {
	runID   string
	entries []Entry
	mu      sync.RWMutex
}

// New creates a new ledger for the given run.
func New(runID string) *Ledger {
	return &Ledger{
		runID:   runID,
		entries: make([]Entry, 0),
	}
}

// Append adds an entry to the ledger.
func (l *Ledger) Append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.RunID = l.runID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	l.entries = append(l.entries, entry)
}

// Entries returns a copy of all entries.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// EntriesByType returns entries filtered by type.
func (l *Ledger) EntriesByType(entryType EntryType) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var filtered []Entry
	for _, e := range l.entries {
		if e.Type == entryType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// LastEntry returns the most recent entry, or nil if empty.
func (l *Ledger) LastEntry() *Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}
	entry := l.entries[len(l.entries)-1]
	return &entry
}

// Count returns the number of entries.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// RunID returns the associated run ID.
func (l *Ledger) RunID() string {
	return l.runID
}

// RecordRunStarted records the start of a run.
func (l *Ledger) RecordRunStarted(problem string, agents, states int) {
	l.Append(NewEntry(EntryRunStarted, l.runID, 0, run.PhaseIdle, RunStartedDetails{
		Problem: problem,
		Agents:  agents,
		States:  states,
	}))
}

// RecordRunCompleted records the end of a run that produced a controller.
func (l *Ledger) RecordRunCompleted(iteration int, phase run.Phase, value float64, nodes []int) {
	l.Append(NewEntry(EntryRunCompleted, l.runID, iteration, phase, RunCompletedDetails{
		Status:    run.StatusForPhase(phase),
		Value:     value,
		Nodes:     nodes,
		Iteration: iteration,
	}))
}

// RecordRunFailed records the failure of a run.
func (l *Ledger) RecordRunFailed(iteration int, phase run.Phase, reason string) {
	l.Append(NewEntry(EntryRunFailed, l.runID, iteration, phase, RunFailedDetails{
		Reason: reason,
	}))
}

// RecordTransition records a phase transition.
func (l *Ledger) RecordTransition(iteration int, from, to run.Phase) {
	l.Append(NewEntry(EntryPhaseTransition, l.runID, iteration, to, TransitionDetails{
		FromPhase: from,
		ToPhase:   to,
	}))
}

// RecordNodesAdded records a backup of one agent's controller.
func (l *Ledger) RecordNodesAdded(iteration int, agent string, added, total int) {
	l.Append(NewEntry(EntryNodesAdded, l.runID, iteration, run.PhaseBackup, NodesAddedDetails{
		Agent: agent,
		Added: added,
		Total: total,
	}))
}

// RecordNodePruned records the removal of a node.
func (l *Ledger) RecordNodePruned(iteration int, phase run.Phase, details NodePrunedDetails) {
	l.Append(NewEntry(EntryNodePruned, l.runID, iteration, phase, details))
}

// RecordEvaluated records a value function evaluation.
func (l *Ledger) RecordEvaluated(iteration int, unknowns int, duration time.Duration) {
	l.Append(NewEntry(EntryEvaluated, l.runID, iteration, run.PhaseEvaluate, EvaluatedDetails{
		Unknowns: unknowns,
		Duration: duration,
	}))
}

// RecordBeliefsSampled records the number of sampled belief points.
func (l *Ledger) RecordBeliefsSampled(iteration int, count int) {
	l.Append(NewEntry(EntryBeliefsSampled, l.runID, iteration, run.PhaseSample, BeliefsSampledDetails{
		Count: count,
	}))
}

// RecordIteration records the end of an outer iteration.
func (l *Ledger) RecordIteration(iteration int, value, improvement float64, nodes []int) {
	l.Append(NewEntry(EntryIterationCompleted, l.runID, iteration, run.PhaseCheck, IterationDetails{
		Value:       value,
		Improvement: improvement,
		Nodes:       nodes,
	}))
}
