// Package inspector renders stored solver runs as JSON, DOT or Mermaid.
package inspector

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/decpomdp-go/domain/inspector"
	"github.com/felixgeelhaar/decpomdp-go/domain/run"
)

// DefaultInspector implements inspector.Inspector over a snapshot store.
type DefaultInspector struct {
	snapshots    inspector.SnapshotExporter
	stateMachine inspector.StateMachineExporter
	formatters   map[inspector.ExportFormat]inspector.Formatter
}

// NewDefaultInspector creates an inspector with the JSON, DOT and Mermaid
// formatters registered.
func NewDefaultInspector(snapshots inspector.SnapshotExporter, stateMachine inspector.StateMachineExporter) *DefaultInspector {
	i := &DefaultInspector{
		snapshots:    snapshots,
		stateMachine: stateMachine,
		formatters:   make(map[inspector.ExportFormat]inspector.Formatter),
	}
	i.RegisterFormatter(NewJSONFormatter(WithPrettyPrint()))
	i.RegisterFormatter(NewDOTFormatter())
	i.RegisterFormatter(NewMermaidFormatter())
	return i
}

// NewStoreInspector wires the default exporters to a store.
func NewStoreInspector(store run.Store) *DefaultInspector {
	return NewDefaultInspector(NewSnapshotExporter(store), NewStateMachineExporter())
}

// RegisterFormatter registers or replaces the formatter for its format.
func (i *DefaultInspector) RegisterFormatter(formatter inspector.Formatter) {
	i.formatters[formatter.FormatType()] = formatter
}

// ExportSnapshot renders one snapshot.
func (i *DefaultInspector) ExportSnapshot(ctx context.Context, id string, format inspector.ExportFormat) ([]byte, error) {
	if i.snapshots == nil {
		return nil, inspector.ErrExportFailed
	}
	data, err := i.snapshots.Export(ctx, id)
	if err != nil {
		return nil, err
	}
	return i.format(data, format)
}

// ExportLatest renders the last snapshot of a run.
func (i *DefaultInspector) ExportLatest(ctx context.Context, runID string, format inspector.ExportFormat) ([]byte, error) {
	if i.snapshots == nil {
		return nil, inspector.ErrExportFailed
	}
	data, err := i.snapshots.ExportLatest(ctx, runID)
	if err != nil {
		return nil, err
	}
	return i.format(data, format)
}

// ExportHistory renders a run's value per iteration.
func (i *DefaultInspector) ExportHistory(ctx context.Context, runID string, format inspector.ExportFormat) ([]byte, error) {
	if i.snapshots == nil {
		return nil, inspector.ErrExportFailed
	}
	data, err := i.snapshots.ExportHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	return i.format(data, format)
}

// ExportStateMachine renders the phase statechart.
func (i *DefaultInspector) ExportStateMachine(ctx context.Context, format inspector.ExportFormat) ([]byte, error) {
	if i.stateMachine == nil {
		return nil, inspector.ErrExportFailed
	}
	data, err := i.stateMachine.Export(ctx)
	if err != nil {
		return nil, err
	}
	return i.format(data, format)
}

func (i *DefaultInspector) format(data any, format inspector.ExportFormat) ([]byte, error) {
	formatter, ok := i.formatters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", inspector.ErrInvalidFormat, format)
	}
	out, err := formatter.Format(data)
	if err != nil {
		return nil, fmt.Errorf("formatting failed: %w", err)
	}
	return out, nil
}

var _ inspector.Inspector = (*DefaultInspector)(nil)
