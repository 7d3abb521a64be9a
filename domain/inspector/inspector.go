package inspector

import "context"

// Inspector renders stored runs and the solver statechart.
type Inspector interface {
	// ExportSnapshot renders one snapshot's controllers.
	ExportSnapshot(ctx context.Context, id string, format ExportFormat) ([]byte, error)

	// ExportLatest renders the last snapshot of a run.
	ExportLatest(ctx context.Context, runID string, format ExportFormat) ([]byte, error)

	// ExportHistory renders the value trajectory of a run.
	ExportHistory(ctx context.Context, runID string, format ExportFormat) ([]byte, error)

	// ExportStateMachine renders the phase statechart.
	ExportStateMachine(ctx context.Context, format ExportFormat) ([]byte, error)
}

// SnapshotExporter loads snapshots for export.
type SnapshotExporter interface {
	Export(ctx context.Context, id string) (*SnapshotExport, error)
	ExportLatest(ctx context.Context, runID string) (*SnapshotExport, error)
	ExportHistory(ctx context.Context, runID string) (*HistoryExport, error)
}

// StateMachineExporter exports the phase statechart.
type StateMachineExporter interface {
	Export(ctx context.Context) (*StateMachineExport, error)
}

// Formatter renders export data.
type Formatter interface {
	Format(data any) ([]byte, error)
	FormatType() ExportFormat
}
