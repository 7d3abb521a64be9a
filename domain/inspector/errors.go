// Package inspector defines exports of solver runs for visualization.
package inspector

import "errors"

var (
	// ErrInvalidFormat indicates a formatter cannot render the data given.
	ErrInvalidFormat = errors.New("invalid export format")

	// ErrExportFailed indicates the export failed.
	ErrExportFailed = errors.New("export failed")

	// ErrNoData indicates there is nothing to export.
	ErrNoData = errors.New("no data to export")
)
