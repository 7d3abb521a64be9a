package run

import "errors"

// Domain errors for snapshot store operations.
var (
	// ErrSnapshotNotFound is returned when a snapshot does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotExists is returned when saving a snapshot ID twice.
	ErrSnapshotExists = errors.New("snapshot already exists")

	// ErrInvalidSnapshotID is returned when a snapshot or run ID is empty.
	ErrInvalidSnapshotID = errors.New("invalid snapshot ID")

	// ErrConnectionFailed is returned when connection to the store backend fails.
	ErrConnectionFailed = errors.New("store connection failed")
)
