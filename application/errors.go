package application

import "errors"

// Application errors.
var (
	// ErrBackupTooLarge is returned when a backup would add more nodes than allowed.
	ErrBackupTooLarge = errors.New("backup too large")

	// ErrProblemRequired is returned when the engine runs without a problem.
	ErrProblemRequired = errors.New("problem is required")

	// ErrInvalidOption is returned when an option value is out of range.
	ErrInvalidOption = errors.New("invalid option")
)
