package numeric

import "errors"

// Domain errors for numeric problems.
var (
	// ErrSolvingFailed is returned when an equation system has no solution.
	ErrSolvingFailed = errors.New("solving failed")

	// ErrDimensionMismatch is returned when matrix and vector sizes disagree.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrDuplicateVariable is returned when a linear program declares a variable twice.
	ErrDuplicateVariable = errors.New("duplicate variable")

	// ErrUnknownVariable is returned when a constraint or objective references an undeclared variable.
	ErrUnknownVariable = errors.New("unknown variable")
)
