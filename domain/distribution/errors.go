package distribution

import "errors"

// Domain errors for distribution construction.
var (
	// ErrEmptyDistribution is returned when no item carries positive mass.
	ErrEmptyDistribution = errors.New("empty distribution")

	// ErrInvalidDistribution is returned for negative masses or masses that do not sum to one.
	ErrInvalidDistribution = errors.New("invalid distribution")
)
