package vector

import "errors"

// Domain errors for vector construction and enumeration.
var (
	// ErrEmptyVector is returned when decoding a vector with no elements.
	ErrEmptyVector = errors.New("vector must have at least one element")

	// ErrEmptyChoices is returned when a generator slot has no candidates.
	ErrEmptyChoices = errors.New("generator slot has no choices")

	// ErrTooManyCombinations is returned when the cartesian product exceeds MaxCombinations.
	ErrTooManyCombinations = errors.New("too many combinations")
)
