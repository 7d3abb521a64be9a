package application

import "math"

// ConvergencePolicy decides whether iteration can stop. history holds the
// value at the initial belief after the initial evaluation and after every
// completed iteration.
type ConvergencePolicy interface {
	Converged(history []float64) bool
}

// ImprovementThreshold converges once the last iteration changed the value
// by less than the threshold.
type ImprovementThreshold float64

// Converged implements ConvergencePolicy.
func (t ImprovementThreshold) Converged(history []float64) bool {
	n := len(history)
	if n < 2 {
		return false
	}
	return math.Abs(history[n-1]-history[n-2]) < float64(t)
}

// FixedIterations never converges; the run ends when the iteration budget
// is spent.
type FixedIterations struct{}

// Converged implements ConvergencePolicy.
func (FixedIterations) Converged([]float64) bool { return false }

// ConvergenceFunc adapts a function to ConvergencePolicy.
type ConvergenceFunc func(history []float64) bool

// Converged implements ConvergencePolicy.
func (f ConvergenceFunc) Converged(history []float64) bool { return f(history) }
