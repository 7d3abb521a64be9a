// Package linalg adapts gonum to the numeric solver contracts.
package linalg

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/felixgeelhaar/decpomdp-go/domain/numeric"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/logging"
)

// DenseSolver solves dense equation systems with gonum's LU and QR
// factorizations.
type DenseSolver struct {
	conditionLimit float64
	residualTol    float64
}

// DenseOption configures a DenseSolver.
type DenseOption func(*DenseSolver)

// WithConditionLimit sets the largest condition number accepted for an
// ill-conditioned but still solvable system.
func WithConditionLimit(limit float64) DenseOption {
	return func(s *DenseSolver) {
		s.conditionLimit = limit
	}
}

// WithResidualTolerance sets the residual norm above which an
// overdetermined system counts as inconsistent.
func WithResidualTolerance(tol float64) DenseOption {
	return func(s *DenseSolver) {
		s.residualTol = tol
	}
}

// NewDenseSolver creates a dense solver.
func NewDenseSolver(opts ...DenseOption) *DenseSolver {
	s := &DenseSolver{
		conditionLimit: 1e14,
		residualTol:    1e-8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ numeric.DenseSolver = (*DenseSolver)(nil)

// Solve returns x with A x = b, or false when the system is singular or
// inconsistent.
func (s *DenseSolver) Solve(numEquations, numVariables int, a *numeric.Matrix, b []float64) ([]float64, bool) {
	if a.Rows() != numEquations || a.Cols() != numVariables || len(b) != numEquations {
		logging.Error().
			Add(logging.Component("linalg")).
			Add(logging.ErrorField(numeric.ErrDimensionMismatch)).
			Msg("equation system dimensions do not match")
		return nil, false
	}
	if numVariables == 0 {
		return []float64{}, true
	}
	if numEquations < numVariables {
		return nil, false
	}

	A := mat.NewDense(numEquations, numVariables, a.RawData())
	rhs := mat.NewVecDense(numEquations, b)

	var x mat.VecDense
	if err := x.SolveVec(A, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 0) || float64(cond) > s.conditionLimit {
			logging.Warn().
				Add(logging.Component("linalg")).
				Add(logging.ErrorField(err)).
				Msg("equation system has no solution")
			return nil, false
		}
		logging.Debug().
			Add(logging.Component("linalg")).
			Add(logging.Float("condition", float64(cond))).
			Msg("equation system is ill conditioned")
	}

	solution := make([]float64, numVariables)
	for i := range solution {
		solution[i] = x.AtVec(i)
		if math.IsNaN(solution[i]) || math.IsInf(solution[i], 0) {
			return nil, false
		}
	}

	var residual mat.VecDense
	residual.MulVec(A, &x)
	residual.SubVec(&residual, rhs)
	if floats.Norm(residual.RawVector().Data, 2) > s.residualTol*math.Max(1, floats.Norm(b, 2)) {
		return nil, false
	}
	return solution, true
}
