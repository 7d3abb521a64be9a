// Package numeric defines the contracts between the solver and its numeric
// backends: dense equation systems and linear programs.
package numeric

// EquationSystemSolver solves A x = b for a square or overdetermined system
// represented by M. It reports false when no solution exists.
type EquationSystemSolver[M any] interface {
	Solve(numEquations, numVariables int, a M, b []float64) ([]float64, bool)
}

// LinearProgramSolver optimizes a linear program of type LP and returns a
// result of type R. The boolean is false when the program is infeasible,
// unbounded or the backend fails to find an optimum.
type LinearProgramSolver[LP any, R any] interface {
	SetLinearProgram(lp LP) LinearProgramSolver[LP, R]
	Maximise() (R, bool)
	Minimise() (R, bool)
}

// LPSolver is the linear program solver used throughout the application.
type LPSolver = LinearProgramSolver[*LinearProgram, Solution]

// LPSolverFactory creates independent solver instances, one per concurrent
// caller.
type LPSolverFactory func() LPSolver

// DenseSolver is the equation system solver used throughout the application.
type DenseSolver = EquationSystemSolver[*Matrix]
