package linalg

import (
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/felixgeelhaar/decpomdp-go/domain/numeric"
)

// SimplexSolver solves linear programs with gonum's simplex method. A
// solver holds one program at a time and is not safe for concurrent use.
type SimplexSolver struct {
	program *numeric.LinearProgram
	tol     float64
}

// SimplexOption configures a SimplexSolver.
type SimplexOption func(*SimplexSolver)

// WithSimplexTolerance sets the simplex pivot tolerance.
func WithSimplexTolerance(tol float64) SimplexOption {
	return func(s *SimplexSolver) {
		s.tol = tol
	}
}

// NewSimplexSolver creates a simplex solver.
func NewSimplexSolver(opts ...SimplexOption) *SimplexSolver {
	s := &SimplexSolver{tol: 1e-10}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SimplexFactory returns a factory producing independent simplex solvers.
func SimplexFactory(opts ...SimplexOption) numeric.LPSolverFactory {
	return func() numeric.LPSolver {
		return NewSimplexSolver(opts...)
	}
}

var _ numeric.LPSolver = (*SimplexSolver)(nil)

// SetLinearProgram sets the program to optimize.
func (s *SimplexSolver) SetLinearProgram(program *numeric.LinearProgram) numeric.LPSolver {
	s.program = program
	return s
}

// Maximise returns the maximum of the objective.
func (s *SimplexSolver) Maximise() (numeric.Solution, bool) {
	return s.solve(-1)
}

// Minimise returns the minimum of the objective.
func (s *SimplexSolver) Minimise() (numeric.Solution, bool) {
	return s.solve(1)
}

// column maps a standard-form column back to a program variable. Free
// variables use two columns with opposite signs; slack columns have
// variable -1.
type column struct {
	variable int
	sign     float64
}

// solve converts the program to the standard form min c'x, Ax = b, x >= 0.
// sense is 1 for minimization and -1 for maximization.
func (s *SimplexSolver) solve(sense float64) (numeric.Solution, bool) {
	if s.program == nil {
		panic("linalg: Maximise or Minimise called before SetLinearProgram")
	}
	vars := s.program.Variables()
	constraints := s.program.Constraints()

	used := make(map[string]bool)
	for _, c := range constraints {
		for name, coef := range c.Coefficients {
			if coef != 0 {
				used[name] = true
			}
		}
	}

	var cols []column
	colIndex := make(map[string][]int)
	for i, v := range vars {
		cost := sense * s.program.Objective(v.Name)
		if !used[v.Name] {
			// An unconstrained variable is either irrelevant or unbounded.
			if cost < 0 || (v.Bound == numeric.Free && cost != 0) {
				return numeric.Solution{}, false
			}
			continue
		}
		colIndex[v.Name] = append(colIndex[v.Name], len(cols))
		cols = append(cols, column{variable: i, sign: 1})
		if v.Bound == numeric.Free {
			colIndex[v.Name] = append(colIndex[v.Name], len(cols))
			cols = append(cols, column{variable: i, sign: -1})
		}
	}
	numStructural := len(cols)

	type row struct {
		coefs    []float64
		relation numeric.Relation
		rhs      float64
	}
	var rows []row
	seen := make(map[string]bool)
	for _, c := range constraints {
		coefs := make([]float64, numStructural)
		for name, coef := range c.Coefficients {
			for _, j := range colIndex[name] {
				coefs[j] += coef * cols[j].sign
			}
		}
		if !slices.ContainsFunc(coefs, func(v float64) bool { return v != 0 }) {
			if !trivially(c.Relation, c.RHS) {
				return numeric.Solution{}, false
			}
			continue
		}
		key := rowKey(coefs, c.Relation, c.RHS)
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, row{coefs: coefs, relation: c.Relation, rhs: c.RHS})
	}

	numSlack := 0
	for _, r := range rows {
		if r.relation != numeric.Equal {
			numSlack++
		}
	}
	m, n := len(rows), numStructural+numSlack

	values := make(map[string]float64, len(vars))
	for _, v := range vars {
		values[v.Name] = 0
	}
	if m == 0 {
		// Only unconstrained variables with non-negative cost remain.
		return numeric.Solution{Objective: 0, Values: values}, numStructural == 0
	}
	if m > n {
		return numeric.Solution{}, false
	}

	A := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	slack := numStructural
	for i, r := range rows {
		for j, coef := range r.coefs {
			A.Set(i, j, coef)
		}
		switch r.relation {
		case numeric.LessOrEqual:
			A.Set(i, slack, 1)
			slack++
		case numeric.GreaterOrEqual:
			A.Set(i, slack, -1)
			slack++
		}
		b[i] = r.rhs
	}

	c := make([]float64, n)
	for j, col := range cols {
		c[j] = sense * s.program.Objective(vars[col.variable].Name) * col.sign
	}

	_, x, err := lp.Simplex(c, A, b, s.tol, nil)
	if err != nil {
		return numeric.Solution{}, false
	}

	for j, col := range cols {
		values[vars[col.variable].Name] += col.sign * x[j]
	}
	var objective float64
	for _, v := range vars {
		objective += s.program.Objective(v.Name) * values[v.Name]
	}
	return numeric.Solution{Objective: objective, Values: values}, true
}

func trivially(rel numeric.Relation, rhs float64) bool {
	switch rel {
	case numeric.LessOrEqual:
		return 0 <= rhs
	case numeric.GreaterOrEqual:
		return 0 >= rhs
	default:
		return rhs == 0
	}
}

func rowKey(coefs []float64, rel numeric.Relation, rhs float64) string {
	var b strings.Builder
	for _, c := range coefs {
		b.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
		b.WriteByte(',')
	}
	b.WriteString(rel.String())
	b.WriteString(strconv.FormatFloat(rhs, 'g', -1, 64))
	return b.String()
}
