package linalg

import (
	"math"
	"testing"

	"github.com/felixgeelhaar/decpomdp-go/domain/numeric"
)

func matrix(rows, cols int, data ...float64) *numeric.Matrix {
	m := numeric.NewMatrix(rows, cols)
	copy(m.RawData(), data)
	return m
}

func TestDenseSolver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		rows   int
		cols   int
		a      *numeric.Matrix
		b      []float64
		want   []float64
		wantOK bool
	}{
		{"square", 2, 2, matrix(2, 2, 2, 1, 1, 3), []float64{3, 5}, []float64{0.8, 1.4}, true},
		{"identity", 3, 3, matrix(3, 3, 1, 0, 0, 0, 1, 0, 0, 0, 1), []float64{1, 2, 3}, []float64{1, 2, 3}, true},
		{"singular", 2, 2, matrix(2, 2, 1, 2, 2, 4), []float64{1, 3}, nil, false},
		{"overdetermined consistent", 3, 2, matrix(3, 2, 1, 0, 0, 1, 1, 1), []float64{1, 2, 3}, []float64{1, 2}, true},
		{"overdetermined inconsistent", 3, 2, matrix(3, 2, 1, 0, 0, 1, 1, 1), []float64{1, 2, 4}, nil, false},
		{"dimension mismatch", 2, 2, matrix(2, 3), []float64{1, 2}, nil, false},
		{"empty", 0, 0, matrix(0, 0), nil, []float64{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := NewDenseSolver().Solve(tt.rows, tt.cols, tt.a, tt.b)
			if ok != tt.wantOK {
				t.Fatalf("Solve() ok = %v, want %v", ok, tt.wantOK)
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("x[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func program(t *testing.T, vars map[string]numeric.Bound, objective map[string]float64, constraints ...numeric.Constraint) *numeric.LinearProgram {
	t.Helper()
	lp := numeric.NewLinearProgram()
	for _, name := range []string{"eps", "x", "y", "z"} {
		bound, ok := vars[name]
		if !ok {
			continue
		}
		if err := lp.AddVariable(name, bound); err != nil {
			t.Fatalf("AddVariable() error = %v", err)
		}
	}
	for name, c := range objective {
		if err := lp.SetObjective(name, c); err != nil {
			t.Fatalf("SetObjective() error = %v", err)
		}
	}
	for _, c := range constraints {
		if err := lp.AddConstraint(c); err != nil {
			t.Fatalf("AddConstraint() error = %v", err)
		}
	}
	return lp
}

func TestSimplexMaximise(t *testing.T) {
	t.Parallel()

	lp := program(t,
		map[string]numeric.Bound{"x": numeric.NonNegative, "y": numeric.NonNegative},
		map[string]float64{"x": 1, "y": 1},
		numeric.Constraint{Coefficients: map[string]float64{"x": 1, "y": 2}, Relation: numeric.LessOrEqual, RHS: 4},
		numeric.Constraint{Coefficients: map[string]float64{"x": 3, "y": 1}, Relation: numeric.LessOrEqual, RHS: 6},
	)

	sol, ok := NewSimplexSolver().SetLinearProgram(lp).Maximise()
	if !ok {
		t.Fatalf("Maximise() ok = false")
	}
	if math.Abs(sol.Objective-2.8) > 1e-9 {
		t.Errorf("objective = %v, want 2.8", sol.Objective)
	}
	if math.Abs(sol.Value("x")-1.6) > 1e-9 || math.Abs(sol.Value("y")-1.2) > 1e-9 {
		t.Errorf("x, y = %v, %v, want 1.6, 1.2", sol.Value("x"), sol.Value("y"))
	}
}

func TestSimplexFreeVariable(t *testing.T) {
	t.Parallel()

	// eps <= min(x-2, 1-x) on x in [0, 1], maximized at x = 1.
	lp := program(t,
		map[string]numeric.Bound{"eps": numeric.Free, "x": numeric.NonNegative, "y": numeric.NonNegative},
		map[string]float64{"eps": 1},
		numeric.Constraint{Coefficients: map[string]float64{"x": 1, "y": 1}, Relation: numeric.Equal, RHS: 1},
		numeric.Constraint{Coefficients: map[string]float64{"x": 1, "eps": -1}, Relation: numeric.GreaterOrEqual, RHS: 2},
		numeric.Constraint{Coefficients: map[string]float64{"y": 1, "eps": -1}, Relation: numeric.GreaterOrEqual, RHS: 0},
	)

	sol, ok := NewSimplexSolver().SetLinearProgram(lp).Maximise()
	if !ok {
		t.Fatalf("Maximise() ok = false")
	}
	if math.Abs(sol.Value("eps")+1) > 1e-9 {
		t.Errorf("eps = %v, want -1", sol.Value("eps"))
	}
	if math.Abs(sol.Value("x")-1) > 1e-9 {
		t.Errorf("x = %v, want 1", sol.Value("x"))
	}
}

func TestSimplexMinimise(t *testing.T) {
	t.Parallel()

	lp := program(t,
		map[string]numeric.Bound{"x": numeric.NonNegative, "y": numeric.NonNegative},
		map[string]float64{"x": 2, "y": 3},
		numeric.Constraint{Coefficients: map[string]float64{"x": 1, "y": 1}, Relation: numeric.GreaterOrEqual, RHS: 4},
		numeric.Constraint{Coefficients: map[string]float64{"x": 1}, Relation: numeric.LessOrEqual, RHS: 3},
	)

	sol, ok := NewSimplexSolver().SetLinearProgram(lp).Minimise()
	if !ok {
		t.Fatalf("Minimise() ok = false")
	}
	if math.Abs(sol.Objective-9) > 1e-9 {
		t.Errorf("objective = %v, want 9", sol.Objective)
	}
}

func TestSimplexNoSolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lp   *numeric.LinearProgram
	}{
		{"infeasible", program(t,
			map[string]numeric.Bound{"x": numeric.NonNegative},
			map[string]float64{"x": 1},
			numeric.Constraint{Coefficients: map[string]float64{"x": 1}, Relation: numeric.LessOrEqual, RHS: 1},
			numeric.Constraint{Coefficients: map[string]float64{"x": 1}, Relation: numeric.GreaterOrEqual, RHS: 2},
		)},
		{"unbounded", program(t,
			map[string]numeric.Bound{"x": numeric.NonNegative},
			map[string]float64{"x": 1},
			numeric.Constraint{Coefficients: map[string]float64{"x": 1}, Relation: numeric.GreaterOrEqual, RHS: 1},
		)},
		{"unconstrained free objective", program(t,
			map[string]numeric.Bound{"eps": numeric.Free, "x": numeric.NonNegative},
			map[string]float64{"eps": 1},
			numeric.Constraint{Coefficients: map[string]float64{"x": 1}, Relation: numeric.Equal, RHS: 1},
		)},
		{"empty equality", program(t,
			map[string]numeric.Bound{"x": numeric.NonNegative},
			nil,
			numeric.Constraint{Coefficients: map[string]float64{}, Relation: numeric.Equal, RHS: 1},
		)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, ok := NewSimplexSolver().SetLinearProgram(tt.lp).Maximise(); ok {
				t.Errorf("Maximise() ok = true, want false")
			}
		})
	}
}

func TestSimplexFactoryIndependence(t *testing.T) {
	t.Parallel()

	factory := SimplexFactory(WithSimplexTolerance(1e-9))
	a, b := factory(), factory()
	if a == b {
		t.Errorf("factory returned the same solver twice")
	}
}
