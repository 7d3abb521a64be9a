package application

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/felixgeelhaar/decpomdp-go/domain/numeric"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/value"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/linalg"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/problems"
)

func TestEvaluateSeedController(t *testing.T) {
	t.Parallel()

	p := mustProblem(t, problems.TwoState)
	values := value.New()

	n, err := NewEvaluator(linalg.NewDenseSolver()).Evaluate(context.Background(), p, values)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if n != 2 {
		t.Errorf("unknowns = %d, want 2", n)
	}

	// stay forever: 0.5 / (1 - 0.9)
	q := vector.Of[symbol.Node]("n0")
	for _, s := range p.States() {
		got, ok := values.Get(s, q)
		if !ok || math.Abs(got-5) > 1e-9 {
			t.Errorf("V(%s, n0) = %v, %v, want 5", s, got, ok)
		}
	}
}

func TestEvaluateKeepsKnownValues(t *testing.T) {
	t.Parallel()

	p, values, stay, goNode := backedUpTwoState(t)

	tests := []struct {
		node symbol.Node
		s    symbol.State
		want float64
	}{
		{stay, problems.StateZero, 5},
		{goNode, problems.StateZero, 6.5},
		{goNode, problems.StateOne, 4.5},
	}
	for _, tt := range tests {
		got, ok := values.Get(tt.s, vector.Of(tt.node))
		if !ok || math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("V(%s, %s) = %v, %v, want %v", tt.s, tt.node, got, ok, tt.want)
		}
	}

	n, err := NewEvaluator(linalg.NewDenseSolver()).Evaluate(context.Background(), p, values)
	if err != nil || n != 0 {
		t.Errorf("re-evaluate = %d, %v, want 0 unknowns", n, err)
	}
}

type failingSolver struct{}

func (failingSolver) Solve(int, int, *numeric.Matrix, []float64) ([]float64, bool) {
	return nil, false
}

func TestEvaluateSolverFailure(t *testing.T) {
	t.Parallel()

	p := mustProblem(t, problems.TwoState)
	values := value.New()
	_, err := NewEvaluator(failingSolver{}).Evaluate(context.Background(), p, values)
	if !errors.Is(err, numeric.ErrSolvingFailed) {
		t.Errorf("Evaluate() error = %v, want %v", err, numeric.ErrSolvingFailed)
	}
	if values.Len() != 0 {
		t.Errorf("values written after failure: %d", values.Len())
	}
}
