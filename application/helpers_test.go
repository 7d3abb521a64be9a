package application

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/value"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/linalg"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/problems"
)

func mustProblem(t *testing.T, build problems.Factory) *decpomdp.Problem {
	t.Helper()
	p, err := build()
	if err != nil {
		t.Fatalf("build problem: %v", err)
	}
	return p
}

func evaluate(t *testing.T, p *decpomdp.Problem, values *value.Function) {
	t.Helper()
	if _, err := NewEvaluator(linalg.NewDenseSolver()).Evaluate(context.Background(), p, values); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
}

// backedUpTwoState returns the two-state problem after one backup with every
// joint node evaluated, and the stay and go nodes the backup added.
func backedUpTwoState(t *testing.T) (p *decpomdp.Problem, values *value.Function, stay, goNode symbol.Node) {
	t.Helper()
	p = mustProblem(t, problems.TwoState)
	values = value.New()
	evaluate(t, p, values)

	added, err := NewBackup(0, 1).Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Backup.Run() error = %v", err)
	}
	if len(added[0]) != 2 {
		t.Fatalf("backup added %d nodes, want 2", len(added[0]))
	}
	evaluate(t, p, values)
	return p, values, added[0][0], added[0][1]
}

func panics(fn func()) (didPanic bool) {
	defer func() {
		if recover() != nil {
			didPanic = true
		}
	}()
	fn()
	return false
}

func evaluated(t *testing.T, p *decpomdp.Problem) *value.Function {
	t.Helper()
	values := value.New()
	evaluate(t, p, values)
	return values
}
