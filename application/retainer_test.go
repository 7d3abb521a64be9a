package application

import (
	"context"
	"math"
	"testing"

	"github.com/felixgeelhaar/decpomdp-go/domain/decpomdp"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
	"github.com/felixgeelhaar/decpomdp-go/infrastructure/problems"
)

func TestRetainKeepsBestAtBeliefs(t *testing.T) {
	t.Parallel()

	p, values, _, goNode := backedUpTwoState(t)

	removed, err := NewRetainer(2).
		SetProblem(p).
		SetBeliefs([]*decpomdp.Belief{p.InitialBelief()}).
		SetValues(values).
		Retain(context.Background())
	if err != nil {
		t.Fatalf("Retain() error = %v", err)
	}
	if len(removed[0]) != 2 {
		t.Errorf("Retain() removed %v, want 2 nodes", removed[0])
	}

	c := p.Agent(0).Controller()
	if nodes := c.Nodes(); len(nodes) != 1 || nodes[0] != goNode {
		t.Fatalf("nodes after retain = %v, want [%s]", nodes, goNode)
	}
	if values.Len() != 0 {
		t.Errorf("values not cleared: %d entries", values.Len())
	}

	evaluate(t, p, values)
	v, _ := values.BeliefValue(p.InitialBelief(), vector.Of(goNode))
	if math.Abs(v-problems.TwoStateOptimum) > 1e-6 {
		t.Errorf("value after retain = %v, want %v", v, problems.TwoStateOptimum)
	}
}

func TestRetainNothingToRemove(t *testing.T) {
	t.Parallel()

	p := mustProblem(t, problems.DecTiger)
	values := evaluated(t, p)

	removed, err := NewRetainer(0).SetProblem(p).SetValues(values).Retain(context.Background())
	if err != nil {
		t.Fatalf("Retain() error = %v", err)
	}
	for i, nodes := range removed {
		if len(nodes) != 0 {
			t.Errorf("agent %d lost nodes %v", i, nodes)
		}
	}
	if values.Len() == 0 {
		t.Error("values cleared although nothing was removed")
	}
}

func TestRetainerPanicsWhenUnconfigured(t *testing.T) {
	t.Parallel()

	if !panics(func() { _, _ = NewRetainer(1).Retain(context.Background()) }) {
		t.Error("Retain() did not panic without a problem")
	}
}
