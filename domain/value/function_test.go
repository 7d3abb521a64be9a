package value

import (
	"encoding/json"
	"math"
	"slices"
	"testing"

	"github.com/felixgeelhaar/decpomdp-go/domain/distribution"
	"github.com/felixgeelhaar/decpomdp-go/domain/symbol"
	"github.com/felixgeelhaar/decpomdp-go/domain/vector"
)

func nodes(names ...symbol.Node) vector.Vector[symbol.Node] {
	return vector.Of(names...)
}

func TestGetSet(t *testing.T) {
	t.Parallel()

	f := New()
	q := nodes("a", "b")
	if f.Has("s", q) {
		t.Fatalf("Has() on empty function = true")
	}
	f.Set("s", q, 3.5)
	if got, ok := f.Get("s", q); !ok || got != 3.5 {
		t.Errorf("Get() = %v, %v, want 3.5, true", got, ok)
	}
	if _, ok := f.Get("s", nodes("b", "a")); ok {
		t.Errorf("Get() on permuted vector ok = true")
	}
	f.Delete("s", q)
	if f.Len() != 0 {
		t.Errorf("Len() after Delete = %d, want 0", f.Len())
	}
}

func TestBeliefValueAndBest(t *testing.T) {
	t.Parallel()

	f := New()
	f.Set("l", nodes("x"), 10)
	f.Set("r", nodes("x"), 0)
	f.Set("l", nodes("y"), 0)
	f.Set("r", nodes("y"), 10)
	f.Set("l", nodes("z"), 5)
	f.Set("r", nodes("z"), 5)

	b := distribution.MustFromEntries(distribution.E[symbol.State]("l", 0.8), distribution.E[symbol.State]("r", 0.2))
	if got, ok := f.BeliefValue(b, nodes("x")); !ok || math.Abs(got-8) > 1e-12 {
		t.Errorf("BeliefValue(x) = %v, %v, want 8", got, ok)
	}
	if _, ok := f.BeliefValue(b, nodes("w")); ok {
		t.Errorf("BeliefValue(w) ok = true for undefined node")
	}

	candidates := slices.Values([]vector.Vector[symbol.Node]{nodes("w"), nodes("z"), nodes("x"), nodes("y")})
	best, v, ok := f.Best(b, candidates)
	if !ok || best != nodes("x") || math.Abs(v-8) > 1e-12 {
		t.Errorf("Best() = %v, %v, %v, want x, 8, true", best, v, ok)
	}

	uniform, _ := distribution.Uniform([]symbol.State{"l", "r"})
	best, _, _ = f.Best(uniform, slices.Values([]vector.Vector[symbol.Node]{nodes("z"), nodes("x"), nodes("y")}))
	if best != nodes("z") {
		t.Errorf("Best() on tie = %v, want first candidate z", best)
	}
}

func TestRemoveNode(t *testing.T) {
	t.Parallel()

	f := New()
	f.Set("s", nodes("a", "b"), 1)
	f.Set("s", nodes("a", "c"), 2)
	f.Set("s", nodes("b", "a"), 3)

	if removed := f.RemoveNode(1, "a"); removed != 1 {
		t.Errorf("RemoveNode(1, a) removed %d, want 1", removed)
	}
	if !f.Has("s", nodes("a", "b")) || f.Has("s", nodes("b", "a")) {
		t.Errorf("RemoveNode removed the wrong entries")
	}
}

func TestCloneAndJSON(t *testing.T) {
	t.Parallel()

	f := New()
	f.Set("s", nodes("a", "b"), -1.25)
	clone := f.Clone()
	clone.Clear()
	if f.Len() != 1 {
		t.Fatalf("Clear() on clone affected the original")
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	decoded := New()
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got, ok := decoded.Get("s", nodes("a", "b")); !ok || got != -1.25 {
		t.Errorf("decoded Get() = %v, %v", got, ok)
	}
}
