package application

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/decpomdp-go/infrastructure/problems"
)

func TestBackupSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		factory problems.Factory
		want    int
	}{
		{"two-state seed", problems.TwoState, 2},
		{"dec-tiger seed", problems.DecTiger, 3},
		{"broadcast seed", problems.Broadcast, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := mustProblem(t, tt.factory)
			got, ok := BackupSize(p.Agent(0))
			if !ok || got != tt.want {
				t.Errorf("BackupSize() = %d, %v, want %d, true", got, ok, tt.want)
			}
		})
	}
}

func TestBackupAddsEveryActionAndMapping(t *testing.T) {
	t.Parallel()

	p := mustProblem(t, problems.TwoState)
	b := NewBackup(0, 2)
	ctx := context.Background()

	if _, err := b.Run(ctx, p); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	c := p.Agent(0).Controller()
	if c.Len() != 3 {
		t.Fatalf("Len() = %d after first backup, want 3", c.Len())
	}

	// |A| * |Q|^|O| = 2 * 3^2.
	added, err := b.Run(ctx, p)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if got := len(added[0]); got != 18 {
		t.Errorf("second backup added %d nodes, want 18", got)
	}
	if c.Len() != 21 {
		t.Errorf("Len() = %d, want 21", c.Len())
	}

	seen := make(map[string]bool)
	for _, n := range added[0] {
		act, ok := c.Action(n)
		if !ok || act.Len() != 1 {
			t.Fatalf("node %s is not deterministic", n)
		}
		key := string(act.Argmax())
		for _, o := range p.Agent(0).Observations() {
			next, ok := c.FollowNode(n, act.Argmax(), o)
			if !ok || next.Len() != 1 {
				t.Fatalf("node %s has no deterministic successor on %s", n, o)
			}
			key += "/" + string(next.Argmax())
		}
		if seen[key] {
			t.Errorf("duplicate node behaviour %s", key)
		}
		seen[key] = true
	}
}

func TestBackupTooLargeLeavesControllersUntouched(t *testing.T) {
	t.Parallel()

	p := mustProblem(t, problems.DecTiger)
	_, err := NewBackup(2, 1).Run(context.Background(), p)
	if !errors.Is(err, ErrBackupTooLarge) {
		t.Fatalf("Run() error = %v, want %v", err, ErrBackupTooLarge)
	}
	for _, a := range p.Agents() {
		if got := a.Controller().Len(); got != 1 {
			t.Errorf("agent %s has %d nodes, want 1", a.Name(), got)
		}
	}
}

func TestBackupCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := mustProblem(t, problems.DecTiger)
	if _, err := NewBackup(0, 1).Run(ctx, p); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
