package application

import "testing"

func TestConvergencePolicies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		policy  ConvergencePolicy
		history []float64
		want    bool
	}{
		{"threshold needs two values", ImprovementThreshold(1e-6), []float64{5}, false},
		{"threshold large change", ImprovementThreshold(1e-6), []float64{5, 10}, false},
		{"threshold small change", ImprovementThreshold(1e-6), []float64{5, 10, 10 + 1e-9}, true},
		{"threshold decrease counts", ImprovementThreshold(0.1), []float64{10, 9}, false},
		{"fixed never converges", FixedIterations{}, []float64{1, 1, 1}, false},
		{"func", ConvergenceFunc(func(h []float64) bool { return len(h) > 2 }), []float64{1, 2, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.policy.Converged(tt.history); got != tt.want {
				t.Errorf("Converged(%v) = %v, want %v", tt.history, got, tt.want)
			}
		})
	}
}
