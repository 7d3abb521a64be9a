package telemetry_test

import (
	"testing"

	"github.com/felixgeelhaar/decpomdp-go/domain/telemetry"
)

func TestAttributes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		attr    telemetry.Attribute
		wantKey string
		want    any
	}{
		{"run id", telemetry.RunID("r1"), telemetry.KeyRunID, "r1"},
		{"phase", telemetry.Phase("prune"), telemetry.KeyPhase, "prune"},
		{"iteration", telemetry.Iteration(3), telemetry.KeyIteration, 3},
		{"agent", telemetry.Agent("alice"), telemetry.KeyAgent, "alice"},
		{"float", telemetry.Float64("value", 1.5), "value", 1.5},
		{"bool", telemetry.Bool("converged", true), "converged", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.attr.Key != tt.wantKey {
				t.Errorf("Key = %s, want %s", tt.attr.Key, tt.wantKey)
			}
			if tt.attr.Value != tt.want {
				t.Errorf("Value = %v, want %v", tt.attr.Value, tt.want)
			}
		})
	}
}

func TestApplyMetricOptions(t *testing.T) {
	t.Parallel()

	got := telemetry.ApplyMetricOptions(
		telemetry.WithDescription("nodes pruned"),
		telemetry.WithUnit("{node}"),
	)
	if got.Description != "nodes pruned" {
		t.Errorf("Description = %q, want %q", got.Description, "nodes pruned")
	}
	if got.Unit != "{node}" {
		t.Errorf("Unit = %q, want %q", got.Unit, "{node}")
	}

	if empty := telemetry.ApplyMetricOptions(); empty != (telemetry.MetricConfig{}) {
		t.Errorf("ApplyMetricOptions() = %+v, want zero", empty)
	}
}
