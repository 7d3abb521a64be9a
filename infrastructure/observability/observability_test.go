package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/felixgeelhaar/decpomdp-go/domain/telemetry"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.ServiceName != "decpomdp" {
		t.Errorf("ServiceName = %q, want decpomdp", cfg.ServiceName)
	}
	if cfg.Tracing.Enabled || cfg.Metrics.Enabled {
		t.Error("tracing and metrics should be disabled by default")
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v, want 1", cfg.Tracing.SampleRate)
	}
	if cfg.Output == nil {
		t.Error("Output should default to stderr")
	}
}

func TestConfigOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opt    Option
		verify func(*testing.T, Config)
	}{
		{"service name", WithServiceName("svc"), func(t *testing.T, c Config) {
			if c.ServiceName != "svc" {
				t.Errorf("ServiceName = %q", c.ServiceName)
			}
		}},
		{"otlp tracing", WithTracing(ExporterOTLP, "localhost:4317"), func(t *testing.T, c Config) {
			if !c.Tracing.Enabled || c.Tracing.Exporter != ExporterOTLP || c.Tracing.Endpoint != "localhost:4317" {
				t.Errorf("Tracing = %+v", c.Tracing)
			}
		}},
		{"stdout metrics", WithStdoutMetrics(), func(t *testing.T, c Config) {
			if !c.Metrics.Enabled || c.Metrics.Exporter != ExporterStdout {
				t.Errorf("Metrics = %+v", c.Metrics)
			}
		}},
		{"interval", WithMetricsInterval(time.Second), func(t *testing.T, c Config) {
			if c.Metrics.ExportInterval != time.Second {
				t.Errorf("ExportInterval = %v", c.Metrics.ExportInterval)
			}
		}},
		{"sample rate", WithSampleRate(0.25), func(t *testing.T, c Config) {
			if c.Tracing.SampleRate != 0.25 {
				t.Errorf("SampleRate = %v", c.Tracing.SampleRate)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.opt(&cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestNoopProvider(t *testing.T) {
	t.Parallel()

	p := NewNoopProvider()
	ctx, span := p.Tracer().StartSpan(context.Background(), "run", telemetry.RunID("r1"))
	span.SetAttributes(telemetry.Iteration(1))
	span.RecordError(errors.New("boom"))
	span.SetStatus(telemetry.StatusCodeError, "boom")
	span.AddEvent("pruned")
	span.End()

	if ctx == nil {
		t.Fatal("StartSpan() returned nil context")
	}
	m := NewSolverMetrics(p.Meter())
	m.RecordNodesAdded(ctx, "alice", 3)
	if err := p.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestProviderUnsupportedExporters(t *testing.T) {
	t.Parallel()

	if _, err := New(WithTracing(ExporterType("zipkin"), "")); !errors.Is(err, ErrUnsupportedExporter) {
		t.Errorf("New(zipkin tracing) error = %v, want ErrUnsupportedExporter", err)
	}
	if _, err := New(WithMetrics(ExporterOTLP)); !errors.Is(err, ErrUnsupportedExporter) {
		t.Errorf("New(otlp metrics) error = %v, want ErrUnsupportedExporter", err)
	}
}

func TestProviderStdoutTracing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p, err := New(WithOutput(&buf), WithStdoutTracing())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, span := p.Tracer().StartSpan(context.Background(), "decpomdp.backup", telemetry.Phase("backup"))
	if SpanFromContext(ctx) == nil {
		t.Error("SpanFromContext() returned nil")
	}
	span.SetStatus(telemetry.StatusCodeOK, "")
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "decpomdp.backup") {
		t.Errorf("exported spans do not mention decpomdp.backup:\n%s", buf.String())
	}
}

func TestSolverMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	p, err := New(WithMetricReader(reader))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Shutdown(context.Background())

	ctx := context.Background()
	m := NewSolverMetrics(p.Meter())
	m.RecordNodesAdded(ctx, "alice", 3)
	m.RecordNodesAdded(ctx, "alice", 4)
	m.RecordNodesPruned(ctx, "alice", "dominated", 2)
	m.RecordNodesPruned(ctx, "alice", "retain", 0)
	m.RecordValue(ctx, "twostate", 10)
	m.RecordLPSolve(ctx, time.Millisecond)
	m.RecordPhase(ctx, "prune", time.Millisecond)
	m.RecordRunEnd(ctx, "twostate", "converged", time.Second)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	sums := make(map[string]int64)
	names := make(map[string]bool)
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			names[metric.Name] = true
			if sum, ok := metric.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					sums[metric.Name] += dp.Value
				}
			}
		}
	}

	if got := sums["decpomdp.nodes_added_total"]; got != 7 {
		t.Errorf("nodes_added_total = %d, want 7", got)
	}
	if got := sums["decpomdp.nodes_pruned_total"]; got != 2 {
		t.Errorf("nodes_pruned_total = %d, want 2", got)
	}
	for _, name := range []string{"decpomdp.value", "decpomdp.lp.duration_seconds", "decpomdp.runs_total"} {
		if !names[name] {
			t.Errorf("metric %s not collected", name)
		}
	}
}

func TestConvertAttributes(t *testing.T) {
	t.Parallel()

	got := convertAttributes([]telemetry.Attribute{
		telemetry.String("s", "v"),
		telemetry.Int("i", 1),
		telemetry.Float64("f", 1.5),
		telemetry.Bool("b", true),
		{Key: "unsupported", Value: struct{}{}},
	})
	if len(got) != 4 {
		t.Errorf("convertAttributes() len = %d, want 4", len(got))
	}
}

func TestConvertStatusCode(t *testing.T) {
	t.Parallel()

	for _, code := range []telemetry.StatusCode{telemetry.StatusCodeUnset, telemetry.StatusCodeOK, telemetry.StatusCodeError} {
		if convertStatusCode(code).String() == "" {
			t.Errorf("convertStatusCode(%d) has empty name", code)
		}
	}
}
