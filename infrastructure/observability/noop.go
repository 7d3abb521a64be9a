package observability

import (
	"context"

	"github.com/felixgeelhaar/decpomdp-go/domain/telemetry"
)

// NoopTracer discards spans.
type NoopTracer struct{}

// NewNoopTracer creates a no-op tracer.
func NewNoopTracer() *NoopTracer {
	return &NoopTracer{}
}

// StartSpan implements telemetry.Tracer.
func (t *NoopTracer) StartSpan(ctx context.Context, _ string, _ ...telemetry.Attribute) (context.Context, telemetry.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End()                                    {}
func (noopSpan) SetAttributes(...telemetry.Attribute)    {}
func (noopSpan) RecordError(error)                       {}
func (noopSpan) SetStatus(telemetry.StatusCode, string)  {}
func (noopSpan) AddEvent(string, ...telemetry.Attribute) {}

// NoopMeter discards measurements.
type NoopMeter struct{}

// NewNoopMeter creates a no-op meter.
func NewNoopMeter() *NoopMeter {
	return &NoopMeter{}
}

// Counter implements telemetry.Meter.
func (m *NoopMeter) Counter(string, ...telemetry.MetricOption) telemetry.Counter {
	return noopInstrument{}
}

// Histogram implements telemetry.Meter.
func (m *NoopMeter) Histogram(string, ...telemetry.MetricOption) telemetry.Histogram {
	return noopInstrument{}
}

// Gauge implements telemetry.Meter.
func (m *NoopMeter) Gauge(string, ...telemetry.MetricOption) telemetry.Gauge {
	return noopInstrument{}
}

// noopInstrument satisfies Counter, Histogram and Gauge.
type noopInstrument struct{}

func (noopInstrument) Add(context.Context, int64, ...telemetry.Attribute)      {}
func (noopInstrument) Record(context.Context, float64, ...telemetry.Attribute) {}

var (
	_ telemetry.Tracer    = (*NoopTracer)(nil)
	_ telemetry.Meter     = (*NoopMeter)(nil)
	_ telemetry.Counter   = noopInstrument{}
	_ telemetry.Histogram = noopInstrument{}
)
