// Package telemetry defines the tracing and metrics contracts the solver
// reports through. Implementations live in infrastructure/observability.
package telemetry

import (
	"context"
)

// Tracer creates spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span is one traced unit of work, typically a run or a phase.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	RecordError(err error)
	SetStatus(code StatusCode, description string)
	AddEvent(name string, attrs ...Attribute)
}

// StatusCode is the outcome recorded on a span.
type StatusCode int

const (
	StatusCodeUnset StatusCode = iota
	StatusCodeOK
	StatusCodeError
)

// Attribute keys shared by spans and metrics.
const (
	KeyRunID     = "decpomdp.run_id"
	KeyProblem   = "decpomdp.problem"
	KeyPhase     = "decpomdp.phase"
	KeyIteration = "decpomdp.iteration"
	KeyAgent     = "decpomdp.agent"
	KeyStatus    = "decpomdp.status"
	KeyReason    = "decpomdp.reason"
)

// Attribute is a key-value pair attached to a span or measurement.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Float64 creates a float64 attribute.
func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// RunID tags a span or measurement with the run.
func RunID(id string) Attribute { return String(KeyRunID, id) }

// Phase tags a span or measurement with the solver phase.
func Phase(phase string) Attribute { return String(KeyPhase, phase) }

// Iteration tags a span or measurement with the outer iteration.
func Iteration(i int) Attribute { return Int(KeyIteration, i) }

// Agent tags a span or measurement with the agent name.
func Agent(name string) Attribute { return String(KeyAgent, name) }

// Meter creates metric instruments.
type Meter interface {
	Counter(name string, opts ...MetricOption) Counter
	Histogram(name string, opts ...MetricOption) Histogram
	Gauge(name string, opts ...MetricOption) Gauge
}

// Counter is a monotonically increasing value.
type Counter interface {
	Add(ctx context.Context, value int64, attrs ...Attribute)
}

// Histogram records a distribution of values.
type Histogram interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// Gauge records the current value.
type Gauge interface {
	Record(ctx context.Context, value float64, attrs ...Attribute)
}

// MetricConfig holds instrument metadata.
type MetricConfig struct {
	Description string
	Unit        string
}

// MetricOption configures an instrument.
type MetricOption func(*MetricConfig)

// WithDescription sets the instrument description.
func WithDescription(desc string) MetricOption {
	return func(c *MetricConfig) {
		c.Description = desc
	}
}

// WithUnit sets the instrument unit.
func WithUnit(unit string) MetricOption {
	return func(c *MetricConfig) {
		c.Unit = unit
	}
}

// ApplyMetricOptions folds opts into a config.
func ApplyMetricOptions(opts ...MetricOption) MetricConfig {
	var c MetricConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
