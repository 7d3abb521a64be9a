// Package observability exports solver spans and metrics through OpenTelemetry.
package observability

import (
	"io"
	"os"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	decpomdp "github.com/felixgeelhaar/decpomdp-go"
)

// Config configures the observability provider.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// Output receives stdout exporter data. Defaults to stderr so it does
	// not mix with command output.
	Output io.Writer

	Tracing TracingConfig
	Metrics MetricsConfig
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled  bool
	Exporter ExporterType

	// Endpoint is the OTLP gRPC endpoint, e.g. "localhost:4317".
	Endpoint string
	Insecure bool

	// SampleRate is the fraction of runs traced, 0.0-1.0.
	SampleRate   float64
	BatchTimeout time.Duration
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled        bool
	Exporter       ExporterType
	ExportInterval time.Duration

	// Reader overrides the exporter, e.g. a manual reader in tests.
	Reader sdkmetric.Reader
}

// ExporterType selects a telemetry exporter.
type ExporterType string

const (
	ExporterOTLP   ExporterType = "otlp"
	ExporterStdout ExporterType = "stdout"
	ExporterNoop   ExporterType = "noop"
)

// DefaultConfig returns a configuration with tracing and metrics disabled.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "decpomdp",
		ServiceVersion: decpomdp.Version,
		Environment:    "development",
		Output:         os.Stderr,
		Tracing: TracingConfig{
			Exporter:     ExporterNoop,
			SampleRate:   1.0,
			BatchTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Exporter:       ExporterNoop,
			ExportInterval: 30 * time.Second,
		},
	}
}

// Option configures the provider.
type Option func(*Config)

// WithServiceName sets the service name.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.ServiceName = name
	}
}

// WithServiceVersion sets the service version.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.ServiceVersion = version
	}
}

// WithEnvironment sets the deployment environment.
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithOutput sets the writer used by stdout exporters.
func WithOutput(w io.Writer) Option {
	return func(c *Config) {
		c.Output = w
	}
}

// WithTracing enables tracing with the given exporter.
func WithTracing(exporter ExporterType, endpoint string) Option {
	return func(c *Config) {
		c.Tracing.Enabled = true
		c.Tracing.Exporter = exporter
		c.Tracing.Endpoint = endpoint
	}
}

// WithStdoutTracing enables pretty-printed span export to Output.
func WithStdoutTracing() Option {
	return WithTracing(ExporterStdout, "")
}

// WithTracingInsecure disables TLS for OTLP export.
func WithTracingInsecure() Option {
	return func(c *Config) {
		c.Tracing.Insecure = true
	}
}

// WithSampleRate sets the trace sampling rate.
func WithSampleRate(rate float64) Option {
	return func(c *Config) {
		c.Tracing.SampleRate = rate
	}
}

// WithMetrics enables metrics with the given exporter.
func WithMetrics(exporter ExporterType) Option {
	return func(c *Config) {
		c.Metrics.Enabled = true
		c.Metrics.Exporter = exporter
	}
}

// WithStdoutMetrics enables periodic metric export to Output.
func WithStdoutMetrics() Option {
	return WithMetrics(ExporterStdout)
}

// WithMetricsInterval sets the periodic export interval.
func WithMetricsInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.Metrics.ExportInterval = interval
	}
}

// WithMetricReader enables metrics collected by reader.
func WithMetricReader(reader sdkmetric.Reader) Option {
	return func(c *Config) {
		c.Metrics.Enabled = true
		c.Metrics.Reader = reader
	}
}
