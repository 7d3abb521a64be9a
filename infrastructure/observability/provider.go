package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/felixgeelhaar/decpomdp-go/domain/telemetry"
)

// ErrUnsupportedExporter is returned for an exporter that cannot serve the signal.
var ErrUnsupportedExporter = errors.New("unsupported exporter")

// Provider owns the tracer and meter providers of a process.
type Provider struct {
	config        Config
	tracer        telemetry.Tracer
	meter         telemetry.Meter
	shutdownFuncs []func(context.Context) error
}

// New creates a provider. Disabled signals get no-op implementations.
func New(opts ...Option) (*Provider, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Provider{
		config: cfg,
		tracer: NewNoopTracer(),
		meter:  NewNoopMeter(),
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	)

	if cfg.Tracing.Enabled {
		if err := p.setupTracing(res); err != nil {
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
	}
	if cfg.Metrics.Enabled {
		if err := p.setupMetrics(res); err != nil {
			_ = p.Shutdown(context.Background())
			return nil, fmt.Errorf("setup metrics: %w", err)
		}
	}
	return p, nil
}

func (p *Provider) setupTracing(res *resource.Resource) error {
	var exporter sdktrace.SpanExporter

	switch p.config.Tracing.Exporter {
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(p.config.Tracing.Endpoint),
		}
		if p.config.Tracing.Insecure {
			opts = append(opts,
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
				otlptracegrpc.WithInsecure(),
			)
		}
		exp, err := otlptracegrpc.New(context.Background(), opts...)
		if err != nil {
			return err
		}
		exporter = exp

	case ExporterStdout:
		exp, err := stdouttrace.New(
			stdouttrace.WithWriter(p.config.Output),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			return err
		}
		exporter = exp

	case ExporterNoop:
		return nil

	default:
		return fmt.Errorf("%w: trace exporter %q", ErrUnsupportedExporter, p.config.Tracing.Exporter)
	}

	var sampler sdktrace.Sampler
	switch rate := p.config.Tracing.SampleRate; {
	case rate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case rate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(rate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(p.config.Tracing.BatchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	p.tracer = NewOTelTracer(tp.Tracer(p.config.ServiceName))
	p.shutdownFuncs = append(p.shutdownFuncs, tp.Shutdown)
	return nil
}

func (p *Provider) setupMetrics(res *resource.Resource) error {
	reader := p.config.Metrics.Reader
	if reader == nil {
		switch p.config.Metrics.Exporter {
		case ExporterStdout:
			exp, err := stdoutmetric.New(
				stdoutmetric.WithWriter(p.config.Output),
				stdoutmetric.WithPrettyPrint(),
			)
			if err != nil {
				return err
			}
			reader = sdkmetric.NewPeriodicReader(exp,
				sdkmetric.WithInterval(p.config.Metrics.ExportInterval),
			)
		case ExporterNoop:
			return nil
		default:
			return fmt.Errorf("%w: metric exporter %q", ErrUnsupportedExporter, p.config.Metrics.Exporter)
		}
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	p.meter = NewOTelMeter(mp.Meter(p.config.ServiceName))
	p.shutdownFuncs = append(p.shutdownFuncs, mp.Shutdown)
	return nil
}

// Tracer returns the tracer.
func (p *Provider) Tracer() telemetry.Tracer {
	return p.tracer
}

// Meter returns the meter.
func (p *Provider) Meter() telemetry.Meter {
	return p.meter
}

// Shutdown flushes and stops every exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range p.shutdownFuncs {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.shutdownFuncs = nil
	return errors.Join(errs...)
}

// NewNoopProvider creates a provider that records nothing.
func NewNoopProvider() *Provider {
	return &Provider{
		config: DefaultConfig(),
		tracer: NewNoopTracer(),
		meter:  NewNoopMeter(),
	}
}
