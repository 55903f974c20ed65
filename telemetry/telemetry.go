// Package telemetry sets up the OTLP exporters used to ship ring buffer
// metrics and traces.
package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/squadracorsepolito/ringbuf"
)

type Config struct {
	ServiceName string

	// SampleRatio is the fraction of traces kept.
	SampleRatio float64

	// ExportInterval is the period of the metric exporter.
	ExportInterval time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		ServiceName: "ringbuf",

		SampleRatio: 0.05,

		ExportInterval: time.Second,
	}
}

// Providers holds the SDK providers installed as otel globals by [Init].
type Providers struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
}

// Init creates the OTLP exporters and installs the trace and meter providers
// as otel globals. The endpoints are read from the standard OTEL_EXPORTER_OTLP_*
// environment variables.
func Init(ctx context.Context, cfg *Config) (*Providers, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}

	// Resource
	res, err := newResource(ctx, cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	// Trace
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, err
	}
	tracerProvider := newTraceProvider(res, traceExporter, cfg.SampleRatio)
	otel.SetTracerProvider(tracerProvider)

	// Trace Propagator
	otel.SetTextMapPropagator(propagation.TraceContext{})

	// Meter
	meterExporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithInsecure())
	if err != nil {
		return nil, errors.Join(err, tracerProvider.Shutdown(ctx))
	}
	meterProvider := newMeterProvider(res, meterExporter, cfg.ExportInterval)
	otel.SetMeterProvider(meterProvider)

	return &Providers{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
	}, nil
}

// Close flushes and shuts down the providers.
func (p *Providers) Close(ctx context.Context) error {
	return errors.Join(
		p.tracerProvider.Shutdown(ctx),
		p.meterProvider.Shutdown(ctx),
	)
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ringbuf.Version()),
		),
	)
}

func newTraceProvider(res *resource.Resource, exporter *otlptrace.Exporter, sampleRatio float64) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(sampleRatio)),
	)
}

func newMeterProvider(res *resource.Resource, exporter sdkmetric.Exporter, interval time.Duration) *sdkmetric.MeterProvider {
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)),
		),
	)
}
