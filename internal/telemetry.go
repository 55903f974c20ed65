package internal

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/squadracorsepolito/ringbuf"

// Telemetry groups the logger, tracer and meter of a named component.
type Telemetry struct {
	kind string
	name string

	l *Logger

	tracer trace.Tracer
	meter  metric.Meter
}

// NewTelemetry returns a [Telemetry] bound to the global otel providers.
func NewTelemetry(kind, name string) *Telemetry {
	return NewTelemetryWithProviders(kind, name, NewLogger(kind, name), otel.GetTracerProvider(), otel.GetMeterProvider())
}

// NewTelemetryWithProviders returns a [Telemetry] bound to the given logger and providers.
func NewTelemetryWithProviders(kind, name string, l *Logger, tp trace.TracerProvider, mp metric.MeterProvider) *Telemetry {
	return &Telemetry{
		kind: kind,
		name: name,

		l: l,

		tracer: tp.Tracer(instrumentationName),
		meter:  mp.Meter(instrumentationName),
	}
}

func (t *Telemetry) Logger() *Logger {
	return t.l
}

func (t *Telemetry) Meter() metric.Meter {
	return t.meter
}

func (t *Telemetry) LogInfo(msg string, args ...any) {
	t.l.Info(msg, args...)
}

func (t *Telemetry) LogWarn(msg string, args ...any) {
	t.l.Warn(msg, args...)
}

func (t *Telemetry) LogError(msg string, err error, args ...any) {
	t.l.Error(msg, err, args...)
}

// DefaultAttributes returns the attributes identifying the component.
func (t *Telemetry) DefaultAttributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("ringbuf.kind", t.kind),
		attribute.String("ringbuf.name", t.name),
	}
}

func (t *Telemetry) NewTrace(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, spanName, opts...)
	span.SetAttributes(t.DefaultAttributes()...)
	return ctx, span
}

// MetricName returns the fully qualified name of a metric of the component.
func (t *Telemetry) MetricName(name string) string {
	return fmt.Sprintf("%s_%s_%s", t.kind, t.name, name)
}

func (t *Telemetry) NewCounter(name string, opts ...metric.Int64CounterOption) metric.Int64Counter {
	counterName := t.MetricName(name)
	counter, err := t.meter.Int64Counter(counterName, opts...)
	if err != nil {
		t.LogError("failed to create counter", err, "name", counterName)
	}

	t.l.Debug("created counter", "name", counterName)

	return counter
}

func (t *Telemetry) NewObservableGauge(name string, opts ...metric.Int64ObservableGaugeOption) metric.Int64ObservableGauge {
	gaugeName := t.MetricName(name)
	gauge, err := t.meter.Int64ObservableGauge(gaugeName, opts...)
	if err != nil {
		t.LogError("failed to create observable gauge", err, "name", gaugeName)
	}

	t.l.Debug("created observable gauge", "name", gaugeName)

	return gauge
}

func (t *Telemetry) NewObservableCounter(name string, opts ...metric.Int64ObservableCounterOption) metric.Int64ObservableCounter {
	counterName := t.MetricName(name)
	counter, err := t.meter.Int64ObservableCounter(counterName, opts...)
	if err != nil {
		t.LogError("failed to create observable counter", err, "name", counterName)
	}

	t.l.Debug("created observable counter", "name", counterName)

	return counter
}
