package monitor

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	// Name identifies the buffer in logs, span attributes and metric names.
	Name string

	// StatsInterval is the period of the rate logs emitted by RunStats.
	StatsInterval time.Duration

	// Logger defaults to a colored stderr logger.
	Logger *slog.Logger

	// TracerProvider and MeterProvider default to the otel global providers.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

func NewDefaultConfig() *Config {
	return &Config{
		Name: "ring",

		StatsInterval: time.Second,
	}
}
