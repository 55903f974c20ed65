// Package monitor instruments a ringbuf.Buffer with OpenTelemetry metrics and
// traces, and periodically logs its traffic.
package monitor

import (
	"context"
	"sync/atomic"

	"github.com/squadracorsepolito/ringbuf"
	"github.com/squadracorsepolito/ringbuf/internal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const componentKind = "ring"

// Monitor wraps a [ringbuf.Buffer] and records every operation going through it.
// Operations performed directly on the wrapped buffer are only reflected by the
// observable instruments (used, free, overwrites).
type Monitor[T any] struct {
	buf *ringbuf.Buffer[T]

	tel   *internal.Telemetry
	stats *internal.Stats

	attrs metric.MeasurementOption

	pushed  metric.Int64Counter
	popped  metric.Int64Counter
	filled  metric.Int64Counter
	drained metric.Int64Counter
	resets  metric.Int64Counter

	usedGauge  metric.Int64ObservableGauge
	freeGauge  metric.Int64ObservableGauge
	overwrites metric.Int64ObservableCounter

	registration metric.Registration

	// lastOverwrites is the overwrite count seen by the previous stats sample
	lastOverwrites atomic.Uint64
}

// New returns a [Monitor] for buf. Close must be called to unregister the
// observable instruments.
//
// The observable instruments read buf through [ringbuf.Buffer.Snapshot] from the
// goroutine of the metric reader, so buf needs a real [ringbuf.Protector] (for
// example a [ringbuf.MutexProtector]) unless every access happens on that same
// goroutine. A warning is logged when buf is unprotected.
func New[T any](buf *ringbuf.Buffer[T], cfg *Config) (*Monitor[T], error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}

	var l *internal.Logger
	if cfg.Logger != nil {
		l = internal.WrapLogger(cfg.Logger, componentKind, cfg.Name)
	} else {
		l = internal.NewLogger(componentKind, cfg.Name)
	}

	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	if !isProtected(buf) {
		l.Warn("buffer without protector, metric collection races with concurrent operations")
	}

	tel := internal.NewTelemetryWithProviders(componentKind, cfg.Name, l, tp, mp)

	m := &Monitor[T]{
		buf: buf,

		tel:   tel,
		stats: internal.NewStats(l, cfg.StatsInterval),

		attrs: metric.WithAttributeSet(attribute.NewSet(tel.DefaultAttributes()...)),
	}

	m.initMetrics()

	reg, err := tel.Meter().RegisterCallback(m.observe, m.usedGauge, m.freeGauge, m.overwrites)
	if err != nil {
		return nil, err
	}
	m.registration = reg

	return m, nil
}

func isProtected[T any](buf *ringbuf.Buffer[T]) bool {
	if !ringbuf.ProtectEnabled {
		return false
	}

	switch buf.Protector().(type) {
	case nil, ringbuf.NoProtect, *ringbuf.NoProtect:
		return false
	}

	return true
}

func (m *Monitor[T]) initMetrics() {
	m.pushed = m.tel.NewCounter("pushed_items")
	m.popped = m.tel.NewCounter("popped_items")
	m.filled = m.tel.NewCounter("filled_items")
	m.drained = m.tel.NewCounter("drained_items")
	m.resets = m.tel.NewCounter("resets")

	m.usedGauge = m.tel.NewObservableGauge("used_slots")
	m.freeGauge = m.tel.NewObservableGauge("free_slots")
	m.overwrites = m.tel.NewObservableCounter("overwritten_items")
}

func (m *Monitor[T]) observe(_ context.Context, o metric.Observer) error {
	snap := m.buf.Snapshot()

	o.ObserveInt64(m.usedGauge, int64(snap.Used), m.attrs)
	o.ObserveInt64(m.freeGauge, int64(snap.Free), m.attrs)
	o.ObserveInt64(m.overwrites, int64(snap.Overwrites), m.attrs)

	return nil
}

// Buffer returns the wrapped buffer.
func (m *Monitor[T]) Buffer() *ringbuf.Buffer[T] {
	return m.buf
}

func (m *Monitor[T]) Push(item T) {
	m.buf.Push(item)

	m.pushed.Add(context.Background(), 1, m.attrs)
	m.stats.AddIn(1)
}

func (m *Monitor[T]) Pop() T {
	item := m.buf.Pop()

	m.popped.Add(context.Background(), 1, m.attrs)
	m.stats.AddOut(1)

	return item
}

func (m *Monitor[T]) TryPop() (T, bool) {
	item, ok := m.buf.TryPop()
	if !ok {
		return item, false
	}

	m.popped.Add(context.Background(), 1, m.attrs)
	m.stats.AddOut(1)

	return item, true
}

// Fill forwards to [ringbuf.Buffer.Fill] and records the number of items
// actually stored, which is lower than size when the assert handler clamped it.
func (m *Monitor[T]) Fill(ctx context.Context, src []T, size uint32) uint32 {
	ctx, span := m.tel.NewTrace(ctx, "ring fill")
	defer span.End()

	filled := m.buf.Fill(src, size)

	span.SetAttributes(
		attribute.Int64("ring.size", int64(size)),
		attribute.Int64("ring.filled", int64(filled)),
	)

	if filled > 0 {
		m.filled.Add(ctx, int64(filled), m.attrs)
		m.stats.AddIn(uint64(filled))
	}

	return filled
}

func (m *Monitor[T]) Drain(ctx context.Context, dest []T, size uint32) uint32 {
	ctx, span := m.tel.NewTrace(ctx, "ring drain")
	defer span.End()

	drained := m.buf.Drain(dest, size)

	span.SetAttributes(
		attribute.Int64("ring.size", int64(size)),
		attribute.Int64("ring.drained", int64(drained)),
	)

	m.recordDrain(ctx, drained)

	return drained
}

func (m *Monitor[T]) TryDrain(ctx context.Context, dest []T) uint32 {
	ctx, span := m.tel.NewTrace(ctx, "ring drain")
	defer span.End()

	drained := m.buf.TryDrain(dest)

	span.SetAttributes(attribute.Int64("ring.drained", int64(drained)))

	m.recordDrain(ctx, drained)

	return drained
}

func (m *Monitor[T]) recordDrain(ctx context.Context, drained uint32) {
	if drained == 0 {
		return
	}

	m.drained.Add(ctx, int64(drained), m.attrs)
	m.stats.AddOut(uint64(drained))
}

func (m *Monitor[T]) Reset() {
	m.buf.Reset()

	m.resets.Add(context.Background(), 1, m.attrs)
	m.tel.LogInfo("buffer reset")
}

// RunStats logs the traffic of the buffer once per stats interval until ctx is done.
func (m *Monitor[T]) RunStats(ctx context.Context) {
	m.stats.RunStats(ctx, m.sampleOverwrites)
}

func (m *Monitor[T]) sampleOverwrites() {
	current := m.buf.Snapshot().Overwrites
	last := m.lastOverwrites.Swap(current)

	if current > last {
		m.stats.AddOverwrites(current - last)
	}
}

// Close unregisters the observable instruments.
func (m *Monitor[T]) Close() error {
	return m.registration.Unregister()
}
