package monitor

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/squadracorsepolito/ringbuf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"
)

type testEnv struct {
	reader   *sdkmetric.ManualReader
	recorder *tracetest.SpanRecorder
	cfg      *Config
}

func newTestEnv() *testEnv {
	reader := sdkmetric.NewManualReader()
	recorder := tracetest.NewSpanRecorder()

	cfg := NewDefaultConfig()
	cfg.Name = "test"
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.MeterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	cfg.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	return &testEnv{
		reader:   reader,
		recorder: recorder,
		cfg:      cfg,
	}
}

// collect returns the last data point of every int64 metric, by name.
func (e *testEnv) collect(t *testing.T) map[string]int64 {
	t.Helper()

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, e.reader.Collect(context.Background(), &rm))

	values := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				if len(data.DataPoints) > 0 {
					values[m.Name] = data.DataPoints[len(data.DataPoints)-1].Value
				}
			case metricdata.Gauge[int64]:
				if len(data.DataPoints) > 0 {
					values[m.Name] = data.DataPoints[len(data.DataPoints)-1].Value
				}
			}
		}
	}

	return values
}

func newTestMonitor(t *testing.T, capacity uint32) (*Monitor[int], *testEnv) {
	t.Helper()

	env := newTestEnv()

	m, err := New(ringbuf.MustNew[int](capacity), env.cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, m.Close())
	})

	return m, env
}

func Test_Monitor_Counters(t *testing.T) {
	assert := assert.New(t)

	m, env := newTestMonitor(t, 8)
	ctx := context.Background()

	m.Push(1)
	m.Push(2)
	m.Fill(ctx, []int{3, 4, 5}, 3)

	assert.Equal(1, m.Pop())

	_, ok := m.TryPop()
	assert.True(ok)

	dest := make([]int, 4)
	assert.Equal(uint32(2), m.Drain(ctx, dest, 2))
	assert.Equal([]int{3, 4}, dest[:2])

	values := env.collect(t)

	assert.Equal(int64(2), values["ring_test_pushed_items"])
	assert.Equal(int64(2), values["ring_test_popped_items"])
	assert.Equal(int64(3), values["ring_test_filled_items"])
	assert.Equal(int64(2), values["ring_test_drained_items"])

	assert.Equal(int64(1), values["ring_test_used_slots"])
	assert.Equal(int64(6), values["ring_test_free_slots"])
	assert.Equal(int64(0), values["ring_test_overwritten_items"])
}

func Test_Monitor_Overwrites(t *testing.T) {
	assert := assert.New(t)

	m, env := newTestMonitor(t, 4)

	for i := range 6 {
		m.Push(i)
	}

	// Writes going around the monitor are still observed
	m.Buffer().Push(6)

	values := env.collect(t)

	assert.Equal(int64(6), values["ring_test_pushed_items"])
	assert.Equal(int64(4), values["ring_test_overwritten_items"])
	assert.Equal(int64(3), values["ring_test_used_slots"])
	assert.Equal(int64(0), values["ring_test_free_slots"])
}

func Test_Monitor_Reset(t *testing.T) {
	assert := assert.New(t)

	m, env := newTestMonitor(t, 4)

	m.Push(1)
	m.Reset()
	m.Reset()

	values := env.collect(t)

	assert.Equal(int64(2), values["ring_test_resets"])
	assert.Equal(int64(0), values["ring_test_used_slots"])
	assert.True(m.Buffer().IsEmpty())
}

func Test_Monitor_TryPopEmpty(t *testing.T) {
	assert := assert.New(t)

	m, env := newTestMonitor(t, 4)

	_, ok := m.TryPop()
	assert.False(ok)
	assert.Equal(uint32(0), m.TryDrain(context.Background(), make([]int, 2)))

	values := env.collect(t)

	assert.Zero(values["ring_test_popped_items"])
	assert.Zero(values["ring_test_drained_items"])
}

func Test_Monitor_Spans(t *testing.T) {
	assert := assert.New(t)

	m, env := newTestMonitor(t, 8)
	ctx := context.Background()

	m.Fill(ctx, []int{1, 2, 3}, 3)
	m.Drain(ctx, make([]int, 2), 2)
	m.TryDrain(ctx, make([]int, 4))

	spans := env.recorder.Ended()
	require.Len(t, spans, 3)

	assert.Equal("ring fill", spans[0].Name())
	assert.Equal("ring drain", spans[1].Name())
	assert.Equal("ring drain", spans[2].Name())

	fillAttrs := attribute.NewSet(spans[0].Attributes()...)

	size, ok := fillAttrs.Value("ring.size")
	assert.True(ok)
	assert.Equal(int64(3), size.AsInt64())

	name, ok := fillAttrs.Value("ringbuf.name")
	assert.True(ok)
	assert.Equal("test", name.AsString())

	drainAttrs := attribute.NewSet(spans[2].Attributes()...)

	drained, ok := drainAttrs.Value("ring.drained")
	assert.True(ok)
	assert.Equal(int64(1), drained.AsInt64())
}

func Test_Monitor_FillClamped(t *testing.T) {
	assert := assert.New(t)

	env := newTestEnv()

	buf, err := ringbuf.NewWithConfig[int](&ringbuf.Config{Capacity: 8, Assert: ringbuf.IgnoreViolation})
	require.NoError(t, err)

	m, err := New(buf, env.cfg)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()

	// Shorter source than size
	assert.Equal(uint32(2), m.Fill(ctx, []int{1, 2}, 5))

	values := env.collect(t)
	assert.Equal(int64(2), values["ring_test_filled_items"])
	assert.Equal(int64(2), values["ring_test_used_slots"])

	// Larger than the usable capacity
	assert.Equal(uint32(7), m.Fill(ctx, make([]int, 20), 20))

	values = env.collect(t)
	assert.Equal(int64(9), values["ring_test_filled_items"])

	spans := env.recorder.Ended()
	require.Len(t, spans, 2)

	fillAttrs := attribute.NewSet(spans[0].Attributes()...)

	size, ok := fillAttrs.Value("ring.size")
	assert.True(ok)
	assert.Equal(int64(5), size.AsInt64())

	filled, ok := fillAttrs.Value("ring.filled")
	assert.True(ok)
	assert.Equal(int64(2), filled.AsInt64())
}

func Test_Monitor_UnprotectedWarning(t *testing.T) {
	assert := assert.New(t)

	newLoggedMonitor := func(buf *ringbuf.Buffer[int]) string {
		out := &bytes.Buffer{}

		env := newTestEnv()
		env.cfg.Logger = slog.New(slog.NewTextHandler(out, nil))

		m, err := New(buf, env.cfg)
		require.NoError(t, err)
		assert.NoError(m.Close())

		return out.String()
	}

	assert.Contains(newLoggedMonitor(ringbuf.MustNew[int](8)), "buffer without protector")

	protected, err := ringbuf.NewWithConfig[int](&ringbuf.Config{Capacity: 8, Protect: &ringbuf.MutexProtector{}})
	require.NoError(t, err)

	out := newLoggedMonitor(protected)
	if ringbuf.ProtectEnabled {
		assert.NotContains(out, "buffer without protector")
	} else {
		assert.Contains(out, "buffer without protector")
	}
}

func Test_Monitor_RunStats(t *testing.T) {
	defer goleak.VerifyNone(t)

	env := newTestEnv()
	env.cfg.StatsInterval = 5 * time.Millisecond

	m, err := New(ringbuf.MustNew[int](4), env.cfg)
	require.NoError(t, err)
	defer m.Close()

	for i := range 10 {
		m.Push(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.RunStats(ctx)
		close(done)
	}()

	<-done

	// Every overwrite has been sampled
	assert.Equal(t, uint64(7), m.lastOverwrites.Load())
}
