package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/squadracorsepolito/ringbuf"
	"github.com/squadracorsepolito/ringbuf/internal"
	"github.com/squadracorsepolito/ringbuf/monitor"
)

type simConfig struct {
	Capacity      uint32
	BatchSize     uint32
	PushInterval  time.Duration
	DrainInterval time.Duration
	Duration      time.Duration
}

func newDefaultSimConfig() *simConfig {
	return &simConfig{
		Capacity:      256,
		BatchSize:     64,
		PushInterval:  100 * time.Microsecond,
		DrainInterval: 10 * time.Millisecond,
		Duration:      5 * time.Second,
	}
}

var errInvalidFlag = errors.New("invalid flag")

// setSizes validates and stores the capacity and batch size given on the command line.
func (c *simConfig) setSizes(capacity, batchSize uint) error {
	if capacity < ringbuf.MinCapacity || capacity > math.MaxUint32 {
		return fmt.Errorf("%w: capacity %d out of range [%d, %d]", errInvalidFlag, capacity, ringbuf.MinCapacity, uint64(math.MaxUint32))
	}

	if batchSize == 0 || batchSize > math.MaxUint32 {
		return fmt.Errorf("%w: batch %d out of range [1, %d]", errInvalidFlag, batchSize, uint64(math.MaxUint32))
	}

	c.Capacity = uint32(capacity)
	c.BatchSize = uint32(batchSize)

	return nil
}

func (c *simConfig) checkIntervals() error {
	if c.PushInterval <= 0 || c.DrainInterval <= 0 {
		return fmt.Errorf("%w: push interval %s and drain interval %s must be positive", errInvalidFlag, c.PushInterval, c.DrainInterval)
	}

	if c.Duration < 0 {
		return fmt.Errorf("%w: negative duration %s", errInvalidFlag, c.Duration)
	}

	return nil
}

type sample struct {
	seq       uint64
	timestamp time.Time
}

type simResult struct {
	Produced   uint64
	Consumed   uint64
	Overwrites uint64
	Gaps       uint64
	Elapsed    time.Duration
}

// runSimulation runs a producer goroutine, standing for an interrupt handler,
// and a draining main loop on a shared buffer until ctx is done.
func runSimulation(ctx context.Context, l *internal.Logger, cfg *simConfig) (*simResult, error) {
	bufCfg := ringbuf.NewDefaultConfig()
	bufCfg.Capacity = cfg.Capacity
	bufCfg.Protect = &ringbuf.MutexProtector{}

	buf, err := ringbuf.NewWithConfig[sample](bufCfg)
	if err != nil {
		return nil, err
	}

	monCfg := monitor.NewDefaultConfig()
	monCfg.Name = "simulation"
	monCfg.Logger = l.Logger

	mon, err := monitor.New(buf, monCfg)
	if err != nil {
		return nil, err
	}
	defer mon.Close()

	startTime := time.Now()

	wg := &sync.WaitGroup{}
	wg.Add(2)

	go func() {
		defer wg.Done()
		mon.RunStats(ctx)
	}()

	var produced uint64
	go func() {
		defer wg.Done()
		produced = produce(ctx, mon, cfg.PushInterval)
	}()

	res := &simResult{}
	consume(ctx, mon, cfg, res)

	wg.Wait()

	// Collect what the producer left behind
	consumeBatch(context.Background(), mon, make([]sample, cfg.BatchSize), res)

	res.Produced = produced
	res.Overwrites = buf.Overwrites()
	res.Elapsed = time.Since(startTime)

	return res, nil
}

func produce(ctx context.Context, mon *monitor.Monitor[sample], interval time.Duration) uint64 {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return seq
		case now := <-ticker.C:
			mon.Push(sample{seq: seq, timestamp: now})
			seq++
		}
	}
}

func consume(ctx context.Context, mon *monitor.Monitor[sample], cfg *simConfig, res *simResult) {
	ticker := time.NewTicker(cfg.DrainInterval)
	defer ticker.Stop()

	batch := make([]sample, cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			consumeBatch(ctx, mon, batch, res)
		}
	}
}

// consumeBatch drains until the buffer is empty, counting the sequence numbers
// skipped because of overwrites.
func consumeBatch(ctx context.Context, mon *monitor.Monitor[sample], batch []sample, res *simResult) {
	for {
		n := mon.TryDrain(ctx, batch)
		if n == 0 {
			return
		}

		for _, s := range batch[:n] {
			if s.seq > res.Consumed+res.Gaps {
				res.Gaps += s.seq - res.Consumed - res.Gaps
			}
			res.Consumed++
		}
	}
}
