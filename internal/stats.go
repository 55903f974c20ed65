package internal

import (
	"context"
	"sync/atomic"
	"time"
)

// Stats accumulates ring buffer traffic and logs the rates once per interval.
type Stats struct {
	l *Logger

	interval time.Duration

	inCount        atomic.Uint64
	outCount       atomic.Uint64
	overwriteCount atomic.Uint64
}

func NewStats(l *Logger, interval time.Duration) *Stats {
	if interval <= 0 {
		interval = time.Second
	}

	return &Stats{
		l: l,

		interval: interval,
	}
}

// RunStats flushes the counts every interval until ctx is done.
// When sample is not nil it is called right before each flush.
func (s *Stats) RunStats(ctx context.Context, sample func()) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if sample != nil {
				sample()
			}
			s.Flush()
		}
	}
}

// Flush logs and resets the accumulated counts. Idle intervals are not logged.
func (s *Stats) Flush() {
	inCount := s.inCount.Swap(0)
	outCount := s.outCount.Swap(0)
	overwriteCount := s.overwriteCount.Swap(0)

	if inCount == 0 && outCount == 0 && overwriteCount == 0 {
		return
	}

	s.l.Info("stats", "items_in", inCount, "items_out", outCount, "overwrites", overwriteCount, "interval", s.interval)
}

func (s *Stats) AddIn(n uint64) {
	s.inCount.Add(n)
}

func (s *Stats) AddOut(n uint64) {
	s.outCount.Add(n)
}

func (s *Stats) AddOverwrites(n uint64) {
	s.overwriteCount.Add(n)
}
