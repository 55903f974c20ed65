package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/squadracorsepolito/ringbuf"
	"github.com/squadracorsepolito/ringbuf/internal"
	"github.com/squadracorsepolito/ringbuf/telemetry"
)

func main() {
	simCfg := newDefaultSimConfig()

	capacity := flag.Uint("capacity", uint(simCfg.Capacity), "ring buffer slots used by the simulation")
	flag.DurationVar(&simCfg.PushInterval, "push-interval", simCfg.PushInterval, "period of the simulated interrupt")
	flag.DurationVar(&simCfg.DrainInterval, "drain-interval", simCfg.DrainInterval, "period of the main loop")
	batchSize := flag.Uint("batch", uint(simCfg.BatchSize), "items drained per main loop iteration")
	flag.DurationVar(&simCfg.Duration, "duration", simCfg.Duration, "simulation length, 0 runs until interrupted")
	otlp := flag.Bool("otlp", false, "export metrics and traces through OTLP")
	flag.Parse()

	l := internal.NewLogger("demo", "ringdemo")

	if err := errors.Join(simCfg.setSizes(*capacity, *batchSize), simCfg.checkIntervals()); err != nil {
		l.Error("invalid configuration", err)
		os.Exit(2)
	}

	ctx, cancelCtx := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancelCtx()

	l.Info("starting", "version", ringbuf.Version(), "protect", ringbuf.ProtectEnabled)

	if *otlp {
		providers, err := telemetry.Init(ctx, telemetry.NewDefaultConfig())
		if err != nil {
			l.Error("failed to init telemetry", err)
			os.Exit(1)
		}

		defer func() {
			if err := providers.Close(context.Background()); err != nil {
				l.Error("failed to close telemetry", err)
			}
		}()
	}

	if err := runScenario(l); err != nil {
		l.Error("scenario failed", err)
		os.Exit(1)
	}

	if simCfg.Duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, simCfg.Duration)
		defer cancelTimeout()
	}

	res, err := runSimulation(ctx, l, simCfg)
	if err != nil {
		l.Error("simulation failed", err)
		os.Exit(1)
	}

	l.Info("simulation done",
		"produced", res.Produced, "consumed", res.Consumed,
		"overwrites", res.Overwrites, "sequence_gaps", res.Gaps,
		"elapsed", res.Elapsed.Round(time.Millisecond),
	)
}
