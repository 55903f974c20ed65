package main

import (
	"errors"
	"fmt"

	"github.com/squadracorsepolito/ringbuf"
	"github.com/squadracorsepolito/ringbuf/internal"
)

const scenarioCapacity = 8

type item struct {
	dummy uint8
	x     uint32
}

// lockState is the opaque argument handed to the protect callback.
type lockState struct {
	locked      uint32
	transitions uint32
}

func protectCallback(op ringbuf.Op, arg any) {
	state := arg.(*lockState)

	switch op {
	case ringbuf.OpUnlock:
		state.locked = 0
	case ringbuf.OpLock:
		state.locked = 1
	default:
		panic(fmt.Sprintf("unexpected protect op %d", op))
	}

	state.transitions++
}

var errScenario = errors.New("scenario check failed")

func check(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return fmt.Errorf("%w: "+format, append([]any{errScenario}, args...)...)
}

// runScenario pushes until full, drains half, refills, pops down to one item and
// resets, checking the occupancy at each step.
func runScenario(l *internal.Logger) error {
	state := &lockState{}

	cfg := ringbuf.NewDefaultConfig()
	cfg.Capacity = scenarioCapacity
	cfg.Protect = ringbuf.NewCallbackProtector(protectCallback, state)

	buf, err := ringbuf.NewWithConfig[item](cfg)
	if err != nil {
		return err
	}

	length := buf.Length()

	for i := range length - 1 {
		it := item{x: i}
		buf.Push(it)

		used := buf.Used()
		l.Info("push", "x", it.x, "count", used)

		if err := check(used == i+1 && buf.Free() == length-1-used, "after push %d: used %d, free %d", i, used, buf.Free()); err != nil {
			return err
		}
	}

	usedHalf := buf.Used() / 2
	drained := make([]item, usedHalf)

	buf.Drain(drained, usedHalf)
	l.Info("count after drain", "count", buf.Used())

	if err := check(buf.Used() == length-1-usedHalf && buf.Free() == usedHalf, "after drain: used %d, free %d", buf.Used(), buf.Free()); err != nil {
		return err
	}

	for i, it := range drained {
		if err := check(it == item{x: uint32(i)}, "drained item %d is %+v", i, it); err != nil {
			return err
		}
	}

	buf.Fill(drained, usedHalf)
	l.Info("count after fill", "count", buf.Used())

	if err := check(buf.IsFull(), "after fill: used %d, free %d", buf.Used(), buf.Free()); err != nil {
		return err
	}

	expected := usedHalf - 1
	for buf.Used() > 1 {
		expected = (expected + 1) % (length - 1)

		popped := buf.Pop()
		l.Info("pop", "x", popped.x, "count", buf.Used())

		if err := check(popped == item{x: expected}, "popped %+v, expected x %d", popped, expected); err != nil {
			return err
		}
	}

	buf.Reset()

	if err := check(buf.IsEmpty() && buf.Free() == length-1, "after reset: used %d, free %d", buf.Used(), buf.Free()); err != nil {
		return err
	}

	return check(state.locked == 0 && state.transitions%2 == 0, "lock left in state %d after %d transitions", state.locked, state.transitions)
}
