package ringbuf

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/squadracorsepolito/ringbuf/internal"
)

var (
	// ErrInvalidCapacity is returned when the capacity is lower than [MinCapacity]
	// or too large to be indexed.
	ErrInvalidCapacity = errors.New("ring buffer: invalid capacity")

	// ErrEmpty is reported when popping from an empty buffer.
	ErrEmpty = errors.New("ring buffer: buffer is empty")
	// ErrFillTooLarge is reported when a fill is not smaller than the capacity minus one.
	ErrFillTooLarge = errors.New("ring buffer: fill size exceeds usable capacity")
	// ErrDrainExceedsUsed is reported when draining more items than stored.
	ErrDrainExceedsUsed = errors.New("ring buffer: drain size exceeds used slots")
	// ErrShortSlice is reported when the linear buffer is shorter than the requested size.
	ErrShortSlice = errors.New("ring buffer: slice shorter than size")
)

// AssertHandler is called with the violated precondition, wrapping one of
// [ErrEmpty], [ErrFillTooLarge], [ErrDrainExceedsUsed] or [ErrShortSlice].
//
// Violations are programming errors. If the handler returns, the operation goes
// on with its arguments clamped to a safe value.
type AssertHandler func(err error)

// PanicOnViolation is the default [AssertHandler]. It panics with the violation.
func PanicOnViolation(err error) {
	panic(err)
}

// IgnoreViolation is an [AssertHandler] that elides the check.
func IgnoreViolation(error) {}

// LogViolation returns an [AssertHandler] that logs the violation and continues.
// A nil logger selects a colored stderr logger.
func LogViolation(l *slog.Logger) AssertHandler {
	if l == nil {
		l = internal.NewLogger("ringbuf", "assert").Logger
	}

	return func(err error) {
		l.Error("precondition violated", internal.ErrAttr(err))
	}
}

func (b *Buffer[T]) violation(err error, format string, args ...any) {
	b.assertFn(fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
}
