// Package ringbuf provides a fixed-capacity circular FIFO with overwrite-on-full
// semantics, suited to embedded loops where a producer (often an interrupt
// handler) and a consumer share a single buffer.
//
// One slot of the backing array is always kept unused so that a full buffer can be
// told apart from an empty one: a buffer of capacity N holds at most N-1 items.
//
// Every mutating method runs inside the critical section provided by the
// configured [Protector]. Queries such as [Buffer.Used] never lock.
package ringbuf

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Buffer is a generic ring buffer with a capacity fixed at construction.
type Buffer[T any] struct {
	// head is the index of the next slot to write.
	head uint32

	_ cpu.CacheLinePad

	// tail is the index of the next slot to read.
	tail uint32

	_ cpu.CacheLinePad

	capacity uint32

	// overwrites counts the items discarded by a push into a full buffer.
	overwrites uint64

	protect  Protector
	assertFn AssertHandler

	buffer []T
}

// New returns an empty [Buffer] with the given capacity and the default configuration.
// The buffer holds at most capacity-1 items.
func New[T any](capacity uint32) (*Buffer[T], error) {
	cfg := NewDefaultConfig()
	cfg.Capacity = capacity
	return NewWithConfig[T](cfg)
}

// MustNew is like [New] but panics on an invalid capacity.
// It is meant for package level declarations.
func MustNew[T any](capacity uint32) *Buffer[T] {
	b, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return b
}

// NewWithConfig returns an empty [Buffer] configured by cfg.
func NewWithConfig[T any](cfg *Config) (*Buffer[T], error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}

	if cfg.Capacity < MinCapacity || uint64(cfg.Capacity) > maxCapacity {
		return nil, ErrInvalidCapacity
	}

	return newBuffer(make([]T, cfg.Capacity), cfg), nil
}

// NewWithStorage returns an empty [Buffer] backed by storage.
// The capacity is len(storage) and cfg.Capacity is ignored.
// The buffer takes ownership of storage: the caller must not use it afterwards.
func NewWithStorage[T any](storage []T, cfg *Config) (*Buffer[T], error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}

	if len(storage) < MinCapacity || uint64(len(storage)) > maxCapacity {
		return nil, ErrInvalidCapacity
	}

	return newBuffer(storage, cfg), nil
}

func newBuffer[T any](storage []T, cfg *Config) *Buffer[T] {
	protect := cfg.Protect
	if protect == nil {
		protect = NoProtect{}
	}

	assertFn := cfg.Assert
	if assertFn == nil {
		assertFn = PanicOnViolation
	}

	return &Buffer[T]{
		capacity: uint32(len(storage)),

		protect:  protect,
		assertFn: assertFn,

		buffer: storage,
	}
}

// advance moves index i forward by n slots, wrapping at most once.
// n must be lower than the capacity.
func (b *Buffer[T]) advance(i, n uint32) uint32 {
	if i+n < b.capacity {
		return i + n
	}
	return i + n - b.capacity
}

// advanceTail consumes n items. The caller guarantees n <= used.
func (b *Buffer[T]) advanceTail(n uint32) {
	b.tail = b.advance(b.tail, n)
}

// advanceHead publishes n items. When head reaches tail the oldest item is
// discarded by bumping tail a single slot, regardless of n.
func (b *Buffer[T]) advanceHead(n uint32) {
	b.head = b.advance(b.head, n)

	if b.head == b.tail {
		b.advanceTail(1)
		b.overwrites++
	}
}

func (b *Buffer[T]) used() uint32 {
	head := b.head
	tail := b.tail

	// Check if head has wrapped around
	if head < tail {
		return b.capacity - tail + head
	}

	return head - tail
}

// Length returns the number of physical slots, including the reserved one.
func (b *Buffer[T]) Length() uint32 {
	return b.capacity
}

// Used returns the number of items currently stored.
func (b *Buffer[T]) Used() uint32 {
	return b.used()
}

// Free returns the number of items that can be pushed before the oldest one is
// overwritten.
func (b *Buffer[T]) Free() uint32 {
	return b.capacity - b.used() - 1
}

// IsEmpty states whether the buffer holds no items.
func (b *Buffer[T]) IsEmpty() bool {
	return b.used() == 0
}

// IsFull states whether the next push overwrites the oldest item.
func (b *Buffer[T]) IsFull() bool {
	return b.Free() == 0
}

// Protector returns the protector bracketing the mutating operations.
func (b *Buffer[T]) Protector() Protector {
	return b.protect
}

// TypeSize returns the size in bytes of a single slot.
func (b *Buffer[T]) TypeSize() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

// Overwrites returns how many items have been discarded by overwrite-on-full
// since the buffer was created. [Buffer.Reset] does not clear it.
func (b *Buffer[T]) Overwrites() uint64 {
	return b.overwrites
}

// Stats is a consistent view of the buffer occupancy.
type Stats struct {
	Length     uint32
	Used       uint32
	Free       uint32
	Overwrites uint64
}

// Snapshot returns the buffer occupancy read inside the critical section.
func (b *Buffer[T]) Snapshot() Stats {
	b.lock()
	defer b.unlock()

	used := b.used()

	return Stats{
		Length:     b.capacity,
		Used:       used,
		Free:       b.capacity - used - 1,
		Overwrites: b.overwrites,
	}
}
