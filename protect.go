package ringbuf

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Op is the operation passed to a [ProtectFunc].
type Op uint8

const (
	// OpUnlock leaves the critical section.
	OpUnlock Op = 0
	// OpLock enters the critical section.
	OpLock Op = 1
)

func (op Op) String() string {
	switch op {
	case OpUnlock:
		return "unlock"
	case OpLock:
		return "lock"
	default:
		return "unknown"
	}
}

// Protector provides the critical section entered by every mutating operation
// of a [Buffer]. The buffer never calls itself while holding the lock,
// so a non reentrant lock is enough.
//
// On a microcontroller a Protector that disables interrupts lets an interrupt
// handler and the main loop share the same buffer.
type Protector interface {
	Lock()
	Unlock()
}

var (
	_ Protector = NoProtect{}
	_ Protector = (*MutexProtector)(nil)
	_ Protector = (*CallbackProtector)(nil)
	_ Protector = (*SpinProtector)(nil)
)

// NoProtect is the protector used when none is configured. It does nothing.
type NoProtect struct{}

func (NoProtect) Lock()   {}
func (NoProtect) Unlock() {}

// MutexProtector guards the buffer with a mutex.
// The zero value uses an internal [sync.Mutex].
type MutexProtector struct {
	mux    sync.Mutex
	locker sync.Locker
}

// NewMutexProtector returns a [MutexProtector] backed by l.
// A nil l selects the internal mutex.
func NewMutexProtector(l sync.Locker) *MutexProtector {
	return &MutexProtector{
		locker: l,
	}
}

func (p *MutexProtector) Lock() {
	if p.locker != nil {
		p.locker.Lock()
		return
	}
	p.mux.Lock()
}

func (p *MutexProtector) Unlock() {
	if p.locker != nil {
		p.locker.Unlock()
		return
	}
	p.mux.Unlock()
}

// ProtectFunc is the callback form of a protector. It receives [OpLock] or
// [OpUnlock] together with the opaque argument given at construction.
type ProtectFunc func(op Op, arg any)

// CallbackProtector adapts a [ProtectFunc] and its argument to a [Protector].
type CallbackProtector struct {
	fn  ProtectFunc
	arg any
}

// NewCallbackProtector returns a [Protector] calling fn with arg.
// The buffer only forwards arg, it is owned by the caller.
func NewCallbackProtector(fn ProtectFunc, arg any) *CallbackProtector {
	return &CallbackProtector{
		fn:  fn,
		arg: arg,
	}
}

func (p *CallbackProtector) Lock() {
	if p.fn != nil {
		p.fn(OpLock, p.arg)
	}
}

func (p *CallbackProtector) Unlock() {
	if p.fn != nil {
		p.fn(OpUnlock, p.arg)
	}
}

// spinThreshold is the number of failed attempts before yielding to the scheduler.
const spinThreshold = 1000

// SpinProtector is a busy-waiting lock for very short critical sections.
// The zero value is unlocked.
type SpinProtector struct {
	locked atomic.Bool
}

func (p *SpinProtector) Lock() {
	spins := 0
	for !p.locked.CompareAndSwap(false, true) {
		spins++
		if spins == spinThreshold {
			// Yield to other goroutines
			runtime.Gosched()
			spins = 0
		}
	}
}

func (p *SpinProtector) Unlock() {
	p.locked.Store(false)
}

func (b *Buffer[T]) lock() {
	if protectEnabled {
		b.protect.Lock()
	}
}

func (b *Buffer[T]) unlock() {
	if protectEnabled {
		b.protect.Unlock()
	}
}
