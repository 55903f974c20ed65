package ringbuf

const (
	// MinCapacity is the smallest capacity accepted: one slot is always reserved.
	MinCapacity = 2

	// maxCapacity keeps head+n below the uint32 overflow.
	maxCapacity = 1 << 31

	defaultCapacity = 64
)

// Config holds the construction parameters of a [Buffer].
type Config struct {
	// Capacity is the number of physical slots. The buffer holds at most
	// Capacity-1 items.
	Capacity uint32

	// Protect brackets every mutating operation. Nil means [NoProtect].
	Protect Protector

	// Assert is called on precondition violations. Nil means [PanicOnViolation].
	Assert AssertHandler
}

// NewDefaultConfig returns the default configuration.
func NewDefaultConfig() *Config {
	return &Config{
		Capacity: defaultCapacity,

		Protect: NoProtect{},
		Assert:  PanicOnViolation,
	}
}
