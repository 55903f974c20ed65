//go:build !ringbuf_noprotect

package ringbuf

// ProtectEnabled reports whether the configured [Protector] is invoked.
// Build with the ringbuf_noprotect tag to compile the critical sections away.
const ProtectEnabled = true

const protectEnabled = ProtectEnabled
