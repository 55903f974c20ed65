//go:build ringbuf_noprotect

package ringbuf

// ProtectEnabled reports whether the configured [Protector] is invoked.
const ProtectEnabled = false

const protectEnabled = ProtectEnabled
