package ringbuf

import "strconv"

const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 1
)

// Version returns the semantic version of the ring buffer layout and behaviour.
func Version() string {
	return strconv.Itoa(VersionMajor) + "." + strconv.Itoa(VersionMinor) + "." + strconv.Itoa(VersionPatch)
}
