package reactive

import (
	"strconv"
	"sync/atomic"
)

// globalIDCounter is the source of unique node IDs.
var globalIDCounter uint64

// nextID returns the next unique node ID.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// identityFor returns the identity string written into markup for node id.
func identityFor(id uint64) string {
	return "n" + strconv.FormatUint(id, 10)
}
