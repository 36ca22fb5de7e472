package bridge

import "sync/atomic"

// Handle is an opaque identifier correlating a script-defined type with its
// native counterpart. Handles are unique for the process lifetime and never
// reused; nothing ever frees one (registration happens once at startup and
// handle counts are bounded by authored content).
type Handle int64

// Allocator issues monotonically increasing handles. Safe for concurrent use
// from any goroutine, including the scripting isolate.
type Allocator struct {
	next atomic.Int64
}

// NewAllocator returns an allocator whose first handle is 1.
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Next returns a handle strictly greater than every handle returned before.
func (a *Allocator) Next() Handle {
	return Handle(a.next.Add(1))
}
