// Package buffer implements the reference-counted, copy-on-write byte
// region that every stream-buffer, numstream and bstream value in this
// module is ultimately a view over.
//
// A Buffer never copies its own backing storage on Clone or Slice unless its
// Policy requires it; mutation is what may trigger a deep copy, and only
// when the block is actually shared. This mirrors the way transport reuses
// a single scratch []byte across messages to stay allocation-free in the
// steady state: sharing is the default, copying is the exception paid for
// only when aliasing would otherwise corrupt a reader.
package buffer

// Policy selects how a Buffer behaves when its backing block is shared with
// another Buffer.
type Policy uint8

const (
	// Exclusive means at most one Buffer ever observes this block. Any
	// operation that would otherwise share the block (Clone, a non-forced
	// Slice) instead deep-copies, so the original stays the sole owner.
	Exclusive Policy = iota

	// CopyOnWrite means the block may be shared by several Buffers; a
	// mutation deep-copies first if the block's reference count is
	// greater than one at the time of the call.
	CopyOnWrite

	// NoCopyOnWrite means the block may be shared and mutation happens in
	// place regardless of sharing. The caller vouches that no concurrent
	// reader depends on the old bytes; per the concurrency model this
	// module assumes (single scheduler thread), "concurrent" only
	// matters across goroutines that bypass that thread, so treat this
	// policy as unsafe outside single-threaded use.
	NoCopyOnWrite
)

func (p Policy) String() string {
	switch p {
	case Exclusive:
		return "exclusive"
	case CopyOnWrite:
		return "copy-on-write"
	case NoCopyOnWrite:
		return "no-copy-on-write"
	default:
		return "unknown"
	}
}
