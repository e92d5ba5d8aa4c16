// Package stream implements the cursor-based input/output stream-buffer
// abstraction every concrete byte source or sink in this module is built
// on: an in-memory buffer, a file, and (through numstream/bstream) the
// typed encoders layered above both.
//
// The original design used inheritance with non-public virtual "really_*"
// hooks (really_underflow, really_overflow, really_flush, really_touch,
// really_seek, really_tell, really_make_writable). This package replaces
// that with an interface of required hooks plus a base struct — In for
// reading, Out for writing — that a concrete adapter embeds. The base
// struct's exported methods (Get, Put, Seek, Flush, ...) are the "default
// implementations"; the embedding adapter supplies only the hooks its
// storage medium actually needs (refill a window, grow a window, persist
// dirty bytes, materialize a hole, reposition, report size).
package stream

// Anchor selects the reference point for a Seek or Tell call.
type Anchor uint8

const (
	Begin Anchor = iota
	Current
	End
)
