package stream

import (
	"go.nodeoze.dev/core/buffer"
	"go.nodeoze.dev/core/corerr"
)

// InputHooks are the operations a concrete input adapter must supply. In
// drives every read through these; an adapter embeds In and implements
// InputHooks on the embedding type, reading back the current window via
// In's exported accessors.
type InputHooks interface {
	// Underflow is called when the current window is exhausted. It must
	// call SetWindow with a new (possibly larger, possibly repositioned)
	// window and return the number of bytes now available to read, or an
	// error. Returning 0 with a nil error means end of stream.
	Underflow() (int, error)

	// Seek repositions the stream and returns the new absolute position.
	Seek(where Anchor, offset int64) (int64, error)

	// Tell reports a position without moving the cursor.
	Tell(where Anchor) (int64, error)
}

// In is the read cursor over a byte source: a window [0, len(win)) of
// bytes whose first byte corresponds to file/sequence position baseOffset,
// with next the index of the next unread byte in that window.
type In struct {
	baseOffset int64
	win        []byte
	next       int
	hooks      InputHooks
}

// Init binds the hooks implementation. Must be called once before any
// other method, typically from the embedding adapter's constructor.
func (s *In) Init(hooks InputHooks) {
	s.hooks = hooks
}

// SetWindow replaces the current window. Called by InputHooks.Underflow
// (and by Seek implementations) to publish newly loaded bytes.
func (s *In) SetWindow(win []byte, next int, baseOffset int64) {
	s.win = win
	s.next = next
	s.baseOffset = baseOffset
}

// Window returns the current window and read cursor, for adapters that
// need to inspect what is already loaded before deciding how to refill.
func (s *In) Window() (win []byte, next int, baseOffset int64) {
	return s.win, s.next, s.baseOffset
}

// Position returns the absolute position of the next byte to be read.
func (s *In) Position() int64 {
	return s.baseOffset + int64(s.next)
}

func (s *In) underflow() (int, error) {
	return s.hooks.Underflow()
}

// Get reads and returns one byte, advancing the cursor.
func (s *In) Get() (byte, error) {
	if s.next >= len(s.win) {
		avail, err := s.underflow()
		if err != nil {
			return 0, err
		}
		if avail < 1 {
			return 0, corerr.ErrReadPastEndOfStream
		}
	}
	b := s.win[s.next]
	s.next++
	return b, nil
}

// Peek returns the next byte without advancing the cursor.
func (s *In) Peek() (byte, error) {
	if s.next >= len(s.win) {
		avail, err := s.underflow()
		if err != nil {
			return 0, err
		}
		if avail < 1 {
			return 0, corerr.ErrReadPastEndOfStream
		}
	}
	return s.win[s.next], nil
}

// GetNInto copies up to n bytes into dst (which must have length >= n),
// refilling the window as needed, and returns the number of bytes actually
// copied. A short count with a nil error means end of stream was reached.
func (s *In) GetNInto(dst []byte, n int) (int, error) {
	got := 0
	for got < n {
		avail := len(s.win) - s.next
		if avail < 1 {
			more, err := s.underflow()
			if err != nil {
				return got, err
			}
			if more < 1 {
				break
			}
			avail = len(s.win) - s.next
		}
		chunk := n - got
		if chunk > avail {
			chunk = avail
		}
		copy(dst[got:got+chunk], s.win[s.next:s.next+chunk])
		s.next += chunk
		got += chunk
	}
	return got, nil
}

// GetN returns exactly n bytes as a new Buffer, or fewer if the stream ran
// out first (Buffer.Len() < n signals that). When the whole request is
// already resident in the current window, the returned Buffer shares that
// window's backing array under CopyOnWrite rather than copying — safe
// because In never mutates bytes behind s.next once yielded.
func (s *In) GetN(n int) (buffer.Buffer, error) {
	if avail := len(s.win) - s.next; avail >= n {
		b := buffer.FromRaw(s.win[s.next:s.next+n], buffer.CopyOnWrite)
		s.next += n
		return b, nil
	}
	dst := make([]byte, n)
	got, err := s.GetNInto(dst, n)
	if got < n {
		dst = dst[:got]
	}
	return buffer.FromRaw(dst, buffer.CopyOnWrite), err
}

// Seek repositions the stream per anchor/offset semantics: Begin sets the
// absolute position to offset, Current adds offset to the current
// position, End sets it to size + offset. Returns corerr.ErrInvalidSeek if
// the hook rejects the target.
func (s *In) Seek(where Anchor, offset int64) (int64, error) {
	return s.hooks.Seek(where, offset)
}

// Tell reports the position corresponding to anchor without moving the
// cursor.
func (s *In) Tell(where Anchor) (int64, error) {
	return s.hooks.Tell(where)
}
