package stream

import "go.nodeoze.dev/core/corerr"

// OutputHooks are the operations a concrete output adapter must supply.
// Out drives every write through these; an adapter embeds Out and
// implements OutputHooks on the embedding type.
type OutputHooks interface {
	// Overflow is called when the current window is full and at least
	// requested more bytes of room are needed. It must call SetWindow with
	// room for more writes (after flushing dirty bytes itself, or by
	// relying on Out.Flush already having been called — Out always flushes
	// immediately before invoking Overflow).
	Overflow(requested int) error

	// Flush durably synchronizes the dirty range [dirtyStart, next) — see
	// Out.DirtyRange — to the underlying sink. Called only when Out.Dirty()
	// is true.
	Flush() error

	// Touch is invoked immediately before the first dirty byte of a write
	// at a new position is recorded, when that position differs from
	// Out.LastTouched(). It must materialize (or otherwise account for) the
	// hole between Out.HighWatermark() and Out.Position(), then call
	// Out.SetLastTouched(Out.Position()).
	Touch() error

	// Seek repositions the stream and returns the new absolute position.
	Seek(where Anchor, offset int64) (int64, error)

	// Tell reports a position without moving the cursor.
	Tell(where Anchor) (int64, error)

	// MakeWritable transitions a read-only window to writable. Called only
	// when Out.Writable() is false.
	MakeWritable() error
}

// Out is the write cursor over a byte sink: a window [0, len(win)) whose
// first byte corresponds to sink position baseOffset, with next the index
// of the next byte to be written.
type Out struct {
	baseOffset    int64
	win           []byte
	next          int
	dirtyStart    int
	dirty         bool
	writable      bool
	highWatermark int64
	lastTouched   int64
	hooks         OutputHooks
}

// Init binds the hooks implementation and marks the stream writable.
// Typically called once from the embedding adapter's constructor.
func (s *Out) Init(hooks OutputHooks) {
	s.hooks = hooks
	s.writable = true
}

// SetWindow replaces the current window. Called by OutputHooks.Overflow
// and by Seek implementations.
func (s *Out) SetWindow(win []byte, next int, baseOffset int64) {
	s.win = win
	s.next = next
	s.baseOffset = baseOffset
}

// Window returns the current window and write cursor.
func (s *Out) Window() (win []byte, next int, baseOffset int64) {
	return s.win, s.next, s.baseOffset
}

// Position returns the absolute position of the next byte to be written.
func (s *Out) Position() int64 { return s.baseOffset + int64(s.next) }

// Dirty reports whether bytes have been written since the last flush.
func (s *Out) Dirty() bool { return s.dirty }

// DirtyRange returns the window indices [dirtyStart, next) of bytes
// written since the last flush. Valid only when Dirty() is true.
func (s *Out) DirtyRange() (start, end int) { return s.dirtyStart, s.next }

// SetDirtyStart records the window index at which the current dirty run
// began. Called internally; exposed so hook implementations that
// reorganize the window (e.g. after an overflow) can adjust it.
func (s *Out) SetDirtyStart(i int) { s.dirtyStart = i }

// ClearDirty marks the stream clean, normally called by a hook after it
// has durably persisted the dirty range itself (rare — Out.Flush already
// does this around the OutputHooks.Flush call).
func (s *Out) ClearDirty() { s.dirty = false }

// HighWatermark returns the largest position ever occupied by flushed
// (non-hole) data.
func (s *Out) HighWatermark() int64 { return s.highWatermark }

// SetHighWatermark overrides the high watermark directly. Used by adapters
// that restore state (e.g. reopening a file at its existing size).
func (s *Out) SetHighWatermark(v int64) { s.highWatermark = v }

// LastTouched returns the position at which the most recent touch or flush
// ended.
func (s *Out) LastTouched() int64 { return s.lastTouched }

// SetLastTouched records the position synchronized by the most recent
// touch or flush. OutputHooks.Touch implementations must call this.
func (s *Out) SetLastTouched(v int64) { s.lastTouched = v }

// Writable reports whether the stream currently accepts writes.
func (s *Out) Writable() bool { return s.writable }

// SetWritable marks the stream as accepting writes, called by
// OutputHooks.MakeWritable once it has prepared the sink.
func (s *Out) SetWritable(w bool) { s.writable = w }

func (s *Out) makeWritable() error {
	if s.writable {
		return nil
	}
	return s.hooks.MakeWritable()
}

// Flush synchronizes any dirty bytes to the sink. A no-op when not dirty.
func (s *Out) Flush() error {
	if !s.dirty {
		return nil
	}
	if err := s.hooks.Flush(); err != nil {
		return err
	}
	if s.Position() > s.highWatermark {
		s.highWatermark = s.Position()
	}
	s.lastTouched = s.Position()
	s.dirty = false
	return nil
}

// touch synchronizes (flush, harmless when already clean) and then, if the
// current position differs from the last touched position, invokes the
// adapter's hole-handling hook.
func (s *Out) touch() error {
	if err := s.Flush(); err != nil {
		return err
	}
	pos := s.Position()
	if s.lastTouched != pos {
		if err := s.hooks.Touch(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Out) overflow(requested int) error {
	if err := s.Flush(); err != nil {
		return err
	}
	if err := s.hooks.Overflow(requested); err != nil {
		return err
	}
	if s.next >= len(s.win) {
		return corerr.ErrNoBufferSpace
	}
	return nil
}

// Put writes one byte, materializing any pending hole first.
func (s *Out) Put(b byte) error {
	if err := s.makeWritable(); err != nil {
		return err
	}
	if !s.dirty {
		if err := s.touch(); err != nil {
			return err
		}
	}
	if s.next >= len(s.win) {
		if err := s.overflow(1); err != nil {
			return err
		}
	}
	if !s.dirty {
		s.dirtyStart = s.next
	}
	s.win[s.next] = b
	s.next++
	s.dirty = true
	return nil
}

// PutN writes all of src.
func (s *Out) PutN(src []byte) error {
	if err := s.makeWritable(); err != nil {
		return err
	}
	remaining := src
	for len(remaining) > 0 {
		if !s.dirty {
			if err := s.touch(); err != nil {
				return err
			}
		}
		if s.next >= len(s.win) {
			if err := s.overflow(len(remaining)); err != nil {
				return err
			}
		}
		if !s.dirty {
			s.dirtyStart = s.next
		}
		n := copy(s.win[s.next:], remaining)
		s.next += n
		s.dirty = true
		remaining = remaining[n:]
	}
	return nil
}

// FillN writes n copies of fillByte.
func (s *Out) FillN(fillByte byte, n int) error {
	if err := s.makeWritable(); err != nil {
		return err
	}
	remaining := n
	for remaining > 0 {
		if !s.dirty {
			if err := s.touch(); err != nil {
				return err
			}
		}
		if s.next >= len(s.win) {
			if err := s.overflow(remaining); err != nil {
				return err
			}
		}
		if !s.dirty {
			s.dirtyStart = s.next
		}
		chunk := len(s.win) - s.next
		if chunk > remaining {
			chunk = remaining
		}
		region := s.win[s.next : s.next+chunk]
		for i := range region {
			region[i] = fillByte
		}
		s.next += chunk
		s.dirty = true
		remaining -= chunk
	}
	return nil
}

// Seek repositions the stream per anchor/offset semantics, matching In's.
func (s *Out) Seek(where Anchor, offset int64) (int64, error) {
	return s.hooks.Seek(where, offset)
}

// Tell reports the position corresponding to anchor without moving the
// cursor.
func (s *Out) Tell(where Anchor) (int64, error) {
	return s.hooks.Tell(where)
}
