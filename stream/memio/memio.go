// Package memio implements stream-buffer input and output adapters backed
// by an in-memory buffer.Buffer, grounded on
// _examples/original_source/include/nodeoze/membuf.h's omembuf/imembuf
// growth and high-watermark tracking, re-expressed over stream.In/stream.Out
// hooks instead of a std::streambuf virtual hierarchy.
package memio

import (
	"go.nodeoze.dev/core/buffer"
	"go.nodeoze.dev/core/corerr"
	"go.nodeoze.dev/core/stream"
)

// growthFactor matches membuf.h's accommodate_put: grow to at least 1.5x
// the current capacity, or enough to satisfy the immediate request,
// whichever is larger.
const growthFactor = 3.0 / 2.0

func grownCapacity(current, requested int) int {
	grown := int(float64(current) * growthFactor)
	if grown < current+requested {
		grown = current + requested
	}
	if grown < 16 {
		grown = 16
	}
	return grown
}

// Input is a read-only stream-buffer over an in-memory buffer.Buffer. The
// entire buffer is installed as the window at construction (and again by
// Seek), so Underflow always reports end of stream: there is no producer
// to wait on.
type Input struct {
	stream.In
	src     buffer.Buffer
	bufSize int64
}

// NewInput returns an Input reading the logical view of src.
func NewInput(src buffer.Buffer) *Input {
	in := &Input{src: src, bufSize: int64(src.Len())}
	in.In.Init(in)
	in.In.SetWindow(src.Bytes(), 0, 0)
	return in
}

func (i *Input) Underflow() (int, error) {
	// The whole buffer was already installed as the window at
	// construction or after a seek; reaching here means the window is
	// genuinely exhausted.
	return 0, nil
}

func (i *Input) Seek(where stream.Anchor, offset int64) (int64, error) {
	var target int64
	switch where {
	case stream.Begin:
		target = offset
	case stream.Current:
		target = i.In.Position() + offset
	case stream.End:
		target = i.bufSize + offset
	default:
		return 0, corerr.ErrInvalidArgument
	}
	if target < 0 || target > i.bufSize {
		return 0, corerr.ErrInvalidSeek
	}
	i.In.SetWindow(i.src.Bytes(), int(target), 0)
	return target, nil
}

func (i *Input) Tell(where stream.Anchor) (int64, error) {
	switch where {
	case stream.Begin:
		return 0, nil
	case stream.End:
		return i.bufSize, nil
	default:
		return i.In.Position(), nil
	}
}

// Output is a writable stream-buffer over an in-memory buffer.Buffer that
// grows on overflow and supports seeking (including past the high
// watermark, producing a hole per stream.Out's touch contract).
type Output struct {
	stream.Out
	buf buffer.Buffer
}

// NewOutput returns an empty, growable Output.
func NewOutput(policy buffer.Policy) *Output {
	o := &Output{}
	b, _ := buffer.NewSize(0, policy)
	o.buf = b
	o.Out.Init(o)
	o.Out.SetWindow(nil, 0, 0)
	return o
}

func (o *Output) Overflow(requested int) error {
	win, next, base := o.Out.Window()
	newCap := grownCapacity(len(win), requested)
	if err := o.buf.Size(newCap); err != nil {
		return err
	}
	grown := o.buf.Bytes()
	copy(grown, win[:next])
	o.Out.SetWindow(grown, next, base)
	return nil
}

// Flush records the dirty bytes as flushed. It shadows stream.Out.Flush for
// callers holding an *Output, so it updates the high watermark, last-touched
// position and dirty flag itself.
func (o *Output) Flush() error {
	// The window IS the buffer's storage; nothing external to sync to.
	if !o.Out.Dirty() {
		return nil
	}
	pos := o.Out.Position()
	if pos > o.Out.HighWatermark() {
		o.Out.SetHighWatermark(pos)
	}
	o.Out.SetLastTouched(pos)
	o.Out.ClearDirty()
	return nil
}

func (o *Output) Touch() error {
	win, next, base := o.Out.Window()
	pos := o.Out.Position()
	if int(pos) > len(win) {
		if err := o.Overflow(int(pos) - len(win)); err != nil {
			return err
		}
		win, next, base = o.Out.Window()
	}
	hwm := o.Out.HighWatermark()
	for p := hwm; p < pos; p++ {
		win[p] = 0
	}
	if int64(next) < pos {
		next = int(pos)
	}
	o.Out.SetWindow(win, next, base)
	o.Out.SetLastTouched(pos)
	return nil
}

func (o *Output) Seek(where stream.Anchor, offset int64) (int64, error) {
	win, _, base := o.Out.Window()
	var target int64
	switch where {
	case stream.Begin:
		target = offset
	case stream.Current:
		target = o.Out.Position() + offset
	case stream.End:
		target = o.Out.HighWatermark() + offset
	default:
		return 0, corerr.ErrInvalidArgument
	}
	if target < 0 {
		return 0, corerr.ErrInvalidSeek
	}
	if int(target) > len(win) {
		newCap := grownCapacity(len(win), int(target)-len(win))
		if err := o.buf.Size(newCap); err != nil {
			return 0, err
		}
		win = o.buf.Bytes()
	}
	o.Out.SetWindow(win, int(target), base)
	return target, nil
}

func (o *Output) Tell(where stream.Anchor) (int64, error) {
	switch where {
	case stream.Begin:
		return 0, nil
	case stream.End:
		return o.Out.HighWatermark(), nil
	default:
		return o.Out.Position(), nil
	}
}

func (o *Output) MakeWritable() error {
	o.Out.SetWritable(true)
	return nil
}

// GetBuffer returns the written range [0, high_watermark) as a buffer that
// shares storage with this Output's backing buffer.Buffer, except under the
// Exclusive policy, where the range is copied into a CopyOnWrite buffer. Matches the
// output-to-input handoff: a caller typically feeds this straight into
// NewInput to read back what was just written.
func (o *Output) GetBuffer() (buffer.Buffer, error) {
	hwm := int(o.Out.HighWatermark())
	return o.buf.Slice(0, hwm, false)
}
