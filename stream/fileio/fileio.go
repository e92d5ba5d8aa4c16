// Package fileio implements stream-buffer input and output adapters
// backed by an *os.File and a fixed-size staging window, grounded on
// _examples/original_source/include/nodeoze/bstream/obfilebuf.h's
// positional-write/staging-window design, re-expressed over
// stream.In/stream.Out hooks.
package fileio

import (
	"io"
	"log/slog"
	"os"

	"github.com/docker/go-units"

	"go.nodeoze.dev/core/corerr"
	"go.nodeoze.dev/core/stream"
)

// OpenMode selects where the stream positions itself on open, matching
// the four adapter modes.
type OpenMode uint8

const (
	AtBegin OpenMode = iota
	AtEnd
	Append
	Truncate
)

// DefaultWindowSize is the staging window size used when none is supplied,
// matching obfilebuf.h's NODEOZE_BSTREAM_DEFAULT_OBFILEBUF_SIZE.
const DefaultWindowSize = 16384

// Output is a writable stream-buffer over a file, staged through a
// fixed-size in-memory window flushed via positional writes.
type Output struct {
	stream.Out
	file       *os.File
	mode       OpenMode
	windowSize int
	log        *slog.Logger
}

// OpenOutput opens path for writing per mode, with a staging window of
// windowSize bytes (DefaultWindowSize if zero).
func OpenOutput(path string, mode OpenMode, windowSize int, log *slog.Logger) (*Output, error) {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if log == nil {
		log = slog.Default()
	}
	flags := os.O_RDWR | os.O_CREATE
	switch mode {
	case Truncate:
		flags |= os.O_TRUNC
	case Append:
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, corerr.WrapIO("open", err)
	}

	var startOffset int64
	switch mode {
	case AtEnd, Append:
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, corerr.WrapIO("stat", err)
		}
		startOffset = info.Size()
	}

	o := &Output{file: f, mode: mode, windowSize: windowSize, log: log}
	o.Out.Init(o)
	o.Out.SetWindow(make([]byte, windowSize), 0, startOffset)
	o.Out.SetHighWatermark(startOffset)
	o.Out.SetLastTouched(startOffset)
	return o, nil
}

func (o *Output) writeAt(data []byte, offset int64) error {
	var n int
	var err error
	if o.mode == Append {
		// Go refuses WriteAt on a file opened O_APPEND; every write already
		// lands at EOF regardless of offset, so a plain Write suffices.
		n, err = o.file.Write(data)
	} else {
		n, err = o.file.WriteAt(data, offset)
	}
	if err != nil {
		return corerr.WrapIO("write", err)
	}
	if n != len(data) {
		return corerr.WrapIO("write", io.ErrShortWrite)
	}
	return nil
}

func (o *Output) Flush() error {
	win, next, base := o.Out.Window()
	start, end := o.Out.DirtyRange()
	if end > next {
		end = next
	}
	if end > start {
		if err := o.writeAt(win[start:end], base+int64(start)); err != nil {
			return err
		}
	}
	// Slide the staging window forward past what was just flushed.
	pos := base + int64(next)
	o.Out.SetWindow(win, 0, pos)
	// This method shadows stream.Out.Flush for callers holding an *Output,
	// so it records the flush in Out's bookkeeping itself.
	if o.Out.Dirty() {
		if pos > o.Out.HighWatermark() {
			o.Out.SetHighWatermark(pos)
		}
		o.Out.SetLastTouched(pos)
		o.Out.ClearDirty()
	}
	return nil
}

func (o *Output) Overflow(requested int) error {
	win, _, base := o.Out.Window()
	if requested > len(win) {
		win = make([]byte, requested)
	}
	o.Out.SetWindow(win, 0, base)
	return nil
}

func (o *Output) Seek(where stream.Anchor, offset int64) (int64, error) {
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
	win, _, _ := o.Out.Window()
	o.Out.SetWindow(win, 0, target)
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

// Touch extends the file to the current position via truncateExtend
// (platform-specific; see touch_linux.go / touch_other.go), producing a
// sparse hole rather than writing explicit zero bytes.
func (o *Output) Touch() error {
	pos := o.Out.Position()
	hwm := o.Out.HighWatermark()
	if pos > hwm {
		if err := truncateExtend(o.file, pos); err != nil {
			return err
		}
		o.log.Info("extended log file for hole", "path", o.file.Name(), "size", units.BytesSize(float64(pos)))
		o.Out.SetHighWatermark(pos)
	}
	o.Out.SetLastTouched(pos)
	return nil
}

// Close flushes any dirty bytes and closes the underlying file.
func (o *Output) Close() error {
	if err := o.Out.Flush(); err != nil {
		return err
	}
	return corerr.WrapIO("close", o.file.Close())
}

// Size returns the current file size (the high watermark).
func (o *Output) Size() int64 { return o.Out.HighWatermark() }

// Input is a read-only stream-buffer over a file, staged through a
// fixed-size window refilled via positional reads.
type Input struct {
	stream.In
	file       *os.File
	windowSize int
	size       int64
}

// OpenInput opens path read-only, positioned at the start.
func OpenInput(path string, windowSize int) (*Input, error) {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, corerr.WrapIO("open", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, corerr.WrapIO("stat", err)
	}
	in := &Input{file: f, windowSize: windowSize, size: info.Size()}
	in.In.Init(in)
	in.In.SetWindow(nil, 0, 0)
	return in, nil
}

func (i *Input) Underflow() (int, error) {
	pos := i.In.Position()
	if pos >= i.size {
		return 0, nil
	}
	buf := make([]byte, i.windowSize)
	n, err := i.file.ReadAt(buf, pos)
	if err != nil && err != io.EOF {
		return 0, corerr.WrapIO("read", err)
	}
	i.In.SetWindow(buf[:n], 0, pos)
	return n, nil
}

func (i *Input) Seek(where stream.Anchor, offset int64) (int64, error) {
	var target int64
	switch where {
	case stream.Begin:
		target = offset
	case stream.Current:
		target = i.In.Position() + offset
	case stream.End:
		target = i.size + offset
	default:
		return 0, corerr.ErrInvalidArgument
	}
	if target < 0 || target > i.size {
		return 0, corerr.ErrInvalidSeek
	}
	i.In.SetWindow(nil, 0, target)
	return target, nil
}

func (i *Input) Tell(where stream.Anchor) (int64, error) {
	switch where {
	case stream.Begin:
		return 0, nil
	case stream.End:
		return i.size, nil
	default:
		return i.In.Position(), nil
	}
}

// Close closes the underlying file.
func (i *Input) Close() error {
	return corerr.WrapIO("close", i.file.Close())
}
