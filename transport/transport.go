// Package transport is the message-framing layer that raftlog's
// replicated entries (or any future RPC/notification transport over the
// log) would ride across a connection that does not already preserve
// message boundaries. It adds a compact length prefix on stream-oriented
// conns (BinaryStream) and is pass-through on conns that already
// preserve boundaries (SeqPacket/Datagram), guaranteeing that whatever
// bytes one side writes as a single message, the other side reads back
// as a single message.
//
// Wire format (BinaryStream mode): a 1-byte header, optional extended
// length bytes, then the payload. With L the payload length in bytes:
//   - 0 <= L <= 253: header[0] = L, no extended length bytes.
//   - 254 <= L <= 65535: header[0] = 0xFE, followed by 2 length bytes.
//   - 65536 <= L <= 2^56-1: header[0] = 0xFF, followed by 7 bytes
//     encoding the lower 56 bits of L.
//
// Both the header tag thresholds and the extended-length byte order are
// configurable only insofar as Options say so; the thresholds themselves
// are fixed by the format. Payloads above 2^56-1 bytes, or above a
// caller-set WithReadLimit, produce ErrTooLong.
//
// ErrWouldBlock/ErrMore surface code.hybscloud.com/iox's non-blocking
// control-flow sentinels unchanged, so a caller driving a non-blocking
// conn can distinguish "try again later" from a real failure without
// importing iox itself.
package transport

import (
	"io"

	"code.hybscloud.com/iox"
)

// NewReader returns an io.Reader that reads framed messages from r.
func NewReader(r io.Reader, opts ...Option) io.Reader {
	return &Reader{c: newCodec(r, nil, opts...)}
}

// NewWriter returns an io.Writer that writes framed messages to w.
func NewWriter(w io.Writer, opts ...Option) io.Writer {
	return &Writer{c: newCodec(nil, w, opts...)}
}

// NewReadWriter returns an io.ReadWriter that reads and writes framed
// messages over the same connection.
func NewReadWriter(r io.Reader, w io.Writer, opts ...Option) io.ReadWriter {
	c := newCodec(r, w, opts...)
	return &ReadWriter{Reader: &Reader{c: c}, Writer: &Writer{c: c}}
}

// NewPipe returns a synchronous in-memory framing connection, useful for
// wiring two in-process collaborators without a real socket.
func NewPipe(opts ...Option) (io.Reader, io.Writer) {
	r, w := io.Pipe()
	rw := NewReadWriter(r, w, opts...)
	return rw, rw
}

// Reader reads one framed message per Read call.
type Reader struct{ c *codec }

func (r *Reader) Read(p []byte) (int, error) { return r.c.read(p) }

// Writer writes one framed message per Write call.
type Writer struct{ c *codec }

func (w *Writer) Write(p []byte) (int, error) { return w.c.write(p) }

// ReadWriter groups a Reader and a Writer sharing one underlying conn.
type ReadWriter struct {
	*Reader
	*Writer
}

var (
	// ErrWouldBlock means no further progress is possible without
	// waiting; any returned byte count still reflects real progress.
	// Callers should retry later, or use WithBlock to retry internally.
	ErrWouldBlock = iox.ErrWouldBlock

	// ErrMore means the current completion is usable and more data from
	// the same ongoing operation will follow on the next call.
	ErrMore = iox.ErrMore
)
