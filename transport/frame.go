package transport

import (
	"encoding/binary"
	"io"
	"runtime"
	"time"
)

const (
	headerLen   = 1
	maxShortLen = 1<<8 - 3 // largest length encoded directly in the header byte
	maxLen16    = 1<<16 - 1
	maxLen56    = 1<<56 - 1
)

// codec is the per-connection framing state machine. A Reader and a
// Writer built over the same connection (via NewReadWriter) share one
// codec but never its read/write progress fields, since a stalled read
// (ErrWouldBlock mid-header) and a stalled write must not corrupt each
// other's resume state.
type codec struct {
	rd         io.Reader
	wr         io.Writer
	readOrder  binary.ByteOrder
	writeOrder binary.ByteOrder
	readProto  Protocol
	writeProto Protocol
	readLimit  int64
	retryDelay time.Duration

	rHeader [8]byte
	rOffset int64 // bytes of header+payload consumed for the in-flight read
	rLength int64 // payload length of the in-flight read, once known

	wHeader [8]byte
	wOffset int64
	wLength int64
}

func newCodec(r io.Reader, w io.Writer, opts ...Option) *codec {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &codec{
		rd:         r,
		wr:         w,
		readOrder:  o.ReadByteOrder,
		writeOrder: o.WriteByteOrder,
		readProto:  o.ReadProtocol,
		writeProto: o.WriteProtocol,
		readLimit:  int64(o.ReadLimit),
		retryDelay: o.RetryDelay,
	}
}

// waitOnWouldBlock reports whether the caller should retry after the
// underlying conn returned ErrWouldBlock, sleeping or yielding per the
// configured retry policy.
func (c *codec) waitOnWouldBlock() bool {
	switch {
	case c.retryDelay < 0:
		return false
	case c.retryDelay == 0:
		runtime.Gosched()
		return true
	default:
		time.Sleep(c.retryDelay)
		return true
	}
}

func (c *codec) readOnce(p []byte) (int, error) {
	for {
		n, err := c.rd.Read(p)
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrNoProgress
		}
		if n > 0 || err != ErrWouldBlock {
			return n, err
		}
		if !c.waitOnWouldBlock() {
			return n, err
		}
	}
}

func (c *codec) writeOnce(p []byte) (int, error) {
	for {
		n, err := c.wr.Write(p)
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrShortWrite
		}
		if n > 0 || err != ErrWouldBlock {
			return n, err
		}
		if !c.waitOnWouldBlock() {
			return n, err
		}
	}
}

func (c *codec) read(p []byte) (int, error) {
	if c.rd == nil {
		return 0, ErrInvalidArgument
	}
	if c.readProto.preservesBoundary() {
		n, err := c.readOnce(p)
		if c.readLimit > 0 && int64(n) > c.readLimit {
			return n, ErrTooLong
		}
		return n, err
	}
	return c.readStream(p)
}

func (c *codec) write(p []byte) (int, error) {
	if c.wr == nil {
		return 0, ErrInvalidArgument
	}
	if int64(len(p)) > maxLen56 {
		return 0, ErrTooLong
	}
	if c.writeProto.preservesBoundary() {
		n, err := c.writeOnce(p)
		if err != nil {
			return n, err
		}
		if n != len(p) {
			return n, io.ErrShortWrite
		}
		return n, nil
	}
	return c.writeStream(p)
}

// extendedLenWidth reports how many bytes beyond the header byte encode
// the payload length, given that byte's value.
func extendedLenWidth(headerByte byte) int64 {
	switch headerByte {
	case maxShortLen + 1:
		return 2
	case maxShortLen + 2:
		return 7
	default:
		return 0
	}
}

func (c *codec) readStream(p []byte) (int, error) {
	for c.rOffset < headerLen {
		n, err := c.readOnce(c.rHeader[c.rOffset:headerLen])
		c.rOffset += int64(n)
		if err != nil {
			if err == io.EOF {
				if c.rOffset == 0 {
					return 0, io.EOF
				}
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
	}

	exLen := extendedLenWidth(c.rHeader[0])
	for c.rOffset < headerLen+exLen {
		n, err := c.readOnce(c.rHeader[c.rOffset : headerLen+exLen])
		c.rOffset += int64(n)
		if err != nil {
			if err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}
	}

	switch exLen {
	case 2:
		c.rLength = int64(c.readOrder.Uint16(c.rHeader[headerLen : headerLen+exLen]))
	case 7:
		u64 := c.readOrder.Uint64(c.rHeader[:])
		if c.readOrder == binary.LittleEndian {
			c.rLength = int64(u64 >> 8)
		} else {
			c.rLength = int64(u64 & maxLen56)
		}
	default:
		c.rLength = int64(c.rHeader[0])
	}

	if c.rLength < 0 || c.rLength > maxLen56 {
		return 0, ErrTooLong
	}
	if c.readLimit > 0 && c.rLength > c.readLimit {
		return 0, ErrTooLong
	}
	if int64(len(p)) < c.rLength {
		return 0, io.ErrShortBuffer
	}

	hdrSize := headerLen + exLen
	n := 0
	for c.rOffset < hdrSize+c.rLength {
		off := c.rOffset - hdrSize
		rn, err := c.readOnce(p[off:c.rLength])
		c.rOffset += int64(rn)
		n += rn
		if err != nil {
			if err == io.EOF {
				return n, io.ErrUnexpectedEOF
			}
			return n, err
		}
	}

	c.rOffset, c.rLength = 0, 0
	return n, nil
}

func (c *codec) writeStream(p []byte) (int, error) {
	if c.wOffset == 0 {
		c.wLength = int64(len(p))
		switch {
		case c.wLength <= maxShortLen:
			c.wHeader[0] = byte(c.wLength)
		case c.wLength <= maxLen16:
			c.wHeader[0] = maxShortLen + 1
			c.writeOrder.PutUint16(c.wHeader[headerLen:headerLen+2], uint16(c.wLength))
		default:
			if c.writeOrder == binary.LittleEndian {
				c.writeOrder.PutUint64(c.wHeader[:], uint64(c.wLength)<<8)
			} else {
				c.writeOrder.PutUint64(c.wHeader[:], uint64(c.wLength)&maxLen56)
			}
			c.wHeader[0] = maxShortLen + 2
		}
	} else if c.wLength != int64(len(p)) {
		return 0, io.ErrShortWrite
	}

	exLen := extendedLenWidth(c.wHeader[0])
	hdrSize := headerLen + exLen

	for c.wOffset < hdrSize {
		n, err := c.writeOnce(c.wHeader[c.wOffset:hdrSize])
		c.wOffset += int64(n)
		if err != nil {
			return 0, err
		}
	}

	n := 0
	for c.wOffset < hdrSize+c.wLength {
		off := c.wOffset - hdrSize
		wn, err := c.writeOnce(p[off:])
		c.wOffset += int64(wn)
		n += wn
		if err != nil {
			return n, err
		}
	}

	c.wOffset, c.wLength = 0, 0
	return n, nil
}
