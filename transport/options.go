package transport

import (
	"encoding/binary"
	"time"
)

// Protocol describes whether the underlying transport already preserves
// message boundaries.
type Protocol uint8

const (
	// BinaryStream transports (e.g. a byte-oriented pipe or TCP-like conn)
	// do not preserve boundaries; a length prefix is added.
	BinaryStream Protocol = 1
	// SeqPacket transports preserve boundaries; framing is pass-through.
	SeqPacket Protocol = 2
	// Datagram transports preserve boundaries; framing is pass-through.
	Datagram Protocol = 3
)

func (p Protocol) preservesBoundary() bool {
	return p == SeqPacket || p == Datagram
}

// Options configures a Reader/Writer/ReadWriter's framing behavior.
type Options struct {
	ReadByteOrder  binary.ByteOrder
	WriteByteOrder binary.ByteOrder
	ReadProtocol   Protocol
	WriteProtocol  Protocol

	// ReadLimit caps the accepted payload size in bytes. Zero means no
	// limit beyond the wire format's own 2^56-1 ceiling.
	ReadLimit int

	// RetryDelay governs how a would-block from the underlying conn is
	// handled: negative returns ErrWouldBlock to the caller immediately,
	// zero yields the scheduler and retries, positive sleeps and retries.
	RetryDelay time.Duration
}

var defaultOptions = Options{
	ReadByteOrder:  binary.BigEndian,
	WriteByteOrder: binary.BigEndian,
	ReadProtocol:   BinaryStream,
	WriteProtocol:  BinaryStream,
	RetryDelay:     -1,
}

// Option mutates an Options value at construction time.
type Option func(*Options)

func WithByteOrder(order binary.ByteOrder) Option {
	return func(o *Options) {
		o.ReadByteOrder = order
		o.WriteByteOrder = order
	}
}

func WithReadByteOrder(order binary.ByteOrder) Option {
	return func(o *Options) { o.ReadByteOrder = order }
}

func WithWriteByteOrder(order binary.ByteOrder) Option {
	return func(o *Options) { o.WriteByteOrder = order }
}

func WithProtocol(p Protocol) Option {
	return func(o *Options) {
		o.ReadProtocol = p
		o.WriteProtocol = p
	}
}

func WithReadProtocol(p Protocol) Option {
	return func(o *Options) { o.ReadProtocol = p }
}

func WithWriteProtocol(p Protocol) Option {
	return func(o *Options) { o.WriteProtocol = p }
}

func WithReadLimit(limit int) Option {
	return func(o *Options) { o.ReadLimit = limit }
}

// WithRetryDelay sets the wait policy used when the underlying conn
// returns ErrWouldBlock.
func WithRetryDelay(d time.Duration) Option {
	return func(o *Options) { o.RetryDelay = d }
}

// WithBlock enables cooperative blocking: yield and retry on ErrWouldBlock
// rather than surfacing it to the caller.
func WithBlock() Option {
	return func(o *Options) { o.RetryDelay = 0 }
}

// WithNonblock surfaces ErrWouldBlock to the caller instead of retrying.
// This is the default.
func WithNonblock() Option {
	return func(o *Options) { o.RetryDelay = -1 }
}
