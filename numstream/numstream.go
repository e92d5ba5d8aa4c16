// Package numstream implements an endianness-aware typed get/put layer
// over a stream-buffer, mirroring a put_num/get_num family: each value is
// laid out in the configured byte order by encoding/binary, with no check
// of the platform's native order.
package numstream

import (
	"encoding/binary"
	"math"

	"go.nodeoze.dev/core/stream"
)

// Order selects the wire byte order for typed values. The default is
// big-endian.
type Order = binary.ByteOrder

var (
	BigEndian    = binary.BigEndian
	LittleEndian = binary.LittleEndian
)

// Writer puts typed numeric values onto an *stream.Out in a configured
// byte order.
type Writer struct {
	out   *stream.Out
	order Order
}

// NewWriter returns a Writer over out using order (big-endian if nil).
func NewWriter(out *stream.Out, order Order) *Writer {
	if order == nil {
		order = BigEndian
	}
	return &Writer{out: out, order: order}
}

func (w *Writer) PutUint8(v uint8) error  { return w.out.Put(v) }
func (w *Writer) PutInt8(v int8) error    { return w.out.Put(byte(v)) }
func (w *Writer) PutBool(v bool) error {
	if v {
		return w.out.Put(1)
	}
	return w.out.Put(0)
}

func (w *Writer) PutUint16(v uint16) error {
	var b [2]byte
	w.order.PutUint16(b[:], v)
	return w.out.PutN(b[:])
}

func (w *Writer) PutInt16(v int16) error { return w.PutUint16(uint16(v)) }

func (w *Writer) PutUint32(v uint32) error {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	return w.out.PutN(b[:])
}

func (w *Writer) PutInt32(v int32) error { return w.PutUint32(uint32(v)) }

func (w *Writer) PutUint64(v uint64) error {
	var b [8]byte
	w.order.PutUint64(b[:], v)
	return w.out.PutN(b[:])
}

func (w *Writer) PutInt64(v int64) error { return w.PutUint64(uint64(v)) }

func (w *Writer) PutFloat32(v float32) error {
	return w.PutUint32(math.Float32bits(v))
}

func (w *Writer) PutFloat64(v float64) error {
	return w.PutUint64(math.Float64bits(v))
}

// Reader gets typed numeric values from a *stream.In in a configured byte
// order.
type Reader struct {
	in    *stream.In
	order Order
}

// NewReader returns a Reader over in using order (big-endian if nil).
func NewReader(in *stream.In, order Order) *Reader {
	if order == nil {
		order = BigEndian
	}
	return &Reader{in: in, order: order}
}

func (r *Reader) GetUint8() (uint8, error) { return r.in.Get() }

func (r *Reader) GetInt8() (int8, error) {
	b, err := r.in.Get()
	return int8(b), err
}

func (r *Reader) GetBool() (bool, error) {
	b, err := r.in.Get()
	return b != 0, err
}

func (r *Reader) GetUint16() (uint16, error) {
	var b [2]byte
	if _, err := r.in.GetNInto(b[:], 2); err != nil {
		return 0, err
	}
	return r.order.Uint16(b[:]), nil
}

func (r *Reader) GetInt16() (int16, error) {
	v, err := r.GetUint16()
	return int16(v), err
}

func (r *Reader) GetUint32() (uint32, error) {
	var b [4]byte
	if _, err := r.in.GetNInto(b[:], 4); err != nil {
		return 0, err
	}
	return r.order.Uint32(b[:]), nil
}

func (r *Reader) GetInt32() (int32, error) {
	v, err := r.GetUint32()
	return int32(v), err
}

func (r *Reader) GetUint64() (uint64, error) {
	var b [8]byte
	if _, err := r.in.GetNInto(b[:], 8); err != nil {
		return 0, err
	}
	return r.order.Uint64(b[:]), nil
}

func (r *Reader) GetInt64() (int64, error) {
	v, err := r.GetUint64()
	return int64(v), err
}

func (r *Reader) GetFloat32() (float32, error) {
	v, err := r.GetUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) GetFloat64() (float64, error) {
	v, err := r.GetUint64()
	return math.Float64frombits(v), err
}
