package bstream

import (
	"encoding/binary"
	"math"

	"go.nodeoze.dev/core/corerr"
	"go.nodeoze.dev/core/stream"
)

// Writer encodes typed values onto a *stream.Out using bstream's
// type-tagged wire format. The wire byte order is always big-endian,
// fixed by the format itself, independent of any numstream.Order a
// caller might use elsewhere.
type Writer struct {
	out *stream.Out
	ctx *Context
}

// NewWriter returns a Writer over out using ctx for polymorphic and error
// dispatch. ctx may be nil if the stream never writes polymorphic objects
// or error codes.
func NewWriter(out *stream.Out, ctx *Context) *Writer {
	return &Writer{out: out, ctx: ctx}
}

func (w *Writer) putTag(t typecode) error { return w.out.Put(byte(t)) }

// WriteNil writes the nil tag.
func (w *Writer) WriteNil() error { return w.putTag(tagNil) }

// WriteBool writes a bool_true/bool_false tag.
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.putTag(tagTrue)
	}
	return w.putTag(tagFalse)
}

// WriteUint writes v in the smallest canonical encoding: positive fixint
// when it fits, else the smallest of uint_8/16/32/64.
func (w *Writer) WriteUint(v uint64) error {
	switch {
	case v <= uint64(positiveFixintMax):
		return w.out.Put(byte(v))
	case v <= math.MaxUint8:
		if err := w.putTag(tagUint8); err != nil {
			return err
		}
		return w.out.Put(byte(v))
	case v <= math.MaxUint16:
		return w.putFixed(tagUint16, uint64(v), 2)
	case v <= math.MaxUint32:
		return w.putFixed(tagUint32, uint64(v), 4)
	default:
		return w.putFixed(tagUint64, v, 8)
	}
}

// WriteInt writes v in the smallest canonical encoding: fixint (positive
// or negative) when it fits, else the smallest of int_8/16/32/64.
func (w *Writer) WriteInt(v int64) error {
	switch {
	case v >= 0 && v <= int64(positiveFixintMax):
		return w.out.Put(byte(v))
	case v < 0 && v >= -32:
		return w.out.Put(byte(v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		if err := w.putTag(tagInt8); err != nil {
			return err
		}
		return w.out.Put(byte(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return w.putFixed(tagInt16, uint64(uint16(v)), 2)
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return w.putFixed(tagInt32, uint64(uint32(v)), 4)
	default:
		return w.putFixed(tagInt64, uint64(v), 8)
	}
}

func (w *Writer) putFixed(tag typecode, v uint64, width int) error {
	if err := w.putTag(tag); err != nil {
		return err
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v<<uint((8-width)*8))
	return w.out.PutN(b[:width])
}

// WriteFloat32 writes a float_32-tagged value.
func (w *Writer) WriteFloat32(v float32) error {
	return w.putFixed(tagFloat32, uint64(math.Float32bits(v)), 4)
}

// WriteFloat64 writes a float_64-tagged value.
func (w *Writer) WriteFloat64(v float64) error {
	return w.putFixed(tagFloat64, math.Float64bits(v), 8)
}

// WriteString writes s as fixstr/str_8/16/32.
func (w *Writer) WriteString(s string) error {
	n := len(s)
	switch {
	case n <= int(fixstrMax-fixstrBase):
		if err := w.out.Put(byte(fixstrBase) + byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint8:
		if err := w.putTag(tagStr8); err != nil {
			return err
		}
		if err := w.out.Put(byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint16:
		if err := w.putTag(tagStr16); err != nil {
			return err
		}
		if err := w.putU16(uint16(n)); err != nil {
			return err
		}
	default:
		if err := w.putTag(tagStr32); err != nil {
			return err
		}
		if err := w.putU32(uint32(n)); err != nil {
			return err
		}
	}
	return w.out.PutN([]byte(s))
}

// WriteBinary writes b as bin_8/16/32.
func (w *Writer) WriteBinary(b []byte) error {
	n := len(b)
	switch {
	case n <= math.MaxUint8:
		if err := w.putTag(tagBin8); err != nil {
			return err
		}
		if err := w.out.Put(byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint16:
		if err := w.putTag(tagBin16); err != nil {
			return err
		}
		if err := w.putU16(uint16(n)); err != nil {
			return err
		}
	default:
		if err := w.putTag(tagBin32); err != nil {
			return err
		}
		if err := w.putU32(uint32(n)); err != nil {
			return err
		}
	}
	return w.out.PutN(b)
}

func (w *Writer) putU16(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return w.out.PutN(b[:])
}

func (w *Writer) putU32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return w.out.PutN(b[:])
}

// WriteArrayHeader writes a fixarray/array_16/32 header for n following
// elements.
func (w *Writer) WriteArrayHeader(n int) error {
	switch {
	case n <= int(fixarrayMax-fixarrayBase):
		return w.out.Put(byte(fixarrayBase) + byte(n))
	case n <= math.MaxUint16:
		if err := w.putTag(tagArray16); err != nil {
			return err
		}
		return w.putU16(uint16(n))
	default:
		if err := w.putTag(tagArray32); err != nil {
			return err
		}
		return w.putU32(uint32(n))
	}
}

// WriteMapHeader writes a fixmap/map_16/32 header for n following
// key/value pairs.
func (w *Writer) WriteMapHeader(n int) error {
	switch {
	case n <= int(fixmapMax-fixmapBase):
		return w.out.Put(byte(fixmapBase) + byte(n))
	case n <= math.MaxUint16:
		if err := w.putTag(tagMap16); err != nil {
			return err
		}
		return w.putU16(uint16(n))
	default:
		if err := w.putTag(tagMap32); err != nil {
			return err
		}
		return w.putU32(uint32(n))
	}
}

// WriteError encodes err as a 2-array [category_index, value], using ctx
// to map err to a registered category.
func (w *Writer) WriteError(err error) error {
	if w.ctx == nil {
		return corerr.ErrInvalidArgument
	}
	categoryIndex, value, ok := w.ctx.encodeError(err)
	if !ok {
		return corerr.ErrInvalidArgument
	}
	if writeErr := w.WriteArrayHeader(2); writeErr != nil {
		return writeErr
	}
	if writeErr := w.WriteUint(uint64(categoryIndex)); writeErr != nil {
		return writeErr
	}
	return w.WriteInt(value)
}

// WriteNullPointer writes the reserved 2-array [reservedNilTag, nil]
// encoding for a polymorphic field that is absent.
func (w *Writer) WriteNullPointer() error {
	if err := w.WriteArrayHeader(2); err != nil {
		return err
	}
	if err := w.WriteUint(reservedNilTag); err != nil {
		return err
	}
	return w.WriteNil()
}

// WritePolymorphic writes v as an ext envelope: the registered type tag
// for v (via ctx), followed by v's own serialization written by encode.
func (w *Writer) WritePolymorphic(v any, encode func(*Writer) error) error {
	if w.ctx == nil {
		return corerr.ErrInvalidArgument
	}
	tag, ok := w.ctx.tagForValue(v)
	if !ok {
		return corerr.ErrInvalidArgument
	}

	body := NewWriter(w.out, w.ctx)
	// Encode into a scratch memory output so the ext header can carry an
	// exact length, matching the fixed-size-prefix-then-payload shape
	// requires for every variable-length tag.
	scratch, err := newScratchOutput()
	if err != nil {
		return err
	}
	body.out = scratch.out
	if err := encode(body); err != nil {
		return err
	}
	payload, err := scratch.bytes()
	if err != nil {
		return err
	}

	if err := w.writeExtHeader(len(payload), tag); err != nil {
		return err
	}
	return w.out.PutN(payload)
}

func (w *Writer) writeExtHeader(n int, tag uint8) error {
	switch {
	case n <= math.MaxUint8:
		if err := w.putTag(tagExt8); err != nil {
			return err
		}
		if err := w.out.Put(byte(n)); err != nil {
			return err
		}
	case n <= math.MaxUint16:
		if err := w.putTag(tagExt16); err != nil {
			return err
		}
		if err := w.putU16(uint16(n)); err != nil {
			return err
		}
	default:
		if err := w.putTag(tagExt32); err != nil {
			return err
		}
		if err := w.putU32(uint32(n)); err != nil {
			return err
		}
	}
	return w.out.Put(tag)
}
