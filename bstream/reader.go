package bstream

import (
	"encoding/binary"
	"math"

	"go.nodeoze.dev/core/buffer"
	"go.nodeoze.dev/core/corerr"
	"go.nodeoze.dev/core/stream"
	"go.nodeoze.dev/core/stream/memio"
)

// Reader decodes typed values from a *stream.In encoded in bstream's
// wire format.
type Reader struct {
	in  *stream.In
	ctx *Context
}

// NewReader returns a Reader over in using ctx for polymorphic and error
// dispatch. ctx may be nil if the stream never carries polymorphic
// objects or error codes.
func NewReader(in *stream.In, ctx *Context) *Reader {
	return &Reader{in: in, ctx: ctx}
}

func (r *Reader) peekTag() (typecode, error) {
	b, err := r.in.Peek()
	return typecode(b), err
}

func (r *Reader) getTag() (typecode, error) {
	b, err := r.in.Get()
	return typecode(b), err
}

func (r *Reader) get2() (uint16, error) {
	var b [2]byte
	if err := r.getFull(b[:], 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func (r *Reader) get4() (uint32, error) {
	var b [4]byte
	if err := r.getFull(b[:], 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (r *Reader) get8() (uint64, error) {
	var b [8]byte
	if err := r.getFull(b[:], 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// getFull reads exactly n bytes into dst, turning GetNInto's short-read-at-
// end-of-stream signal (a nil error with got < n) into an explicit error
// rather than letting a truncated envelope silently decode as zero bytes.
func (r *Reader) getFull(dst []byte, n int) error {
	got, err := r.in.GetNInto(dst, n)
	if err != nil {
		return err
	}
	if got < n {
		return corerr.ErrReadPastEndOfStream
	}
	return nil
}

// PeekIsNil reports whether the next value is the nil tag, without
// consuming it.
func (r *Reader) PeekIsNil() (bool, error) {
	t, err := r.peekTag()
	if err != nil {
		return false, err
	}
	return t == tagNil, nil
}

// ReadNil consumes a nil tag.
func (r *Reader) ReadNil() error {
	t, err := r.getTag()
	if err != nil {
		return err
	}
	if t != tagNil {
		return corerr.ErrTypeError
	}
	return nil
}

// ReadBool reads a bool_true/bool_false value.
func (r *Reader) ReadBool() (bool, error) {
	t, err := r.getTag()
	if err != nil {
		return false, err
	}
	switch t {
	case tagTrue:
		return true, nil
	case tagFalse:
		return false, nil
	default:
		return false, corerr.ErrTypeError
	}
}

// readRawInt reads whatever integer-shaped tag comes next (fixint,
// negative fixint, any uint_*/int_* width, or a bool encoding) as a
// signed 64-bit value. A uint64 tag whose value exceeds math.MaxInt64
// cannot be represented and fails with corerr.ErrTypeError; ReadUint64
// special-cases the tagUint64 path directly to avoid that ceiling.
func (r *Reader) readRawInt() (int64, error) {
	t, err := r.getTag()
	if err != nil {
		return 0, err
	}
	switch {
	case t <= positiveFixintMax:
		return int64(t), nil
	case t >= negativeFixintMin:
		return int64(int8(t)), nil
	}
	switch t {
	case tagUint8:
		b, err := r.in.Get()
		return int64(b), err
	case tagUint16:
		v, err := r.get2()
		return int64(v), err
	case tagUint32:
		v, err := r.get4()
		return int64(v), err
	case tagUint64:
		v, err := r.get8()
		if v > 1<<63-1 {
			return 0, corerr.ErrTypeError
		}
		return int64(v), err
	case tagInt8:
		b, err := r.in.Get()
		return int64(int8(b)), err
	case tagInt16:
		v, err := r.get2()
		return int64(int16(v)), err
	case tagInt32:
		v, err := r.get4()
		return int64(int32(v)), err
	case tagInt64:
		v, err := r.get8()
		return int64(v), err
	case tagFalse:
		return 0, nil
	case tagTrue:
		return 1, nil
	default:
		return 0, corerr.ErrTypeError
	}
}

// ReadInt64 reads any integer-shaped tag and returns it as int64, failing
// with corerr.ErrTypeError if the encoded value cannot be represented.
func (r *Reader) ReadInt64() (int64, error) { return r.readRawInt() }

// ReadInt32 reads an integer-shaped tag, failing if it does not fit int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.readRawInt()
	if err != nil {
		return 0, err
	}
	if v < -(1<<31) || v > (1<<31-1) {
		return 0, corerr.ErrTypeError
	}
	return int32(v), nil
}

// ReadInt16 reads an integer-shaped tag, failing if it does not fit int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.readRawInt()
	if err != nil {
		return 0, err
	}
	if v < -(1<<15) || v > (1<<15-1) {
		return 0, corerr.ErrTypeError
	}
	return int16(v), nil
}

// ReadInt8 reads an integer-shaped tag, failing if it does not fit int8.
func (r *Reader) ReadInt8() (int8, error) {
	v, err := r.readRawInt()
	if err != nil {
		return 0, err
	}
	if v < -128 || v > 127 {
		return 0, corerr.ErrTypeError
	}
	return int8(v), nil
}

// ReadUint64 reads any integer-shaped tag and returns it as uint64,
// failing if the encoded value is negative (a uint target can never hold
// one).
func (r *Reader) ReadUint64() (uint64, error) {
	t, err := r.peekTag()
	if err != nil {
		return 0, err
	}
	if t == tagUint64 {
		if _, err := r.getTag(); err != nil {
			return 0, err
		}
		return r.get8()
	}
	v, err := r.readRawInt()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, corerr.ErrTypeError
	}
	return uint64(v), nil
}

// ReadUint32 reads an integer-shaped tag, failing if it does not fit
// uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint32 {
		return 0, corerr.ErrTypeError
	}
	return uint32(v), nil
}

// ReadUint16 reads an integer-shaped tag, failing if it does not fit
// uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint16 {
		return 0, corerr.ErrTypeError
	}
	return uint16(v), nil
}

// ReadUint8 reads an integer-shaped tag, failing if it does not fit
// uint8.
func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	if v > math.MaxUint8 {
		return 0, corerr.ErrTypeError
	}
	return uint8(v), nil
}

// ReadFloat32 reads a float_32-tagged value.
func (r *Reader) ReadFloat32() (float32, error) {
	t, err := r.getTag()
	if err != nil {
		return 0, err
	}
	if t != tagFloat32 {
		return 0, corerr.ErrTypeError
	}
	v, err := r.get4()
	return math.Float32frombits(v), err
}

// ReadFloat64 reads a float_64-tagged value.
func (r *Reader) ReadFloat64() (float64, error) {
	t, err := r.getTag()
	if err != nil {
		return 0, err
	}
	if t != tagFloat64 {
		return 0, corerr.ErrTypeError
	}
	v, err := r.get8()
	return math.Float64frombits(v), err
}

// ReadString reads a fixstr/str_8/16/32 value.
func (r *Reader) ReadString() (string, error) {
	t, err := r.getTag()
	if err != nil {
		return "", err
	}
	var n int
	switch {
	case t >= fixstrBase && t <= fixstrMax:
		n = int(t - fixstrBase)
	case t == tagStr8:
		b, err := r.in.Get()
		if err != nil {
			return "", err
		}
		n = int(b)
	case t == tagStr16:
		v, err := r.get2()
		if err != nil {
			return "", err
		}
		n = int(v)
	case t == tagStr32:
		v, err := r.get4()
		if err != nil {
			return "", err
		}
		n = int(v)
	default:
		return "", corerr.ErrTypeError
	}
	buf := make([]byte, n)
	if err := r.getFull(buf, n); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ReadBinary reads a bin_8/16/32 value.
func (r *Reader) ReadBinary() ([]byte, error) {
	t, err := r.getTag()
	if err != nil {
		return nil, err
	}
	var n int
	switch t {
	case tagBin8:
		b, err := r.in.Get()
		if err != nil {
			return nil, err
		}
		n = int(b)
	case tagBin16:
		v, err := r.get2()
		if err != nil {
			return nil, err
		}
		n = int(v)
	case tagBin32:
		v, err := r.get4()
		if err != nil {
			return nil, err
		}
		n = int(v)
	default:
		return nil, corerr.ErrTypeError
	}
	buf := make([]byte, n)
	if err := r.getFull(buf, n); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadArrayHeader reads a fixarray/array_16/32 header and returns the
// element count.
func (r *Reader) ReadArrayHeader() (int, error) {
	t, err := r.getTag()
	if err != nil {
		return 0, err
	}
	switch {
	case t >= fixarrayBase && t <= fixarrayMax:
		return int(t - fixarrayBase), nil
	case t == tagArray16:
		v, err := r.get2()
		return int(v), err
	case t == tagArray32:
		v, err := r.get4()
		return int(v), err
	default:
		return 0, corerr.ErrTypeError
	}
}

// ReadMapHeader reads a fixmap/map_16/32 header and returns the pair
// count.
func (r *Reader) ReadMapHeader() (int, error) {
	t, err := r.getTag()
	if err != nil {
		return 0, err
	}
	switch {
	case t >= fixmapBase && t <= fixmapMax:
		return int(t - fixmapBase), nil
	case t == tagMap16:
		v, err := r.get2()
		return int(v), err
	case t == tagMap32:
		v, err := r.get4()
		return int(v), err
	default:
		return 0, corerr.ErrTypeError
	}
}

// ReadError decodes a 2-array [category_index, value] error encoding.
func (r *Reader) ReadError() (error, error) {
	if r.ctx == nil {
		return nil, corerr.ErrInvalidArgument
	}
	n, err := r.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	if n != 2 {
		return nil, corerr.ErrTypeError
	}
	categoryIndex, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	value, err := r.ReadInt64()
	if err != nil {
		return nil, err
	}
	decoded, ok := r.ctx.decodeError(categoryIndex, value)
	if !ok {
		return nil, corerr.ErrTypeError
	}
	return decoded, nil
}

// ReadPolymorphic decodes either an ext envelope (dispatching through ctx
// to the registered constructor) or the reserved 2-array null-pointer
// encoding, per the tag-not-shape dispatch rule. Returns (nil, nil) for a
// null pointer.
func (r *Reader) ReadPolymorphic() (any, error) {
	if r.ctx == nil {
		return nil, corerr.ErrInvalidArgument
	}
	t, err := r.peekTag()
	if err != nil {
		return nil, err
	}

	switch {
	case t == tagExt8 || t == tagExt16 || t == tagExt32:
		return r.readExtObject()
	case (t >= fixarrayBase && t <= fixarrayMax) || t == tagArray16 || t == tagArray32:
		return r.readNullableArray()
	default:
		return nil, corerr.ErrTypeError
	}
}

func (r *Reader) readExtObject() (any, error) {
	t, err := r.getTag()
	if err != nil {
		return nil, err
	}
	var n int
	switch t {
	case tagExt8:
		b, err := r.in.Get()
		if err != nil {
			return nil, err
		}
		n = int(b)
	case tagExt16:
		v, err := r.get2()
		if err != nil {
			return nil, err
		}
		n = int(v)
	case tagExt32:
		v, err := r.get4()
		if err != nil {
			return nil, err
		}
		n = int(v)
	}
	tagByte, err := r.in.Get()
	if err != nil {
		return nil, err
	}
	ctor, ok := r.ctx.constructorFor(tagByte)
	if !ok {
		return nil, corerr.ErrTypeError
	}
	payload := make([]byte, n)
	if err := r.getFull(payload, n); err != nil {
		return nil, err
	}
	scratchIn := memio.NewInput(buffer.FromRaw(payload, buffer.NoCopyOnWrite))
	return ctor(NewReader(&scratchIn.In, r.ctx))
}

func (r *Reader) readNullableArray() (any, error) {
	n, err := r.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	if n != 2 {
		return nil, corerr.ErrTypeError
	}
	tag, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if tag != reservedNilTag {
		return nil, corerr.ErrTypeError
	}
	if err := r.ReadNil(); err != nil {
		return nil, err
	}
	return nil, nil
}
