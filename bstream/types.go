// Package bstream implements the self-describing, MessagePack-compatible
// binary serialization layer: primitives, arrays, maps, error
// codes, and polymorphic objects dispatched through a caller-supplied
// Context. Typecodes and wire shapes are bit-exact; the
// polymorphic-dispatch and base-class-chaining design follows the
// "replace with a sum type... a table from type integer to a constructor
// function" guidance, grounded on
// _examples/original_source/include/nodeoze/bstream/macros.h's
// constructor-walks-base-classes pattern (BSTRM_CLASS/BSTRM_CTOR), here
// expressed as an ordinary Go function taking a *Reader instead of a
// macro-generated constructor.
package bstream

// typecode is the one-byte tag introducing every encoded value.
type typecode byte

const (
	tagNil        typecode = 0xc0
	tagFalse      typecode = 0xc2
	tagTrue       typecode = 0xc3
	tagBin8       typecode = 0xc4
	tagBin16      typecode = 0xc5
	tagBin32      typecode = 0xc6
	tagExt8       typecode = 0xc7
	tagExt16      typecode = 0xc8
	tagExt32      typecode = 0xc9
	tagFloat32    typecode = 0xca
	tagFloat64    typecode = 0xcb
	tagUint8      typecode = 0xcc
	tagUint16     typecode = 0xcd
	tagUint32     typecode = 0xce
	tagUint64     typecode = 0xcf
	tagInt8       typecode = 0xd0
	tagInt16      typecode = 0xd1
	tagInt32      typecode = 0xd2
	tagInt64      typecode = 0xd3
	tagFixext1    typecode = 0xd4
	tagFixext2    typecode = 0xd5
	tagFixext4    typecode = 0xd6
	tagFixext8    typecode = 0xd7
	tagFixext16   typecode = 0xd8
	tagStr8       typecode = 0xd9
	tagStr16      typecode = 0xda
	tagStr32      typecode = 0xdb
	tagArray16    typecode = 0xdc
	tagArray32    typecode = 0xdd
	tagMap16      typecode = 0xde
	tagMap32      typecode = 0xdf

	positiveFixintMax typecode = 0x7f
	fixmapBase        typecode = 0x80
	fixmapMax         typecode = 0x8f
	fixarrayBase      typecode = 0x90
	fixarrayMax       typecode = 0x9f
	fixstrBase        typecode = 0xa0
	fixstrMax         typecode = 0xbf
	negativeFixintMin typecode = 0xe0
)

// reservedNilTag is the polymorphic type tag reserved for a null-pointer
// encoding; Context.RegisterType refuses it, so a real registered type can
// never collide with a null-pointer's leading array element (an open
// question on write_null_ptr).
const reservedNilTag = 0
