package bstream

// PolymorphicConstructor reads one registered type's own serialized form
// (after the ext envelope's header has already been consumed) and returns
// the reconstructed value.
type PolymorphicConstructor func(r *Reader) (any, error)

// TagForValue returns the registered type tag for v, or false if v's
// concrete type was never registered.
type TagForValue func(v any) (uint8, bool)

// ErrorDecoder reconstructs an error from a registered category given the
// encoded value.
type ErrorDecoder func(value int64) error

// ErrorEncoder returns the (category index, value) pair for err, or false
// if err does not belong to this category.
type ErrorEncoder func(err error) (value int64, ok bool)

// Context is the bijection between registered concrete types and small
// positive integer tags, and between error categories and similar
// integers, that every bstream Reader/Writer pair threads through for
// polymorphic dispatch. No component in this module relies on a
// process-wide registry: every stream carries its own Context, per the
// "global state → explicit injection" guidance.
type Context struct {
	constructors map[uint8]PolymorphicConstructor
	tagResolver  TagForValue

	categoryDecoders map[uint8]ErrorDecoder
	categoryEncoders []categoryEncoderEntry
}

type categoryEncoderEntry struct {
	index   uint8
	encoder ErrorEncoder
}

// NewContext returns an empty Context. tagForValue resolves a Go value to
// its registered wire tag; it is supplied once since Go has no reflection
// path from a registered tag back to "the type that produced this value"
// without application-specific knowledge (unlike a C++ constructor table
// keyed purely by tag).
func NewContext(tagForValue TagForValue) *Context {
	return &Context{
		constructors:     make(map[uint8]PolymorphicConstructor),
		tagResolver:      tagForValue,
		categoryDecoders: make(map[uint8]ErrorDecoder),
	}
}

// RegisterType binds tag to ctor. Panics if tag is the reserved
// null-pointer sentinel or already registered — both are programmer
// errors discovered at startup, not runtime data errors.
func (c *Context) RegisterType(tag uint8, ctor PolymorphicConstructor) {
	if tag == reservedNilTag {
		panic("bstream: type tag 0 is reserved for the null-pointer encoding")
	}
	if _, exists := c.constructors[tag]; exists {
		panic("bstream: type tag already registered")
	}
	c.constructors[tag] = ctor
}

// RegisterErrorCategory binds categoryIndex to a decoder and encoder pair.
func (c *Context) RegisterErrorCategory(categoryIndex uint8, decode ErrorDecoder, encode ErrorEncoder) {
	if _, exists := c.categoryDecoders[categoryIndex]; exists {
		panic("bstream: error category already registered")
	}
	c.categoryDecoders[categoryIndex] = decode
	c.categoryEncoders = append(c.categoryEncoders, categoryEncoderEntry{index: categoryIndex, encoder: encode})
}

func (c *Context) constructorFor(tag uint8) (PolymorphicConstructor, bool) {
	ctor, ok := c.constructors[tag]
	return ctor, ok
}

func (c *Context) tagForValue(v any) (uint8, bool) {
	if c.tagResolver == nil {
		return 0, false
	}
	return c.tagResolver(v)
}

func (c *Context) decodeError(categoryIndex uint8, value int64) (error, bool) {
	decode, ok := c.categoryDecoders[categoryIndex]
	if !ok {
		return nil, false
	}
	return decode(value), true
}

func (c *Context) encodeError(err error) (categoryIndex uint8, value int64, ok bool) {
	for _, entry := range c.categoryEncoders {
		if v, matched := entry.encoder(err); matched {
			return entry.index, v, true
		}
	}
	return 0, 0, false
}
