package buffer

import (
	"bytes"
	"hash/crc32"

	"go.nodeoze.dev/core/corerr"
)

// block is the shared, reference-counted allocation several Buffer views
// may alias. refs is a plain int rather than an atomic counter: per this
// this module's concurrency model,
// core state is only ever touched from one scheduler thread, so refcount
// updates never race. Handing a Buffer to another goroutine requires the
// owning thread to call MakeExclusive first; the receiver then treats it as
// a fresh root, per the same design.
type block struct {
	data []byte // len(data) == cap(data); the full underlying allocation
	refs int
}

func newBlock(capacity int) *block {
	return &block{data: make([]byte, capacity), refs: 1}
}

func newBlockFrom(src []byte) *block {
	b := &block{data: make([]byte, len(src)), refs: 1}
	copy(b.data, src)
	return b
}

// Buffer is an owned, reference-counted view over a byte region. The zero
// value is the null buffer: no block, zero length, CopyOnWrite policy.
type Buffer struct {
	blk    *block
	data   []byte
	policy Policy
}

// New returns the empty buffer: no block allocated, policy CopyOnWrite.
func New() Buffer {
	return Buffer{policy: CopyOnWrite}
}

// NewSize allocates a block of capacity bytes, zeroed, with size == capacity,
// governed by policy.
func NewSize(capacity int, policy Policy) (Buffer, error) {
	if capacity < 0 {
		return Buffer{}, corerr.ErrNotEnoughMemory
	}
	if capacity == 0 {
		return Buffer{policy: policy}, nil
	}
	blk := newBlock(capacity)
	return Buffer{blk: blk, data: blk.data[:capacity], policy: policy}, nil
}

// FromBytes copies src into a freshly allocated block governed by policy.
func FromBytes(src []byte, policy Policy) Buffer {
	if len(src) == 0 {
		return Buffer{policy: policy}
	}
	blk := newBlockFrom(src)
	return Buffer{blk: blk, data: blk.data, policy: policy}
}

// FromString copies the bytes of s into a freshly allocated block.
func FromString(s string, policy Policy) Buffer {
	return FromBytes([]byte(s), policy)
}

// FromRaw adopts data directly as the backing block without copying,
// governed by policy. Go's garbage collector reclaims the backing array
// once unreferenced, so unlike the deallocator/reallocator pair the
// original C++ form threads through every call, adoption here needs
// nothing beyond the slice itself.
func FromRaw(data []byte, policy Policy) Buffer {
	if len(data) == 0 {
		return Buffer{policy: policy}
	}
	return Buffer{blk: &block{data: data, refs: 1}, data: data, policy: policy}
}

// IsNull reports whether the buffer has no backing block.
func (b Buffer) IsNull() bool { return b.blk == nil && len(b.data) == 0 }

// Len returns the size of the logical view in bytes.
func (b Buffer) Len() int { return len(b.data) }

// Policy returns the buffer's current sharing policy.
func (b Buffer) Policy() Policy { return b.policy }

// Refs returns the reference count of the underlying block, or 0 for a null
// buffer. Exposed for tests that assert sharing behavior; not meaningful as
// a liveness signal outside the single scheduler thread.
func (b Buffer) Refs() int {
	if b.blk == nil {
		return 0
	}
	return b.blk.refs
}

// Bytes returns the logical view as a slice. Callers must not mutate the
// returned slice: it aliases the buffer's backing block, and NoCopyOnWrite
// buffers in particular may be shared with other live views.
func (b Buffer) Bytes() []byte { return b.data }

// Equal reports whether two buffers have identical logical views.
func (b Buffer) Equal(other Buffer) bool { return bytes.Equal(b.data, other.data) }

// Checksum returns the CRC32-IEEE checksum of the logical view.
func (b Buffer) Checksum() uint32 { return crc32.ChecksumIEEE(b.data) }

// Clone returns a cheap alias of b: under CopyOnWrite or NoCopyOnWrite, the
// block's reference count is bumped and the new Buffer shares storage. Under
// Exclusive, Clone instead deep-copies the view into a fresh block and
// returns a CopyOnWrite buffer; b itself is untouched and remains Exclusive
// with its own block at refs == 1.
func (b Buffer) Clone() Buffer {
	if b.blk == nil {
		return Buffer{policy: b.policy}
	}
	if b.policy == Exclusive {
		nb := newBlockFrom(b.data)
		return Buffer{blk: nb, data: nb.data, policy: CopyOnWrite}
	}
	b.blk.refs++
	return Buffer{blk: b.blk, data: b.data, policy: b.policy}
}

// ensureUniqueIfCow deep-copies the current view into a fresh, singly-owned
// block when policy is CopyOnWrite and the existing block is shared. Called
// before every mutating operation; a no-op under Exclusive (already
// guaranteed refs == 1) and under NoCopyOnWrite (caller vouches for safety).
func (b *Buffer) ensureUniqueIfCow() {
	if b.policy != CopyOnWrite {
		return
	}
	if b.blk == nil || b.blk.refs <= 1 {
		return
	}
	old := b.blk
	nb := newBlockFrom(b.data)
	old.refs--
	b.blk = nb
	b.data = nb.data
}

// MakeExclusive deep-copies the view if the block is shared, then sets the
// policy to Exclusive.
func (b *Buffer) MakeExclusive() {
	if b.blk != nil && b.blk.refs > 1 {
		old := b.blk
		nb := newBlockFrom(b.data)
		old.refs--
		b.blk = nb
		b.data = nb.data
	}
	b.policy = Exclusive
}

// Put overwrites the byte at index, triggering a copy-on-write deep copy
// first if required by policy.
func (b *Buffer) Put(index int, v byte) error {
	if index < 0 || index >= len(b.data) {
		return corerr.ErrInvalidArgument
	}
	b.ensureUniqueIfCow()
	b.data[index] = v
	return nil
}

// Fill overwrites n bytes starting at index with v.
func (b *Buffer) Fill(index, n int, v byte) error {
	if index < 0 || n < 0 || index+n > len(b.data) {
		return corerr.ErrInvalidArgument
	}
	if n == 0 {
		return nil
	}
	b.ensureUniqueIfCow()
	region := b.data[index : index+n]
	for i := range region {
		region[i] = v
	}
	return nil
}

// Size resizes the logical view to newSize, growing the backing block
// (zero-filling the newly exposed bytes) if necessary.
func (b *Buffer) Size(newSize int) error {
	if newSize < 0 {
		return corerr.ErrInvalidArgument
	}
	b.ensureUniqueIfCow()
	if b.blk == nil {
		if newSize == 0 {
			return nil
		}
		nb := newBlock(newSize)
		b.blk = nb
		b.data = nb.data[:newSize]
		return nil
	}
	if newSize <= cap(b.blk.data) {
		old := len(b.data)
		b.data = b.blk.data[:newSize]
		if newSize > old {
			for i := old; i < newSize; i++ {
				b.data[i] = 0
			}
		}
		if newSize > len(b.blk.data) {
			b.blk.data = b.blk.data[:newSize]
		}
		return nil
	}
	nb := newBlock(newSize)
	copy(nb.data, b.data)
	b.blk = nb
	b.data = nb.data
	return nil
}

// Rotate shifts bytes [from, end) to begin at to, equivalent to memmove.
// Requires to, from < size and end <= size.
func (b *Buffer) Rotate(to, from, end int) error {
	size := len(b.data)
	if to < 0 || from < 0 || end < 0 || to >= size || from >= size || end > size {
		return corerr.ErrInvalidArgument
	}
	if end <= from {
		return nil
	}
	b.ensureUniqueIfCow()
	copy(b.data[to:to+(end-from)], b.data[from:end])
	return nil
}

// Slice returns a new buffer over [offset, offset+length). It shares the
// backing block (bumping the refcount) unless forceCopy is set or the
// source policy is Exclusive, in which case it deep-copies the range.
func (b Buffer) Slice(offset, length int, forceCopy bool) (Buffer, error) {
	if offset < 0 || length < 0 || offset+length > len(b.data) {
		return Buffer{}, corerr.ErrInvalidArgument
	}
	if length == 0 {
		return Buffer{policy: b.policy}, nil
	}
	view := b.data[offset : offset+length]
	if forceCopy || b.policy == Exclusive {
		nb := newBlockFrom(view)
		policy := b.policy
		if b.policy == Exclusive {
			policy = CopyOnWrite
		}
		return Buffer{blk: nb, data: nb.data, policy: policy}, nil
	}
	b.blk.refs++
	return Buffer{blk: b.blk, data: view, policy: b.policy}, nil
}
