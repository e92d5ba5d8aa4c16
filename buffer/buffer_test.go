package buffer_test

import (
	"errors"
	"testing"

	"go.nodeoze.dev/core/buffer"
	"go.nodeoze.dev/core/corerr"
)

func TestNewIsNull(t *testing.T) {
	b := buffer.New()
	if !b.IsNull() {
		t.Fatalf("New() should be null")
	}
	if b.Len() != 0 {
		t.Fatalf("New() length = %d, want 0", b.Len())
	}
}

func TestNewSizeZeroed(t *testing.T) {
	b, err := buffer.NewSize(16, buffer.CopyOnWrite)
	if err != nil {
		t.Fatalf("NewSize: %v", err)
	}
	if b.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", b.Len())
	}
	for i, v := range b.Bytes() {
		if v != 0 {
			t.Fatalf("byte %d = %d, want 0", i, v)
		}
	}
}

func TestNewSizeNegative(t *testing.T) {
	if _, err := buffer.NewSize(-1, buffer.CopyOnWrite); !errors.Is(err, corerr.ErrNotEnoughMemory) {
		t.Fatalf("err = %v, want ErrNotEnoughMemory", err)
	}
}

func TestFromBytesRoundTrip(t *testing.T) {
	src := []byte("replicated state machine")
	b := buffer.FromBytes(src, buffer.CopyOnWrite)
	if !b.Equal(buffer.FromBytes(src, buffer.Exclusive)) {
		t.Fatalf("FromBytes round trip mismatch")
	}
	src[0] = 'X'
	if b.Bytes()[0] == 'X' {
		t.Fatalf("FromBytes must copy src, not alias it")
	}
}

// TestCloneSharesUnderCopyOnWrite verifies a CopyOnWrite clone bumps the
// refcount and shares storage until the first mutation.
func TestCloneSharesUnderCopyOnWrite(t *testing.T) {
	a := buffer.FromBytes([]byte("hello"), buffer.CopyOnWrite)
	b := a.Clone()

	if got := a.Refs(); got != 2 {
		t.Fatalf("Refs() after clone = %d, want 2", got)
	}
	if !a.Equal(b) {
		t.Fatalf("clone should be equal to source before mutation")
	}

	if err := b.Put(0, 'H'); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.Bytes()[0] != 'h' {
		t.Fatalf("mutating clone must not affect original under CopyOnWrite")
	}
	if b.Bytes()[0] != 'H' {
		t.Fatalf("Put did not take effect on the clone")
	}
	if a.Refs() != 1 {
		t.Fatalf("original refcount after CoW split = %d, want 1", a.Refs())
	}
}

// TestCloneDeepCopiesUnderExclusive matches scenario S6: exclusive buffers
// never let a clone alias the same block.
func TestCloneDeepCopiesUnderExclusive(t *testing.T) {
	a := buffer.FromBytes([]byte("hello"), buffer.Exclusive)
	b := a.Clone()

	if b.Policy() != buffer.CopyOnWrite {
		t.Fatalf("clone of exclusive buffer should carry CopyOnWrite policy, got %v", b.Policy())
	}
	if err := b.Put(0, 'H'); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.Bytes()[0] != 'h' {
		t.Fatalf("exclusive source must be unaffected by mutating its clone")
	}
	if a.Refs() != 1 {
		t.Fatalf("exclusive source refcount = %d, want 1", a.Refs())
	}
}

func TestNoCopyOnWriteMutatesInPlace(t *testing.T) {
	a := buffer.FromBytes([]byte("hello"), buffer.NoCopyOnWrite)
	b := a.Clone()

	if err := b.Put(0, 'H'); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.Bytes()[0] != 'H' {
		t.Fatalf("NoCopyOnWrite mutation through a clone must be visible in the original")
	}
}

func TestFillBounds(t *testing.T) {
	b, _ := buffer.NewSize(4, buffer.CopyOnWrite)
	if err := b.Fill(1, 2, 0xAB); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	want := []byte{0, 0xAB, 0xAB, 0}
	if !b.Equal(buffer.FromBytes(want, buffer.CopyOnWrite)) {
		t.Fatalf("Fill produced %v, want %v", b.Bytes(), want)
	}
	if err := b.Fill(3, 2, 0); !errors.Is(err, corerr.ErrInvalidArgument) {
		t.Fatalf("Fill out of range err = %v, want ErrInvalidArgument", err)
	}
}

func TestSizeGrowZeroFillsAndShrinkPreservesPrefix(t *testing.T) {
	b := buffer.FromBytes([]byte("abc"), buffer.CopyOnWrite)
	if err := b.Size(5); err != nil {
		t.Fatalf("Size grow: %v", err)
	}
	want := []byte{'a', 'b', 'c', 0, 0}
	if !b.Equal(buffer.FromBytes(want, buffer.CopyOnWrite)) {
		t.Fatalf("grown buffer = %v, want %v", b.Bytes(), want)
	}
	if err := b.Size(2); err != nil {
		t.Fatalf("Size shrink: %v", err)
	}
	if !b.Equal(buffer.FromBytes([]byte("ab"), buffer.CopyOnWrite)) {
		t.Fatalf("shrunk buffer = %v, want \"ab\"", b.Bytes())
	}
}

func TestSizeOnSharedBlockSplitsFirst(t *testing.T) {
	a := buffer.FromBytes([]byte("abc"), buffer.CopyOnWrite)
	b := a.Clone()
	if err := b.Size(6); err != nil {
		t.Fatalf("Size: %v", err)
	}
	if a.Len() != 3 {
		t.Fatalf("growing a clone must not resize the original view, a.Len() = %d", a.Len())
	}
}

func TestRotate(t *testing.T) {
	b := buffer.FromBytes([]byte("abcdef"), buffer.CopyOnWrite)
	if err := b.Rotate(0, 2, 6); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if !b.Equal(buffer.FromBytes([]byte("cdefef"), buffer.CopyOnWrite)) {
		t.Fatalf("Rotate produced %v", b.Bytes())
	}
}

func TestSliceSharesUnlessForcedOrExclusive(t *testing.T) {
	a := buffer.FromBytes([]byte("0123456789"), buffer.CopyOnWrite)

	shared, err := a.Slice(2, 4, false)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if a.Refs() != 2 {
		t.Fatalf("sharing Slice should bump refcount, Refs() = %d", a.Refs())
	}
	if shared.Bytes()[0] != '2' {
		t.Fatalf("Slice view wrong, got %q", shared.Bytes())
	}

	forced, err := a.Slice(2, 4, true)
	if err != nil {
		t.Fatalf("Slice forced: %v", err)
	}
	if !forced.Equal(shared) {
		t.Fatalf("forced slice content mismatch")
	}

	excl := buffer.FromBytes([]byte("0123456789"), buffer.Exclusive)
	slicedExcl, err := excl.Slice(0, 3, false)
	if err != nil {
		t.Fatalf("Slice of exclusive: %v", err)
	}
	if slicedExcl.Policy() != buffer.CopyOnWrite {
		t.Fatalf("slice of an exclusive buffer should not stay exclusive, got %v", slicedExcl.Policy())
	}

	if _, err := a.Slice(8, 5, false); !errors.Is(err, corerr.ErrInvalidArgument) {
		t.Fatalf("out of range slice err = %v, want ErrInvalidArgument", err)
	}
}

func TestMakeExclusiveSplitsSharedBlock(t *testing.T) {
	a := buffer.FromBytes([]byte("abc"), buffer.CopyOnWrite)
	b := a.Clone()

	b.MakeExclusive()
	if b.Policy() != buffer.Exclusive {
		t.Fatalf("Policy() after MakeExclusive = %v", b.Policy())
	}
	if a.Refs() != 1 {
		t.Fatalf("original should be sole owner again, Refs() = %d", a.Refs())
	}
	if err := b.Put(0, 'X'); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.Bytes()[0] != 'a' {
		t.Fatalf("original must be unaffected after MakeExclusive split")
	}
}

func TestChecksumMatchesKnownValue(t *testing.T) {
	b := buffer.FromBytes([]byte("123456789"), buffer.CopyOnWrite)
	// CRC32-IEEE("123456789") is the standard check value for the polynomial.
	const want = 0xCBF43926
	if got := b.Checksum(); got != want {
		t.Fatalf("Checksum() = %#x, want %#x", got, want)
	}
}
