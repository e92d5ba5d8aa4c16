package numstream_test

import (
	"testing"

	"go.nodeoze.dev/core/buffer"
	"go.nodeoze.dev/core/numstream"
	"go.nodeoze.dev/core/stream/memio"
)

func TestRoundTripBigEndian(t *testing.T) {
	out := memio.NewOutput(buffer.CopyOnWrite)
	w := numstream.NewWriter(&out.Out, nil)

	if err := w.PutUint32(0x01020304); err != nil {
		t.Fatalf("PutUint32: %v", err)
	}
	if err := w.PutInt64(-1); err != nil {
		t.Fatalf("PutInt64: %v", err)
	}
	if err := w.PutFloat64(3.5); err != nil {
		t.Fatalf("PutFloat64: %v", err)
	}
	if err := out.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := out.GetBuffer()
	if err != nil {
		t.Fatalf("GetBuffer: %v", err)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04}
	if string(got.Bytes()[:4]) != string(want) {
		t.Fatalf("wire bytes = %v, want big-endian %v", got.Bytes()[:4], want)
	}

	in := memio.NewInput(got)
	r := numstream.NewReader(&in.In, nil)
	u32, err := r.GetUint32()
	if err != nil || u32 != 0x01020304 {
		t.Fatalf("GetUint32() = %d, %v", u32, err)
	}
	i64, err := r.GetInt64()
	if err != nil || i64 != -1 {
		t.Fatalf("GetInt64() = %d, %v", i64, err)
	}
	f64, err := r.GetFloat64()
	if err != nil || f64 != 3.5 {
		t.Fatalf("GetFloat64() = %v, %v", f64, err)
	}
}

func TestLittleEndianConfigured(t *testing.T) {
	out := memio.NewOutput(buffer.CopyOnWrite)
	w := numstream.NewWriter(&out.Out, numstream.LittleEndian)
	if err := w.PutUint16(0x0102); err != nil {
		t.Fatalf("PutUint16: %v", err)
	}
	if err := out.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	got, _ := out.GetBuffer()
	want := []byte{0x02, 0x01}
	if string(got.Bytes()) != string(want) {
		t.Fatalf("wire bytes = %v, want little-endian %v", got.Bytes(), want)
	}
}
