package transport_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"go.nodeoze.dev/core/transport"
)

func TestStreamFramingRoundTrip(t *testing.T) {
	messages := [][]byte{
		[]byte(""),
		[]byte("hello"),
		bytes.Repeat([]byte("A"), 300),   // forces the 16-bit extended length
		bytes.Repeat([]byte("B"), 70000), // forces the 56-bit extended length
	}

	var buf bytes.Buffer
	w := transport.NewWriter(&buf)
	for i, m := range messages {
		n, err := w.Write(m)
		if err != nil {
			t.Fatalf("write[%d]: %v", i, err)
		}
		if n != len(m) {
			t.Fatalf("write[%d]: n=%d want=%d", i, n, len(m))
		}
	}

	r := transport.NewReader(&buf)
	for i, want := range messages {
		got := make([]byte, len(want))
		n, err := r.Read(got)
		if err != nil {
			t.Fatalf("read[%d]: %v", i, err)
		}
		if n != len(want) || !bytes.Equal(got[:n], want) {
			t.Fatalf("read[%d] = %d bytes, want %d bytes matching", i, n, len(want))
		}
	}

	if n, err := r.Read(make([]byte, 1)); err != io.EOF {
		t.Fatalf("trailing read: n=%d err=%v, want io.EOF", n, err)
	}
}

func TestReadShortBufferRejected(t *testing.T) {
	var buf bytes.Buffer
	if _, err := transport.NewWriter(&buf).Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	_, err := transport.NewReader(&buf).Read(make([]byte, 2))
	if !errors.Is(err, io.ErrShortBuffer) {
		t.Fatalf("Read into undersized buffer: err = %v, want io.ErrShortBuffer", err)
	}
}

func TestReadLimitEnforced(t *testing.T) {
	var buf bytes.Buffer
	if _, err := transport.NewWriter(&buf).Write(bytes.Repeat([]byte("x"), 100)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	r := transport.NewReader(&buf, transport.WithReadLimit(10))
	if _, err := r.Read(make([]byte, 100)); !errors.Is(err, transport.ErrTooLong) {
		t.Fatalf("Read over limit: err = %v, want ErrTooLong", err)
	}
}

func TestPacketModePassesThroughWithoutFraming(t *testing.T) {
	var buf bytes.Buffer
	w := transport.NewWriter(&buf, transport.WithProtocol(transport.Datagram))
	if _, err := w.Write([]byte("packet")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "packet" {
		t.Fatalf("buf = %q, want no length prefix added", buf.String())
	}

	r := transport.NewReader(&buf, transport.WithProtocol(transport.Datagram))
	got := make([]byte, 32)
	n, err := r.Read(got)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got[:n]) != "packet" {
		t.Fatalf("Read = %q, want %q", got[:n], "packet")
	}
}

func TestInvalidArgumentOnNilConn(t *testing.T) {
	if _, err := transport.NewReader(nil).Read(make([]byte, 1)); !errors.Is(err, transport.ErrInvalidArgument) {
		t.Fatalf("Read on nil reader: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := transport.NewWriter(nil).Write([]byte("x")); !errors.Is(err, transport.ErrInvalidArgument) {
		t.Fatalf("Write on nil writer: err = %v, want ErrInvalidArgument", err)
	}
}

// wouldBlockOnceWriter returns ErrWouldBlock on its first call, then
// behaves like bytes.Buffer. It exercises the WithBlock/WithNonblock
// retry policy without a real non-blocking socket.
type wouldBlockOnceWriter struct {
	buf     bytes.Buffer
	blocked bool
}

func (w *wouldBlockOnceWriter) Write(p []byte) (int, error) {
	if !w.blocked {
		w.blocked = true
		return 0, transport.ErrWouldBlock
	}
	return w.buf.Write(p)
}

func TestNonblockSurfacesErrWouldBlock(t *testing.T) {
	wr := &wouldBlockOnceWriter{}
	w := transport.NewWriter(wr, transport.WithNonblock())
	if _, err := w.Write([]byte("hi")); !errors.Is(err, transport.ErrWouldBlock) {
		t.Fatalf("Write: err = %v, want ErrWouldBlock", err)
	}
}

func TestBlockRetriesThroughErrWouldBlock(t *testing.T) {
	wr := &wouldBlockOnceWriter{}
	w := transport.NewWriter(wr, transport.WithBlock())
	if _, err := w.Write([]byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if wr.buf.String() == "" {
		t.Fatal("expected payload to reach the underlying writer after retry")
	}
}

func TestNewPipeRoundTrip(t *testing.T) {
	r, w := transport.NewPipe()
	done := make(chan error, 1)
	go func() {
		_, err := w.Write([]byte("piped message"))
		done <- err
	}()

	got := make([]byte, len("piped message"))
	n, err := r.Read(got)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got[:n]) != "piped message" {
		t.Fatalf("Read = %q, want %q", got[:n], "piped message")
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Write to return")
	}
}
