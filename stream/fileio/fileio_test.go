package fileio_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.nodeoze.dev/core/stream"
	"go.nodeoze.dev/core/stream/fileio"
)

func TestOutputInputRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	out, err := fileio.OpenOutput(path, fileio.Truncate, 0, nil)
	if err != nil {
		t.Fatalf("OpenOutput: %v", err)
	}
	if err := out.PutN([]byte("hello, world")); err != nil {
		t.Fatalf("PutN: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	in, err := fileio.OpenInput(path, 0)
	if err != nil {
		t.Fatalf("OpenInput: %v", err)
	}
	defer in.Close()
	dst := make([]byte, 12)
	n, err := in.GetNInto(dst, 12)
	if err != nil || n != 12 {
		t.Fatalf("GetNInto: n=%d err=%v", n, err)
	}
	if string(dst) != "hello, world" {
		t.Fatalf("GetNInto = %q", dst)
	}
}

func TestOutputHoleZeroOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	out, err := fileio.OpenOutput(path, fileio.Truncate, 0, nil)
	if err != nil {
		t.Fatalf("OpenOutput: %v", err)
	}
	if err := out.PutN([]byte("abc")); err != nil {
		t.Fatalf("PutN: %v", err)
	}
	if err := out.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := out.Seek(stream.Begin, 6); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if err := out.PutN([]byte("xyz")); err != nil {
		t.Fatalf("PutN: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := []byte{'a', 'b', 'c', 0, 0, 0, 'x', 'y', 'z'}
	if string(got) != string(want) {
		t.Fatalf("file contents = %v, want %v", got, want)
	}
}

func TestOpenAppendPositionsAtEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	first, err := fileio.OpenOutput(path, fileio.Truncate, 0, nil)
	if err != nil {
		t.Fatalf("OpenOutput: %v", err)
	}
	if err := first.PutN([]byte("abc")); err != nil {
		t.Fatalf("PutN: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := fileio.OpenOutput(path, fileio.Append, 0, nil)
	if err != nil {
		t.Fatalf("OpenOutput append: %v", err)
	}
	if pos := second.Size(); pos != 3 {
		t.Fatalf("Size() = %d, want 3", pos)
	}
	if err := second.PutN([]byte("def")); err != nil {
		t.Fatalf("PutN: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "abcdef" {
		t.Fatalf("file contents = %q, want %q", got, "abcdef")
	}
}
