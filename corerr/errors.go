// Package corerr holds the sentinel error values shared by buffer, stream,
// numstream, bstream and raftlog. Having one shared set (rather than a
// per-package copy) lets a caller that walks up through several of those
// layers compare against a single vocabulary with errors.Is, the way the
// rest of this module already treats transport.ErrWouldBlock / ErrMore as a
// shared control-flow vocabulary.
package corerr

import "errors"

var (
	// ErrReadPastEndOfStream means an input stream-buffer has no more bytes
	// to satisfy the request and no further bytes will ever arrive.
	ErrReadPastEndOfStream = errors.New("corerr: read past end of stream")

	// ErrTypeError means a bstream tag did not match the requested target
	// type, or an on-disk frame's declared type did not match what the
	// caller asked to decode.
	ErrTypeError = errors.New("corerr: type error")

	// ErrChecksum means an envelope's trailing checksum did not match the
	// payload actually read back from disk.
	ErrChecksum = errors.New("corerr: checksum mismatch")

	// ErrLogServerID means an incoming replicant-state self_id disagrees
	// with the log's configured self_id.
	ErrLogServerID = errors.New("corerr: replicant state self id mismatch")

	// ErrIndexOutOfRange means a subscript (Front, Back, At) addressed an
	// index outside [front, back]. Pruning outside that range reports
	// ErrInvalidArgument instead.
	ErrIndexOutOfRange = errors.New("corerr: index out of range")

	// ErrRecovery means log recovery completed without ever encountering a
	// replicant-state frame.
	ErrRecovery = errors.New("corerr: recovery did not find a replicant state frame")

	// ErrInvalidSeek means a seek target fell outside [0, size] for the
	// underlying stream.
	ErrInvalidSeek = errors.New("corerr: invalid seek")

	// ErrInvalidArgument means a caller-supplied offset, size or pruning
	// argument was nonsensical independent of any I/O.
	ErrInvalidArgument = errors.New("corerr: invalid argument")

	// ErrNoBufferSpace is the default failure of an in-memory output
	// adapter that cannot grow further.
	ErrNoBufferSpace = errors.New("corerr: no buffer space")

	// ErrNotEnoughMemory means an allocation could not be satisfied.
	ErrNotEnoughMemory = errors.New("corerr: not enough memory")

	// ErrInterrupted means a pending operation was cancelled.
	ErrInterrupted = errors.New("corerr: interrupted")

	// ErrTimedOut means a bounded wait expired before the operation
	// settled.
	ErrTimedOut = errors.New("corerr: timed out")
)

// IOError wraps a platform error returned by the underlying file or device
// so callers can still unwrap down to the original *os.PathError et al.
// while matching on a single sentinel with errors.Is.
type IOError struct {
	Op  string
	Err error
}

var errIO = errors.New("corerr: io error")

func (e *IOError) Error() string {
	if e.Op == "" {
		return "corerr: io error: " + e.Err.Error()
	}
	return "corerr: io error: " + e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// Is reports true for corerr.ErrIO in addition to whatever Err itself
// unwraps to, so `errors.Is(err, corerr.ErrIO)` works regardless of which
// platform error is wrapped.
func (e *IOError) Is(target error) bool { return target == errIO }

// ErrIO is the shared sentinel for errors.Is comparisons against any
// *IOError, regardless of the wrapped platform error.
var ErrIO = errIO

// WrapIO wraps a non-nil platform error as an *IOError tagged with the
// failing operation. Returns nil if err is nil.
func WrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Err: err}
}
