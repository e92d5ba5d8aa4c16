package transport

import "errors"

var (
	// ErrInvalidArgument reports a nil reader/writer passed to a constructor.
	ErrInvalidArgument = errors.New("transport: invalid argument")

	// ErrTooLong reports a payload that exceeds the configured read limit or
	// the wire format's own 2^56-1 ceiling.
	ErrTooLong = errors.New("transport: message too long")
)
