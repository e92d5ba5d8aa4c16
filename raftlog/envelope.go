package raftlog

import (
	"hash/crc32"

	"go.nodeoze.dev/core/bstream"
	"go.nodeoze.dev/core/buffer"
	"go.nodeoze.dev/core/corerr"
	"go.nodeoze.dev/core/numstream"
	"go.nodeoze.dev/core/stream"
	"go.nodeoze.dev/core/stream/memio"
)

// writeEnvelope emits `uint32 frame_size | uint32 type | frame_size bytes |
// uint32 checksum` to out, bit-exact, regardless of any byte-order
// option the Log was opened with — the envelope header is always
// big-endian, a property of the wire format itself rather than of any
// caller-configurable stream.
//
// encode is run against a disposable in-memory bstream.Writer so the
// payload's exact length is known before the frame_size header is
// written, the same backpatch-avoidance trick bstream.Writer.WritePolymorphic
// uses for ext envelopes.
func writeEnvelope(out *stream.Out, t frameType, encode func(w *bstream.Writer) error) error {
	scratch := memio.NewOutput(buffer.Exclusive)
	if err := encode(bstream.NewWriter(&scratch.Out, nil)); err != nil {
		return err
	}
	if err := scratch.Flush(); err != nil {
		return err
	}
	payloadBuf, err := scratch.GetBuffer()
	if err != nil {
		return err
	}
	payload := payloadBuf.Bytes()

	header := numstream.NewWriter(out, numstream.BigEndian)
	if err := header.PutUint32(uint32(len(payload))); err != nil {
		return err
	}
	if err := header.PutUint32(uint32(t)); err != nil {
		return err
	}
	if err := out.PutN(payload); err != nil {
		return err
	}
	return header.PutUint32(crc32.ChecksumIEEE(payload))
}

// envelopePrefix is the frame_size/type pair read before the payload.
type envelopePrefix struct {
	size uint32
	typ  frameType
}

func readEnvelopePrefix(in *stream.In) (envelopePrefix, error) {
	r := numstream.NewReader(in, numstream.BigEndian)
	size, err := r.GetUint32()
	if err != nil {
		return envelopePrefix{}, err
	}
	typ, err := r.GetUint32()
	if err != nil {
		return envelopePrefix{}, err
	}
	return envelopePrefix{size: size, typ: frameType(typ)}, nil
}

// readEnvelopeBody reads size payload bytes plus the trailing checksum,
// verifying the checksum before returning the payload as a Reader over its
// own bytes. A short read anywhere in this region (payload or checksum) is
// reported as corerr.ErrChecksum per the strict recovery decision recorded
// in DESIGN.md — a truncated tail is indistinguishable from corruption
// without a lenient-recovery hook, which this module does not enable by
// default.
func readEnvelopeBody(in *stream.In, size uint32) (*bstream.Reader, error) {
	payloadBuf, err := in.GetN(int(size))
	if err != nil {
		return nil, corerr.ErrChecksum
	}
	if payloadBuf.Len() != int(size) {
		return nil, corerr.ErrChecksum
	}
	r := numstream.NewReader(in, numstream.BigEndian)
	wantChecksum, err := r.GetUint32()
	if err != nil {
		return nil, corerr.ErrChecksum
	}
	if payloadBuf.Checksum() != wantChecksum {
		return nil, corerr.ErrChecksum
	}
	payloadIn := memio.NewInput(payloadBuf)
	return bstream.NewReader(&payloadIn.In, nil), nil
}
