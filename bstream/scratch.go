package bstream

import (
	"go.nodeoze.dev/core/buffer"
	"go.nodeoze.dev/core/stream"
	"go.nodeoze.dev/core/stream/memio"
)

// scratchOutput is a disposable in-memory sink used to measure a
// polymorphic object's serialized length before emitting its ext header,
// since the ext_8/16/32 tags carry an exact byte count up front.
type scratchOutput struct {
	mem *memio.Output
	out *stream.Out
}

func newScratchOutput() (*scratchOutput, error) {
	mem := memio.NewOutput(buffer.Exclusive)
	return &scratchOutput{mem: mem, out: &mem.Out}, nil
}

func (s *scratchOutput) bytes() ([]byte, error) {
	if err := s.mem.Flush(); err != nil {
		return nil, err
	}
	b, err := s.mem.GetBuffer()
	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
