package raftlog

import (
	"go.nodeoze.dev/core/bstream"
	"go.nodeoze.dev/core/corerr"
)

// frameType is the envelope's type discriminant (type values: 1 =
// replicant_state, 2 = state_machine_update. type = 0 is reserved
// invalid"). The envelope's own type field dispatches a decoder directly,
// so unlike bstream's general polymorphic objects this never needs a
// Context: the table from type integer to decoder is the switch in
// decodeFrame below.
type frameType uint32

const (
	frameTypeInvalid            frameType = 0
	frameTypeReplicantState     frameType = 1
	frameTypeStateMachineUpdate frameType = 2
)

// ReplicantState is the durable (self_id, term, vote) triple a Raft
// replicant persists before it may safely respond to RPCs. FilePosition
// records where the envelope carrying this value begins on disk.
type ReplicantState struct {
	FilePosition int64
	SelfID       uint64
	Term         uint64
	Vote         uint64
}

// Entry is a state-machine-update record: a Raft log entry bound to a
// term and index, carrying an opaque application payload.
type Entry struct {
	FilePosition int64
	Term         uint64
	Index        uint64
	Payload      []byte
}

func encodeReplicantState(w *bstream.Writer, s ReplicantState) error {
	if err := w.WriteArrayHeader(4); err != nil {
		return err
	}
	if err := w.WriteInt(s.FilePosition); err != nil {
		return err
	}
	if err := w.WriteUint(s.SelfID); err != nil {
		return err
	}
	if err := w.WriteUint(s.Term); err != nil {
		return err
	}
	return w.WriteUint(s.Vote)
}

func decodeReplicantState(r *bstream.Reader) (ReplicantState, error) {
	var s ReplicantState
	n, err := r.ReadArrayHeader()
	if err != nil {
		return s, err
	}
	if n != 4 {
		return s, corerr.ErrTypeError
	}
	if s.FilePosition, err = r.ReadInt64(); err != nil {
		return s, err
	}
	if s.SelfID, err = r.ReadUint64(); err != nil {
		return s, err
	}
	if s.Term, err = r.ReadUint64(); err != nil {
		return s, err
	}
	if s.Vote, err = r.ReadUint64(); err != nil {
		return s, err
	}
	return s, nil
}

func encodeEntry(w *bstream.Writer, e Entry) error {
	if err := w.WriteArrayHeader(4); err != nil {
		return err
	}
	if err := w.WriteInt(e.FilePosition); err != nil {
		return err
	}
	if err := w.WriteUint(e.Term); err != nil {
		return err
	}
	if err := w.WriteUint(e.Index); err != nil {
		return err
	}
	return w.WriteBinary(e.Payload)
}

func decodeEntry(r *bstream.Reader) (Entry, error) {
	var e Entry
	n, err := r.ReadArrayHeader()
	if err != nil {
		return e, err
	}
	if n != 4 {
		return e, corerr.ErrTypeError
	}
	if e.FilePosition, err = r.ReadInt64(); err != nil {
		return e, err
	}
	if e.Term, err = r.ReadUint64(); err != nil {
		return e, err
	}
	if e.Index, err = r.ReadUint64(); err != nil {
		return e, err
	}
	if e.Payload, err = r.ReadBinary(); err != nil {
		return e, err
	}
	return e, nil
}

// update applies rhs's term/vote onto s in place, matching replicant_state
// ::update's "only self must agree" check, and reports whether anything
// actually changed (the log's dirty bit).
func (s *ReplicantState) update(rhs ReplicantState) (bool, error) {
	if rhs.SelfID != s.SelfID {
		return false, corerr.ErrLogServerID
	}
	changed := s.Term != rhs.Term || s.Vote != rhs.Vote
	s.Term = rhs.Term
	s.Vote = rhs.Vote
	return changed, nil
}
