// Package raftlog implements a durable, append-only Raft log: framed,
// checksummed replicant-state and state-machine-update records with crash
// recovery, seek-less index lookup, truncation, and front/back pruning.
// Grounded on
// _examples/original_source/include/nodeoze/raft/log.h's log type, with
// its deque-of-unique_ptr<entry> in-memory form replaced by a plain
// []Entry slice (indices are a contiguous run addressed by
// index-front().Index, not an ordered structure) and its macro-generated
// frame hierarchy replaced by the encode/decode pair in frame.go.
package raftlog

import (
	"errors"
	"log/slog"
	"os"

	"go.nodeoze.dev/core/bstream"
	"go.nodeoze.dev/core/corerr"
	"go.nodeoze.dev/core/numstream"
	"go.nodeoze.dev/core/stream"
	"go.nodeoze.dev/core/stream/fileio"
)

type config struct {
	log          *slog.Logger
	lenientTail  bool
	byteOrder    numstream.Order
	windowSize   int
}

// Option configures a Log at construction.
type Option func(*config)

// WithLogger sets the *slog.Logger used for recovery/prune/truncation
// diagnostics. Defaults to slog.Default() if never supplied.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithLenientTailRecovery is a stub for forward compatibility with a
// future relaxed-recovery mode that tolerates a truncated final frame;
// it defaults to off and no operation in this module currently branches
// on it besides recording the caller's intent.
func WithLenientTailRecovery(lenient bool) Option {
	return func(c *config) { c.lenientTail = lenient }
}

// WithByteOrder overrides the numstream.Order used when an application
// payload appended via Entry.Payload is itself numstream-encoded; the
// envelope header and bstream frame encoding are always big-endian
// regardless of this setting; see Log.NumstreamOrder.
func WithByteOrder(order numstream.Order) Option {
	return func(c *config) { c.byteOrder = order }
}

// WithWindowSize overrides the fileio staging window size used for both
// the primary append writer and any file opened for recovery or pruning.
func WithWindowSize(n int) Option {
	return func(c *config) { c.windowSize = n }
}

// Log is a durable, append-only Raft log. It owns at most one append
// handle at a time; PruneFront is the only operation that opens a second,
// temporary handle and swaps it into place.
type Log struct {
	cfg config

	selfID      uint64
	state       ReplicantState
	stateDirty  bool
	primaryPath string
	tempPath    string
	out         *fileio.Output
	entries     []Entry
}

// Open returns a Log bound to primaryPath/tempPath. No I/O occurs until
// Initialize or Restart is called, matching the original constructor's
// separation of "name the files" from "do the work".
func Open(primaryPath, tempPath string, opts ...Option) *Log {
	cfg := config{log: slog.Default(), byteOrder: numstream.BigEndian}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Log{cfg: cfg, primaryPath: primaryPath, tempPath: tempPath}
}

// NumstreamOrder returns the byte order configured via WithByteOrder, for
// callers that encode their own numstream-framed values inside an Entry's
// Payload and want to match the log's configuration rather than picking
// their own.
func (l *Log) NumstreamOrder() numstream.Order { return l.cfg.byteOrder }

func (l *Log) unlinkStaleTemp() error {
	if _, err := os.Stat(l.tempPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return corerr.WrapIO("stat", err)
	}
	if err := os.Remove(l.tempPath); err != nil {
		return corerr.WrapIO("remove", err)
	}
	return nil
}

// Initialize truncates the log file, emits one replicant-state frame for
// (self, term, vote), and reopens in append mode.
func (l *Log) Initialize(self uint64, term uint64, vote uint64) error {
	l.selfID = self
	l.state = ReplicantState{SelfID: self, Term: term, Vote: vote}
	l.stateDirty = false
	l.entries = nil

	if err := l.unlinkStaleTemp(); err != nil {
		return err
	}

	out, err := fileio.OpenOutput(l.primaryPath, fileio.Truncate, l.cfg.windowSize, l.cfg.log)
	if err != nil {
		return err
	}
	l.out = out

	if err := l.writeReplicantStateFrame(true); err != nil {
		return err
	}
	l.stateDirty = false
	if err := l.out.Close(); err != nil {
		l.out = nil
		return err
	}
	l.out, err = fileio.OpenOutput(l.primaryPath, fileio.Append, l.cfg.windowSize, l.cfg.log)
	return err
}

// Restart discards any leftover temp file (left behind by a crash mid
// PruneFront), recovers current_state and the in-memory entries from
// the primary file, reopens in append mode, and writes a fresh
// replicant-state frame for self.
func (l *Log) Restart(self uint64) error {
	l.selfID = self
	l.entries = nil

	if err := l.unlinkStaleTemp(); err != nil {
		return err
	}
	if err := l.recover(self); err != nil {
		l.entries = nil
		return err
	}

	out, err := fileio.OpenOutput(l.primaryPath, fileio.Append, l.cfg.windowSize, l.cfg.log)
	if err != nil {
		return err
	}
	l.out = out

	if err := l.writeReplicantStateFrame(true); err != nil {
		return err
	}
	l.stateDirty = false
	return nil
}

func (l *Log) recover(self uint64) error {
	in, err := fileio.OpenInput(l.primaryPath, l.cfg.windowSize)
	if err != nil {
		return err
	}
	defer in.Close()

	l.state = ReplicantState{SelfID: self}
	sawReplicantState := false

	fileSize, err := in.Tell(stream.End)
	if err != nil {
		return err
	}

	for {
		pos, err := in.Tell(stream.Current)
		if err != nil {
			return err
		}
		if pos >= fileSize {
			break
		}

		prefix, err := readEnvelopePrefix(&in.In)
		if err != nil {
			return corerr.ErrChecksum
		}
		body, err := readEnvelopeBody(&in.In, prefix.size)
		if err != nil {
			return err
		}

		switch prefix.typ {
		case frameTypeReplicantState:
			decoded, err := decodeReplicantState(body)
			if err != nil {
				return corerr.ErrChecksum
			}
			if _, err := l.state.update(decoded); err != nil {
				return err
			}
			sawReplicantState = true

		case frameTypeStateMachineUpdate:
			entry, err := decodeEntry(body)
			if err != nil {
				return corerr.ErrChecksum
			}
			l.entries = append(l.entries, entry)

		default:
			return corerr.ErrTypeError
		}
	}

	if !sawReplicantState {
		l.entries = nil
		return corerr.ErrRecovery
	}
	l.stateDirty = true
	l.cfg.log.Info("recovered raft log", "path", l.primaryPath, "entries", len(l.entries))
	return nil
}

// Close writes the current replicant state and closes the append writer.
// Safe to call more than once, and safe to call when Initialize/Restart
// never succeeded (matching the original destructor's tolerance for a log
// that never finished opening).
func (l *Log) Close() error {
	if l.out == nil {
		return nil
	}
	if err := l.writeReplicantStateFrame(false); err != nil {
		return err
	}
	err := l.out.Close()
	l.out = nil
	return err
}

func (l *Log) writeReplicantStateFrame(flush bool) error {
	l.state.FilePosition = l.out.Position()
	if err := writeEnvelope(&l.out.Out, frameTypeReplicantState, func(w *bstream.Writer) error {
		return encodeReplicantState(w, l.state)
	}); err != nil {
		return err
	}
	if flush {
		return l.out.Flush()
	}
	return nil
}

// Append assigns e's FilePosition to the current output position,
// serializes it, emits the envelope, and flushes before pushing onto the
// in-memory slice — the entry is never
// visible in memory unless its envelope is durable.
func (l *Log) Append(e Entry) error {
	e.FilePosition = l.out.Position()
	if err := writeEnvelope(&l.out.Out, frameTypeStateMachineUpdate, func(w *bstream.Writer) error {
		return encodeEntry(w, e)
	}); err != nil {
		return err
	}
	if err := l.out.Flush(); err != nil {
		return err
	}
	l.entries = append(l.entries, e)
	return nil
}

// UpdateReplicantState merges new's term/vote into the current state; if
// anything changed, emits a fresh replicant-state frame and flushes.
func (l *Log) UpdateReplicantState(new ReplicantState) error {
	changed, err := l.state.update(new)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	l.stateDirty = true
	if err := l.writeReplicantStateFrame(true); err != nil {
		return err
	}
	l.stateDirty = false
	return nil
}

// CurrentReplicantState returns the log's current (self, term, vote).
func (l *Log) CurrentReplicantState() ReplicantState { return l.state }

// Empty reports whether the in-memory entry slice has no entries.
func (l *Log) Empty() bool { return len(l.entries) == 0 }

// Size returns the number of in-memory entries.
func (l *Log) Size() int { return len(l.entries) }

// Front returns the lowest-index entry. Errors with
// corerr.ErrIndexOutOfRange if the log is empty.
func (l *Log) Front() (Entry, error) {
	if len(l.entries) == 0 {
		return Entry{}, corerr.ErrIndexOutOfRange
	}
	return l.entries[0], nil
}

// Back returns the highest-index entry. Errors with
// corerr.ErrIndexOutOfRange if the log is empty.
func (l *Log) Back() (Entry, error) {
	if len(l.entries) == 0 {
		return Entry{}, corerr.ErrIndexOutOfRange
	}
	return l.entries[len(l.entries)-1], nil
}

// At returns the entry with the given Raft index. Errors with
// corerr.ErrIndexOutOfRange if index falls outside [front, back].
func (l *Log) At(index uint64) (Entry, error) {
	if len(l.entries) == 0 {
		return Entry{}, corerr.ErrIndexOutOfRange
	}
	front := l.entries[0].Index
	if index < front || index > l.entries[len(l.entries)-1].Index {
		return Entry{}, corerr.ErrIndexOutOfRange
	}
	return l.entries[index-front], nil
}

// PruneBack removes all entries with Index > index and truncates the file
// to the file position of the first removed entry.
func (l *Log) PruneBack(index uint64) error {
	if len(l.entries) == 0 {
		return errors.New("raftlog: prune_back on empty log")
	}
	front := l.entries[0].Index
	back := l.entries[len(l.entries)-1].Index
	if index < front || index > back {
		return corerr.ErrInvalidArgument
	}
	if index == back {
		return nil
	}

	truncateAt := l.entries[len(l.entries)-1].FilePosition
	kept := l.entries
	for len(kept) > 0 && kept[len(kept)-1].Index > index {
		truncateAt = kept[len(kept)-1].FilePosition
		kept = kept[:len(kept)-1]
	}
	if len(kept) == 0 || kept[len(kept)-1].Index != index {
		return errors.New("raftlog: prune_back index not present in memory")
	}
	l.entries = kept

	if err := l.out.Close(); err != nil {
		return err
	}
	l.out = nil
	if err := os.Truncate(l.primaryPath, truncateAt); err != nil {
		return corerr.WrapIO("truncate", err)
	}
	out, err := fileio.OpenOutput(l.primaryPath, fileio.Append, l.cfg.windowSize, l.cfg.log)
	if err != nil {
		return err
	}
	l.out = out
	return nil
}

// PruneFront removes all entries with Index < index by rewriting the
// surviving entries (with updated FilePositions) and the current
// replicant state into a temp file, renaming it over the primary, and
// reopening in append mode. Any partial temp file left by a failure here
// is cleaned up by the next Restart.
func (l *Log) PruneFront(index uint64) error {
	if len(l.entries) == 0 {
		return errors.New("raftlog: prune_front on empty log")
	}
	front := l.entries[0].Index
	back := l.entries[len(l.entries)-1].Index
	if index < front || index > back {
		return corerr.ErrInvalidArgument
	}
	if index == front {
		return nil
	}

	kept := l.entries
	for len(kept) > 0 && kept[0].Index < index {
		kept = kept[1:]
	}
	if len(kept) == 0 || kept[0].Index != index {
		return errors.New("raftlog: prune_front index not present in memory")
	}

	if err := l.out.Close(); err != nil {
		return err
	}
	l.out = nil

	tmp, err := fileio.OpenOutput(l.tempPath, fileio.Truncate, l.cfg.windowSize, l.cfg.log)
	if err != nil {
		return err
	}

	rewritten := make([]Entry, len(kept))
	for i, e := range kept {
		e.FilePosition = tmp.Position()
		if err := writeEnvelope(&tmp.Out, frameTypeStateMachineUpdate, func(w *bstream.Writer) error {
			return encodeEntry(w, e)
		}); err != nil {
			tmp.Close()
			return err
		}
		rewritten[i] = e
	}

	l.state.FilePosition = tmp.Position()
	if err := writeEnvelope(&tmp.Out, frameTypeReplicantState, func(w *bstream.Writer) error {
		return encodeReplicantState(w, l.state)
	}); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(l.tempPath, l.primaryPath); err != nil {
		return corerr.WrapIO("rename", err)
	}

	out, err := fileio.OpenOutput(l.primaryPath, fileio.Append, l.cfg.windowSize, l.cfg.log)
	if err != nil {
		return err
	}
	l.out = out
	l.entries = rewritten
	l.cfg.log.Info("pruned log front", "path", l.primaryPath, "new_front_index", index)
	return nil
}
