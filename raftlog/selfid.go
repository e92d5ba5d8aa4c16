package raftlog

import (
	"hash/fnv"

	"github.com/google/uuid"
)

// NewSelfID returns a fresh replicant identifier for callers that have no
// externally assigned node id. The wire field itself is a bare uint64
// the wire field itself is a bare uint64; a uuid.New() is folded down via FNV-64a rather than truncated,
// since truncation would throw away entropy from exactly the bytes most
// likely to collide.
func NewSelfID() uint64 {
	id := uuid.New()
	h := fnv.New64a()
	h.Write(id[:])
	return h.Sum64()
}
