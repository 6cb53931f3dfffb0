// Package sync implements the client-side message delivery pipeline: one
// stream of logically-new messages reconciled out of the overlapping push
// and poll paths, an offline send queue, and best-effort translation.
package sync

import (
	gosync "sync"

	"github.com/google/uuid"
)

// DefaultSeenCapacity bounds the dedup window. Backend ids are never reused,
// so re-delivery of an id old enough to have been evicted is harmless.
const DefaultSeenCapacity = 100

// SeenSet is a bounded recency set of delivered message ids. Eviction is
// insertion-order FIFO, not LRU: once full, the single oldest id makes room
// for each new one.
type SeenSet struct {
	mu       gosync.Mutex
	capacity int
	ids      map[uuid.UUID]struct{}
	order    []uuid.UUID
}

func NewSeenSet(capacity int) *SeenSet {
	if capacity <= 0 {
		capacity = DefaultSeenCapacity
	}
	return &SeenSet{
		capacity: capacity,
		ids:      make(map[uuid.UUID]struct{}, capacity),
	}
}

// ShouldDeliver reports whether id has not been seen yet, recording it as
// seen when so. Duplicates leave the set unchanged.
func (s *SeenSet) ShouldDeliver(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.ids[id]; seen {
		return false
	}

	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.ids, oldest)
	}

	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Len returns the number of ids currently tracked.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
