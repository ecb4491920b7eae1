package dedup

import (
	"container/list"
	"sync"
	"time"
)

// Set is a bounded in-memory set of recently seen keys, evicting by age and
// by capacity. It is an optimization for intra-session event dedup only; the
// durable idempotent upsert remains the correctness guarantee, so losing an
// entry (restart, eviction) merely costs a redundant resolution.
type Set struct {
	mu       sync.Mutex
	capacity int
	maxAge   time.Duration
	entries  map[string]*list.Element
	order    *list.List // front = oldest
	now      func() time.Time
}

type entry struct {
	key  string
	seen time.Time
}

func New(capacity int, maxAge time.Duration) *Set {
	return &Set{
		capacity: capacity,
		maxAge:   maxAge,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

// Seen marks key as observed and reports whether it was already present.
func (s *Set) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evict()

	if _, ok := s.entries[key]; ok {
		return true
	}
	s.entries[key] = s.order.PushBack(&entry{key: key, seen: s.now()})
	for s.order.Len() > s.capacity {
		front := s.order.Front()
		s.order.Remove(front)
		delete(s.entries, front.Value.(*entry).key)
	}
	return false
}

// Contains reports presence without marking.
func (s *Set) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evict()
	_, ok := s.entries[key]
	return ok
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evict()
	return len(s.entries)
}

func (s *Set) evict() {
	if s.maxAge <= 0 {
		return
	}
	cutoff := s.now().Add(-s.maxAge)
	for s.order.Len() > 0 {
		front := s.order.Front()
		e := front.Value.(*entry)
		if e.seen.After(cutoff) {
			break
		}
		s.order.Remove(front)
		delete(s.entries, e.key)
	}
}
