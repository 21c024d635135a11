// CPA Pulse - Affiliate Conversion Tracking and Live Metrics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cpapulse

package cache

import (
	"sync"
	"time"
)

// seenEntry is a node in the recency list.
type seenEntry struct {
	key       string
	expiresAt time.Time
	prev      *seenEntry
	next      *seenEntry
}

// SeenSet is a thread-safe set of keys with per-key TTL and LRU eviction.
// All operations are O(1) except Sweep.
type SeenSet struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*seenEntry
	now      func() time.Time

	// head.next is the most recently seen key, tail.prev the least.
	head *seenEntry
	tail *seenEntry

	hits   int64
	misses int64
}

// NewSeenSet creates a set holding at most capacity keys for ttl each.
func NewSeenSet(capacity int, ttl time.Duration) *SeenSet {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	s := &SeenSet{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*seenEntry, capacity),
		now:      time.Now,
		head:     &seenEntry{},
		tail:     &seenEntry{},
	}
	s.head.next = s.tail
	s.tail.prev = s.head
	return s
}

// Seen reports whether key was recorded and has not expired. An unseen key
// is recorded before returning false, so exactly one of several callers
// racing on the same key observes false.
func (s *SeenSet) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.items[key]; ok {
		if now.Before(e.expiresAt) {
			s.unlink(e)
			s.pushFront(e)
			s.hits++
			return true
		}
		s.remove(e)
	}

	e := &seenEntry{key: key, expiresAt: now.Add(s.ttl)}
	s.pushFront(e)
	s.items[key] = e
	for len(s.items) > s.capacity {
		s.remove(s.tail.prev)
	}
	s.misses++
	return false
}

// Forget removes key so the next Seen call records it afresh.
func (s *SeenSet) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[key]; ok {
		s.remove(e)
	}
}

// Sweep removes expired keys and returns how many were removed.
func (s *SeenSet) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for e := s.tail.prev; e != s.head; {
		prev := e.prev
		if !now.Before(e.expiresAt) {
			s.remove(e)
			removed++
		}
		e = prev
	}
	return removed
}

// Len returns the number of keys held, including expired keys not yet swept.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Stats returns hit and miss counts.
func (s *SeenSet) Stats() (hits, misses int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}

// List helpers; callers hold s.mu.

func (s *SeenSet) pushFront(e *seenEntry) {
	e.prev = s.head
	e.next = s.head.next
	s.head.next.prev = e
	s.head.next = e
}

func (s *SeenSet) unlink(e *seenEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (s *SeenSet) remove(e *seenEntry) {
	if e == s.head {
		return
	}
	s.unlink(e)
	delete(s.items, e.key)
}
