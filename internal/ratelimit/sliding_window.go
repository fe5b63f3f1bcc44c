// Package ratelimit limits outbound API calls.
package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow allows at most limit events in any window-long interval
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	events []time.Time
	now    func() time.Time
}

// NewSlidingWindow creates a limiter. A nil clock means time.Now.
// A limit below zero is treated as zero, which rejects every event.
func NewSlidingWindow(limit int, window time.Duration, now func() time.Time) *SlidingWindow {
	if now == nil {
		now = time.Now
	}
	if limit < 0 {
		limit = 0
	}
	return &SlidingWindow{
		limit:  limit,
		window: window,
		events: make([]time.Time, 0, limit),
		now:    now,
	}
}

// Allow records an event and reports whether it fits in the window.
// Rejected attempts are not recorded.
func (s *SlidingWindow) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.evict(now)
	if len(s.events) >= s.limit {
		return false
	}
	s.events = append(s.events, now)
	return true
}

// Remaining returns how many events the window still admits
func (s *SlidingWindow) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evict(s.now())
	if r := s.limit - len(s.events); r > 0 {
		return r
	}
	return 0
}

// Reset forgets every recorded event
func (s *SlidingWindow) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = s.events[:0]
}

func (s *SlidingWindow) evict(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(s.events) && !s.events[i].After(cutoff) {
		i++
	}
	s.events = append(s.events[:0], s.events[i:]...)
}
