package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewSlidingWindow(3, time.Minute, func() time.Time { return now })

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(), "event %d", i)
		now = now.Add(10 * time.Second)
	}
	assert.False(t, limiter.Allow())
	assert.Equal(t, 0, limiter.Remaining())

	// first event was at 12:00:00; at 12:01:00 it falls out of the window
	now = time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, limiter.Remaining())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	limiter.Reset()
	assert.Equal(t, 3, limiter.Remaining())
	assert.True(t, limiter.Allow())
}

func TestSlidingWindow_NonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -5} {
		limiter := NewSlidingWindow(limit, time.Minute, nil)
		assert.False(t, limiter.Allow(), "limit %d", limit)
		assert.Equal(t, 0, limiter.Remaining(), "limit %d", limit)
	}
}

func TestSlidingWindow_Concurrent(t *testing.T) {
	limiter := NewSlidingWindow(50, time.Hour, nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}
