// Package ratelimit bounds operation frequency per key with a fixed
// (non-sliding) window counter. The store is process-local; handlers get a
// Limiter injected rather than reaching for a package global.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter decides whether one more call under key is allowed right now,
// given a limit of max calls per window.
type Limiter interface {
	Allow(key string, max int, window time.Duration) bool
}

type record struct {
	count   int
	resetAt time.Time
}

// WindowLimiter is a concurrent fixed-window counter store. Expired records
// are swept during writes once the map passes sweepAbove entries, so the
// key space stays bounded by the active window population.
type WindowLimiter struct {
	mu         sync.Mutex
	records    map[string]*record
	sweepAbove int
	now        func() time.Time
}

func NewWindowLimiter() *WindowLimiter {
	return &WindowLimiter{
		records:    make(map[string]*record),
		sweepAbove: 1024,
		now:        time.Now,
	}
}

// Allow starts a new window (count 1) on the first call for key or after
// the window elapsed, and otherwise counts the call against the window.
// It returns false once max calls have been admitted; the count freezes at
// the limit so a hammered key cannot grow it unbounded.
func (l *WindowLimiter) Allow(key string, max int, window time.Duration) bool {
	if max <= 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	rec, ok := l.records[key]
	if !ok || !now.Before(rec.resetAt) {
		if len(l.records) > l.sweepAbove {
			l.sweepLocked(now)
		}
		l.records[key] = &record{count: 1, resetAt: now.Add(window)}
		return true
	}

	if rec.count >= max {
		return false
	}
	rec.count++
	return true
}

// sweepLocked drops records whose window has expired. Caller holds mu.
func (l *WindowLimiter) sweepLocked(now time.Time) {
	for key, rec := range l.records {
		if !now.Before(rec.resetAt) {
			delete(l.records, key)
		}
	}
}
