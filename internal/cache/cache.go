// Package cache holds the public poll listing between mutations. Every
// successful poll or vote mutation invalidates it; the next listing read
// repopulates from the store.
package cache

import (
	"sync"

	"pollboard/internal/models"
)

// PollList is a generation-tagged single-entry cache. Readers take the
// generation at miss time and hand it back with Put; a mutation in between
// bumps the generation, so the stale fill is discarded instead of
// resurrecting a pre-mutation listing.
type PollList struct {
	mu    sync.Mutex
	gen   uint64
	valid bool
	polls []models.Poll
}

func NewPollList() *PollList {
	return &PollList{}
}

// Get returns the cached listing, the current generation and whether the
// entry is valid. The generation must be passed to Put when filling after
// a miss.
func (c *PollList) Get() ([]models.Poll, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return nil, c.gen, false
	}
	return c.polls, c.gen, true
}

// Put stores a listing read under gen. It is dropped when a mutation has
// bumped the generation since the corresponding Get.
func (c *PollList) Put(polls []models.Poll, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.polls = polls
	c.valid = true
}

// Invalidate marks the listing stale and bumps the generation. Safe to
// call from any goroutine.
func (c *PollList) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.valid = false
	c.polls = nil
}
