// Package testutil holds deterministic stand-ins for the store's ID and
// sequence sources, so ledger contents are identical across test runs.
package testutil

import "sync"

// DeterministicClock is a resettable batch sequence source.
//
// It satisfies store.Clock. The first call to Next returns 1.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// StartAt creates a clock whose next value is seq+1.
func StartAt(seq int64) *DeterministicClock {
	return &DeterministicClock{seq: seq}
}

// Next increments and returns the sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last value handed out.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
