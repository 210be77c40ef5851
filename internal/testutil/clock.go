// Package testutil holds deterministic stand-ins for the engine's sequence
// clock and the graph's snapshot id generator.
package testutil

import "sync"

// DeterministicClock hands out evaluation sequence numbers for tests and
// golden traces. It satisfies engine.SeqSource.
//
// Unlike engine.Clock it can be rewound, so one scenario can be run twice and
// produce the same seq values.
type DeterministicClock struct {
	mu     sync.Mutex
	origin int64
	seq    int64
	issued []int64
}

// NewDeterministicClock creates a clock whose first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(0)
}

// NewDeterministicClockAt creates a clock whose first Next returns origin+1.
func NewDeterministicClockAt(origin int64) *DeterministicClock {
	return &DeterministicClock{origin: origin, seq: origin}
}

// Next advances the clock and returns the new value.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.issued = append(c.issued, c.seq)
	return c.seq
}

// Current returns the last value handed out, or the origin.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Issued returns every value handed out since the last Reset, in call order.
func (c *DeterministicClock) Issued() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int64, len(c.issued))
	copy(out, c.issued)
	return out
}

// Reset rewinds the clock to its origin.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = c.origin
	c.issued = nil
}
