package testutil

import "sync"

// DeterministicClock is a resettable logical clock for tests.
//
// It satisfies pool.Sequencer. The first call to Next returns 1, so two runs
// of the same scenario stamp identical seq values.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock at 0.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last issued sequence number.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// AdvanceTo moves the clock forward to seq. It never moves backwards.
func (c *DeterministicClock) AdvanceTo(seq int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq > c.seq {
		c.seq = seq
	}
}

// Reset moves the clock back to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
