package pool

import "sync/atomic"

// Sequencer issues logical seq values. Implemented by Clock and by
// testutil.DeterministicClock.
type Sequencer interface {
	Next() int64
	Current() int64
	AdvanceTo(seq int64)
}

// Clock is the monotonic logical clock that stamps inserts and events.
//
// Safe for concurrent use, although only the Run goroutine advances it.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// AdvanceTo moves the clock forward to seq. It never moves backwards.
// Used on resume so new events sort after persisted ones.
func (c *Clock) AdvanceTo(seq int64) {
	for {
		cur := c.seq.Load()
		if seq <= cur || c.seq.CompareAndSwap(cur, seq) {
			return
		}
	}
}
