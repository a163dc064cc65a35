package engine

import "sync/atomic"

// Clock hands out the seq stamp of every propagator execution. Stamps
// start after the clock's initial position and never repeat.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock whose first stamp is 1.
func NewClock() *Clock { return NewClockAt(0) }

// NewClockAt returns a clock whose first stamp is start+1, so a run can
// continue the numbering of steps already in a log.
func NewClockAt(start int64) *Clock {
	c := new(Clock)
	c.last.Store(start)
	return c
}

// Next stamps one execution.
func (c *Clock) Next() int64 { return c.last.Add(1) }

// Current is the last stamp handed out, or the start position.
func (c *Clock) Current() int64 { return c.last.Load() }
