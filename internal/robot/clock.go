package robot

import (
	"sync"
	"time"
)

// TickClock is simulated time that advances one period per step, so that
// waits and timeouts are deterministic under a scripted run.
type TickClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewTickClock starts the clock at start.
func NewTickClock(start time.Time) *TickClock {
	return &TickClock{now: start}
}

func (c *TickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *TickClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
