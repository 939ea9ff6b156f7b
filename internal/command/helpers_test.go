package command

import (
	"errors"
	"time"
)

// counting records every lifecycle call and finishes after finishAfter
// executions (0 = never).
type counting struct {
	Base
	finishAfter int
	failOn      int

	inits       int
	execs       int
	ends        int
	interrupted []bool
}

func newCounting(name string, finishAfter int, reqs ...*Subsystem) *counting {
	return &counting{Base: NewBase(name, reqs...), finishAfter: finishAfter}
}

func (c *counting) Initialize() {
	c.inits++
	c.execs = 0
}

func (c *counting) Execute() error {
	c.execs++
	if c.failOn > 0 && c.execs == c.failOn {
		return errors.New("boom")
	}
	return nil
}

func (c *counting) IsFinished() bool {
	return c.finishAfter > 0 && c.execs >= c.finishAfter
}

func (c *counting) End(interrupted bool) {
	c.ends++
	c.interrupted = append(c.interrupted, interrupted)
}

// fakeClock is advanced by hand.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// runToEnd runs cmd like the scheduler would until it finishes or max ticks pass.
// It returns the number of ticks executed.
func runToEnd(cmd Command, max int) int {
	cmd.Initialize()
	for i := 1; i <= max; i++ {
		if err := cmd.Execute(); err != nil {
			cmd.End(true)
			return i
		}
		if cmd.IsFinished() {
			cmd.End(false)
			return i
		}
	}
	return max
}
