package command

import (
	"time"

	"github.com/me/cmdbot/pkg/model"
)

// DeadlineGroup runs a primary command under a timeout. It finishes when the
// primary finishes or the timeout elapses; on timeout the primary is
// interrupted.
type DeadlineGroup struct {
	group
	primary Command
	timeout time.Duration
	clock   Clock
	start   time.Time
	started bool
}

// Deadline bounds primary by timeout, measured with clock.
func Deadline(primary Command, timeout time.Duration, clock Clock) (*DeadlineGroup, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	g, err := newGroup(model.CompositeDeadline, []Command{primary}, true)
	if err != nil {
		return nil, err
	}
	g.SetName(primary.Name() + ".withTimeout(" + timeout.String() + ")")
	g.SetInterruptionBehavior(primary.InterruptionBehavior())
	return &DeadlineGroup{group: g, primary: primary, timeout: timeout, clock: clock}, nil
}

// Primary returns the bounded command.
func (g *DeadlineGroup) Primary() Command { return g.primary }

// TimedOut reports whether the timeout elapsed before the primary finished.
func (g *DeadlineGroup) TimedOut() bool {
	return g.expired() && !g.primary.IsFinished()
}

func (g *DeadlineGroup) expired() bool {
	return g.clock.Now().Sub(g.start) >= g.timeout
}

func (g *DeadlineGroup) Initialize() {
	g.start = g.clock.Now()
	g.started = true
	g.primary.Initialize()
}

func (g *DeadlineGroup) Execute() error {
	if g.expired() {
		return nil
	}
	if err := g.primary.Execute(); err != nil {
		return childError(g.primary, err)
	}
	return nil
}

func (g *DeadlineGroup) IsFinished() bool {
	return g.primary.IsFinished() || g.expired()
}

func (g *DeadlineGroup) End(interrupted bool) {
	if !g.started {
		return
	}
	g.started = false
	g.primary.End(interrupted || !g.primary.IsFinished())
}
