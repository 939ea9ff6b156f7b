package scheduler

import (
	"errors"
	"testing"

	"github.com/me/cmdbot/internal/command"
	"github.com/me/cmdbot/internal/logging"
	"github.com/me/cmdbot/pkg/model"
)

func testScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(logging.Discard())
	s.SetEnabled(true)
	return s
}

// probe counts lifecycle calls. finishAfter = 0 never finishes; failOn > 0
// returns an error on that execution; panicOn > 0 panics on it.
type probe struct {
	command.Base
	finishAfter int
	failOn      int
	panicOn     int

	inits       int
	execs       int
	total       int
	ends        int
	interrupted []bool
}

func newProbe(name string, finishAfter int, reqs ...*command.Subsystem) *probe {
	return &probe{Base: command.NewBase(name, reqs...), finishAfter: finishAfter}
}

func (p *probe) Initialize() { p.inits++; p.execs = 0 }

func (p *probe) Execute() error {
	p.execs++
	p.total++
	if p.panicOn > 0 && p.execs == p.panicOn {
		panic("sensor read out of range")
	}
	if p.failOn > 0 && p.execs == p.failOn {
		return errors.New("motor stalled")
	}
	return nil
}

func (p *probe) IsFinished() bool { return p.finishAfter > 0 && p.execs >= p.finishAfter }

func (p *probe) End(interrupted bool) {
	p.ends++
	p.interrupted = append(p.interrupted, interrupted)
}

func (p *probe) withBehavior(ib model.InterruptionBehavior) *probe {
	p.SetInterruptionBehavior(ib)
	return p
}

func (p *probe) ignoringDisable() *probe {
	p.SetRunsWhenDisabled(true)
	return p
}

// eventLog collects events by kind.
type eventLog struct {
	events []Event
}

func (l *eventLog) attach(s *Scheduler) *eventLog {
	s.OnEvent(func(e Event) { l.events = append(l.events, e) })
	return l
}

func (l *eventLog) count(kind EventKind, name string) int {
	n := 0
	for _, e := range l.events {
		if e.Kind == kind && e.Name() == name {
			n++
		}
	}
	return n
}

// assertOwnership checks that every active command owns all its
// requirements and that no subsystem is owned by an inactive command.
func assertOwnership(t *testing.T, s *Scheduler) {
	t.Helper()
	for _, cmd := range s.Active() {
		for _, req := range cmd.Requirements() {
			if owner := s.Owner(req); owner != cmd {
				t.Fatalf("tick %d: %s requires %s but owner is %v", s.TickCount(), cmd.Name(), req.Name(), owner)
			}
		}
	}
	for sub, owner := range s.owners {
		if !s.IsScheduled(owner) {
			t.Fatalf("tick %d: %s owned by inactive %s", s.TickCount(), sub.Name(), owner.Name())
		}
	}
}
