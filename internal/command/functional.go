package command

import "time"

// InstantCommand runs its action once, in its first Execute, and finishes.
type InstantCommand struct {
	Base
	action func() error
	done   bool
}

// Instant creates a single-tick command.
func Instant(name string, action func() error, reqs ...*Subsystem) *InstantCommand {
	return &InstantCommand{Base: NewBase(name, reqs...), action: action}
}

func (c *InstantCommand) Initialize() { c.done = false }

func (c *InstantCommand) Execute() error {
	c.done = true
	if c.action == nil {
		return nil
	}
	return c.action()
}

func (c *InstantCommand) IsFinished() bool { return c.done }

// FunctionalCommand assembles a command from optional callbacks.
type FunctionalCommand struct {
	Base
	OnInit    func()
	OnExecute func() error
	OnEnd     func(interrupted bool)
	IsDone    func() bool
}

// Functional creates a command from callbacks. Nil callbacks are skipped; a
// nil IsDone never finishes.
func Functional(name string, init func(), exec func() error, end func(bool), isDone func() bool, reqs ...*Subsystem) *FunctionalCommand {
	return &FunctionalCommand{
		Base:      NewBase(name, reqs...),
		OnInit:    init,
		OnExecute: exec,
		OnEnd:     end,
		IsDone:    isDone,
	}
}

// Run creates a command that calls exec every tick until interrupted.
func Run(name string, exec func() error, reqs ...*Subsystem) *FunctionalCommand {
	return Functional(name, nil, exec, nil, nil, reqs...)
}

// StartEnd creates a command that calls start on initialize and end when it
// is interrupted. It never finishes on its own.
func StartEnd(name string, start, end func(), reqs ...*Subsystem) *FunctionalCommand {
	var onEnd func(bool)
	if end != nil {
		onEnd = func(bool) { end() }
	}
	return Functional(name, start, nil, onEnd, nil, reqs...)
}

func (c *FunctionalCommand) Initialize() {
	if c.OnInit != nil {
		c.OnInit()
	}
}

func (c *FunctionalCommand) Execute() error {
	if c.OnExecute != nil {
		return c.OnExecute()
	}
	return nil
}

func (c *FunctionalCommand) IsFinished() bool {
	return c.IsDone != nil && c.IsDone()
}

func (c *FunctionalCommand) End(interrupted bool) {
	if c.OnEnd != nil {
		c.OnEnd(interrupted)
	}
}

// WaitCommand finishes once its duration has elapsed. It requires nothing
// and keeps running while disabled.
type WaitCommand struct {
	Base
	duration time.Duration
	clock    Clock
	start    time.Time
}

// Wait creates a command that idles for d.
func Wait(d time.Duration, clock Clock) *WaitCommand {
	if clock == nil {
		clock = SystemClock{}
	}
	c := &WaitCommand{Base: NewBase("Wait(" + d.String() + ")"), duration: d, clock: clock}
	c.SetRunsWhenDisabled(true)
	return c
}

func (c *WaitCommand) Initialize() { c.start = c.clock.Now() }

func (c *WaitCommand) IsFinished() bool {
	return c.clock.Now().Sub(c.start) >= c.duration
}

// None returns a command that finishes immediately and requires nothing.
func None() *InstantCommand {
	c := Instant("None", nil)
	c.SetRunsWhenDisabled(true)
	return c
}
