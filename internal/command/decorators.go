package command

import (
	"errors"
	"time"

	"github.com/me/cmdbot/pkg/model"
)

// decorated overrides command metadata while delegating the lifecycle.
type decorated struct {
	Command
	name             string
	behavior         model.InterruptionBehavior
	runsWhenDisabled *bool
}

func decorate(cmd Command) *decorated {
	switch d := cmd.(type) {
	case *decorated:
		cp := *d
		return &cp
	case *decoratedComposite:
		cp := *d.decorated
		return &cp
	}
	return &decorated{Command: cmd}
}

// result keeps composites inspectable through their decorators.
func (d *decorated) result() Command {
	if c, ok := d.Command.(Composite); ok {
		return &decoratedComposite{decorated: d, inner: c}
	}
	return d
}

// decoratedComposite is a decorated Composite.
type decoratedComposite struct {
	*decorated
	inner Composite
}

func (d *decoratedComposite) Kind() model.CompositeKind { return d.inner.Kind() }

func (d *decoratedComposite) Children() []Command { return d.inner.Children() }

// Unwrap strips decorators and returns the command that carries the
// lifecycle state.
func Unwrap(cmd Command) Command {
	for {
		switch d := cmd.(type) {
		case *decorated:
			cmd = d.Command
		case *decoratedComposite:
			cmd = d.Command
		default:
			return cmd
		}
	}
}

func (d *decorated) Name() string {
	if d.name != "" {
		return d.name
	}
	return d.Command.Name()
}

func (d *decorated) InterruptionBehavior() model.InterruptionBehavior {
	if d.behavior != "" {
		return d.behavior
	}
	return d.Command.InterruptionBehavior()
}

func (d *decorated) RunsWhenDisabled() bool {
	if d.runsWhenDisabled != nil {
		return *d.runsWhenDisabled
	}
	return d.Command.RunsWhenDisabled()
}

// IgnoringDisable returns cmd flagged to keep running while the robot is disabled.
func IgnoringDisable(cmd Command, doesRunWhenDisabled bool) Command {
	d := decorate(cmd)
	d.runsWhenDisabled = &doesRunWhenDisabled
	return d.result()
}

// WithInterruptBehavior returns cmd with a different interruption policy.
func WithInterruptBehavior(cmd Command, ib model.InterruptionBehavior) Command {
	d := decorate(cmd)
	d.behavior = ib
	return d.result()
}

// Named returns cmd reported under a different name.
func Named(cmd Command, name string) Command {
	d := decorate(cmd)
	d.name = name
	return d.result()
}

// WithTimeout bounds cmd by d. It is shorthand for Deadline.
func WithTimeout(cmd Command, d time.Duration, clock Clock) (*DeadlineGroup, error) {
	return Deadline(cmd, d, clock)
}

// RepeatCommand restarts its inner command each time it finishes. It never
// finishes on its own.
type RepeatCommand struct {
	Base
	inner   Command
	ended   bool
	started bool
}

// Repeatedly wraps cmd so that it restarts after every normal end. cmd
// becomes composed and may not be scheduled on its own.
func Repeatedly(cmd Command) (*RepeatCommand, error) {
	if cmd == nil {
		return nil, errors.New("repeat: command is nil")
	}
	if IsComposed(cmd) {
		return nil, &model.ComposedCommandError{Command: cmd.Name()}
	}
	r := &RepeatCommand{Base: NewBase("Repeat("+cmd.Name()+")", cmd.Requirements()...), inner: cmd}
	r.SetInterruptionBehavior(cmd.InterruptionBehavior())
	r.SetRunsWhenDisabled(cmd.RunsWhenDisabled())
	markComposed(cmd)
	return r, nil
}

// Inner returns the repeated command.
func (r *RepeatCommand) Inner() Command { return r.inner }

func (r *RepeatCommand) Initialize() {
	r.ended = false
	r.started = true
	r.inner.Initialize()
}

func (r *RepeatCommand) Execute() error {
	if r.ended {
		r.ended = false
		r.inner.Initialize()
	}
	if err := r.inner.Execute(); err != nil {
		return err
	}
	if r.inner.IsFinished() {
		r.inner.End(false)
		r.ended = true
	}
	return nil
}

func (r *RepeatCommand) End(interrupted bool) {
	if r.started && !r.ended {
		r.inner.End(interrupted)
	}
	r.started = false
}
