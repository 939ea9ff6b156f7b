// Package command defines the unit of work run by the scheduler: the Command
// lifecycle, the subsystems it claims, and combinators that compose commands
// into sequences, parallel groups, races and deadlines.
package command

import (
	"time"

	"github.com/me/cmdbot/pkg/model"
)

// Command is a stateful unit of work. The scheduler drives it through
// Initialize, then Execute and IsFinished once per tick, then End.
//
// Requirements must be fixed at construction. Execute must return within
// the tick budget; a command that needs several ticks reports not finished.
// End(true) is delivered even when a command is canceled before its first
// Initialize, so End must tolerate running without it.
type Command interface {
	Name() string
	Requirements() []*Subsystem
	InterruptionBehavior() model.InterruptionBehavior
	// RunsWhenDisabled marks commands that keep ticking while the robot is disabled.
	RunsWhenDisabled() bool

	Initialize()
	Execute() error
	IsFinished() bool
	End(interrupted bool)
}

// Base carries the static metadata of a command. Embed it and override the
// lifecycle methods that matter; the defaults do nothing and never finish.
type Base struct {
	name             string
	requirements     []*Subsystem
	behavior         model.InterruptionBehavior
	runsWhenDisabled bool
	composed         bool
}

// NewBase returns metadata for a CancelSelf command requiring reqs.
func NewBase(name string, reqs ...*Subsystem) Base {
	return Base{
		name:         name,
		requirements: dedupe(reqs),
		behavior:     model.CancelSelf,
	}
}

func (b *Base) Name() string { return b.name }

// SetName renames the command. Only call it before the command is scheduled.
func (b *Base) SetName(name string) { b.name = name }

func (b *Base) Requirements() []*Subsystem { return b.requirements }

func (b *Base) InterruptionBehavior() model.InterruptionBehavior { return b.behavior }

// SetInterruptionBehavior changes the policy applied when another command
// wants one of this command's subsystems.
func (b *Base) SetInterruptionBehavior(ib model.InterruptionBehavior) { b.behavior = ib }

func (b *Base) RunsWhenDisabled() bool { return b.runsWhenDisabled }

// SetRunsWhenDisabled flags the command as exempt from disabled-state suppression.
func (b *Base) SetRunsWhenDisabled(v bool) { b.runsWhenDisabled = v }

func (b *Base) markComposed()    { b.composed = true }
func (b *Base) isComposed() bool { return b.composed }

func (b *Base) Initialize()      {}
func (b *Base) Execute() error   { return nil }
func (b *Base) IsFinished() bool { return false }
func (b *Base) End(bool)         {}

// composable is implemented by every command that embeds Base.
type composable interface {
	markComposed()
	isComposed() bool
}

// IsComposed reports whether cmd, or the command it decorates, belongs to a
// composite. Composed commands are driven by their parent and cannot be
// scheduled on their own or composed a second time.
func IsComposed(cmd Command) bool {
	c, ok := Unwrap(cmd).(composable)
	return ok && c.isComposed()
}

func markComposed(cmds ...Command) {
	for _, cmd := range cmds {
		if c, ok := Unwrap(cmd).(composable); ok {
			c.markComposed()
		}
	}
}

// Requires reports whether cmd claims s.
func Requires(cmd Command, s *Subsystem) bool {
	for _, r := range cmd.Requirements() {
		if r == s {
			return true
		}
	}
	return false
}

// HasConflict reports whether a and b claim at least one common subsystem.
func HasConflict(a, b Command) bool {
	for _, r := range a.Requirements() {
		if Requires(b, r) {
			return true
		}
	}
	return false
}

func dedupe(reqs []*Subsystem) []*Subsystem {
	out := make([]*Subsystem, 0, len(reqs))
	seen := make(map[*Subsystem]bool, len(reqs))
	for _, r := range reqs {
		if r == nil || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// Clock supplies the current time to time-based commands.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }
