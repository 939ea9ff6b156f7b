// Package scheduler owns subsystem ownership and drives commands through
// their lifecycle once per tick.
//
// The scheduler is single threaded: every method must be called from the
// goroutine running the control loop.
package scheduler

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/me/cmdbot/internal/command"
	"github.com/me/cmdbot/internal/logging"
	"github.com/me/cmdbot/internal/trigger"
	"github.com/me/cmdbot/pkg/model"
)

// entry tracks one command across its scheduling episodes.
type entry struct {
	cmd     command.Command
	state   model.CommandState
	episode string
}

// Scheduler is the single point of truth for subsystem ownership and
// command execution order.
type Scheduler struct {
	logger *slog.Logger

	subsystems []*command.Subsystem
	names      map[string]*command.Subsystem
	triggers   []*trigger.Trigger

	active  []*entry
	entries map[command.Command]*entry
	owners  map[*command.Subsystem]command.Command

	enabled   bool
	tick      uint64
	listeners []func(Event)
}

// New creates a scheduler. It starts disabled, like the robot it serves.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger:  logging.Component(logger, "scheduler"),
		names:   make(map[string]*command.Subsystem),
		entries: make(map[command.Command]*entry),
		owners:  make(map[*command.Subsystem]command.Command),
	}
}

// Register adds subsystems to the registry. Registration order decides the
// order default commands are scheduled in.
func (s *Scheduler) Register(subs ...*command.Subsystem) error {
	for _, sub := range subs {
		if sub == nil {
			return fmt.Errorf("register: nil subsystem")
		}
		if _, ok := s.names[sub.Name()]; ok {
			return &model.DuplicateSubsystemError{Name: sub.Name()}
		}
		s.names[sub.Name()] = sub
		s.subsystems = append(s.subsystems, sub)
		s.logger.Debug("subsystem registered", "subsystem", sub.Name())
	}
	return nil
}

// Subsystems returns the registry in registration order.
func (s *Scheduler) Subsystems() []*command.Subsystem {
	return slices.Clone(s.subsystems)
}

// Subsystem looks up a registered subsystem by name.
func (s *Scheduler) Subsystem(name string) (*command.Subsystem, bool) {
	sub, ok := s.names[name]
	return sub, ok
}

// AddTrigger registers triggers. They are polled in registration order, so
// when two triggers fire in the same tick the earlier one decides first.
func (s *Scheduler) AddTrigger(ts ...*trigger.Trigger) {
	s.triggers = append(s.triggers, ts...)
}

// SetEnabled switches the global disabled state. While disabled, only
// commands that run when disabled may be scheduled or keep ticking.
func (s *Scheduler) SetEnabled(enabled bool) {
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	s.logger.Info("scheduler state changed", "enabled", enabled)
}

// Enabled reports the global enabled state.
func (s *Scheduler) Enabled() bool { return s.enabled }

// TickCount returns the number of ticks run so far.
func (s *Scheduler) TickCount() uint64 { return s.tick }

// Schedule requests that cmd begin running and reports whether it is active
// afterwards. A command blocked by a CancelIncoming owner is dropped without
// touching ownership; that is not an error.
func (s *Scheduler) Schedule(cmd command.Command) bool {
	if cmd == nil {
		return false
	}
	if s.IsScheduled(cmd) {
		return true
	}
	if command.IsComposed(cmd) {
		err := &model.ComposedCommandError{Command: cmd.Name()}
		s.logger.Warn("command rejected", "command", cmd.Name(), "error", err)
		s.emit(Event{Kind: EventRejected, Command: cmd, Err: err})
		return false
	}
	if !s.enabled && !cmd.RunsWhenDisabled() {
		s.logger.Debug("command ignored while disabled", "command", cmd.Name())
		s.emit(Event{Kind: EventRejected, Command: cmd})
		return false
	}

	var conflicts []command.Command
	for _, req := range cmd.Requirements() {
		owner, ok := s.owners[req]
		if !ok || slices.Contains(conflicts, owner) {
			continue
		}
		if owner.InterruptionBehavior() == model.CancelIncoming {
			s.logger.Debug("command rejected", "command", cmd.Name(), "owner", owner.Name(), "subsystem", req.Name())
			s.emit(Event{Kind: EventRejected, Command: cmd, By: owner})
			return false
		}
		conflicts = append(conflicts, owner)
	}

	for _, owner := range conflicts {
		if e := s.entries[owner]; e != nil && e.state.IsActive() {
			s.logger.Info("command interrupted", "command", owner.Name(), "by", cmd.Name(), "episode", e.episode)
			s.end(e, true, cmd)
		}
	}

	e := s.entries[cmd]
	if e == nil {
		e = &entry{cmd: cmd, state: model.CommandStateUnscheduled}
		s.entries[cmd] = e
	}
	if !s.setState(e, model.CommandStateInitializing) {
		return false
	}
	e.episode = "ep_" + uuid.New().String()[:8]
	s.active = append(s.active, e)
	for _, req := range cmd.Requirements() {
		s.owners[req] = cmd
	}

	s.logger.Debug("command scheduled", "command", cmd.Name(), "episode", e.episode)
	s.emit(Event{Kind: EventScheduled, Command: cmd, Episode: e.episode})
	return true
}

// Cancel ends cmd with interrupted=true and releases its subsystems. It is a
// no-op for commands that are not active.
func (s *Scheduler) Cancel(cmd command.Command) {
	if cmd == nil {
		return
	}
	e := s.entries[cmd]
	if e == nil || !e.state.IsActive() {
		return
	}
	s.logger.Info("command canceled", "command", cmd.Name(), "episode", e.episode)
	s.end(e, true, nil)
}

// CancelAll cancels every active command.
func (s *Scheduler) CancelAll() {
	s.CancelWhere(func(command.Command) bool { return true })
}

// CancelWhere cancels every active command matching pred, in scheduling order.
func (s *Scheduler) CancelWhere(pred func(command.Command) bool) {
	for _, e := range slices.Clone(s.active) {
		if e.state.IsActive() && pred(e.cmd) {
			s.Cancel(e.cmd)
		}
	}
}

// IsScheduled reports whether cmd currently holds its requirements.
func (s *Scheduler) IsScheduled(cmd command.Command) bool {
	e := s.entries[cmd]
	return e != nil && e.state.IsActive()
}

// State returns the lifecycle state of cmd's latest episode.
func (s *Scheduler) State(cmd command.Command) model.CommandState {
	if e := s.entries[cmd]; e != nil {
		return e.state
	}
	return model.CommandStateUnscheduled
}

// Owner returns the command owning sub, or nil.
func (s *Scheduler) Owner(sub *command.Subsystem) command.Command {
	return s.owners[sub]
}

// Active returns the active commands in scheduling order.
func (s *Scheduler) Active() []command.Command {
	out := make([]command.Command, 0, len(s.active))
	for _, e := range s.active {
		out = append(out, e.cmd)
	}
	return out
}

// Tick runs one period of the scheduling algorithm:
//
//  1. subsystem periodic hooks, then triggers in registration order
//  2. active commands initialize or execute, finished ones end and release
//  3. unowned subsystems get their default command
//
// Tick never blocks and never fails. Errors raised by a command end that
// command and are reported through the logger and EventError.
func (s *Scheduler) Tick() {
	s.tick++

	for _, sub := range s.subsystems {
		if p, ok := sub.Hardware().(command.Periodic); ok {
			if err := guard(func() error { p.Periodic(); return nil }); err != nil {
				s.logger.Error("subsystem periodic failed", "subsystem", sub.Name(), "error", err)
			}
		}
	}

	for _, t := range s.triggers {
		if err := guard(func() error { t.Poll(s); return nil }); err != nil {
			s.logger.Error("trigger poll failed", "trigger", t.Name(), "error", err)
		}
	}

	for _, e := range slices.Clone(s.active) {
		if !e.state.IsActive() {
			continue
		}
		if !s.enabled && !e.cmd.RunsWhenDisabled() {
			s.logger.Info("command suppressed while disabled", "command", e.cmd.Name())
			s.end(e, true, nil)
			continue
		}
		s.step(e)
	}

	for _, sub := range s.subsystems {
		def := sub.DefaultCommand()
		if def == nil || s.owners[sub] != nil || s.IsScheduled(def) {
			continue
		}
		if !s.enabled && !def.RunsWhenDisabled() {
			continue
		}
		s.Schedule(def)
	}
}

// step advances one active command by one increment.
func (s *Scheduler) step(e *entry) {
	if e.state == model.CommandStateInitializing {
		if err := guard(func() error { e.cmd.Initialize(); return nil }); err != nil {
			s.fail(e, "initialize", err)
			return
		}
		if !s.setState(e, model.CommandStateRunning) {
			return
		}
		s.emit(Event{Kind: EventInitialized, Command: e.cmd, Episode: e.episode})
	}

	if err := guard(e.cmd.Execute); err != nil {
		s.fail(e, "execute", err)
		return
	}
	s.emit(Event{Kind: EventExecuted, Command: e.cmd, Episode: e.episode})

	var finished bool
	if err := guard(func() error { finished = e.cmd.IsFinished(); return nil }); err != nil {
		s.fail(e, "is_finished", err)
		return
	}
	if finished {
		s.end(e, false, nil)
	}
}

// fail reports an execution error and forcibly ends the command.
func (s *Scheduler) fail(e *entry, phase string, err error) {
	cerr := &model.CommandError{Command: e.cmd.Name(), Phase: phase, Err: err}
	s.logger.Error("command failed", "command", e.cmd.Name(), "phase", phase, "episode", e.episode, "error", err)
	s.emit(Event{Kind: EventError, Command: e.cmd, Episode: e.episode, Err: cerr})
	s.end(e, true, nil)
}

// end runs the Ending phase, releases subsystems and removes the command
// from the active set.
func (s *Scheduler) end(e *entry, interrupted bool, by command.Command) {
	if !s.setState(e, model.CommandStateEnding) {
		return
	}
	if err := guard(func() error { e.cmd.End(interrupted); return nil }); err != nil {
		s.logger.Error("command end failed", "command", e.cmd.Name(), "episode", e.episode, "error", err)
		s.emit(Event{Kind: EventError, Command: e.cmd, Episode: e.episode,
			Err: &model.CommandError{Command: e.cmd.Name(), Phase: "end", Err: err}})
	}

	for _, req := range e.cmd.Requirements() {
		if s.owners[req] == e.cmd {
			delete(s.owners, req)
		}
	}
	s.active = slices.DeleteFunc(s.active, func(x *entry) bool { return x == e })
	s.setState(e, model.CommandStateFinished)

	kind := EventFinished
	if interrupted {
		kind = EventInterrupted
	}
	s.emit(Event{Kind: kind, Command: e.cmd, Episode: e.episode, By: by})
}

// setState moves e to next if the lifecycle table allows it. An illegal move
// leaves the state alone and is reported as EventError.
func (s *Scheduler) setState(e *entry, next model.CommandState) bool {
	if !e.state.CanTransitionTo(next) {
		err := &model.IllegalTransitionError{Command: e.cmd.Name(), From: e.state, To: next}
		s.logger.Error("illegal command transition", "command", e.cmd.Name(), "from", e.state, "to", next, "episode", e.episode)
		s.emit(Event{Kind: EventError, Command: e.cmd, Episode: e.episode, Err: err})
		return false
	}
	e.state = next
	return true
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
