package command

import "github.com/me/cmdbot/pkg/model"

// Hardware is the capability surface a subsystem exposes to the core.
// Sensing and actuation calls are subsystem specific and opaque here.
type Hardware interface {
	// CheckConnectivity reports device health as a human-readable string.
	// A disconnected device is an expected condition, not an error.
	CheckConnectivity() string
}

// Periodic is implemented by hardware that wants a hook once per tick,
// before triggers are evaluated.
type Periodic interface {
	Periodic()
}

// Subsystem is an exclusive-ownership resource representing one piece of
// hardware. Ownership is tracked by the scheduler, never by the subsystem.
type Subsystem struct {
	name           string
	hw             Hardware
	defaultCommand Command
}

// NewSubsystem creates a subsystem. hw may be nil for purely logical resources.
func NewSubsystem(name string, hw Hardware) *Subsystem {
	return &Subsystem{name: name, hw: hw}
}

// Name returns the subsystem identity.
func (s *Subsystem) Name() string { return s.name }

// String implements fmt.Stringer.
func (s *Subsystem) String() string { return s.name }

// Hardware returns the device behind the subsystem, or nil.
func (s *Subsystem) Hardware() Hardware { return s.hw }

// CheckConnectivity delegates to the hardware capability.
func (s *Subsystem) CheckConnectivity() string {
	if s.hw == nil {
		return "no hardware attached"
	}
	return s.hw.CheckConnectivity()
}

// DefaultCommand returns the command run whenever the subsystem is unowned.
func (s *Subsystem) DefaultCommand() Command { return s.defaultCommand }

// SetDefaultCommand installs cmd as the default. cmd must require s and must
// not end on its own terms in a way that starves other commands.
func (s *Subsystem) SetDefaultCommand(cmd Command) error {
	if cmd == nil {
		return &model.InvalidDefaultCommandError{Subsystem: s.name, Command: "<nil>", Reason: "command is nil"}
	}
	if !Requires(cmd, s) {
		return &model.InvalidDefaultCommandError{
			Subsystem: s.name,
			Command:   cmd.Name(),
			Reason:    "default commands must require their subsystem",
		}
	}
	s.defaultCommand = cmd
	return nil
}

// RemoveDefaultCommand clears the default command.
func (s *Subsystem) RemoveDefaultCommand() {
	s.defaultCommand = nil
}
