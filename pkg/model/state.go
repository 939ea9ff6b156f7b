package model

// CommandState represents the lifecycle state of a Command within one
// scheduling episode.
type CommandState string

const (
	CommandStateUnscheduled  CommandState = "UNSCHEDULED"
	CommandStateInitializing CommandState = "INITIALIZING"
	CommandStateRunning      CommandState = "RUNNING"
	CommandStateEnding       CommandState = "ENDING"
	CommandStateFinished     CommandState = "FINISHED"
)

// String returns the string representation of the command state.
func (s CommandState) String() string {
	return string(s)
}

// IsActive returns true if the command currently holds its requirements.
func (s CommandState) IsActive() bool {
	switch s {
	case CommandStateInitializing, CommandStateRunning, CommandStateEnding:
		return true
	}
	return false
}

// ValidCommandTransitions defines the allowed state transitions for Commands.
// Finished may start a new episode; Initializing may be cut short by a cancel.
var ValidCommandTransitions = map[CommandState][]CommandState{
	CommandStateUnscheduled:  {CommandStateInitializing},
	CommandStateInitializing: {CommandStateRunning, CommandStateEnding},
	CommandStateRunning:      {CommandStateEnding},
	CommandStateEnding:       {CommandStateFinished},
	CommandStateFinished:     {CommandStateInitializing},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s CommandState) CanTransitionTo(next CommandState) bool {
	for _, allowed := range ValidCommandTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InterruptionBehavior decides who yields when an incoming command needs a
// subsystem that an active command already owns.
type InterruptionBehavior string

const (
	// CancelSelf lets the incoming command take over; the owner is interrupted.
	CancelSelf InterruptionBehavior = "CANCEL_SELF"
	// CancelIncoming keeps the owner running; the incoming command is dropped.
	CancelIncoming InterruptionBehavior = "CANCEL_INCOMING"
)

// String returns the string representation of the interruption behavior.
func (b InterruptionBehavior) String() string {
	return string(b)
}

// CompositeKind tags the variant of a composite command.
type CompositeKind string

const (
	CompositeSequential CompositeKind = "sequential"
	CompositeParallel   CompositeKind = "parallel"
	CompositeRace       CompositeKind = "race"
	CompositeDeadline   CompositeKind = "deadline"
)

// Mode is the operating mode of the robot.
type Mode string

const (
	ModeDisabled   Mode = "disabled"
	ModeAutonomous Mode = "autonomous"
	ModeTeleop     Mode = "teleop"
	ModeTest       Mode = "test"
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// IsEnabled returns true for every mode except disabled.
func (m Mode) IsEnabled() bool {
	return m != ModeDisabled
}

// ParseMode converts a mode name into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeDisabled, ModeAutonomous, ModeTeleop, ModeTest:
		return Mode(s), true
	}
	return "", false
}
