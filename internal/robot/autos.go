package robot

import (
	"fmt"
	"math"
	"time"

	"github.com/me/cmdbot/internal/command"
	"github.com/me/cmdbot/internal/hardware"
)

// Balance thresholds in degrees.
const (
	mountedPitch  = 8.0
	balancedPitch = 2.0
)

// driveFor drives at a fixed output until d elapses, then stops.
func driveFor(name string, hw *hardware.DriveSystem, sub *command.Subsystem, forward, rotation float64, d time.Duration, clock command.Clock) (command.Command, error) {
	run := command.Functional(name,
		nil,
		func() error { hw.ArcadeDrive(forward, rotation); return nil },
		func(bool) { hw.Stop() },
		nil,
		sub)
	bounded, err := command.WithTimeout(run, d, clock)
	if err != nil {
		return nil, err
	}
	return command.Named(bounded, name), nil
}

// driveUntil drives at a fixed output until done reports true or the
// timeout elapses.
func driveUntil(name string, hw *hardware.DriveSystem, sub *command.Subsystem, forward float64, done func() bool, timeout time.Duration, clock command.Clock) (command.Command, error) {
	run := command.Functional(name,
		nil,
		func() error { hw.ArcadeDrive(forward, 0); return nil },
		func(bool) { hw.Stop() },
		done,
		sub)
	return command.WithTimeout(run, timeout, clock)
}

// driveStep is one timed segment of a scripted drive.
type driveStep struct {
	name              string
	forward, rotation float64
	d                 time.Duration
}

// driveSteps builds a sequence of timed drive segments.
func driveSteps(hw *hardware.DriveSystem, sub *command.Subsystem, clock command.Clock, steps []driveStep) (*command.SequentialGroup, error) {
	cmds := make([]command.Command, 0, len(steps))
	for _, st := range steps {
		c, err := driveFor(st.name, hw, sub, st.forward, st.rotation, st.d, clock)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	return command.Sequence(cmds...)
}

// DriveUpAndBalance climbs the charge station and stops once level.
func DriveUpAndBalance(hw *hardware.DriveSystem, sub *command.Subsystem, clock command.Clock) (command.Command, error) {
	mount, err := driveUntil("Mount", hw, sub, 0.6, func() bool { return hw.Pitch() > mountedPitch }, 4*time.Second, clock)
	if err != nil {
		return nil, fmt.Errorf("driveUpAndBalance: %w", err)
	}
	climb, err := driveUntil("Climb", hw, sub, 0.3, func() bool { return math.Abs(hw.Pitch()) < balancedPitch }, 3*time.Second, clock)
	if err != nil {
		return nil, fmt.Errorf("driveUpAndBalance: %w", err)
	}
	seq, err := command.Sequence(
		command.Instant("ResetPose", func() error { hw.ResetPose(); return nil }, sub),
		mount,
		climb,
		command.Instant("Brake", func() error { hw.Stop(); return nil }, sub),
	)
	if err != nil {
		return nil, fmt.Errorf("driveUpAndBalance: %w", err)
	}
	return command.Named(seq, "DriveUpAndBalance"), nil
}

// LeftSide leaves the community from the left starting position.
func LeftSide(hw *hardware.DriveSystem, sub *command.Subsystem, clock command.Clock) (command.Command, error) {
	seq, err := driveSteps(hw, sub, clock, []driveStep{
		{"LeaveCommunity", 0.5, 0, 1500 * time.Millisecond},
		{"TurnLeft", 0, -0.4, 500 * time.Millisecond},
		{"Approach", 0.4, 0, time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("leftSide: %w", err)
	}
	return command.Named(seq, "LeftSide"), nil
}

// DoNothing finishes immediately.
func DoNothing() command.Command {
	return command.Named(command.None(), "DoNothing")
}

// DriveTest exercises each drive direction for a fixed time.
func DriveTest(hw *hardware.DriveSystem, sub *command.Subsystem, step time.Duration, clock command.Clock) (command.Command, error) {
	seq, err := driveSteps(hw, sub, clock, []driveStep{
		{"TestForward", 0.5, 0, step},
		{"TestBackward", -0.5, 0, step},
		{"TestClockwise", 0, 0.5, step},
		{"TestCounterClockwise", 0, -0.5, step},
		{"TestSlowForward", 0.2, 0, step},
	})
	if err != nil {
		return nil, fmt.Errorf("drive test: %w", err)
	}
	return command.Named(seq, "DriveTest"), nil
}
