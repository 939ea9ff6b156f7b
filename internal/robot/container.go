// Package robot wires subsystems, commands, triggers and the autonomous
// chooser around a scheduler and runs the robot mode state machine.
package robot

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/me/cmdbot/internal/bindexpr"
	"github.com/me/cmdbot/internal/command"
	"github.com/me/cmdbot/internal/config"
	"github.com/me/cmdbot/internal/hardware"
	"github.com/me/cmdbot/internal/healthcheck"
	"github.com/me/cmdbot/internal/input"
	"github.com/me/cmdbot/internal/scheduler"
	"github.com/me/cmdbot/internal/telemetry"
	"github.com/me/cmdbot/internal/trigger"
	"github.com/me/cmdbot/pkg/model"
)

// Subsystem and command names used by bindings and the dashboard.
const (
	DriveSubsystem   = "Drive"
	GripperSubsystem = "Gripper"

	CmdDriveWithJoystick = "DriveWithJoystick"
	CmdIntake            = "Intake"
	CmdOuttake           = "Outtake"
	CmdHealthCheck       = "HealthCheck"
	CmdTest              = "TestMode"
)

// Operator input ids.
const (
	ButtonIntake  = "x"
	ButtonOuttake = "b"
	AxisForward   = "leftY"
	AxisRotation  = "rightX"
)

const (
	intakeSpeed   = 0.8
	driveTestStep = time.Second
)

// Options carries the collaborators that differ between a live run and a
// test.
type Options struct {
	Logger *slog.Logger
	// Publisher receives every value published to the robot's table.
	Publisher telemetry.Publisher
	// Source overrides the scripted input source.
	Source input.Source
	// Clock defaults to a TickClock advanced by the robot.
	Clock command.Clock
}

func (r *Robot) build(cfg config.RobotConfig) error {
	r.bus = hardware.NewBus()
	r.driveHW = hardware.NewDriveSystem(r.bus, cfg.Period)
	r.gripperHW = hardware.NewGripperSystem(r.bus)
	r.limelight = hardware.NewLimelight(r.bus)

	r.drive = command.NewSubsystem(DriveSubsystem, r.driveHW)
	r.gripper = command.NewSubsystem(GripperSubsystem, r.gripperHW)
	if err := r.sched.Register(r.drive, r.gripper); err != nil {
		return err
	}

	joystick := command.Run(CmdDriveWithJoystick, func() error {
		r.driveHW.ArcadeDrive(-r.poller.Axis(AxisForward), r.poller.Axis(AxisRotation))
		return nil
	}, r.drive)
	if err := r.drive.SetDefaultCommand(joystick); err != nil {
		return err
	}

	intake := command.StartEnd(CmdIntake,
		func() { r.gripperHW.SetIntake(intakeSpeed) },
		r.gripperHW.Stop,
		r.gripper)
	outtake := command.StartEnd(CmdOuttake,
		func() { r.gripperHW.SetIntake(-intakeSpeed) },
		r.gripperHW.Stop,
		r.gripper)

	probes := []healthcheck.Probe{
		healthcheck.ForSubsystem(r.drive),
		healthcheck.ForSubsystem(r.gripper),
		{Key: "Limelight", Check: r.limelight},
	}
	hc, report, err := healthcheck.Orchestrator(probes, r.pub, healthcheck.Options{Repeat: cfg.HealthCheckRepeat})
	if err != nil {
		return err
	}
	r.healthCheck, r.report = hc, report

	// The test routine gets its own single-pass check so that it can finish.
	testCheck, _, err := healthcheck.Orchestrator(probes, r.pub, healthcheck.Options{})
	if err != nil {
		return err
	}
	driveTest, err := DriveTest(r.driveHW, r.drive, driveTestStep, r.clock)
	if err != nil {
		return err
	}
	testSeq, err := command.Sequence(testCheck, driveTest)
	if err != nil {
		return fmt.Errorf("test routine: %w", err)
	}
	r.testCommand = command.Named(testSeq, CmdTest)

	balance, err := DriveUpAndBalance(r.driveHW, r.drive, r.clock)
	if err != nil {
		return err
	}
	left, err := LeftSide(r.driveHW, r.drive, r.clock)
	if err != nil {
		return err
	}
	for _, o := range []struct {
		key, desc string
		cmd       command.Command
	}{
		{"b", "Drive up and balance", balance},
		{"a", "Do nothing", DoNothing()},
		{"e", "Left side", left},
	} {
		if err := r.chooser.Add(o.key, o.desc, o.cmd); err != nil {
			return err
		}
	}
	if err := r.chooser.SetDefault(cfg.Auto); err != nil {
		return fmt.Errorf("auto: %w", err)
	}

	for _, c := range []command.Command{joystick, intake, outtake, hc, r.testCommand, balance, left} {
		r.commands[c.Name()] = c
	}

	r.sched.AddTrigger(
		trigger.New("button:"+ButtonIntake, r.poller.ButtonFunc(ButtonIntake)).WhileTrue(intake),
		trigger.New("button:"+ButtonOuttake, r.poller.ButtonFunc(ButtonOuttake)).WhileTrue(outtake),
	)
	return r.bindConfigured(cfg.Bindings)
}

// bindConfigured compiles the config bindings into triggers.
func (r *Robot) bindConfigured(bindings []config.Binding) error {
	if len(bindings) == 0 {
		return nil
	}
	env, err := bindexpr.NewEnv(r.poller, func() string { return string(r.Mode()) }, r.logger)
	if err != nil {
		return err
	}
	for i, b := range bindings {
		edge, name, err := b.Action()
		if err != nil {
			return fmt.Errorf("bindings[%d]: %w", i, err)
		}
		cmd, ok := r.commands[name]
		if !ok {
			return fmt.Errorf("bindings[%d]: %w", i, model.NewNotFoundError("command", name))
		}
		expr, err := env.Compile(b.When)
		if err != nil {
			return fmt.Errorf("bindings[%d]: %w", i, err)
		}
		r.sched.AddTrigger(trigger.New(b.When, expr.Condition()).Bind(edge, cmd))
		r.logger.Debug("binding added", "when", b.When, "edge", edge, "command", name)
	}
	return nil
}

// CommandNames lists the commands bindings can refer to.
func (r *Robot) CommandNames() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Command returns a named command.
func (r *Robot) Command(name string) (command.Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Chooser returns the autonomous chooser.
func (r *Robot) Chooser() *Chooser { return r.chooser }

// Scheduler returns the scheduler. Only the loop goroutine may use it.
func (r *Robot) Scheduler() *scheduler.Scheduler { return r.sched }

// Bus returns the simulated device bus.
func (r *Robot) Bus() *hardware.Bus { return r.bus }

// Drive returns the drive hardware.
func (r *Robot) Drive() *hardware.DriveSystem { return r.driveHW }

// Gripper returns the gripper hardware.
func (r *Robot) Gripper() *hardware.GripperSystem { return r.gripperHW }

// Report returns the health check report.
func (r *Robot) Report() *healthcheck.Report { return r.report }

// Table returns the robot's telemetry table.
func (r *Robot) Table() *telemetry.Table { return r.table }
