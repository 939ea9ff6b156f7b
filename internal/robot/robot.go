package robot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/me/cmdbot/internal/command"
	"github.com/me/cmdbot/internal/config"
	"github.com/me/cmdbot/internal/hardware"
	"github.com/me/cmdbot/internal/healthcheck"
	"github.com/me/cmdbot/internal/input"
	"github.com/me/cmdbot/internal/logging"
	"github.com/me/cmdbot/internal/scheduler"
	"github.com/me/cmdbot/internal/telemetry"
	"github.com/me/cmdbot/pkg/model"
)

// ErrRequestQueueFull is returned by RequestMode when the loop has not
// drained earlier requests.
var ErrRequestQueueFull = errors.New("mode request queue full")

// Robot owns the scheduler and everything it drives. Step, SetMode and the
// mode hooks run on the loop goroutine; RequestMode, Mode and Status may be
// called from anywhere.
type Robot struct {
	cfg    config.RobotConfig
	logger *slog.Logger

	sched  *scheduler.Scheduler
	clock  command.Clock
	ticker *TickClock
	poller *input.Poller
	player *input.Player
	table  *telemetry.Table
	pub    telemetry.Publisher

	bus       *hardware.Bus
	driveHW   *hardware.DriveSystem
	gripperHW *hardware.GripperSystem
	limelight *hardware.Limelight
	drive     *command.Subsystem
	gripper   *command.Subsystem

	chooser     *Chooser
	commands    map[string]command.Command
	healthCheck command.Command
	report      *healthcheck.Report
	testCommand command.Command
	modeCommand command.Command

	mode     model.Mode
	modeVal  atomic.Value
	requests chan model.Mode

	mu        sync.RWMutex
	active    []string
	tick      uint64
	lastError string
	errors    atomic.Uint64
}

// New builds the robot described by cfg. The robot starts disabled with the
// health check scheduled; the configured starting mode is entered on the
// first Step.
func New(cfg config.RobotConfig, opts Options) (*Robot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &Robot{
		cfg:      cfg,
		logger:   logging.Component(logger, "robot"),
		sched:    scheduler.New(logger),
		table:    telemetry.NewTable(),
		chooser:  NewChooser(),
		commands: make(map[string]command.Command),
		mode:     model.ModeDisabled,
		requests: make(chan model.Mode, 8),
	}
	r.modeVal.Store(model.ModeDisabled)
	r.pub = telemetry.Multi{r.table, opts.Publisher}

	r.clock = opts.Clock
	if r.clock == nil {
		r.ticker = NewTickClock(time.Unix(0, 0))
		r.clock = r.ticker
	}

	src := opts.Source
	if cfg.Script != nil || src == nil {
		r.player = input.NewPlayer(cfg.Script)
		if src == nil {
			src = r.player
		}
	}
	r.poller = input.NewPoller(src)

	if err := r.build(cfg); err != nil {
		return nil, err
	}
	r.sched.OnEvent(r.onEvent)
	r.OnDisable()

	if start, _ := model.ParseMode(cfg.Mode); start != model.ModeDisabled {
		r.requests <- start
	}
	return r, nil
}

func (r *Robot) onEvent(ev scheduler.Event) {
	if ev.Kind != scheduler.EventError {
		return
	}
	r.errors.Add(1)
	r.mu.Lock()
	r.lastError = ev.Err.Error()
	r.mu.Unlock()
	r.pub.Publish("Scheduler/LastError", ev.Err.Error())
}

// Mode returns the current robot mode.
func (r *Robot) Mode() model.Mode {
	return r.modeVal.Load().(model.Mode)
}

// RequestMode asks the loop to switch modes on its next step.
func (r *Robot) RequestMode(m model.Mode) error {
	if _, ok := model.ParseMode(string(m)); !ok {
		return model.NewValidationError("unknown mode", model.FieldError{Field: "mode", Message: string(m)})
	}
	select {
	case r.requests <- m:
		return nil
	default:
		return ErrRequestQueueFull
	}
}

// SetMode switches modes immediately, running the exit and entry hooks.
// Loop goroutine only.
func (r *Robot) SetMode(m model.Mode) {
	if m == r.mode {
		return
	}
	prev := r.mode
	r.mode = m
	r.modeVal.Store(m)
	r.logger.Info("mode changed", "from", prev, "to", m)

	if !m.IsEnabled() {
		r.OnDisable()
	} else {
		if !prev.IsEnabled() {
			r.OnEnable()
		}
		switch m {
		case model.ModeAutonomous:
			r.OnAutonomousInit()
		case model.ModeTeleop:
			r.OnTeleopInit()
		case model.ModeTest:
			r.OnTestInit()
		}
	}
	r.pub.Publish("Robot/Mode", string(m))
}

// OnDisable cancels everything that cannot run disabled, stops the
// actuators and starts the health check.
func (r *Robot) OnDisable() {
	r.sched.SetEnabled(false)
	r.sched.CancelWhere(func(c command.Command) bool { return !c.RunsWhenDisabled() })
	r.modeCommand = nil
	r.driveHW.Stop()
	r.gripperHW.Stop()
	r.sched.Schedule(r.healthCheck)
}

// OnEnable re-enables the scheduler and hands the subsystems back from the
// health check.
func (r *Robot) OnEnable() {
	r.sched.SetEnabled(true)
	r.sched.Cancel(r.healthCheck)
}

// OnAutonomousInit schedules the routine picked on the chooser.
func (r *Robot) OnAutonomousInit() {
	r.cancelModeCommand()
	cmd := r.chooser.Command()
	if cmd == nil {
		r.logger.Warn("no autonomous routine selected")
		return
	}
	r.logger.Info("autonomous routine", "auto", r.chooser.Selected(), "command", cmd.Name())
	if r.sched.Schedule(cmd) {
		r.modeCommand = cmd
	}
}

// OnTeleopInit stops autonomous so that the operator has control.
func (r *Robot) OnTeleopInit() {
	r.cancelModeCommand()
}

// OnTestInit cancels everything and runs the test routine.
func (r *Robot) OnTestInit() {
	r.sched.CancelAll()
	r.modeCommand = nil
	if r.sched.Schedule(r.testCommand) {
		r.modeCommand = r.testCommand
	}
}

func (r *Robot) cancelModeCommand() {
	if r.modeCommand != nil {
		r.sched.Cancel(r.modeCommand)
		r.modeCommand = nil
	}
}

// Step runs one control period: scripted events, mode requests, input
// sampling, the scheduler tick and dashboard publishing.
func (r *Robot) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.ticker != nil {
		r.ticker.Advance(r.cfg.Period)
	}
	tick := r.sched.TickCount() + 1

	if r.player != nil {
		for _, st := range r.player.Advance(tick) {
			r.applyScript(st)
		}
	}
	r.drainRequests()

	r.poller.Poll()
	r.sched.Tick()
	r.publishState()
	return nil
}

func (r *Robot) applyScript(st input.Step) {
	for _, name := range st.Disconnect {
		if err := r.bus.SetConnected(name, false); err != nil {
			r.logger.Warn("script disconnect", "tick", st.Tick, "error", err)
		}
	}
	for _, name := range st.Reconnect {
		if err := r.bus.SetConnected(name, true); err != nil {
			r.logger.Warn("script reconnect", "tick", st.Tick, "error", err)
		}
	}
	if st.Mode != "" {
		if m, ok := model.ParseMode(st.Mode); ok {
			r.SetMode(m)
		}
	}
}

func (r *Robot) drainRequests() {
	for {
		select {
		case m := <-r.requests:
			r.SetMode(m)
		default:
			return
		}
	}
}

func (r *Robot) publishState() {
	snap := r.sched.Snapshot()
	names := snap.ActiveNames()

	r.pub.Publish("Scheduler/Active", names)
	for sub, owner := range snap.Owners {
		r.pub.Publish("Scheduler/Owners/"+sub, owner)
	}
	r.pub.Publish("Robot/Mode", string(r.mode))
	r.pub.Publish("Robot/Tick", snap.Tick)
	left, right := r.driveHW.Output()
	r.pub.Publish("Drive/Left", left)
	r.pub.Publish("Drive/Right", right)
	r.pub.Publish("Drive/Position", r.driveHW.Position())
	r.pub.Publish("Drive/Pitch", r.driveHW.Pitch())
	r.pub.Publish("Gripper/Intake", r.gripperHW.Intake.Get())

	r.mu.Lock()
	r.active = names
	r.tick = snap.Tick
	r.mu.Unlock()
}

// Status summarizes the robot for the dashboard.
func (r *Robot) Status() model.RobotStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active := make([]string, len(r.active))
	copy(active, r.active)
	return model.RobotStatus{
		Mode:         r.Mode(),
		Tick:         r.tick,
		Active:       active,
		SelectedAuto: r.chooser.Selected(),
	}
}

// LastError returns the most recent command error and the total count.
func (r *Robot) LastError() (string, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastError, r.errors.Load()
}

// Autos lists the autonomous routines.
func (r *Robot) Autos() []model.AutoOption { return r.chooser.Options() }

// SelectAuto changes the autonomous selection. It takes effect at the next
// autonomous init.
func (r *Robot) SelectAuto(key string) error {
	if err := r.chooser.Select(key); err != nil {
		return model.NewNotFoundError("auto", key)
	}
	r.pub.Publish("Robot/SelectedAuto", key)
	return nil
}
