package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/me/cmdbot/internal/logging"
)

// Config holds control loop configuration.
type Config struct {
	// Period is the fixed control period between ticks.
	Period time.Duration
	// MaxTicks stops the loop after that many ticks; 0 runs until stopped.
	MaxTicks uint64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Period: 20 * time.Millisecond}
}

// Stepper is the work done once per period.
type Stepper interface {
	Step(ctx context.Context) error
}

// StepFunc adapts a function to Stepper.
type StepFunc func(ctx context.Context) error

// Step calls f.
func (f StepFunc) Step(ctx context.Context) error { return f(ctx) }

var _ Runner = (*Loop)(nil)

// Loop implements Runner with a fixed-period ticker.
type Loop struct {
	step   Stepper
	config Config
	logger *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  atomic.Bool

	ticks    atomic.Uint64
	overruns atomic.Uint64
}

// NewLoop creates a new control loop around step.
func NewLoop(step Stepper, cfg Config, logger *slog.Logger) *Loop {
	if cfg.Period <= 0 {
		cfg.Period = DefaultConfig().Period
	}
	return &Loop{
		step:   step,
		config: cfg,
		logger: logging.Component(logger, "loop"),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start runs the loop. Blocks until ctx is cancelled, Stop is called, or
// MaxTicks ticks have run.
func (l *Loop) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return fmt.Errorf("loop already started")
	}
	defer close(l.doneCh)

	l.logger.Info("control loop started", "period", l.config.Period, "max_ticks", l.config.MaxTicks)
	ticker := time.NewTicker(l.config.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("control loop stopping (context cancelled)", "ticks", l.Ticks())
			return ctx.Err()
		case <-l.stopCh:
			l.logger.Info("control loop stopping (stop called)", "ticks", l.Ticks())
			return nil
		case <-ticker.C:
			if err := l.Tick(ctx); err != nil {
				l.logger.Error("tick error", "error", err)
			}
			if l.config.MaxTicks > 0 && l.Ticks() >= l.config.MaxTicks {
				l.logger.Info("control loop finished", "ticks", l.Ticks(), "overruns", l.Overruns())
				return nil
			}
		}
	}
}

// Stop shuts the loop down and waits for the current tick to finish.
func (l *Loop) Stop() error {
	l.stopOnce.Do(func() { close(l.stopCh) })
	if l.started.Load() {
		<-l.doneCh
	}
	return nil
}

// Tick runs a single period and flags overruns of the configured period.
func (l *Loop) Tick(ctx context.Context) error {
	start := time.Now()
	err := l.step.Step(ctx)
	n := l.ticks.Add(1)

	if elapsed := time.Since(start); elapsed > l.config.Period {
		l.overruns.Add(1)
		l.logger.Warn("loop overrun", "tick", n, "elapsed", elapsed.String(), "period", l.config.Period.String())
	}
	if err != nil {
		return fmt.Errorf("tick %d: %w", n, err)
	}
	return nil
}

// Ticks returns the number of ticks run.
func (l *Loop) Ticks() uint64 { return l.ticks.Load() }

// Overruns returns the number of ticks that took longer than the period.
func (l *Loop) Overruns() uint64 { return l.overruns.Load() }
