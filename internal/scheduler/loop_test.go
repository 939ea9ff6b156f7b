package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/me/cmdbot/internal/logging"
)

func discardLogger() *slog.Logger {
	return logging.Discard()
}

// TestLoop_StopsAfterMaxTicks verifies the loop runs exactly MaxTicks steps
// and returns nil.
func TestLoop_StopsAfterMaxTicks(t *testing.T) {
	var n atomic.Int32
	step := StepFunc(func(ctx context.Context) error {
		n.Add(1)
		return nil
	})
	l := NewLoop(step, Config{Period: time.Millisecond, MaxTicks: 5}, discardLogger())

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := n.Load(); got != 5 {
		t.Errorf("steps = %d, want 5", got)
	}
	if l.Ticks() != 5 {
		t.Errorf("Ticks() = %d, want 5", l.Ticks())
	}
}

// TestLoop_Stop verifies Stop ends a running loop and waits for it.
func TestLoop_Stop(t *testing.T) {
	l := NewLoop(StepFunc(func(context.Context) error { return nil }),
		Config{Period: time.Millisecond}, discardLogger())

	done := make(chan error, 1)
	go func() { done <- l.Start(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for l.Ticks() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := l.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Start returned %v, want nil", err)
	}
	if err := l.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

// TestLoop_ContextCancel verifies cancellation is reported.
func TestLoop_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLoop(StepFunc(func(context.Context) error { return nil }),
		Config{Period: time.Hour}, discardLogger())
	if err := l.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Start = %v, want context.Canceled", err)
	}
	if err := l.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
}

// TestLoop_TickCountsOverruns verifies a slow step is flagged as an overrun
// and step errors are wrapped with the tick number.
func TestLoop_TickCountsOverruns(t *testing.T) {
	slow := StepFunc(func(context.Context) error {
		time.Sleep(5 * time.Millisecond)
		return errors.New("late")
	})
	l := NewLoop(slow, Config{Period: time.Millisecond}, discardLogger())

	err := l.Tick(context.Background())
	if err == nil || err.Error() != "tick 1: late" {
		t.Errorf("Tick error = %v, want 'tick 1: late'", err)
	}
	if l.Overruns() != 1 {
		t.Errorf("Overruns() = %d, want 1", l.Overruns())
	}
}

// TestLoop_DrivesScheduler runs a real scheduler through the loop.
func TestLoop_DrivesScheduler(t *testing.T) {
	s := testScheduler(t)
	cmd := newProbe("three", 3)
	s.Schedule(cmd)

	l := NewLoop(StepFunc(func(context.Context) error { s.Tick(); return nil }),
		Config{Period: time.Millisecond, MaxTicks: 4}, discardLogger())
	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.TickCount() != 4 {
		t.Errorf("scheduler ticks = %d, want 4", s.TickCount())
	}
	if s.IsScheduled(cmd) || cmd.ends != 1 {
		t.Error("command should have finished inside the loop")
	}
}

func TestDefaultConfig(t *testing.T) {
	if DefaultConfig().Period != 20*time.Millisecond {
		t.Errorf("default period = %v", DefaultConfig().Period)
	}
	l := NewLoop(StepFunc(func(context.Context) error { return nil }), Config{}, discardLogger())
	if l.config.Period != 20*time.Millisecond {
		t.Errorf("zero period should fall back to default, got %v", l.config.Period)
	}
}
