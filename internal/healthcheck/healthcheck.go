// Package healthcheck probes subsystem connectivity. The orchestrator is a
// sequence of single-tick probes that keeps running while the robot is
// disabled.
package healthcheck

import (
	"fmt"
	"sort"
	"sync"

	"github.com/me/cmdbot/internal/command"
	"github.com/me/cmdbot/internal/hardware"
	"github.com/me/cmdbot/internal/telemetry"
)

// Table is the telemetry table probe results are published under.
const Table = "Hardware"

// Probe checks one device group. Subsystem is nil for environment-wide
// checks such as the camera.
type Probe struct {
	Key       string
	Subsystem *command.Subsystem
	Check     command.Hardware
}

// ForSubsystem builds a probe that checks and requires s.
func ForSubsystem(s *command.Subsystem) Probe {
	return Probe{Key: s.Name(), Subsystem: s, Check: s}
}

// Report aggregates the latest status of every probe. It is written by the
// loop goroutine and may be read from anywhere.
type Report struct {
	mu      sync.RWMutex
	results map[string]string
	runs    int
}

func NewReport() *Report {
	return &Report{results: make(map[string]string)}
}

func (r *Report) record(key, status string) {
	r.mu.Lock()
	r.results[key] = status
	r.mu.Unlock()
}

func (r *Report) finishRun() {
	r.mu.Lock()
	r.runs++
	r.mu.Unlock()
}

// Status returns the last status published for key.
func (r *Report) Status(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.results[key]
	return s, ok
}

// Results returns a copy of all statuses.
func (r *Report) Results() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.results))
	for k, v := range r.results {
		out[k] = v
	}
	return out
}

// Runs is the number of completed passes over every probe.
func (r *Report) Runs() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runs
}

// Healthy reports whether every probe has reported OK.
func (r *Report) Healthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.results) == 0 {
		return false
	}
	for _, s := range r.results {
		if s != hardware.StatusOK {
			return false
		}
	}
	return true
}

// Summary renders "N/M OK" followed by the failing keys.
func (r *Report) Summary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var failing []string
	for k, s := range r.results {
		if s != hardware.StatusOK {
			failing = append(failing, k)
		}
	}
	sort.Strings(failing)
	sum := fmt.Sprintf("%d/%d OK", len(r.results)-len(failing), len(r.results))
	if len(failing) > 0 {
		sum += fmt.Sprintf(" (failing: %v)", failing)
	}
	return sum
}

// ProbeCommand returns a single-tick command that publishes p's
// connectivity string under Hardware/<key>.
func ProbeCommand(p Probe, pub telemetry.Publisher, report *Report) command.Command {
	var reqs []*command.Subsystem
	if p.Subsystem != nil {
		reqs = append(reqs, p.Subsystem)
	}
	hw := telemetry.Prefixed(pub, Table)
	return command.Instant("Check"+p.Key, func() error {
		status := p.Check.CheckConnectivity()
		report.record(p.Key, status)
		hw.Publish(p.Key, status)
		return nil
	}, reqs...)
}

// Options configures the orchestrator.
type Options struct {
	// Repeat restarts the sequence after the last probe until canceled.
	Repeat bool
}

// Orchestrator builds the health-check command and its report. The command
// runs while disabled.
func Orchestrator(probes []Probe, pub telemetry.Publisher, opts Options) (command.Command, *Report, error) {
	if pub == nil {
		pub = telemetry.Discard
	}
	report := NewReport()
	hw := telemetry.Prefixed(pub, Table)
	children := make([]command.Command, 0, len(probes)+1)
	for _, p := range probes {
		if p.Check == nil {
			return nil, nil, fmt.Errorf("probe %q has nothing to check", p.Key)
		}
		children = append(children, ProbeCommand(p, pub, report))
	}
	children = append(children, command.Instant("PublishHealthSummary", func() error {
		report.finishRun()
		hw.Publish("Summary", report.Summary())
		return nil
	}))

	seq, err := command.Sequence(children...)
	if err != nil {
		return nil, nil, fmt.Errorf("build health check: %w", err)
	}
	var cmd command.Command = seq
	if opts.Repeat {
		if cmd, err = command.Repeatedly(seq); err != nil {
			return nil, nil, fmt.Errorf("build health check: %w", err)
		}
	}
	cmd = command.Named(command.IgnoringDisable(cmd, true), "HealthCheck")
	return cmd, report, nil
}
