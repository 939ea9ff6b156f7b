// Package input exposes operator devices as boolean and axis sources that
// are sampled once per tick.
package input

import (
	"slices"
	"sync"
)

// Source is an operator input device.
type Source interface {
	PollBoolean(id string) bool
	PollAxis(id string) float64
}

// Poller samples a Source once per tick and serves the cached values to
// triggers and commands for the rest of the tick.
type Poller struct {
	src     Source
	buttons []string
	axes    []string

	bools  map[string]bool
	values map[string]float64
}

// NewPoller creates a poller over src.
func NewPoller(src Source) *Poller {
	return &Poller{
		src:    src,
		bools:  make(map[string]bool),
		values: make(map[string]float64),
	}
}

// Poll samples every button and axis that has been requested so far.
func (p *Poller) Poll() {
	for _, id := range p.buttons {
		p.bools[id] = p.src.PollBoolean(id)
	}
	for _, id := range p.axes {
		p.values[id] = p.src.PollAxis(id)
	}
}

// Button returns the cached value of button id. Reading an id registers it
// for polling from the next tick on.
func (p *Poller) Button(id string) bool {
	if !slices.Contains(p.buttons, id) {
		p.buttons = append(p.buttons, id)
		p.bools[id] = p.src.PollBoolean(id)
	}
	return p.bools[id]
}

// Axis returns the cached value of axis id, registering it like Button.
func (p *Poller) Axis(id string) float64 {
	if !slices.Contains(p.axes, id) {
		p.axes = append(p.axes, id)
		p.values[id] = p.src.PollAxis(id)
	}
	return p.values[id]
}

// ButtonFunc returns a condition suitable for a trigger.
func (p *Poller) ButtonFunc(id string) func() bool {
	return func() bool { return p.Button(id) }
}

// Static is a Source whose values are set by hand. It is safe for use from
// several goroutines.
type Static struct {
	mu     sync.RWMutex
	bools  map[string]bool
	values map[string]float64
}

// NewStatic creates an all-released, all-centered source.
func NewStatic() *Static {
	return &Static{bools: make(map[string]bool), values: make(map[string]float64)}
}

// SetButton sets a button value.
func (s *Static) SetButton(id string, v bool) {
	s.mu.Lock()
	s.bools[id] = v
	s.mu.Unlock()
}

// SetAxis sets an axis value.
func (s *Static) SetAxis(id string, v float64) {
	s.mu.Lock()
	s.values[id] = v
	s.mu.Unlock()
}

func (s *Static) PollBoolean(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bools[id]
}

func (s *Static) PollAxis(id string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[id]
}
