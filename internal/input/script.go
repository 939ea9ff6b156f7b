package input

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Step sets input values or device faults at a given tick.
type Step struct {
	Tick       uint64             `yaml:"tick"`
	Buttons    map[string]bool    `yaml:"buttons,omitempty"`
	Axes       map[string]float64 `yaml:"axes,omitempty"`
	Mode       string             `yaml:"mode,omitempty"`
	Disconnect []string           `yaml:"disconnect,omitempty"`
	Reconnect  []string           `yaml:"reconnect,omitempty"`
}

// Script is a timeline of input changes. Values hold until changed.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// LoadScript reads a YAML script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript decodes a YAML script and sorts its steps by tick.
func ParseScript(data []byte) (*Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	sort.SliceStable(sc.Steps, func(i, j int) bool { return sc.Steps[i].Tick < sc.Steps[j].Tick })
	return &sc, nil
}

// Player replays a Script into a Static source.
type Player struct {
	*Static
	script *Script
	next   int
}

// NewPlayer creates a player. A nil script plays nothing.
func NewPlayer(sc *Script) *Player {
	if sc == nil {
		sc = &Script{}
	}
	return &Player{Static: NewStatic(), script: sc}
}

// Advance applies every step due at or before tick and returns them so the
// caller can act on mode changes and device faults.
func (p *Player) Advance(tick uint64) []Step {
	var due []Step
	for p.next < len(p.script.Steps) && p.script.Steps[p.next].Tick <= tick {
		st := p.script.Steps[p.next]
		for id, v := range st.Buttons {
			p.SetButton(id, v)
		}
		for id, v := range st.Axes {
			p.SetAxis(id, v)
		}
		due = append(due, st)
		p.next++
	}
	return due
}

// Done reports whether every step has been applied.
func (p *Player) Done() bool {
	return p.next >= len(p.script.Steps)
}
