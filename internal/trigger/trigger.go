// Package trigger binds edge-detected boolean conditions to scheduling actions.
package trigger

import "github.com/me/cmdbot/internal/command"

// Actions is the scheduling surface a trigger drives.
type Actions interface {
	// Schedule requests cmd and reports whether it is now active.
	Schedule(cmd command.Command) bool
	Cancel(cmd command.Command)
	IsScheduled(cmd command.Command) bool
}

// Edge names the transition a binding reacts to.
type Edge string

const (
	OnTrue        Edge = "on_true"
	OnFalse       Edge = "on_false"
	WhileTrue     Edge = "while_true"
	WhileFalse    Edge = "while_false"
	ToggleOnTrue  Edge = "toggle_on_true"
	ToggleOnFalse Edge = "toggle_on_false"
)

// ParseEdge converts a binding kind name into an Edge.
func ParseEdge(s string) (Edge, bool) {
	switch e := Edge(s); e {
	case OnTrue, OnFalse, WhileTrue, WhileFalse, ToggleOnTrue, ToggleOnFalse:
		return e, true
	}
	return "", false
}

type binding struct {
	edge Edge
	cmd  command.Command
}

// Trigger samples a condition once per tick and compares it with the value
// captured on the previous tick. The first sample only primes the trigger.
type Trigger struct {
	name      string
	condition func() bool
	prev      bool
	primed    bool
	bindings  []binding
}

// New creates a trigger over condition.
func New(name string, condition func() bool) *Trigger {
	return &Trigger{name: name, condition: condition}
}

// Name returns the trigger name used in logs.
func (t *Trigger) Name() string { return t.name }

// Condition returns the current value of the condition without edge tracking.
func (t *Trigger) Condition() bool { return t.condition() }

// Bind attaches cmd to the given edge.
func (t *Trigger) Bind(edge Edge, cmd command.Command) *Trigger {
	t.bindings = append(t.bindings, binding{edge: edge, cmd: cmd})
	return t
}

// OnTrue schedules cmd on the rising edge.
func (t *Trigger) OnTrue(cmd command.Command) *Trigger { return t.Bind(OnTrue, cmd) }

// OnFalse schedules cmd on the falling edge.
func (t *Trigger) OnFalse(cmd command.Command) *Trigger { return t.Bind(OnFalse, cmd) }

// WhileTrue schedules cmd on the rising edge and cancels it on the falling edge.
func (t *Trigger) WhileTrue(cmd command.Command) *Trigger { return t.Bind(WhileTrue, cmd) }

// WhileFalse schedules cmd on the falling edge and cancels it on the rising edge.
func (t *Trigger) WhileFalse(cmd command.Command) *Trigger { return t.Bind(WhileFalse, cmd) }

// ToggleOnTrue starts cmd on a rising edge, or cancels it if already running.
func (t *Trigger) ToggleOnTrue(cmd command.Command) *Trigger { return t.Bind(ToggleOnTrue, cmd) }

// ToggleOnFalse starts cmd on a falling edge, or cancels it if already running.
func (t *Trigger) ToggleOnFalse(cmd command.Command) *Trigger { return t.Bind(ToggleOnFalse, cmd) }

// Poll samples the condition and applies bindings for any edge. Bindings fire
// in the order they were added.
func (t *Trigger) Poll(a Actions) {
	cur := t.condition()
	if !t.primed {
		t.primed = true
		t.prev = cur
		return
	}
	rising := !t.prev && cur
	falling := t.prev && !cur
	t.prev = cur
	if !rising && !falling {
		return
	}

	for _, b := range t.bindings {
		switch b.edge {
		case OnTrue:
			if rising {
				a.Schedule(b.cmd)
			}
		case OnFalse:
			if falling {
				a.Schedule(b.cmd)
			}
		case WhileTrue:
			if rising {
				a.Schedule(b.cmd)
			} else {
				a.Cancel(b.cmd)
			}
		case WhileFalse:
			if falling {
				a.Schedule(b.cmd)
			} else {
				a.Cancel(b.cmd)
			}
		case ToggleOnTrue:
			if rising {
				toggle(a, b.cmd)
			}
		case ToggleOnFalse:
			if falling {
				toggle(a, b.cmd)
			}
		}
	}
}

func toggle(a Actions, cmd command.Command) {
	if a.IsScheduled(cmd) {
		a.Cancel(cmd)
	} else {
		a.Schedule(cmd)
	}
}

// And returns a trigger that is high while both t and other are high.
func (t *Trigger) And(other *Trigger) *Trigger {
	return New(t.name+"&&"+other.name, func() bool { return t.condition() && other.condition() })
}

// Or returns a trigger that is high while either t or other is high.
func (t *Trigger) Or(other *Trigger) *Trigger {
	return New(t.name+"||"+other.name, func() bool { return t.condition() || other.condition() })
}

// Negate returns a trigger that is high while t is low.
func (t *Trigger) Negate() *Trigger {
	return New("!"+t.name, func() bool { return !t.condition() })
}
