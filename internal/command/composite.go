package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/me/cmdbot/pkg/model"
)

// Composite is a command built from child commands. Kind tags the variant.
type Composite interface {
	Command
	Kind() model.CompositeKind
	Children() []Command
}

// group holds what every composite variant shares: the children and the
// requirement set derived from them.
type group struct {
	Base
	kind     model.CompositeKind
	children []Command
}

func (g *group) Kind() model.CompositeKind { return g.kind }

func (g *group) Children() []Command {
	out := make([]Command, len(g.children))
	copy(out, g.children)
	return out
}

// newGroup validates children and derives metadata. disjoint enforces that no
// two children share a subsystem. On success the children are marked as
// composed.
func newGroup(kind model.CompositeKind, children []Command, disjoint bool) (group, error) {
	seen := make(map[Command]bool, len(children))
	owner := make(map[*Subsystem]Command)
	var reqs []*Subsystem
	names := make([]string, 0, len(children))

	behavior := model.CancelIncoming
	runsWhenDisabled := true

	for i, c := range children {
		if c == nil {
			return group{}, fmt.Errorf("%s composite: child %d is nil", kind, i)
		}
		// Decorated aliases share the lifecycle of the command they wrap.
		id := Unwrap(c)
		if seen[id] {
			return group{}, &model.DuplicateCommandError{Kind: kind, Command: c.Name()}
		}
		seen[id] = true
		if IsComposed(c) {
			return group{}, &model.ComposedCommandError{Kind: kind, Command: c.Name()}
		}

		for _, r := range c.Requirements() {
			if prev, ok := owner[r]; ok {
				if disjoint {
					return group{}, &model.RequirementConflictError{
						Kind:      kind,
						Subsystem: r.Name(),
						First:     prev.Name(),
						Second:    c.Name(),
					}
				}
				continue
			}
			owner[r] = c
			reqs = append(reqs, r)
		}

		if c.InterruptionBehavior() == model.CancelSelf {
			behavior = model.CancelSelf
		}
		runsWhenDisabled = runsWhenDisabled && c.RunsWhenDisabled()
		names = append(names, c.Name())
	}
	if len(children) == 0 {
		behavior = model.CancelSelf
	}

	g := group{
		Base:     NewBase(kindTitle(kind)+"("+strings.Join(names, ", ")+")", reqs...),
		kind:     kind,
		children: append([]Command(nil), children...),
	}
	g.SetInterruptionBehavior(behavior)
	g.SetRunsWhenDisabled(runsWhenDisabled)
	markComposed(children...)
	return g, nil
}

func kindTitle(k model.CompositeKind) string {
	s := string(k)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsConstructionError reports whether err came from invalid composition.
func IsConstructionError(err error) bool {
	var rc *model.RequirementConflictError
	var dc *model.DuplicateCommandError
	var cc *model.ComposedCommandError
	return errors.As(err, &rc) || errors.As(err, &dc) || errors.As(err, &cc)
}

func childError(c Command, err error) error {
	return fmt.Errorf("%s: %w", c.Name(), err)
}
