package command

import "github.com/me/cmdbot/pkg/model"

// SequentialGroup runs its children strictly in order. Only the current
// child is live; the rest are untouched until their turn.
type SequentialGroup struct {
	group
	index int
}

// Sequence composes children into a sequential command. Children may share
// subsystems since they never run at the same time.
func Sequence(children ...Command) (*SequentialGroup, error) {
	g, err := newGroup(model.CompositeSequential, children, false)
	if err != nil {
		return nil, err
	}
	return &SequentialGroup{group: g, index: -1}, nil
}

// Current returns the child currently running, or nil.
func (g *SequentialGroup) Current() Command {
	if g.index < 0 || g.index >= len(g.children) {
		return nil
	}
	return g.children[g.index]
}

func (g *SequentialGroup) Initialize() {
	g.index = 0
	if len(g.children) > 0 {
		g.children[0].Initialize()
	}
}

func (g *SequentialGroup) Execute() error {
	cur := g.Current()
	if cur == nil {
		return nil
	}
	if err := cur.Execute(); err != nil {
		return childError(cur, err)
	}
	if cur.IsFinished() {
		cur.End(false)
		g.index++
		if next := g.Current(); next != nil {
			next.Initialize()
		}
	}
	return nil
}

func (g *SequentialGroup) IsFinished() bool {
	return g.index >= len(g.children)
}

func (g *SequentialGroup) End(interrupted bool) {
	if interrupted {
		if cur := g.Current(); cur != nil {
			cur.End(true)
		}
	}
	g.index = -1
}
