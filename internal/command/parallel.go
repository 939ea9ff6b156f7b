package command

import "github.com/me/cmdbot/pkg/model"

// ParallelGroup starts all children together and finishes when every child
// has finished. A child that finishes early is ended and no longer ticked.
type ParallelGroup struct {
	group
	running []bool
}

// Parallel composes children that run at the same time. Children must
// require disjoint subsystems.
func Parallel(children ...Command) (*ParallelGroup, error) {
	g, err := newGroup(model.CompositeParallel, children, true)
	if err != nil {
		return nil, err
	}
	return &ParallelGroup{group: g, running: make([]bool, len(children))}, nil
}

func (g *ParallelGroup) Initialize() {
	for i, c := range g.children {
		c.Initialize()
		g.running[i] = true
	}
}

func (g *ParallelGroup) Execute() error {
	for i, c := range g.children {
		if !g.running[i] {
			continue
		}
		if err := c.Execute(); err != nil {
			return childError(c, err)
		}
		if c.IsFinished() {
			c.End(false)
			g.running[i] = false
		}
	}
	return nil
}

func (g *ParallelGroup) IsFinished() bool {
	for _, r := range g.running {
		if r {
			return false
		}
	}
	return true
}

func (g *ParallelGroup) End(interrupted bool) {
	for i, c := range g.children {
		if interrupted && g.running[i] {
			c.End(true)
		}
		g.running[i] = false
	}
}

// RaceGroup starts all children together and finishes as soon as one child
// finishes. The remaining children are interrupted.
type RaceGroup struct {
	group
	finished bool
	live     bool
}

// Race composes children that race each other. Children must require
// disjoint subsystems.
func Race(children ...Command) (*RaceGroup, error) {
	g, err := newGroup(model.CompositeRace, children, true)
	if err != nil {
		return nil, err
	}
	return &RaceGroup{group: g}, nil
}

func (g *RaceGroup) Initialize() {
	g.finished = false
	g.live = true
	for _, c := range g.children {
		c.Initialize()
	}
}

func (g *RaceGroup) Execute() error {
	for _, c := range g.children {
		if err := c.Execute(); err != nil {
			return childError(c, err)
		}
		if c.IsFinished() {
			g.finished = true
		}
	}
	return nil
}

func (g *RaceGroup) IsFinished() bool {
	return g.finished || len(g.children) == 0
}

func (g *RaceGroup) End(interrupted bool) {
	if !g.live {
		return
	}
	g.live = false
	for _, c := range g.children {
		c.End(interrupted || !c.IsFinished())
	}
}
