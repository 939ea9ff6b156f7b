package scheduler

// ActiveCommand describes one active command.
type ActiveCommand struct {
	Name             string   `json:"name"`
	State            string   `json:"state"`
	Episode          string   `json:"episode"`
	Requirements     []string `json:"requirements"`
	RunsWhenDisabled bool     `json:"runs_when_disabled"`
}

// Snapshot is a point-in-time copy of scheduler state, safe to hand to
// other goroutines.
type Snapshot struct {
	Tick    uint64            `json:"tick"`
	Enabled bool              `json:"enabled"`
	Active  []ActiveCommand   `json:"active"`
	Owners  map[string]string `json:"owners"`
}

// Snapshot copies the current scheduler state.
func (s *Scheduler) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:    s.tick,
		Enabled: s.enabled,
		Active:  make([]ActiveCommand, 0, len(s.active)),
		Owners:  make(map[string]string, len(s.subsystems)),
	}
	for _, e := range s.active {
		reqs := make([]string, 0, len(e.cmd.Requirements()))
		for _, r := range e.cmd.Requirements() {
			reqs = append(reqs, r.Name())
		}
		snap.Active = append(snap.Active, ActiveCommand{
			Name:             e.cmd.Name(),
			State:            e.state.String(),
			Episode:          e.episode,
			Requirements:     reqs,
			RunsWhenDisabled: e.cmd.RunsWhenDisabled(),
		})
	}
	for _, sub := range s.subsystems {
		if owner := s.owners[sub]; owner != nil {
			snap.Owners[sub.Name()] = owner.Name()
		} else {
			snap.Owners[sub.Name()] = ""
		}
	}
	return snap
}

// ActiveNames returns the names of active commands in scheduling order.
func (sn Snapshot) ActiveNames() []string {
	out := make([]string, len(sn.Active))
	for i, a := range sn.Active {
		out[i] = a.Name
	}
	return out
}
