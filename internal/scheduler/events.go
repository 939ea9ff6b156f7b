package scheduler

import "github.com/me/cmdbot/internal/command"

// EventKind identifies a scheduler lifecycle event.
type EventKind string

const (
	EventScheduled   EventKind = "scheduled"
	EventRejected    EventKind = "rejected"
	EventInitialized EventKind = "initialized"
	EventExecuted    EventKind = "executed"
	EventFinished    EventKind = "finished"
	EventInterrupted EventKind = "interrupted"
	EventError       EventKind = "error"
)

// Event describes one transition of one command.
type Event struct {
	Kind    EventKind
	Tick    uint64
	Command command.Command
	Episode string
	// By is the incoming command that caused an interruption or rejection.
	By command.Command
	// Err is set for EventError, and for rejections of composed commands.
	Err error
}

// Name returns the command name, or "" for a nil command.
func (e Event) Name() string {
	if e.Command == nil {
		return ""
	}
	return e.Command.Name()
}

// OnEvent registers a listener called synchronously for every event.
func (s *Scheduler) OnEvent(fn func(Event)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Scheduler) emit(ev Event) {
	ev.Tick = s.tick
	for _, fn := range s.listeners {
		fn(ev)
	}
}
