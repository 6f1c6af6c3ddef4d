package engine

import "time"

// EventType captures high level lifecycle notifications emitted by the
// supervisor.
type EventType string

const (
	EventTypeBuildStarted  EventType = "build-started"
	EventTypeBuildFinished EventType = "build-finished"
	EventTypeStarting      EventType = "starting"
	EventTypeStarted       EventType = "started"
	EventTypeExited        EventType = "exited"
	EventTypeTerminating   EventType = "terminating"
	EventTypeError         EventType = "error"
)

// Event represents a single lifecycle notification. Pid, ExitCode and
// Duration are meaningful only for the event types that set them.
type Event struct {
	Timestamp time.Time
	Child     string
	Type      EventType
	Message   string
	Pid       int
	ExitCode  int
	Duration  time.Duration
	Err       error
}

func sendEvent(events chan<- Event, evt Event) {
	if events == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	events <- evt
}
