package launcher

import (
	"time"

	"github.com/tad-network/tadsim/internal/runtime"
)

// EventType captures lifecycle notifications emitted by the supervisor.
type EventType string

const (
	EventTypeSwept    EventType = "swept"
	EventTypeStarting EventType = "starting"
	EventTypeStarted  EventType = "started"
	EventTypeReady    EventType = "ready"
	EventTypeCrashed  EventType = "crashed"
	EventTypeStopping EventType = "stopping"
	EventTypeStopped  EventType = "stopped"
	EventTypeLog      EventType = "log"
	EventTypeError    EventType = "error"
)

// Event represents a single lifecycle or log notification.
type Event struct {
	Timestamp time.Time
	Process   string
	PID       int
	Type      EventType
	Message   string
	Level     string
	Source    string
	Err       error
}

func (s *Supervisor) sendEvent(process string, pid int, t EventType, message string, err error) {
	if s.events == nil {
		return
	}
	level := "info"
	if err != nil || t == EventTypeCrashed || t == EventTypeError {
		level = "error"
	}
	s.events <- Event{
		Timestamp: time.Now(),
		Process:   process,
		PID:       pid,
		Type:      t,
		Message:   message,
		Level:     level,
		Source:    runtime.LogSourceSystem,
		Err:       err,
	}
}
