package orchestration

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// EventType classifies deployment events.
type EventType string

const (
	EventPhaseStarted   EventType = "phase.started"
	EventPhaseCompleted EventType = "phase.completed"
	EventPhaseFailed    EventType = "phase.failed"
	EventPhaseSkipped   EventType = "phase.skipped"
	EventWarning        EventType = "warning"
	EventMessage        EventType = "message"
)

// Event is one structured deployment event.
type Event struct {
	Type      EventType
	Phase     string
	Message   string
	Timestamp time.Time
}

// Observer receives deployment progress. The console and the TUI both
// implement it.
type Observer interface {
	Printf(format string, v ...any)
	Event(event Event)
}

// LogObserver writes events through a zerolog logger.
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver returns an Observer backed by log.
func NewLogObserver(log zerolog.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) Printf(format string, v ...any) {
	o.log.Info().Msg(fmt.Sprintf(format, v...))
}

func (o *LogObserver) Event(event Event) {
	entry := o.log.Info()
	if event.Type == EventPhaseFailed || event.Type == EventWarning {
		entry = o.log.Warn()
	}
	entry.Str("event", string(event.Type)).Str("phase", event.Phase).Msg(event.Message)
}

// ChannelObserver forwards events to a channel, for TUI consumption.
// Events are dropped rather than blocking the pipeline when the
// consumer falls behind.
type ChannelObserver struct {
	events chan<- Event
}

// NewChannelObserver returns an Observer feeding events.
func NewChannelObserver(events chan<- Event) *ChannelObserver {
	return &ChannelObserver{events: events}
}

func (o *ChannelObserver) Printf(format string, v ...any) {
	o.send(Event{Type: EventMessage, Message: fmt.Sprintf(format, v...)})
}

func (o *ChannelObserver) Event(event Event) {
	o.send(event)
}

func (o *ChannelObserver) send(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case o.events <- event:
	default:
	}
}
