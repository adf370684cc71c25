// Package tui provides a Bubble Tea-based terminal UI for deployment
// progress.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lucidlink/teamcache/internal/orchestration"
)

// PhaseMsg reports progress of a deployment phase.
type PhaseMsg struct {
	Phase string
	Done  bool
	Err   error
}

// EventMsg wraps an orchestration event for the message line.
type EventMsg struct {
	Event orchestration.Event
}

// TickMsg is sent periodically to refresh the spinner.
type TickMsg struct{}

// ErrMsg carries a fatal error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the deployment is complete.
type DoneMsg struct{}

// FromEvent converts an orchestration event into the message the model
// consumes.
func FromEvent(event orchestration.Event) tea.Msg {
	switch event.Type {
	case orchestration.EventPhaseStarted:
		return PhaseMsg{Phase: event.Phase}
	case orchestration.EventPhaseCompleted:
		return PhaseMsg{Phase: event.Phase, Done: true}
	case orchestration.EventPhaseFailed:
		return PhaseMsg{Phase: event.Phase, Err: errMessage(event.Message)}
	default:
		return EventMsg{Event: event}
	}
}

type errMessage string

func (e errMessage) Error() string { return string(e) }
