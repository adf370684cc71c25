package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/orchestration"
)

// RunDeployTUI wraps a deployment run with a Bubble Tea dashboard.
// deployFn runs the pipeline, reporting progress through the observer.
func RunDeployTUI(plan config.Plan, dryRun bool, deployFn func(orchestration.Observer) error) error {
	m := NewDeployModel(plan, dryRun)

	p := tea.NewProgram(m)

	// Run the pipeline in a background goroutine, forwarding its
	// events into the program.
	go func() {
		events := make(chan orchestration.Event, 64)
		observer := orchestration.NewChannelObserver(events)

		done := make(chan error, 1)
		go func() {
			done <- deployFn(observer)
			close(events)
		}()

		for event := range events {
			p.Send(FromEvent(event))
		}

		if err := <-done; err != nil {
			p.Send(ErrMsg{Err: err})
			return
		}
		p.Send(DoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	fm := finalModel.(Model)
	if fm.Err != nil {
		return fm.Err
	}
	return nil
}
