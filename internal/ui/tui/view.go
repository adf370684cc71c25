package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderPlan(&b, m)
	renderPhases(&b, m)

	if m.Message != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  " + m.Message))
		b.WriteString("\n")
	}

	if m.Err != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "  %s %s\n", failedStyle.Render(crossMark), failedStyle.Render(m.Err.Error()))
	}

	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := "teamcache: deploy"
	if m.DryRun {
		title += " (dry run)"
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render("Failed")
	case m.Done:
		status += readyStyle.Render("Done")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + warningStyle.Render("Deploying")
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderPlan(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Plan"))
	b.WriteString("\n")
	fmt.Fprintf(b, "    %-10s %s\n", dimStyle.Render("mode"), m.Mode)
	fmt.Fprintf(b, "    %-10s %s\n", dimStyle.Render("devices"), strings.Join(m.Devices, ", "))
	fmt.Fprintf(b, "    %-10s %s\n", dimStyle.Render("endpoint"), m.Endpoint)
}

func renderPhases(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Phases"))
	b.WriteString("\n")

	for _, phase := range m.Phases {
		var icon string
		var style styleFunc
		switch {
		case phase.Err != nil:
			icon = crossMark
			style = sf(failedStyle)
		case phase.Done:
			icon = checkMark
			style = sf(readyStyle)
		case phase.Active:
			icon = currentSpinner(m.SpinnerFrame)
			style = sf(activeStyle)
		default:
			icon = pending
			style = sf(dimStyle)
		}
		fmt.Fprintf(b, "    %s %s\n", style(icon), style(phase.Name))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := formatDuration(time.Since(m.StartTime))
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed: %s  |  q: quit", elapsed)))
	b.WriteString("\n")
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
