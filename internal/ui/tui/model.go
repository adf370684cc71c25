package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lucidlink/teamcache/internal/config"
)

// DeployPhase represents one pipeline phase for display.
type DeployPhase struct {
	Name   string
	Key    string
	Done   bool
	Active bool
	Err    error
}

// Model is the Bubble Tea model for the deployment dashboard.
type Model struct {
	// Plan summary
	Mode     string
	Devices  []string
	Endpoint string
	DryRun   bool

	// Pipeline state
	Phases  []DeployPhase
	Message string

	// Animation
	SpinnerFrame int
	StartTime    time.Time

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool
}

// NewDeployModel creates a model for the deploy command TUI.
func NewDeployModel(plan config.Plan, dryRun bool) Model {
	phases := []DeployPhase{
		{Name: "Discover Devices", Key: "discover"},
		{Name: "Validate Plan", Key: "validate"},
	}
	if !dryRun {
		phases = append(phases,
			DeployPhase{Name: "Provision Storage", Key: "provision"},
			DeployPhase{Name: "Generate Configuration", Key: "generate"},
			DeployPhase{Name: "Install Services", Key: "install"},
			DeployPhase{Name: "Verify Deployment", Key: "verify"},
		)
	}
	return Model{
		Mode:      plan.DeploymentMode,
		Devices:   plan.Devices,
		Endpoint:  plan.Endpoint(),
		DryRun:    dryRun,
		Phases:    phases,
		StartTime: time.Now(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case PhaseMsg:
		m.updatePhase(msg)
		if msg.Err != nil {
			m.Err = msg.Err
			return m, tea.Quit
		}

	case EventMsg:
		m.Message = msg.Event.Message

	case TickMsg:
		m.SpinnerFrame++
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) updatePhase(msg PhaseMsg) {
	idx := -1
	for i, phase := range m.Phases {
		if phase.Key == msg.Phase {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	// Phases run strictly in order, so everything before is done.
	for i := 0; i < idx; i++ {
		m.Phases[i].Done = true
		m.Phases[i].Active = false
	}

	if msg.Done {
		m.Phases[idx].Done = true
		m.Phases[idx].Active = false
		if idx == len(m.Phases)-1 {
			m.Done = true
		}
	} else {
		m.Phases[idx].Active = true
	}

	if msg.Err != nil {
		m.Phases[idx].Err = msg.Err
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
