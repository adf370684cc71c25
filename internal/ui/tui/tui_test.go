package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/orchestration"
)

func testPlan() config.Plan {
	plan := config.NewPlan()
	plan.DeploymentMode = config.ModeHybrid
	plan.Devices = []string{"/dev/sdb", "/dev/sdc"}
	plan.ServerIP = "10.0.0.5"
	return plan
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{30 * time.Second, "30s"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		got := formatDuration(tt.d)
		if got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestNewDeployModelPhases(t *testing.T) {
	m := NewDeployModel(testPlan(), false)
	if len(m.Phases) != 6 {
		t.Fatalf("expected 6 phases, got %d", len(m.Phases))
	}
	if m.Phases[0].Key != "discover" || m.Phases[5].Key != "verify" {
		t.Errorf("unexpected phase order: %v", m.Phases)
	}
}

func TestNewDeployModelDryRunPhases(t *testing.T) {
	m := NewDeployModel(testPlan(), true)
	if len(m.Phases) != 2 {
		t.Fatalf("expected 2 phases for dry run, got %d", len(m.Phases))
	}
	if m.Phases[1].Key != "validate" {
		t.Errorf("expected validate as final dry-run phase, got %q", m.Phases[1].Key)
	}
}

func TestModelUpdatePhase(t *testing.T) {
	m := NewDeployModel(testPlan(), false)

	m.updatePhase(PhaseMsg{Phase: "provision"})
	if !m.Phases[2].Active {
		t.Error("expected provision phase to be active")
	}
	if !m.Phases[0].Done || !m.Phases[1].Done {
		t.Error("expected earlier phases to be marked done")
	}

	m.updatePhase(PhaseMsg{Phase: "provision", Done: true})
	if !m.Phases[2].Done {
		t.Error("expected provision phase to be done")
	}
	if m.Phases[2].Active {
		t.Error("expected provision phase to not be active after done")
	}
}

func TestModelUpdatePhaseFinalMarksDone(t *testing.T) {
	m := NewDeployModel(testPlan(), false)
	m.updatePhase(PhaseMsg{Phase: "verify", Done: true})
	if !m.Done {
		t.Error("expected model done after final phase completes")
	}
}

func TestModelUpdatePhaseError(t *testing.T) {
	m := NewDeployModel(testPlan(), false)
	failure := errors.New("mkfs failed")

	updated, cmd := m.Update(PhaseMsg{Phase: "provision", Err: failure})
	got := updated.(Model)
	if got.Err == nil {
		t.Fatal("expected model error after phase failure")
	}
	if got.Phases[2].Err == nil {
		t.Error("expected provision phase to carry the error")
	}
	if cmd == nil {
		t.Error("expected quit command after phase failure")
	}
}

func TestModelQuitKeys(t *testing.T) {
	m := NewDeployModel(testPlan(), false)
	for _, key := range []string{"q", "ctrl+c"} {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		if key == "q" && cmd == nil {
			t.Errorf("expected quit command for key %q", key)
		}
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("expected quit command for ctrl+c")
	}
}

func TestModelEventMessage(t *testing.T) {
	m := NewDeployModel(testPlan(), false)
	updated, _ := m.Update(EventMsg{Event: orchestration.Event{
		Type:    orchestration.EventMessage,
		Message: "mounted /dev/sdb at /cache/disk1",
	}})
	got := updated.(Model)
	if got.Message != "mounted /dev/sdb at /cache/disk1" {
		t.Errorf("unexpected message: %q", got.Message)
	}
}

func TestFromEvent(t *testing.T) {
	msg := FromEvent(orchestration.Event{Type: orchestration.EventPhaseStarted, Phase: "discover"})
	pm, ok := msg.(PhaseMsg)
	if !ok {
		t.Fatalf("expected PhaseMsg, got %T", msg)
	}
	if pm.Phase != "discover" || pm.Done {
		t.Errorf("unexpected PhaseMsg: %+v", pm)
	}

	msg = FromEvent(orchestration.Event{Type: orchestration.EventPhaseCompleted, Phase: "validate"})
	pm = msg.(PhaseMsg)
	if !pm.Done {
		t.Error("expected completed event to produce done phase message")
	}

	msg = FromEvent(orchestration.Event{Type: orchestration.EventPhaseFailed, Phase: "install", Message: "unit failed"})
	pm = msg.(PhaseMsg)
	if pm.Err == nil {
		t.Error("expected failed event to carry an error")
	}
}

func TestViewRendersPhases(t *testing.T) {
	m := NewDeployModel(testPlan(), false)
	m.Phases[0].Done = true
	m.Phases[1].Active = true

	out := m.View()
	if !strings.Contains(out, "Discover Devices") {
		t.Error("expected view to list discover phase")
	}
	if !strings.Contains(out, checkMark) {
		t.Error("expected view to render a completed marker")
	}
	if !strings.Contains(out, "/dev/sdb") {
		t.Error("expected view to show plan devices")
	}
}
