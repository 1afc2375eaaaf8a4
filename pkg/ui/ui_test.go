package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(s Selector, msgs ...tea.KeyMsg) (Selector, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var m tea.Model
		m, cmd = s.Update(msg)
		s = m.(Selector)
	}
	return s, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSelectorArrowsAndEnter(t *testing.T) {
	s, cmd := press(NewMenu(),
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	if s.Choice() != ItemStop {
		t.Errorf("Choice() = %q, want %q", s.Choice(), ItemStop)
	}
	if cmd == nil {
		t.Error("expected quit command after selection")
	}
}

func TestSelectorNumberedChoice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single digit", "5", ItemStatus},
		{"two digits", "11", ItemApps},
		{"sync", "12", ItemAppsSync},
		{"help", "13", ItemHelp},
		{"last", "14", ItemQuit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := press(NewMenu(), runes(tt.input), tea.KeyMsg{Type: tea.KeyEnter})
			if s.Choice() != tt.want {
				t.Errorf("Choice() = %q, want %q", s.Choice(), tt.want)
			}
		})
	}
}

func TestSelectorInvalidNumber(t *testing.T) {
	s, cmd := press(NewMenu(), runes("42"), tea.KeyMsg{Type: tea.KeyEnter})
	if s.Choice() != "" {
		t.Errorf("Choice() = %q, want empty", s.Choice())
	}
	if cmd != nil {
		t.Error("invalid choice should not quit")
	}
	if !strings.Contains(s.View(), "invalid choice") {
		t.Error("expected error in view")
	}
}

func TestSelectorQuit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		s, cmd := press(NewMenu(), tea.KeyMsg{Type: tea.KeyDown}, msg)
		if s.Choice() != "" {
			t.Errorf("Choice() = %q after %v, want empty", s.Choice(), msg)
		}
		if cmd == nil {
			t.Errorf("expected quit command after %v", msg)
		}
	}
}

func TestSelectorCursorBounds(t *testing.T) {
	s := NewSelector("pick", []Item{{"a", "A"}, {"b", "B"}})
	s, _ = press(s, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if s.cursor != 1 {
		t.Errorf("cursor = %d, want 1", s.cursor)
	}
}

func TestSelectorView(t *testing.T) {
	view := NewMenu().View()
	for _, want := range []string{"argolocal", " 1) Start ArgoCD", "14) Quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.Step("Creating cluster argocd-dev...")
	r.Success("ArgoCD is running")
	r.Warn("nothing to stop")
	r.Banner(false, "ArgoCD failed to start", "see logs")
	r.Credentials("https://localhost:8080", "admin", "s3cret")

	out := buf.String()
	for _, want := range []string{"Creating cluster argocd-dev...", "ArgoCD is running", "nothing to stop", "ArgoCD failed to start", "see logs", "https://localhost:8080", "admin", "s3cret"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
