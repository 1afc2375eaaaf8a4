package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Item is one numbered menu entry
type Item struct {
	Key   string
	Label string
}

// Menu operation keys
const (
	ItemStart         = "start"
	ItemStop          = "stop"
	ItemRestart       = "restart"
	ItemClean         = "clean"
	ItemStatus        = "status"
	ItemLogs          = "logs"
	ItemBackup        = "backup"
	ItemRestore       = "restore"
	ItemNotifications = "notifications"
	ItemCredentials   = "credentials"
	ItemApps          = "apps"
	ItemAppsSync      = "apps-sync"
	ItemHelp          = "help"
	ItemQuit          = "quit"
)

// MainItems mirrors the command surface
var MainItems = []Item{
	{ItemStart, "Start ArgoCD"},
	{ItemStop, "Stop ArgoCD"},
	{ItemRestart, "Restart ArgoCD"},
	{ItemClean, "Clean environment (delete cluster)"},
	{ItemStatus, "Show status"},
	{ItemLogs, "Show server logs"},
	{ItemBackup, "Back up ArgoCD state"},
	{ItemRestore, "Restore from backup"},
	{ItemNotifications, "Configure notifications"},
	{ItemCredentials, "Show credentials"},
	{ItemApps, "List applications"},
	{ItemAppsSync, "Sync an application"},
	{ItemHelp, "Help"},
	{ItemQuit, "Quit"},
}

// Selector is a numbered list. Entries are picked with arrows and enter, or
// by typing the entry number followed by enter.
type Selector struct {
	title  string
	items  []Item
	cursor int
	input  string
	choice string
	err    string
	done   bool
}

// NewSelector builds a selector over items
func NewSelector(title string, items []Item) Selector {
	return Selector{title: title, items: items}
}

// NewMenu builds the main menu
func NewMenu() Selector {
	return NewSelector("argolocal", MainItems)
}

// Choice is the key of the picked item, or "" when the user backed out
func (s Selector) Choice() string {
	return s.choice
}

// Init implements tea.Model. The selector needs no startup command.
func (s Selector) Init() tea.Cmd {
	return nil
}

// Update moves the cursor, collects typed digits and quits once an entry is
// picked or the user backs out
func (s Selector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		s.choice = ""
		s.done = true
		return s, tea.Quit
	case tea.KeyUp:
		if s.cursor > 0 {
			s.cursor--
		}
		s.input = ""
	case tea.KeyDown:
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
		s.input = ""
	case tea.KeyBackspace:
		if s.input != "" {
			s.input = s.input[:len(s.input)-1]
		}
	case tea.KeyEnter:
		idx := s.cursor
		if s.input != "" {
			n, err := strconv.Atoi(s.input)
			s.input = ""
			if err != nil || n < 1 || n > len(s.items) {
				s.err = fmt.Sprintf("invalid choice, enter 1-%d", len(s.items))
				return s, nil
			}
			idx = n - 1
		}
		if len(s.items) == 0 {
			return s, nil
		}
		s.choice = s.items[idx].Key
		s.done = true
		return s, tea.Quit
	case tea.KeyRunes:
		for _, r := range key.Runes {
			switch {
			case r >= '0' && r <= '9':
				s.input += string(r)
				s.err = ""
			case r == 'q' && s.input == "":
				s.choice = ""
				s.done = true
				return s, tea.Quit
			case r == 'k':
				if s.cursor > 0 {
					s.cursor--
				}
			case r == 'j':
				if s.cursor < len(s.items)-1 {
					s.cursor++
				}
			}
		}
	}
	return s, nil
}

// View renders the title, the numbered entries and the typed number
func (s Selector) View() string {
	if s.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(Title.Render(s.title))
	b.WriteString("\n")
	for i, it := range s.items {
		line := fmt.Sprintf("%2d) %s", i+1, it.Label)
		if i == s.cursor {
			b.WriteString(Selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if s.input != "" {
		b.WriteString("Choice: " + s.input + "\n")
	}
	if s.err != "" {
		b.WriteString(Error.Render(s.err) + "\n")
	}
	b.WriteString(Help.Render("↑/↓ move · number + enter select · q quit"))
	b.WriteString("\n")
	return b.String()
}

// Run shows the selector and returns the picked key
func Run(s Selector) (string, error) {
	final, err := tea.NewProgram(s).Run()
	if err != nil {
		return "", fmt.Errorf("failed to run menu: %w", err)
	}
	return final.(Selector).Choice(), nil
}
