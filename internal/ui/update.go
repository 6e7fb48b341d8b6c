package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/coffeine/internal/gate"
)

// tickMsg refreshes stats and the countdown once a second.
type tickMsg time.Time

// stateMsg reports that the gate changed. The gate is read when the message
// is handled, so late or reordered messages cannot show a stale state.
type stateMsg struct{}

// Update handles messages and updates the model accordingly.
func Update(msg tea.Msg, m Model) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.ToggleHelp):
			m.ShowHelp = !m.ShowHelp
			m.help.ShowAll = m.ShowHelp
			return m, nil
		case key.Matches(msg, m.keys.Toggle):
			if m.ShowHelp {
				return m, nil
			}
			return m, toggle(m.gate)
		}

	case stateMsg:
		m.Enabled = m.gate.IsEnabled()
		m.refreshStats()
		return m, nil

	case tickMsg:
		m.current = time.Time(msg)
		m.Enabled = m.gate.IsEnabled()
		m.refreshStats()
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	}

	return m, nil
}

// toggle flips the gate from a command so indicator notifications never run
// on the update loop.
func toggle(g *gate.Gate) tea.Cmd {
	return func() tea.Msg {
		g.Toggle()
		return stateMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
