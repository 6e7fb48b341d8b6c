package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Indicator adapts a running bubbletea program to presence.Indicator.
type Indicator struct {
	p    *tea.Program
	once sync.Once
}

// NewProgram builds the TUI program and the indicator that drives it. Signal
// handling is left to the caller.
func NewProgram(m Model, opts ...tea.ProgramOption) (*tea.Program, *Indicator) {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithoutSignalHandler()}, opts...)
	p := tea.NewProgram(m, opts...)
	return p, &Indicator{p: p}
}

// SetVisualState wakes the program, which then reads the gate itself.
// Program.Send blocks until the event loop takes the message, so it is sent
// from a goroutine; after the program has exited the send is dropped.
func (i *Indicator) SetVisualState(bool) {
	go i.p.Send(stateMsg{})
}

// Shutdown asks the program to exit.
func (i *Indicator) Shutdown() {
	i.once.Do(i.p.Quit)
}
