package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stigoleg/coffeine/internal/gate"
	"github.com/stigoleg/coffeine/internal/scheduler"
)

// Summary describes the loaded scenario for display.
type Summary struct {
	Path    string
	Items   int
	Types   []string
	MinTick time.Duration
	MaxTick time.Duration
	Driver  string
	// Window is a human readable active hours description, empty when none.
	Window string
}

// Options configures a Model. Zero values are valid.
type Options struct {
	Version  string
	Summary  Summary
	Stats    func() scheduler.Stats
	Deadline time.Time
	Now      func() time.Time
}

// Model is the bubbletea model of the indicator. It never owns the enabled
// state; it mirrors the gate.
type Model struct {
	gate     *gate.Gate
	keys     KeyMap
	help     help.Model
	ShowHelp bool

	Enabled  bool
	version  string
	summary  Summary
	statsFn  func() scheduler.Stats
	stats    scheduler.Stats
	started  time.Time
	deadline time.Time
	current  time.Time
	width    int
	quitting bool
}

// NewModel returns a model reflecting the gate's current state. Stats are
// first read on the first tick, so opts.Stats may close over a scheduler
// that is built after the model.
func NewModel(g *gate.Gate, opts Options) Model {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	return Model{
		gate:     g,
		keys:     DefaultKeys(),
		help:     NewHelpModel(),
		Enabled:  g.IsEnabled(),
		version:  opts.Version,
		summary:  opts.Summary,
		statsFn:  opts.Stats,
		started:  start,
		deadline: opts.Deadline,
		current:  start,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return Update(msg, m)
}

// View implements tea.Model
func (m Model) View() string {
	return View(m)
}

// Stats returns the counters shown on the last refresh.
func (m Model) Stats() scheduler.Stats { return m.stats }

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool { return m.quitting }

// TimeRemaining returns the time left until the run deadline, or zero when
// the run is open ended.
func (m Model) TimeRemaining() time.Duration {
	if m.deadline.IsZero() {
		return 0
	}
	remaining := m.deadline.Sub(m.current)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (m *Model) refreshStats() {
	if m.statsFn != nil {
		m.stats = m.statsFn()
	}
}
