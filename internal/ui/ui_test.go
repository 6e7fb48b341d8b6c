package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/coffeine/internal/gate"
	"github.com/stigoleg/coffeine/internal/scheduler"
)

var t0 = time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)

func testModel(g *gate.Gate, deadline time.Time) Model {
	return NewModel(g, Options{
		Version: "v1.0.0",
		Summary: Summary{
			Path:    "scenario.json",
			Items:   3,
			Types:   []string{"random_mouse", "window_change"},
			MinTick: 2 * time.Second,
			MaxTick: 5 * time.Second,
			Driver:  "dry-run",
		},
		Stats:    fixedStats,
		Deadline: deadline,
		Now:      func() time.Time { return t0 },
	})
}

func fixedStats() scheduler.Stats {
	return scheduler.Stats{Ticks: 7, Executed: 6, Unknown: 1, LastType: "random_mouse"}
}

func keyRune(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

func TestNewModelMirrorsGate(t *testing.T) {
	assert.False(t, testModel(gate.New(false), time.Time{}).Enabled)
	assert.True(t, testModel(gate.New(true), time.Time{}).Enabled)
}

func TestToggleKeyFlipsGate(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeySpace, Runes: []rune{' '}},
		{Type: tea.KeyEnter},
		keyRune('e'),
	}
	for _, k := range keys {
		t.Run(k.String(), func(t *testing.T) {
			g := gate.New(false)
			m := testModel(g, time.Time{})

			m, cmd := Update(k, m)
			require.NotNil(t, cmd)
			assert.False(t, g.IsEnabled(), "gate must only change when the command runs")

			msg := cmd()
			assert.True(t, g.IsEnabled())
			m, _ = Update(msg, m)
			assert.True(t, m.Enabled)
			assert.Contains(t, View(m), "Active")
		})
	}
}

func TestExternalStateChange(t *testing.T) {
	g := gate.New(true)
	m := testModel(g, time.Time{})

	g.Set(false)
	m, cmd := Update(stateMsg{}, m)
	assert.Nil(t, cmd)
	assert.False(t, m.Enabled)
	assert.Contains(t, View(m), "Paused")
}

func TestStaleStateMessageShowsGate(t *testing.T) {
	g := gate.New(false)
	m := testModel(g, time.Time{})

	// two changes whose notifications arrive late and out of order
	g.Set(true)
	g.Set(false)
	m, _ = Update(stateMsg{}, m)
	m, _ = Update(stateMsg{}, m)
	assert.False(t, m.Enabled)

	// a tick resyncs even if a notification was lost
	g.Set(true)
	m, _ = Update(tickMsg(t0), m)
	assert.True(t, m.Enabled)
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{keyRune('q'), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		t.Run(k.String(), func(t *testing.T) {
			m, cmd := Update(k, testModel(gate.New(false), time.Time{}))
			require.NotNil(t, cmd)
			_, ok := cmd().(tea.QuitMsg)
			assert.True(t, ok)
			assert.True(t, m.Quitting())
			assert.Empty(t, View(m))
		})
	}
}

func TestHelpToggle(t *testing.T) {
	g := gate.New(false)
	m := testModel(g, time.Time{})

	m, _ = Update(keyRune('?'), m)
	assert.True(t, m.ShowHelp)
	assert.Contains(t, View(m), "Usage:")

	// toggling the gate is ignored while help is open
	m, cmd := Update(keyRune('e'), m)
	assert.Nil(t, cmd)
	assert.False(t, g.IsEnabled())

	m, _ = Update(keyRune('h'), m)
	assert.False(t, m.ShowHelp)
}

func TestTickRefreshesStatsAndCountdown(t *testing.T) {
	calls := 0
	m := NewModel(gate.New(true), Options{
		Stats: func() scheduler.Stats {
			calls++
			return scheduler.Stats{Ticks: int64(calls)}
		},
		Deadline: t0.Add(10 * time.Minute),
		Now:      func() time.Time { return t0 },
	})
	require.Zero(t, calls)
	assert.Equal(t, 10*time.Minute, m.TimeRemaining())

	m, cmd := Update(tickMsg(t0.Add(4*time.Minute+30*time.Second)), m)
	assert.NotNil(t, cmd)
	assert.Equal(t, int64(1), m.Stats().Ticks)
	assert.Equal(t, 5*time.Minute+30*time.Second, m.TimeRemaining())
	assert.Contains(t, View(m), "5:30 remaining")

	m, _ = Update(tickMsg(t0.Add(time.Hour)), m)
	assert.Zero(t, m.TimeRemaining())
}

func TestViewContents(t *testing.T) {
	m, _ := Update(tickMsg(t0.Add(time.Minute)), testModel(gate.New(false), time.Time{}))
	v := View(m)
	for _, want := range []string{
		"Coffeine v1.0.0",
		"Paused",
		"scenario.json",
		"random_mouse, window_change",
		"2s – 5s",
		"dry-run",
		"Executed",
		"Unknown",
		"1:00",
	} {
		assert.Contains(t, v, want)
	}
	assert.NotContains(t, v, "remaining")
	assert.NotContains(t, v, "Active hours")
}

func TestWindowResize(t *testing.T) {
	m, cmd := Update(tea.WindowSizeMsg{Width: 100, Height: 40}, testModel(gate.New(false), time.Time{}))
	assert.Nil(t, cmd)
	assert.Equal(t, 100, m.width)
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{59*time.Second + 900*time.Millisecond, "0:59"},
		{90 * time.Second, "1:30"},
		{2*time.Hour + 5*time.Minute + 3*time.Second, "2:05:03"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatClock(tt.in), tt.in.String())
	}
}

func TestCountdownBarWidth(t *testing.T) {
	m := testModel(gate.New(true), t0.Add(time.Minute))
	m, _ = Update(tickMsg(t0.Add(30*time.Second)), m)
	bar := countdownView(m)
	lines := strings.Split(bar, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "0:30 remaining")
}
