package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const progressWidth = 24

// gradient runs from the highlight purple to the active green.
var gradient = []string{
	"#7D56F4", "#6E5AF5", "#5F5FF7", "#5063F8", "#4168FA", "#326CFB",
	"#2371FD", "#1475FE", "#057AFF", "#0081F0", "#0089DC", "#0091C8",
	"#0099B4", "#00A1A0", "#00A98C", "#00B178", "#00B964", "#43BF6D",
}

// View renders the current state of the model to a string.
func View(m Model) string {
	if m.quitting {
		return ""
	}
	if m.ShowHelp {
		return helpView(m)
	}
	return mainView(m)
}

func mainView(m Model) string {
	var b strings.Builder

	title := "Coffeine"
	if m.version != "" {
		title += " " + m.version
	}
	b.WriteString(Current.Title.Render(title))
	b.WriteString("\n\n")

	if m.Enabled {
		b.WriteString(Current.ActiveStatus.Render("● Active: simulating activity"))
	} else {
		b.WriteString(Current.InactiveStatus.Render("○ Paused"))
	}
	b.WriteString("\n\n")

	b.WriteString(Current.Panel.Render(summaryView(m.summary)))
	b.WriteString("\n")
	b.WriteString(Current.Panel.Render(statsView(m)))
	b.WriteString("\n")

	if cd := countdownView(m); cd != "" {
		b.WriteString("\n" + cd + "\n")
	}

	b.WriteString("\n" + Current.Help.Render(m.help.View(m.keys)))
	return b.String()
}

func summaryView(s Summary) string {
	var rows []string
	if s.Path != "" {
		rows = append(rows, row("Scenario", s.Path))
	}
	rows = append(rows,
		row("Items", fmt.Sprintf("%d (%s)", s.Items, strings.Join(s.Types, ", "))),
		row("Interval", fmt.Sprintf("%s – %s", s.MinTick, s.MaxTick)),
	)
	if s.Driver != "" {
		rows = append(rows, row("Input", s.Driver))
	}
	if s.Window != "" {
		rows = append(rows, row("Active hours", s.Window))
	}
	return strings.Join(rows, "\n")
}

func statsView(m Model) string {
	st := m.stats
	last := st.LastType
	if last == "" {
		last = "-"
	}
	rows := []string{
		row("Ticks", fmt.Sprint(st.Ticks)),
		row("Executed", fmt.Sprint(st.Executed)),
		row("Last action", last),
	}
	if st.Unknown > 0 {
		rows = append(rows, Current.Label.Render("Unknown")+Current.Warning.Render(fmt.Sprint(st.Unknown)))
	}
	if st.Failed > 0 {
		rows = append(rows, row("Failed", fmt.Sprint(st.Failed)))
	}
	if st.LastError != "" {
		rows = append(rows, Current.Label.Render("Last error")+Current.Warning.Render(st.LastError))
	}
	rows = append(rows, row("Uptime", formatClock(m.current.Sub(m.started))))
	return strings.Join(rows, "\n")
}

func row(label, value string) string {
	return Current.Label.Render(label) + Current.Value.Render(value)
}

// countdownView renders time left and a progress bar for bounded runs.
func countdownView(m Model) string {
	if m.deadline.IsZero() {
		return ""
	}
	remaining := m.TimeRemaining()
	total := m.deadline.Sub(m.started)

	var b strings.Builder
	b.WriteString(Current.Countdown.Render(formatClock(remaining) + " remaining"))
	b.WriteString("\n ")

	progress := 1.0
	if total > 0 {
		progress = 1.0 - float64(remaining)/float64(total)
	}
	filled := int(progress * progressWidth)
	if filled > progressWidth {
		filled = progressWidth
	}
	for i := 0; i < progressWidth; i++ {
		if i < filled {
			c := gradient[i*(len(gradient)-1)/(progressWidth-1)]
			b.WriteString(Current.ProgressBar.Background(lipgloss.Color(c)).Render(" "))
		} else {
			b.WriteString(Current.ProgressBar.Render(" "))
		}
	}
	return b.String()
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	mnt := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, s)
	}
	return fmt.Sprintf("%d:%02d", mnt, s)
}

// Usage is the command line help, shared by the help screen and -h.
const Usage = `Coffeine Help

Coffeine performs a random action from the scenario at random intervals
while it is active, so the machine looks attended.

Usage:
  coffeine [flags]

Flags:
  -s, --scenario string   Scenario file, JSON or YAML (default "scenario.json")
  -e, --enabled           Start active instead of paused
      --headless          Run without the terminal UI
      --dry-run           Log actions instead of generating input
      --on-error string   Handler failure policy: abort or continue
      --log-level string  debug, info, warn or error
      --log-file string   Log file (default "coffeine.log")
  -d, --duration string   Stop after a duration (e.g., "2h30m" or "90")
  -c, --clock string      Stop at a clock time (e.g., "22:00", "10:00PM")
  -v, --version           Show version information

Examples:
  coffeine                        # Paused TUI with scenario.json
  coffeine -e -d 2h               # Active for two hours
  coffeine --headless -e -c 17:30 # No UI, active until 17:30`

func helpView(m Model) string {
	return Current.Help.Render(Usage) + "\n\n" + Current.Help.Render(m.help.View(m.keys))
}
