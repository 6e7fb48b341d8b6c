// Package ui is the terminal presence indicator: it shows whether coffeine is
// active, lets the user toggle it and reports what the scheduler has done.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors defines the color scheme used throughout the application
type Colors struct {
	Subtle    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Special   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
}

var defaultColors = Colors{
	Subtle:    lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"},
	Highlight: lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"},
	Special:   lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"},
	Warning:   lipgloss.AdaptiveColor{Light: "#C78B00", Dark: "#F2C14E"},
	Error:     lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF4040"},
}

// Style represents a collection of styles used in the application
type Style struct {
	Title          lipgloss.Style
	ActiveStatus   lipgloss.Style
	InactiveStatus lipgloss.Style
	Label          lipgloss.Style
	Value          lipgloss.Style
	Warning        lipgloss.Style
	Panel          lipgloss.Style
	Help           lipgloss.Style
	Error          lipgloss.Style
	ErrorBox       lipgloss.Style
	Countdown      lipgloss.Style
	ProgressBar    lipgloss.Style
}

// DefaultStyle returns the default style configuration
func DefaultStyle() Style {
	base := lipgloss.NewStyle().
		PaddingLeft(1).
		PaddingRight(1)

	return Style{
		Title: base.
			Bold(true).
			Foreground(defaultColors.Highlight),

		ActiveStatus: base.
			Bold(true).
			Foreground(defaultColors.Special),

		InactiveStatus: base.
			Foreground(defaultColors.Subtle),

		Label: lipgloss.NewStyle().
			Width(14).
			Foreground(defaultColors.Subtle),

		Value: lipgloss.NewStyle(),

		Warning: lipgloss.NewStyle().
			Foreground(defaultColors.Warning),

		Panel: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(defaultColors.Highlight).
			Padding(0, 1),

		Help: base.
			Foreground(defaultColors.Subtle),

		Error: base.
			Foreground(defaultColors.Error),

		ErrorBox: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(defaultColors.Error).
			Padding(0, 1),

		Countdown: base.
			Foreground(defaultColors.Highlight).
			Bold(true),

		ProgressBar: lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#DDDDDD", Dark: "#333333"}),
	}
}

// Current holds the current style configuration
var Current = DefaultStyle()
