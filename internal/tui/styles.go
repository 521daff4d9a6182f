// Package tui provides the interactive prompts and progress indicators used
// when mindtalk runs in a terminal.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for interactive output.
type Theme struct {
	Primary lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Error   lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
}

// DefaultTheme returns the mindtalk palette.
func DefaultTheme() Theme {
	return Theme{
		Primary: lipgloss.AdaptiveColor{Light: "#6b4fbb", Dark: "#b9a6f0"},
		Success: lipgloss.AdaptiveColor{Light: "#1e8e3e", Dark: "#81c995"},
		Error:   lipgloss.AdaptiveColor{Light: "#d93025", Dark: "#f28b82"},
		Muted:   lipgloss.AdaptiveColor{Light: "#80868b", Dark: "#6e7681"},
	}
}

// Styles holds the rendered styles for a theme.
type Styles struct {
	Spinner lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles creates Styles from the default theme.
func NewStyles() *Styles {
	return NewStylesWithTheme(DefaultTheme())
}

// NewStylesWithTheme creates Styles from theme.
func NewStylesWithTheme(theme Theme) *Styles {
	return &Styles{
		Spinner: lipgloss.NewStyle().Foreground(theme.Primary),
		Success: lipgloss.NewStyle().Foreground(theme.Success),
		Error:   lipgloss.NewStyle().Foreground(theme.Error).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(theme.Muted),
	}
}
