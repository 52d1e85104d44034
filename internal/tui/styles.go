package tui

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("34")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("240") // Dark gray
)

// Symbols for visual feedback.
const (
	SymbolCheck      = "✓"
	SymbolCross      = "✗"
	SymbolWarning    = "⚠"
	SymbolArrowRight = "→"
	SymbolBullet     = "•"
)

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
	box     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		label: r.NewStyle().
			Foreground(ColorSecondary),
		success: r.NewStyle().
			Foreground(ColorSuccess),
		warning: r.NewStyle().
			Foreground(ColorWarning),
		failure: r.NewStyle().
			Foreground(ColorError).
			Bold(true),
		muted: r.NewStyle().
			Foreground(ColorMuted),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary).
			Padding(0, 1),
	}
}
