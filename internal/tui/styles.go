package tui

import "github.com/charmbracelet/lipgloss"

// palette groups the colors used by the mirror view.
var palette = struct {
	link, copy, stale, failure, frame, text, faint lipgloss.Color
}{
	link:    lipgloss.Color("#5FAFD7"),
	copy:    lipgloss.Color("#87D787"),
	stale:   lipgloss.Color("#FFAF5F"),
	failure: lipgloss.Color("#FF5F87"),
	frame:   lipgloss.Color("#585858"),
	text:    lipgloss.Color("#EEEEEE"),
	faint:   lipgloss.Color("#A8A8A8"),
}

var primaryColor = palette.link

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func framed(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		MarginTop(1)
}

var (
	titleStyle    = fg(palette.link).Bold(true).MarginBottom(1)
	subtitleStyle = fg(palette.faint).Italic(true)
	sectionStyle  = fg(palette.copy).Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(palette.frame).
			MarginTop(1).
			MarginBottom(1)

	pathStyle      = fg(palette.text)
	linkStyle      = fg(palette.link).Bold(true)
	copyStyle      = fg(palette.copy)
	dimStyle       = fg(palette.faint)
	successStyle   = fg(palette.copy).Bold(true)
	warningStyle   = fg(palette.stale)
	errorStyle     = fg(palette.failure).Bold(true)
	statLabelStyle = fg(palette.faint).Width(22)
	statValueStyle = fg(palette.text).Bold(true)
	spinnerStyle   = fg(palette.link)
	helpStyle      = fg(palette.frame).Italic(true).MarginTop(2)

	confirmPromptStyle = fg(palette.stale).Bold(true).MarginTop(1)

	boxStyle          = framed(palette.frame)
	highlightBoxStyle = framed(palette.link)
)

// Glyphs for action kinds and outcomes.
const (
	iconLink    = "⇢"
	iconDir     = "▣"
	iconCopy    = "◇"
	iconSkipped = "○"
	iconStale   = "⚠"
	iconSuccess = "✓"
	iconError   = "✗"
	iconArrow   = "→"
	iconFolder  = "📁"
)
