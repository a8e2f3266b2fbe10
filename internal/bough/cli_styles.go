package bough

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors (Muted/Nord-inspired)
	colorGreen  = lipgloss.Color("#a3be8c")
	colorCyan   = lipgloss.Color("#88c0d0")
	colorBlue   = lipgloss.Color("#81a1c1")
	colorPurple = lipgloss.Color("#b48ead")
	colorRed    = lipgloss.Color("#bf616a")
	colorGray   = lipgloss.Color("#4c566a")

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	styleTableHead = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true).
			Underline(true)

	styleBranch = lipgloss.NewStyle().
			Foreground(colorCyan)

	styleDirty = lipgloss.NewStyle().
			Foreground(colorRed)

	styleClean = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleDim = lipgloss.NewStyle().
			Foreground(colorGray)

	stylePath = lipgloss.NewStyle().
			Foreground(colorBlue)
)

func successMsg(msg string) string {
	return styleSuccess.Render("✓ ") + msg
}

func errorMsg(msg string) string {
	return styleError.Render("✗ ") + msg
}

func warnMsg(msg string) string {
	return styleWarning.Render("! ") + msg
}
