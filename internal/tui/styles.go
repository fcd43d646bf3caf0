package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = newPalette("#7D56F4", "#04B575", "#FF5555", "#FFA500", "#626262")

// palette is a simple stylesheet built with named [lipgloss.Style] fields.
type palette struct {
	title   lipgloss.Style
	success lipgloss.Style
	err     lipgloss.Style
	warn    lipgloss.Style
	help    lipgloss.Style
	dialog  lipgloss.Style
}

func newPalette(t, s, e, w, h string) *palette {
	return &palette{
		title:   newBold(t).MarginBottom(1),
		success: newBold(s),
		err:     newBold(e),
		warn:    newStyle(w),
		help:    newEm(h),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t)).
			Padding(1, 2),
	}
}

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

func newEm(fg string) lipgloss.Style {
	return newStyle(fg).Italic(true)
}
