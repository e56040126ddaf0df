package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const helpWidth = 76

var (
	keyword   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render
	faint     = lipgloss.NewStyle().Faint(true).Render
	errorText = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Render
	header    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	indented  = lipgloss.NewStyle().Padding(0, 0, 0, 2).Render
)

// paragraph wraps s for help output and indents it.
func paragraph(s string) string {
	return indented(wordwrap.String(s, helpWidth))
}
