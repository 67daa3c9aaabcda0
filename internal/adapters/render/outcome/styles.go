package outcome

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	section    lipgloss.Style
	label      lipgloss.Style
	detail     lipgloss.Style
	provider   lipgloss.Style
	empty      lipgloss.Style
	eligible   lipgloss.Style
	ineligible lipgloss.Style
	failure    lipgloss.Style
	pending    lipgloss.Style
	hint       lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		section:    lipgloss.NewStyle().MarginTop(1),
		label:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		provider:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		empty:      lipgloss.NewStyle().Faint(true),
		eligible:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		ineligible: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		failure:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		pending:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		hint:       lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")),
	}
}
