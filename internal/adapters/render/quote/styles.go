package quote

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	header   lipgloss.Style
	account  lipgloss.Style
	detail   lipgloss.Style
	warning  lipgloss.Style
	section  lipgloss.Style
	empty    lipgloss.Style
	label    lipgloss.Style
	price    lipgloss.Style
	approx   lipgloss.Style
	valid    lipgloss.Style
	expired  lipgloss.Style
	metadata lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		header:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		account:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:  lipgloss.NewStyle().MarginTop(1),
		empty:    lipgloss.NewStyle().Faint(true),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(10),
		price:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		approx:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		valid:    lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		expired:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		metadata: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
