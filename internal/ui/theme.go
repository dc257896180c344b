package ui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	Header     lipgloss.Style
	Panel      lipgloss.Style
	Sidebar    lipgloss.Style
	Muted      lipgloss.Style
	Accent     lipgloss.Style
	Success    lipgloss.Style
	Danger     lipgloss.Style
	UserMsg    lipgloss.Style
	AssistMsg  lipgloss.Style
	Selected   lipgloss.Style
	OverlayBox lipgloss.Style
}

func defaultTheme() theme {
	accent := lipgloss.Color("#00BFFF")
	secondary := lipgloss.Color("#7D7D7D")
	success := lipgloss.Color("#00FF87")
	danger := lipgloss.Color("#FF0055")
	user := lipgloss.Color("#87AFFF")

	return theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(0, 1),
		Sidebar: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(0, 1).
			Width(30),
		Muted: lipgloss.NewStyle().
			Foreground(secondary),
		Accent: lipgloss.NewStyle().
			Foreground(accent),
		Success: lipgloss.NewStyle().
			Foreground(success),
		Danger: lipgloss.NewStyle().
			Foreground(danger),
		UserMsg: lipgloss.NewStyle().
			Foreground(user).
			Bold(true),
		AssistMsg: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#D0D0D0")),
		Selected: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		OverlayBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
	}
}
