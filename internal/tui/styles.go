package tui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle styles the operation title line.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// SpinnerStyle colors the stage spinner.
	SpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))

	// DetailStyle dims the stats line under the bar.
	DetailStyle = lipgloss.NewStyle().Faint(true)

	stageStyles = map[string]lipgloss.Style{
		// Terminal states
		"done": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		// Active states
		"priming":    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"recording":  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"finalizing": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"playing":    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		// Error
		"failed": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// StageStyle returns the lipgloss style for the given stage name.
func StageStyle(stage string) lipgloss.Style {
	if s, ok := stageStyles[stage]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
