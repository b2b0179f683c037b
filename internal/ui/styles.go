package ui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#0969DA") // blue
	accentColor  = lipgloss.Color("#2DA44E") // green
	warningColor = lipgloss.Color("#D29922") // orange
	errorColor   = lipgloss.Color("#CF222E") // red
	dimColor     = lipgloss.Color("#6E7681") // gray
	linkColor    = lipgloss.Color("#58A6FF") // light blue

	PanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Width(12)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	LinkStyle = lipgloss.NewStyle().
			Foreground(linkColor).
			Underline(true)
)

// StateStyle picks the colour for a pass outcome.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "found":
		return SuccessStyle
	case "exhausted", "searching":
		return WarningStyle
	case "cancelled":
		return ErrorStyle
	}
	return DimStyle
}
