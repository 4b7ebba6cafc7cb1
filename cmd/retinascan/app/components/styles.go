package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mrsinham/retinascan/internal/model"
)

var (
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("63")).
		MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244")).
		MarginBottom(1)

	ErrorBannerStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("231")).
		Background(lipgloss.Color("160")).
		Padding(0, 1)

	NoticeStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	FieldErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("160"))

	HintStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(1, 2)

	LabelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	ValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Bold(true)
)

// Severity colours follow the web client's palette: red for stage 2,
// yellow for stage 1, green otherwise.
var severityColors = map[model.SeverityColor]lipgloss.Color{
	model.ColorDanger:  lipgloss.Color("196"),
	model.ColorWarning: lipgloss.Color("220"),
	model.ColorSuccess: lipgloss.Color("42"),
}

// SeverityColor returns the terminal colour for a severity stage.
func SeverityColor(s model.Severity) lipgloss.Color {
	return severityColors[s.Color()]
}

// SeverityBadge renders text in the stage's colour, as the list and
// detail views show diagnoses.
func SeverityBadge(s model.Severity, text string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(SeverityColor(s)).
		Render(text)
}
