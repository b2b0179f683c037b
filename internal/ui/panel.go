package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Row is a label and its value in a panel.
type Row struct {
	Label string
	Value string
}

// Panel is the search progress box.
type Panel struct {
	Title string
	State string
	Rows  []Row
	// Progress is the fraction of the wait until the next pass, shown as a
	// bar. Negative hides the bar.
	Progress float64
}

const barWidth = 30

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Render draws the panel. Plain output drops borders and colours for pipes.
func (p Panel) Render(plain bool) string {
	if plain {
		return p.renderPlain()
	}

	lines := []string{TitleStyle.Render(p.Title)}
	if p.State != "" {
		lines = append(lines, LabelStyle.Render("State")+StateStyle(p.State).Render(p.State))
	}
	for _, r := range p.Rows {
		if r.Value == "" {
			continue
		}
		lines = append(lines, LabelStyle.Render(r.Label)+r.Value)
	}
	if p.Progress >= 0 {
		lines = append(lines, "", ProgressBar(barWidth, p.Progress))
	}
	return PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (p Panel) renderPlain() string {
	var b strings.Builder
	b.WriteString(p.Title + "\n")
	if p.State != "" {
		b.WriteString("State: " + p.State + "\n")
	}
	for _, r := range p.Rows {
		if r.Value == "" {
			continue
		}
		b.WriteString(r.Label + ": " + r.Value + "\n")
	}
	return b.String()
}

// ProgressBar renders frac (clamped to [0,1]) as a bar of the given width.
func ProgressBar(width int, frac float64) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(width) + 0.5)
	return SuccessStyle.Render(strings.Repeat("█", filled)) + DimStyle.Render(strings.Repeat("░", width-filled))
}
