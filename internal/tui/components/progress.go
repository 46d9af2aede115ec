package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/crpush/internal/tui/theme"
)

// ProgressBar renders the loading bar with a percentage.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = min(max(pct, 0), 1)
	filled := int(pct * float64(width))

	filledStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// TiltGauge renders a labeled tilt risk bar, e.g. "Tilt ████░░░░ 60 MEDIUM".
func TiltGauge(label string, risk int, level string, labelW, barWidth int) string {
	t := theme.Active
	risk = min(max(risk, 0), 100)
	color := t.TiltColor(risk)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	riskStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(float64(risk)/100) +
		spaceStyle.Render(" ") +
		riskStyle.Render(fmt.Sprintf("%3d %s", risk, level))
}
