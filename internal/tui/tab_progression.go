package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/tui/components"
	"github.com/theirongolddev/crpush/internal/tui/theme"
)

type progressionState struct {
	daily bool
}

func (a App) renderProgressionTab(cw, h int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	unit, other := "session", "day"
	if a.progState.daily {
		unit, other = "day", "session"
	}
	title := fmt.Sprintf("Trophy progression (season, per %s)", unit)

	points := a.progression
	if len(points) == 0 {
		return components.ContentCard(title, muted.Render("No battles this season"), cw)
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = float64(p.Trophies)
	}

	chartH := 10
	if a.isCompactLayout() {
		chartH = 6
	}

	var body strings.Builder
	if a.data.Trophies == 0 {
		body.WriteString(lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface).
			Render("Current trophies unknown; the curve is relative to 0."))
		body.WriteString("\n")
	}
	body.WriteString(components.TrophyChart(values, t.Gold, components.CardInnerWidth(cw), chartH))
	body.WriteString("\n")

	first, last := points[0], points[len(points)-1]
	body.WriteString(muted.Render(fmt.Sprintf("%s → %s   %s over %d points   [d] per %s",
		cli.FormatNumber(int64(first.Trophies-first.Delta)),
		cli.FormatNumber(int64(last.Trophies)),
		cli.FormatTrophyDelta(last.Trophies-first.Trophies+first.Delta),
		len(points),
		other)))

	chartCard := components.ContentCard(title, body.String(), cw)

	// Table of the most recent points that fit below the chart.
	rows := max(h-lipgloss.Height(chartCard)-4, 0)
	if rows == 0 {
		return chartCard
	}
	return chartCard + "\n" + components.ContentCard("Recent", a.renderPointTable(rows), cw)
}

func (a App) renderPointTable(rows int) string {
	t := theme.Active
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %-14s %-9s %7s %8s", "Point", "When", "Record", "Change", "Trophies")))

	points := a.progression
	start := max(len(points)-rows, 0)
	for i := len(points) - 1; i >= start; i-- {
		p := points[i]
		deltaStyle := lipgloss.NewStyle().Foreground(t.DeltaColor(p.Delta)).Background(t.Surface)
		b.WriteString("\n")
		b.WriteString(rowStyle.Render(fmt.Sprintf("%-8s %-14s %-9s ",
			p.Label, p.Time.Local().Format("Jan 02 15:04"), cli.FormatRecord(p.Wins, p.Losses, 0))))
		b.WriteString(deltaStyle.Render(fmt.Sprintf("%7s", cli.FormatTrophyDelta(p.Delta))))
		b.WriteString(rowStyle.Render(fmt.Sprintf(" %8s", cli.FormatNumber(int64(p.Trophies)))))
	}
	return b.String()
}
