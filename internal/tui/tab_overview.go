package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
	"github.com/theirongolddev/crpush/internal/tui/components"
	"github.com/theirongolddev/crpush/internal/tui/theme"
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	if a.data == nil {
		return components.ContentCard("Overview", a.emptyMessage(), cw)
	}

	var b strings.Builder

	// Row 1: today at a glance
	trophies := "?"
	if a.data.Trophies > 0 {
		trophies = cli.FormatNumber(int64(a.data.Trophies))
	}
	metrics := []components.Metric{
		{Label: "Trophies", Value: trophies, Detail: "today " + cli.FormatTrophyDelta(a.daily.TrophyDelta), Color: t.Gold},
		{Label: "Today", Value: cli.FormatRecord(a.daily.Wins, a.daily.Losses, a.daily.Draws),
			Detail: fmt.Sprintf("%d battles · %d sessions", a.daily.Battles, len(a.daily.Sessions))},
		{Label: "Win rate", Value: cli.FormatWinRate(float64(a.daily.WinRate)),
			Detail: "week " + cli.FormatWinRate(a.week.WinRate)},
		{Label: "Streak", Value: cli.FormatStreak(a.daily.Streak), Color: streakColor(a.daily.Streak)},
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	// Row 2: tilt + recent results
	halves := components.LayoutRow(cw, 2)
	tiltCard := components.ContentCard("Tilt", a.renderTiltBody(components.CardInnerWidth(halves[0])), halves[0])
	recentCard := components.ContentCard("Recent battles", a.renderRecentBody(components.CardInnerWidth(halves[1])), halves[1])
	if a.isCompactLayout() {
		b.WriteString(tiltCard)
		b.WriteString("\n")
		b.WriteString(recentCard)
	} else {
		b.WriteString(components.CardRow([]string{tiltCard, recentCard}))
	}
	b.WriteString("\n")

	// Row 3: week summary + last days
	weekCard := components.ContentCard("This week", a.renderWeekBody(), halves[0])
	daysCard := components.ContentCard("Daily results", a.renderDaysBody(components.CardInnerWidth(halves[1])), halves[1])
	if a.isCompactLayout() {
		b.WriteString(weekCard)
		b.WriteString("\n")
		b.WriteString(daysCard)
	} else {
		b.WriteString(components.CardRow([]string{weekCard, daysCard}))
	}

	return b.String()
}

func (a App) emptyMessage() string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if a.loadErr != nil {
		warn := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)
		return warn.Render("Could not load battles: "+a.loadErr.Error()) + "\n" +
			muted.Render("Set a player tag and API token in Settings, then press r.")
	}
	return muted.Render("No battles loaded")
}

func streakColor(s model.Streak) lipgloss.Color {
	t := theme.Active
	switch s.Type {
	case model.StreakWin:
		return t.Win
	case model.StreakLoss:
		return t.Loss
	default:
		return t.TextMuted
	}
}

func (a App) renderTiltBody(innerW int) string {
	t := theme.Active
	st := a.tilt

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	barW := max(innerW-22, 8)

	var b strings.Builder
	b.WriteString(components.TiltGauge("Risk", st.Risk, cli.FormatTiltLevel(st.Level), 6, barW))
	b.WriteString("\n")
	b.WriteString(components.TiltGauge("Base", st.BaseRisk, cli.FormatTiltLevel(st.BaseLevel), 6, barW))
	b.WriteString("\n\n")

	rows := []struct{ label, value string }{
		{"Last battle", cli.FormatHoursAgo(st.HoursSinceLastBattle)},
		{fmt.Sprintf("Last %d", st.WindowSize), cli.FormatRecord(st.Wins, st.Losses, st.WindowSize-st.Wins-st.Losses)},
		{"Net trophies", cli.FormatTrophyDelta(st.NetTrophyDelta)},
		{"Loss run", fmt.Sprintf("%d", st.LongestLossRun)},
	}
	if st.DecayStage != model.DecayNone {
		rows = append(rows, struct{ label, value string }{"Decay", "after " + string(st.DecayStage)})
	}
	for i, r := range rows {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", r.label)))
		b.WriteString(valueStyle.Render(r.value))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}

	if st.Alert {
		alert := lipgloss.NewStyle().Foreground(t.Loss).Background(t.Surface).Bold(true)
		b.WriteString("\n\n")
		b.WriteString(alert.Render("Take a break: recent results point to tilt."))
	}
	return b.String()
}

func (a App) renderRecentBody(innerW int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	battles := a.data.Battles
	if len(battles) == 0 {
		return muted.Render("No battles yet")
	}

	limit := min(len(battles), 10)
	var b strings.Builder
	for i := range limit {
		bt := battles[i]
		var next *model.Battle
		if i > 0 {
			// battles is newest first, so the chronologically next one is i-1
			next = &battles[i-1]
		}
		out := pipeline.Classify(bt, next)
		b.WriteString(battleLine(bt, out, innerW))
		if i < limit-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a App) renderWeekBody() string {
	t := theme.Active
	s := a.week

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	rows := []struct{ label, value string }{
		{"Battles", cli.FormatNumber(int64(s.Battles))},
		{"Record", cli.FormatRecord(s.Wins, s.Losses, s.Draws)},
		{"Trophies", cli.FormatTrophyDelta(s.TrophyDelta)},
		{"Active days", fmt.Sprintf("%d", s.ActiveDays)},
		{"Pushes", fmt.Sprintf("%d of %d sessions", s.Pushes, s.Sessions)},
		{"Best win run", fmt.Sprintf("%d", s.LongestWinStreak)},
		{"Worst loss run", fmt.Sprintf("%d", s.LongestLossStreak)},
	}
	if s.BestPush != nil {
		rows = append(rows, struct{ label, value string }{"Best push", cli.FormatTrophyDelta(s.BestPush.TrophyDelta)})
	}

	var b strings.Builder
	for i, r := range rows {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", r.label)))
		b.WriteString(valueStyle.Render(r.value))
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a App) renderDaysBody(innerW int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dateStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	if len(a.days) == 0 {
		return muted.Render("No battles this season")
	}

	limit := min(len(a.days), 7)
	maxAbs := 1
	for _, d := range a.days[:limit] {
		maxAbs = max(maxAbs, abs(d.TrophyDelta))
	}
	barMax := max(innerW-36, 4)

	var b strings.Builder
	for i, d := range a.days[:limit] {
		deltaStyle := lipgloss.NewStyle().Foreground(t.DeltaColor(d.TrophyDelta)).Background(t.Surface)
		barLen := abs(d.TrophyDelta) * barMax / maxAbs

		b.WriteString(dateStyle.Render(fmt.Sprintf("%s %s ", d.Date.Format("Jan 02"), d.Date.Format("Mon"))))
		b.WriteString(muted.Render(fmt.Sprintf("%-9s", cli.FormatRecord(d.Wins, d.Losses, d.Draws))))
		b.WriteString(deltaStyle.Render(fmt.Sprintf("%5s ", cli.FormatTrophyDelta(d.TrophyDelta))))
		b.WriteString(deltaStyle.Render(strings.Repeat("█", barLen)))
		if i < limit-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// battleLine renders one battle as "15:04  W  3-1  +31  Ladder  vs Name".
func battleLine(b model.Battle, out model.Outcome, width int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var letter string
	var color lipgloss.Color
	switch out.Result {
	case model.Win:
		letter, color = "W", t.Win
	case model.Loss:
		letter, color = "L", t.Loss
	default:
		letter, color = "D", t.TextMuted
	}
	resultStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	deltaStyle := lipgloss.NewStyle().Foreground(t.DeltaColor(out.TrophyDelta)).Background(t.Surface)

	when := "--:--"
	if ts, ok := battleTime(b); ok {
		when = ts.Local().Format("15:04")
	}

	crowns := fmt.Sprintf("%.0f-%.0f", b.Player().Crowns.Value, b.Rival().Crowns.Value)
	rest := pipeline.ModeName(b)
	if name := b.Rival().Name; name != "" {
		rest += "  vs " + name
	}
	restW := max(width-24, 0)

	return muted.Render(when+"  ") +
		resultStyle.Render(letter) +
		text.Render(fmt.Sprintf("  %-4s ", crowns)) +
		deltaStyle.Render(fmt.Sprintf("%4s", cli.FormatTrophyDelta(out.TrophyDelta))) +
		muted.Render("  "+truncStr(rest, restW))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
