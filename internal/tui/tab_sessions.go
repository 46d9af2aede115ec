package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
	"github.com/theirongolddev/crpush/internal/source"
	"github.com/theirongolddev/crpush/internal/tui/components"
	"github.com/theirongolddev/crpush/internal/tui/theme"
)

// sessionsState holds the sessions tab state.
type sessionsState struct {
	cursor       int
	offset       int // scroll offset for the list
	detailScroll int
	pushesOnly   bool
}

// updateSessionsKey handles sessions tab keys. handled is false for keys
// the global handler should see.
func (a App) updateSessionsKey(key string) (App, tea.Cmd, bool) {
	n := len(a.visibleSessions())
	switch key {
	case "j", "down":
		if a.sessState.cursor < n-1 {
			a.sessState.cursor++
			a.sessState.detailScroll = 0
		}
	case "k", "up":
		if a.sessState.cursor > 0 {
			a.sessState.cursor--
			a.sessState.detailScroll = 0
		}
	case "g":
		a.sessState.cursor, a.sessState.offset, a.sessState.detailScroll = 0, 0, 0
	case "G":
		a.sessState.cursor = max(n-1, 0)
		a.sessState.detailScroll = 0
	case "J":
		a.sessState.detailScroll++
	case "K":
		a.sessState.detailScroll = max(a.sessState.detailScroll-1, 0)
	case "ctrl+d":
		a.sessState.detailScroll += max((a.height-scrollOverhead)/2, 1)
	case "ctrl+u":
		a.sessState.detailScroll = max(a.sessState.detailScroll-max((a.height-scrollOverhead)/2, 1), 0)
	case "P":
		a.sessState.pushesOnly = !a.sessState.pushesOnly
		a.sessState.cursor, a.sessState.offset, a.sessState.detailScroll = 0, 0, 0
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) renderSessionsTab(cw, h int) string {
	t := theme.Active
	sessions := a.visibleSessions()

	title := "Sessions (season)"
	if a.sessState.pushesOnly {
		title = fmt.Sprintf("Pushes (%d+ battles)", a.opts.MinPushBattles)
	}

	if len(sessions) == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		return components.ContentCard(title, muted.Render("No sessions found"), cw)
	}

	cursor := min(a.sessState.cursor, len(sessions)-1)

	if a.isCompactLayout() {
		return components.ContentCard(title, a.renderSessionList(sessions, cursor, components.CardInnerWidth(cw), h), cw)
	}

	leftW := max(cw*2/5, 40)
	rightW := cw - leftW

	leftCard := components.ContentCard(title, a.renderSessionList(sessions, cursor, components.CardInnerWidth(leftW), h), leftW)

	sel := sessions[cursor]
	rightTitle := fmt.Sprintf("%s · %s", sel.Start.Local().Format("Mon Jan 02 15:04"), cli.FormatDuration(sel.Duration()))
	rightCard := components.ContentCard(rightTitle, a.renderSessionDetail(sel, components.CardInnerWidth(rightW), h), rightW)

	return components.CardRow([]string{leftCard, rightCard})
}

func (a App) renderSessionList(sessions []model.Session, cursor, innerW, h int) string {
	t := theme.Active

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	// card border (2) + title (1) + header (1) + footer (2)
	visible := max(h-6, 3)

	offset := a.sessState.offset
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	end := min(offset+visible, len(sessions))

	var b strings.Builder
	b.WriteString(headerStyle.Render(truncStr(fmt.Sprintf("%-13s %4s %-9s %6s", "Start", "Btl", "Record", "Troph"), innerW)))
	b.WriteString("\n")

	for i := offset; i < end; i++ {
		s := sessions[i]
		line := fmt.Sprintf("%-13s %4d %-9s %6s",
			s.Start.Local().Format("Jan 02 15:04"),
			s.BattleCount,
			cli.FormatRecord(s.Wins, s.Losses, s.Draws),
			cli.FormatTrophyDelta(s.TrophyDelta))
		line = truncStr(line, innerW)

		if i == cursor {
			b.WriteString(selectedStyle.Render(line + strings.Repeat(" ", max(innerW-lipgloss.Width(line), 0))))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d/%d  [j/k] move  [P] pushes", cursor+1, len(sessions))))
	return b.String()
}

func (a App) renderSessionDetail(s model.Session, innerW, h int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	deltaStyle := lipgloss.NewStyle().Foreground(t.DeltaColor(s.TrophyDelta)).Background(t.Surface).Bold(true)

	var b strings.Builder
	b.WriteString(labelStyle.Render("Record   "))
	b.WriteString(valueStyle.Render(cli.FormatRecord(s.Wins, s.Losses, s.Draws)))
	b.WriteString(labelStyle.Render("   Win rate "))
	b.WriteString(valueStyle.Render(cli.FormatWinRate(s.WinRate)))
	b.WriteString(labelStyle.Render("   Trophies "))
	b.WriteString(deltaStyle.Render(cli.FormatTrophyDelta(s.TrophyDelta)))
	b.WriteString("\n\n")

	// Battles inside a session are oldest first; show newest first.
	lines := make([]string, 0, len(s.Battles))
	for i := len(s.Battles) - 1; i >= 0; i-- {
		var next *model.Battle
		if i+1 < len(s.Battles) {
			next = &s.Battles[i+1]
		}
		lines = append(lines, battleLine(s.Battles[i], pipeline.Classify(s.Battles[i], next), innerW))
	}

	visible := max(h-7, 3)
	scroll := min(a.sessState.detailScroll, max(len(lines)-visible, 0))
	end := min(scroll+visible, len(lines))
	b.WriteString(strings.Join(lines[scroll:end], "\n"))
	return b.String()
}

func battleTime(b model.Battle) (time.Time, bool) {
	return source.ParseBattleTime(b.BattleTime)
}
