package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/crpush/internal/tui/theme"
)

// StatusInfo is what the bottom bar reports about the loaded data.
type StatusInfo struct {
	Tag         string
	Source      string // "api", "cache" or "files"
	LastRefresh time.Time
	Refreshing  bool
	AutoRefresh bool
	Err         error
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [q]uit")

	var right strings.Builder
	switch {
	case info.Err != nil:
		right.WriteString(warn.Render("load failed: " + info.Err.Error()))
	case info.Refreshing:
		right.WriteString(accent.Render("refreshing..."))
	case !info.LastRefresh.IsZero():
		right.WriteString(base.Render(fmt.Sprintf("%s · %s", info.Source, info.LastRefresh.Format("15:04:05"))))
	}
	if info.AutoRefresh {
		right.WriteString(accent.Render(" ↻"))
	}
	if info.Tag != "" {
		right.WriteString(base.Render("  " + info.Tag))
	}
	right.WriteString(base.Render(" "))

	rightStr := right.String()
	padding := max(width-lipgloss.Width(left)-lipgloss.Width(rightStr), 0)

	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}
