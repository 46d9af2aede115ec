package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/crpush/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name, -1 if absent
}

// Tabs defines all available tabs in display order.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Sessions", Key: 's', KeyPos: 0},
	{Name: "Progression", Key: 'p', KeyPos: 0},
	{Name: "Settings", Key: 'x', KeyPos: -1},
}

func tabStyles() (active, inactive, key, dimKey lipgloss.Style) {
	t := theme.Active
	active = lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceBright).
		Bold(true).
		Padding(0, 1)
	inactive = lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	key = lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dimKey = lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	return active, inactive, key, dimKey
}

func renderTab(tab Tab, active bool) string {
	activeStyle, inactiveStyle, keyStyle, dimKeyStyle := tabStyles()
	if active {
		return activeStyle.Render(tab.Name)
	}

	pad := inactiveStyle.Render(" ")
	if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
		return pad +
			inactiveStyle.Render(tab.Name[:tab.KeyPos]) +
			keyStyle.Render(string(tab.Name[tab.KeyPos])) +
			inactiveStyle.Render(tab.Name[tab.KeyPos+1:]) +
			pad
	}
	return pad + inactiveStyle.Render(tab.Name) +
		dimKeyStyle.Render("[") + keyStyle.Render(string(tab.Key)) + dimKeyStyle.Render("]") +
		pad
}

// TabVisualWidth returns the rendered width of a tab.
func TabVisualWidth(tab Tab, active bool) int {
	return lipgloss.Width(renderTab(tab, active))
}

// RenderTabBar renders the tab bar with the given active index, one column
// of separator between tabs.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active
	sep := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface).Render("│")

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}

	row := lipgloss.NewStyle().Background(t.Surface).Width(width)
	return row.Render(strings.Join(parts, sep))
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
