package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/crpush/internal/config"
	"github.com/theirongolddev/crpush/internal/royale"
	"github.com/theirongolddev/crpush/internal/tui/components"
	"github.com/theirongolddev/crpush/internal/tui/theme"
)

const (
	settingsFieldTag = iota
	settingsFieldToken
	settingsFieldTheme
	settingsFieldGap
	settingsFieldMinPush
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 50
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	cfg := loadConfigOrDefault()
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()

	switch a.settings.cursor {
	case settingsFieldTag:
		ti.Placeholder = "#2PP..."
		ti.SetValue(config.GetPlayerTag(cfg))
	case settingsFieldToken:
		ti.Placeholder = "API token from developer.clashroyale.com"
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		ti.SetValue(config.GetAPIToken(cfg))
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(cfg.Appearance.Theme)
	case settingsFieldGap:
		ti.Placeholder = "30 (minutes)"
		ti.SetValue(strconv.Itoa(int(a.opts.MaxGap.Minutes())))
	case settingsFieldMinPush:
		ti.Placeholder = "2 (battles)"
		ti.SetValue(strconv.Itoa(a.opts.MinPushBattles))
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.autoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = "60 (seconds, minimum 10)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

func (a *App) settingsSave() {
	cfg := loadConfigOrDefault()
	val := strings.TrimSpace(a.settings.input.Value())

	switch a.settings.cursor {
	case settingsFieldTag:
		cfg.General.PlayerTag = royale.NormalizeTag(val)
	case settingsFieldToken:
		cfg.API.Token = val
	case settingsFieldTheme:
		if slices.Contains(theme.Names(), val) {
			cfg.Appearance.Theme = val
			theme.SetActive(val)
		}
	case settingsFieldGap:
		if m, err := strconv.Atoi(val); err == nil && m > 0 {
			cfg.Sessions.MaxGapMinutes = m
			a.opts.MaxGap = time.Duration(m) * time.Minute
			a.recompute()
		}
	case settingsFieldMinPush:
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			cfg.Sessions.MinPushBattles = n
			a.opts.MinPushBattles = n
			a.recompute()
		}
	case settingsFieldAutoRefresh:
		cfg.TUI.AutoRefresh = val == "true" || val == "1" || val == "yes"
		a.autoRefresh = cfg.TUI.AutoRefresh
	case settingsFieldRefreshInterval:
		if sec, err := strconv.Atoi(val); err == nil && sec >= 10 {
			cfg.TUI.RefreshIntervalSec = sec
			a.refreshInterval = time.Duration(sec) * time.Second
		}
	}

	a.settings.saveErr = config.Save(cfg)
}

func maskSecret(s string) string {
	switch {
	case s == "":
		return "(not set)"
	case len(s) > 16:
		return s[:6] + "..." + s[len(s)-4:]
	default:
		return "****"
	}
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := loadConfigOrDefault()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.Win).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	tag := config.GetPlayerTag(cfg)
	if tag == "" {
		tag = "(not set)"
	}

	fields := []struct{ label, value string }{
		{"Player tag", tag},
		{"API token", maskSecret(config.GetAPIToken(cfg))},
		{"Theme", cfg.Appearance.Theme},
		{"Session gap", fmt.Sprintf("%dm", int(a.opts.MaxGap.Minutes()))},
		{"Push threshold", fmt.Sprintf("%d battles", a.opts.MinPushBattles)},
		{"Auto refresh", strconv.FormatBool(a.autoRefresh)},
		{"Refresh interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
	}

	innerW := components.CardInnerWidth(cw)

	var form strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			form.WriteString(a.settings.input.View())
			form.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			form.WriteString(marker + label + value)
			used := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if pad := innerW - used; pad > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			form.WriteString(valueStyle.Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			form.WriteString(valueStyle.Render(f.value))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)
		form.WriteString("\n")
		form.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(greenStyle.Render("Saved. Press r to reload with the new settings."))
	}

	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var info strings.Builder
	battles := 0
	source := "-"
	if a.data != nil {
		battles = len(a.data.Battles)
		source = a.data.Source
	}
	info.WriteString(labelStyle.Render("Battles loaded:  ") + valueStyle.Render(strconv.Itoa(battles)) + "\n")
	info.WriteString(labelStyle.Render("Source:          ") + valueStyle.Render(source) + "\n")
	info.WriteString(labelStyle.Render("Load time:       ") + valueStyle.Render(fmt.Sprintf("%.1fs", a.loadTime.Seconds())) + "\n")
	info.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(config.ConfigPath()) + "\n")
	info.WriteString(labelStyle.Render("Cache:           ") + valueStyle.Render(config.CachePath()))

	return components.ContentCard("Settings", form.String(), cw) + "\n" +
		components.ContentCard("General", info.String(), cw)
}
