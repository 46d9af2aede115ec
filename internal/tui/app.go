// Package tui provides the interactive Bubble Tea dashboard for crpush.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/crpush/internal/config"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
	"github.com/theirongolddev/crpush/internal/tui/components"
	"github.com/theirongolddev/crpush/internal/tui/theme"
)

// Data is one load of a player's battle history.
type Data struct {
	Tag      string
	Battles  []model.Battle // newest first
	Trophies int
	Source   string
}

// LoadFunc fetches the battle history the dashboard shows.
type LoadFunc func(ctx context.Context) (*Data, error)

// Options configures the dashboard.
type Options struct {
	Load            LoadFunc
	MaxGap          time.Duration
	MinPushBattles  int
	AutoRefresh     bool
	RefreshInterval time.Duration
	// NeedSetup shows the first-run form once data has loaded.
	NeedSetup bool
	// Now is overridable for tests.
	Now func() time.Time
}

// DataLoadedMsg is sent when the first load finishes.
type DataLoadedMsg struct {
	Data     *Data
	Err      error
	LoadTime time.Duration
}

// RefreshDataMsg is sent when a background refresh completes.
type RefreshDataMsg struct {
	Data     *Data
	Err      error
	LoadTime time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	data     *Data
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// Pre-computed views
	daily       model.DailySummary
	tilt        model.TiltState
	week        model.RangeSummary
	sessions    []model.Session // season, newest first
	days        []model.DailyStats
	progression []model.ProgressionPoint

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	sessState sessionsState
	progState progressionState
	settings  settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead   = 10 // approximate header + status bar height
	minContentHeight = 5

	tickInterval = time.Second
)

// Tab indices, matching components.Tabs.
const (
	tabOverview = iota
	tabSessions
	tabProgression
	tabSettings
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxGap <= 0 {
		opts.MaxGap = pipeline.DefaultMaxGap
	}
	if opts.MinPushBattles <= 0 {
		opts.MinPushBattles = pipeline.DefaultMinPushBattles
	}
	if opts.RefreshInterval < 10*time.Second {
		opts.RefreshInterval = 60 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:            opts,
		needSetup:       opts.NeedSetup,
		autoRefresh:     opts.AutoRefresh,
		refreshInterval: opts.RefreshInterval,
		spinner:         sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts.Load, false),
		a.spinner.Tick,
		tickCmd(),
	)
}

// loadConfigOrDefault loads config, returning defaults on error so the
// dashboard can always start.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

func (a *App) recompute() {
	if a.data == nil {
		return
	}
	now := a.opts.Now()
	battles := a.data.Battles
	gap := a.opts.MaxGap

	a.daily = pipeline.ComputeDailySummary(battles, now, gap)
	a.tilt = pipeline.ComputeTiltState(battles, now)
	a.week = pipeline.Summarize(battles, pipeline.RangeWeek, now, pipeline.SummaryOptions{
		MaxGap:         gap,
		MinPushBattles: a.opts.MinPushBattles,
	})

	season := pipeline.FilterByRange(battles, pipeline.RangeSeason, now)
	a.sessions = pipeline.Segment(season, gap)
	a.days = pipeline.AggregateDays(season, now.Location(), gap)
	a.rebuildProgression()

	// Clamp the sessions cursor to the new list
	n := len(a.visibleSessions())
	if a.sessState.cursor >= n {
		a.sessState.cursor = n - 1
	}
	if a.sessState.cursor < 0 {
		a.sessState.cursor = 0
	}
	a.sessState.detailScroll = 0
}

func (a *App) rebuildProgression() {
	if a.data == nil {
		return
	}
	season := pipeline.FilterByRange(a.data.Battles, pipeline.RangeSeason, a.opts.Now())
	if a.progState.daily {
		a.progression = pipeline.BuildDailyProgression(season, a.data.Trophies, a.opts.Now().Location())
	} else {
		a.progression = pipeline.BuildProgression(season, a.data.Trophies, a.opts.MaxGap)
	}
}

// visibleSessions applies the pushes-only toggle.
func (a App) visibleSessions() []model.Session {
	if a.sessState.pushesOnly {
		return pipeline.Pushes(a.sessions, a.opts.MinPushBattles)
	}
	return a.sessions
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupActive() {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if !a.loaded {
			return a, nil
		}

		// First-run setup intercepts all keys
		if a.setupActive() {
			return a.updateSetupForm(msg)
		}

		if a.activeTab == tabSettings && a.settings.editing {
			return a.updateSettingsInput(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		switch a.activeTab {
		case tabSessions:
			if next, cmd, handled := a.updateSessionsKey(key); handled {
				return next, cmd
			}
		case tabProgression:
			if key == "d" {
				a.progState.daily = !a.progState.daily
				a.rebuildProgression()
				return a, nil
			}
		case tabSettings:
			switch key {
			case "j", "down":
				if a.settings.cursor < settingsFieldCount-1 {
					a.settings.cursor++
				}
				return a, nil
			case "k", "up":
				if a.settings.cursor > 0 {
					a.settings.cursor--
				}
				return a, nil
			case "enter":
				return a.settingsStartEdit()
			}
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "r":
			if !a.refreshing {
				a.refreshing = true
				return a, loadDataCmd(a.opts.Load, true)
			}
			return a, nil
		case "R":
			a.autoRefresh = !a.autoRefresh
			// Persist best-effort
			cfg := loadConfigOrDefault()
			cfg.TUI.AutoRefresh = a.autoRefresh
			_ = config.Save(cfg)
			return a, nil
		case "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
			return a, nil
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
			return a, nil
		}
		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		}
		return a, nil

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.lastRefresh = a.opts.Now()
		a.loadErr = msg.Err
		if msg.Data != nil {
			a.data = msg.Data
			a.recompute()
		}

		if a.needSetup {
			a.setupForm = newSetupForm(&a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case RefreshDataMsg:
		a.refreshing = false
		a.lastRefresh = a.opts.Now()
		a.loadErr = msg.Err
		if msg.Data != nil {
			a.data = msg.Data
			a.loadTime = msg.LoadTime
			a.recompute()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && a.opts.Now().Sub(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, loadDataCmd(a.opts.Load, true))
		} else if a.loaded && a.data != nil {
			// Tilt decays with idle time even without new battles.
			a.tilt = pipeline.ComputeTiltState(a.data.Battles, a.opts.Now())
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupActive() {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) setupActive() bool {
	return a.needSetup && a.setupForm != nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabSessions && a.sessState.cursor > 0 {
			a.sessState.cursor--
			a.sessState.detailScroll = 0
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == tabSessions && a.sessState.cursor < len(a.visibleSessions())-1 {
			a.sessState.cursor++
			a.sessState.detailScroll = 0
		}
	case tea.MouseButtonLeft:
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.loadErr = err
		}
		a.needSetup = false
		a.setupForm = nil
		a.refreshing = true
		return a, loadDataCmd(a.opts.Load, true)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupActive() {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  crpush needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ crpush"))
	b.WriteString(subtitleStyle.Render(" · Ladder push tracker"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Loading battle log..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Gold).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o s p x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Navigate lists"},
			{"J K", "Scroll session battles"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"P", "Sessions: pushes only"},
			{"d", "Progression: per day / per session"},
			{"Enter", "Edit setting"},
			{"r", "Refresh data"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	info := components.StatusInfo{
		LastRefresh: a.lastRefresh,
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		Err:         a.loadErr,
	}
	if a.data != nil {
		info.Tag, info.Source = a.data.Tag, a.data.Source
	}
	statusBar := components.RenderStatusBar(w, info)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabSessions:
		content = a.renderSessionsTab(cw, contentH)
	case tabProgression:
		content = a.renderProgressionTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd runs load in the background. refresh selects the message
// type so a failed refresh keeps the data already on screen.
func loadDataCmd(load LoadFunc, refresh bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		var (
			data *Data
			err  error
		)
		if load != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			data, err = load(ctx)
			cancel()
		}
		if refresh {
			return RefreshDataMsg{Data: data, Err: err, LoadTime: time.Since(start)}
		}
		return DataLoadedMsg{Data: data, Err: err, LoadTime: time.Since(start)}
	}
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the widths RenderTabBar draws.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		// One-column separator
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
