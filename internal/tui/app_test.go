package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/source"
	"github.com/theirongolddev/crpush/internal/tui/components"
)

var day0 = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func at(h, m int) string {
	return source.FormatBattleTime(day0.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute))
}

func result(battleTime string, won bool) model.Battle {
	team, opp, change := 3.0, 0.0, 30.0
	if !won {
		team, opp, change = 0, 1, -30
	}
	return model.Battle{
		BattleTime: battleTime,
		GameMode:   model.GameMode{Name: "Ladder"},
		Team:       []model.Participant{{Tag: "#P", Crowns: model.Num(team), TrophyChange: model.Num(change)}},
		Opponent:   []model.Participant{{Tag: "#R", Name: "Rival", Crowns: model.Num(opp)}},
	}
}

// testData is three sessions: W W L at 10:00, L L at 14:00 and a lone W at 18:00.
func testData() *Data {
	return &Data{
		Tag:      "#P",
		Trophies: 7000,
		Source:   "cache",
		Battles: []model.Battle{
			result(at(18, 0), true),
			result(at(14, 5), false),
			result(at(14, 0), false),
			result(at(10, 10), false),
			result(at(10, 5), true),
			result(at(10, 0), true),
		},
	}
}

func loadedApp(t *testing.T) App {
	t.Helper()
	// Settings rendering reads the config file.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	a := NewApp(Options{
		Now: func() time.Time { return day0.Add(19 * time.Hour) },
	})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 45})
	m, _ = m.Update(DataLoadedMsg{Data: testData()})
	return m.(App)
}

func press(t *testing.T, a App, keys ...string) App {
	t.Helper()
	var m tea.Model = a
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = m.Update(msg)
	}
	return m.(App)
}

func TestDataLoadedRecomputes(t *testing.T) {
	a := loadedApp(t)

	if !a.loaded {
		t.Fatal("app should be loaded")
	}
	if got := len(a.sessions); got != 3 {
		t.Errorf("sessions = %d, want 3", got)
	}
	if a.daily.Battles != 6 || a.daily.Wins != 3 || a.daily.Losses != 3 {
		t.Errorf("daily = %+v, want 6 battles 3W-3L", a.daily)
	}
	if got := len(a.progression); got != 3 {
		t.Fatalf("progression points = %d, want 3", got)
	}
	if last := a.progression[len(a.progression)-1].Trophies; last != 7000 {
		t.Errorf("last progression point = %d, want 7000", last)
	}
}

func TestSessionsNavigation(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, "s")
	if a.activeTab != tabSessions {
		t.Fatalf("activeTab = %d, want sessions", a.activeTab)
	}

	a = press(t, a, "j", "j", "j")
	if a.sessState.cursor != 2 {
		t.Errorf("cursor = %d, want 2 (clamped)", a.sessState.cursor)
	}

	a = press(t, a, "P")
	if !a.sessState.pushesOnly || a.sessState.cursor != 0 {
		t.Errorf("pushes toggle: pushesOnly=%v cursor=%d", a.sessState.pushesOnly, a.sessState.cursor)
	}
	if got := len(a.visibleSessions()); got != 2 {
		t.Errorf("visible pushes = %d, want 2", got)
	}

	a = press(t, a, "G")
	if a.sessState.cursor != 1 {
		t.Errorf("G cursor = %d, want 1", a.sessState.cursor)
	}
}

func TestProgressionDailyToggle(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, "p", "d")
	if a.activeTab != tabProgression || !a.progState.daily {
		t.Fatalf("tab=%d daily=%v", a.activeTab, a.progState.daily)
	}
	if got := len(a.progression); got != 1 {
		t.Errorf("daily progression points = %d, want 1", got)
	}

	a = press(t, a, "d")
	if got := len(a.progression); got != 3 {
		t.Errorf("session progression points = %d, want 3", got)
	}
}

func TestFailedRefreshKeepsData(t *testing.T) {
	a := loadedApp(t)
	a.refreshing = true

	m, _ := a.Update(RefreshDataMsg{Err: errors.New("upstream down")})
	a = m.(App)

	if a.refreshing {
		t.Error("refreshing should be cleared")
	}
	if a.loadErr == nil {
		t.Error("loadErr should record the failure")
	}
	if a.data == nil || len(a.data.Battles) != 6 {
		t.Error("previous data should be kept")
	}
}

func TestLoadDataCmdMessageType(t *testing.T) {
	load := func(context.Context) (*Data, error) { return testData(), nil }

	if _, ok := loadDataCmd(load, false)().(DataLoadedMsg); !ok {
		t.Error("initial load should produce DataLoadedMsg")
	}
	msg, ok := loadDataCmd(load, true)().(RefreshDataMsg)
	if !ok {
		t.Fatal("refresh should produce RefreshDataMsg")
	}
	if msg.Data == nil || msg.Data.Tag != "#P" {
		t.Errorf("refresh data = %+v", msg.Data)
	}
}

func TestViewRendersEveryTab(t *testing.T) {
	a := loadedApp(t)

	for i, tab := range components.Tabs {
		a.activeTab = i
		view := a.View()
		if view == "" {
			t.Errorf("%s: empty view", tab.Name)
		}
		if lines := strings.Count(view, "\n") + 1; lines != a.height {
			t.Errorf("%s: view has %d lines, want %d", tab.Name, lines, a.height)
		}
	}
}

func TestViewTooNarrow(t *testing.T) {
	a := loadedApp(t)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(m.(App).View(), "too narrow") {
		t.Error("narrow terminal should show a warning")
	}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
	}
	if (App{}).tabAtX(10_000) != -1 {
		t.Error("x past the last tab should be -1")
	}
}
