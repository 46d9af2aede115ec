package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
)

func TestSummarize(t *testing.T) {
	now := base.Add(6 * time.Hour)
	battles := NewestFirst([]model.Battle{
		win(ts(0)), win(ts(time.Minute)), win(ts(2 * time.Minute)),
		loss(ts(3 * time.Hour)), loss(ts(3*time.Hour + time.Minute)),
		draw(ts(5 * time.Hour)),
	})

	s := Summarize(battles, RangeToday, now, SummaryOptions{MaxGap: 30 * time.Minute})
	if s.Battles != 6 || s.Wins != 3 || s.Losses != 2 || s.Draws != 1 {
		t.Errorf("counts = %d %d/%d/%d", s.Battles, s.Wins, s.Losses, s.Draws)
	}
	if s.WinRate != 60 {
		t.Errorf("WinRate = %v, want 60", s.WinRate)
	}
	if s.TrophyDelta != 30 {
		t.Errorf("TrophyDelta = %d, want 30", s.TrophyDelta)
	}
	if s.LongestWinStreak != 3 || s.LongestLossStreak != 2 {
		t.Errorf("longest streaks = %d/%d, want 3/2", s.LongestWinStreak, s.LongestLossStreak)
	}
	if s.Streak.Type != model.StreakNone {
		t.Errorf("Streak = %+v, want none after a draw", s.Streak)
	}
	if s.Sessions != 3 || s.Pushes != 2 {
		t.Errorf("Sessions/Pushes = %d/%d, want 3/2", s.Sessions, s.Pushes)
	}
	if s.BestPush == nil || s.BestPush.TrophyDelta != 90 {
		t.Errorf("BestPush = %+v, want +90", s.BestPush)
	}
	if s.WorstPush == nil || s.WorstPush.TrophyDelta != -60 {
		t.Errorf("WorstPush = %+v, want -60", s.WorstPush)
	}
	if s.ActiveDays != 1 || s.BattlesPerSession != 2 {
		t.Errorf("ActiveDays/BattlesPerSession = %d/%v", s.ActiveDays, s.BattlesPerSession)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, RangeWeek, base, SummaryOptions{})
	if s.Battles != 0 || s.BestPush != nil || s.Streak.Type != model.StreakNone || s.Range != "week" {
		t.Errorf("Summarize(nil) = %+v", s)
	}
}

func TestAggregateDays(t *testing.T) {
	battles := []model.Battle{
		win(ts(0)), loss(ts(time.Minute)),
		win(ts(24 * time.Hour)),
		win(ts(48 * time.Hour)), win(ts(49 * time.Hour)),
	}

	days := AggregateDays(battles, time.UTC, 30*time.Minute)
	if len(days) != 3 {
		t.Fatalf("len(days) = %d, want 3", len(days))
	}
	if days[0].Key != "2024-01-17" || days[2].Key != "2024-01-15" {
		t.Errorf("keys = %s..%s, want newest first", days[0].Key, days[2].Key)
	}
	if days[0].Battles != 2 || days[0].Sessions != 2 || days[0].TrophyDelta != 60 {
		t.Errorf("days[0] = %+v", days[0])
	}
	if days[2].WinRate != 50 {
		t.Errorf("days[2].WinRate = %v, want 50", days[2].WinRate)
	}
}

func TestAggregateDays_Location(t *testing.T) {
	loc := time.FixedZone("UTC-11", -11*60*60)
	days := AggregateDays([]model.Battle{win(ts(0))}, loc, 0)
	if len(days) != 1 || days[0].Key != "2024-01-14" {
		t.Errorf("days = %+v, want 2024-01-14 in UTC-11", days)
	}
}

func TestAggregateHours(t *testing.T) {
	hours := AggregateHours([]model.Battle{win(ts(0)), loss(ts(time.Minute)), win(ts(24 * time.Hour))}, time.UTC)
	if len(hours) != 24 {
		t.Fatalf("len(hours) = %d, want 24", len(hours))
	}
	h := hours[10]
	if h.Battles != 3 || h.Wins != 2 || h.Losses != 1 || h.TrophyDelta != 30 {
		t.Errorf("hours[10] = %+v", h)
	}
	if hours[9].Battles != 0 || hours[9].Hour != 9 {
		t.Errorf("hours[9] = %+v", hours[9])
	}
}

func TestAggregateModes(t *testing.T) {
	battles := []model.Battle{
		win(ts(0), withMode("Ladder")),
		loss(ts(time.Minute), withMode("Ladder")),
		win(ts(2*time.Minute), withMode("Challenge")),
		{BattleTime: ts(3 * time.Minute), Type: "friendly"},
		{BattleTime: ts(4 * time.Minute)},
	}

	modes := AggregateModes(battles)
	if len(modes) != 4 {
		t.Fatalf("len(modes) = %d, want 4", len(modes))
	}
	if modes[0].Mode != "Ladder" || modes[0].Battles != 2 || modes[0].SharePercent != 40 {
		t.Errorf("modes[0] = %+v", modes[0])
	}
	names := map[string]bool{}
	for _, m := range modes {
		names[m.Mode] = true
	}
	for _, want := range []string{"Challenge", "friendly", "unknown"} {
		if !names[want] {
			t.Errorf("missing mode %q", want)
		}
	}

	if got := FilterByMode(battles, "ladd"); len(got) != 2 {
		t.Errorf("len(FilterByMode(ladd)) = %d, want 2", len(got))
	}
}

func TestDedupe(t *testing.T) {
	a := win(ts(0), withRival("#A"))
	b := win(ts(0), withRival("#B"))
	got := Dedupe([]model.Battle{a, b, a, b, a})
	if len(got) != 2 {
		t.Errorf("len(Dedupe) = %d, want 2", len(got))
	}
}

func TestNewestFirst(t *testing.T) {
	got := NewestFirst([]model.Battle{
		win(ts(0), withRival("#OLD")),
		win("bad"),
		win(ts(time.Hour), withRival("#TIE1")),
		win(ts(time.Hour), withRival("#TIE2")),
	})
	var rivals []string
	for _, b := range got {
		rivals = append(rivals, b.Rival().Tag)
	}
	want := []string{"#TIE1", "#TIE2", "#OLD"}
	if len(rivals) != len(want) {
		t.Fatalf("rivals = %v, want %v", rivals, want)
	}
	for i := range want {
		if rivals[i] != want[i] {
			t.Fatalf("rivals = %v, want %v", rivals, want)
		}
	}
}
