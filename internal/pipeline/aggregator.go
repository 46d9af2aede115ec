// Package pipeline turns battle logs into sessions, streaks, tilt, daily and
// range rollups, and trophy progressions. Everything except the loader and
// sync files is pure: the reference time is always passed in.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
)

// SummaryOptions tunes Summarize.
type SummaryOptions struct {
	MaxGap         time.Duration
	MinPushBattles int
}

// Summarize computes range statistics over newest-first battles.
func Summarize(newestFirst []model.Battle, r Range, now time.Time, opts SummaryOptions) model.RangeSummary {
	filtered := FilterByRange(newestFirst, r, now)
	stats := model.RangeSummary{Range: string(r), Battles: len(filtered)}

	tbs := chronological(filtered)
	outcomes := classifyChronological(tbs)
	activeDays := make(map[string]struct{})

	winRun, lossRun := 0, 0
	for i, o := range outcomes {
		switch o.Result {
		case model.Win:
			stats.Wins++
			winRun, lossRun = winRun+1, 0
		case model.Loss:
			stats.Losses++
			winRun, lossRun = 0, lossRun+1
		default:
			stats.Draws++
			winRun, lossRun = 0, 0
		}
		stats.LongestWinStreak = max(stats.LongestWinStreak, winRun)
		stats.LongestLossStreak = max(stats.LongestLossStreak, lossRun)
		stats.TrophyDelta += o.TrophyDelta
		activeDays[tbs[i].at.In(now.Location()).Format(DayKeyLayout)] = struct{}{}
	}
	stats.ActiveDays = len(activeDays)
	stats.WinRate = winRate(stats.Wins, stats.Losses, true)
	stats.Streak = ComputeStreak(filtered)

	sessions := Segment(filtered, opts.MaxGap)
	pushes := Pushes(sessions, opts.MinPushBattles)
	stats.Sessions = len(sessions)
	stats.Pushes = len(pushes)
	if len(sessions) > 0 {
		stats.BattlesPerSession = float64(len(tbs)) / float64(len(sessions))
	}
	for i := range pushes {
		p := pushes[i]
		if stats.BestPush == nil || p.TrophyDelta > stats.BestPush.TrophyDelta {
			stats.BestPush = &p
		}
		if stats.WorstPush == nil || p.TrophyDelta < stats.WorstPush.TrophyDelta {
			stats.WorstPush = &p
		}
	}
	return stats
}

// AggregateDays computes per-day results keyed by calendar day in loc,
// newest day first. Sessions are attributed to the day they started.
func AggregateDays(battles []model.Battle, loc *time.Location, maxGap time.Duration) []model.DailyStats {
	if loc == nil {
		loc = time.UTC
	}

	tbs := chronological(battles)
	outcomes := classifyChronological(tbs)
	dayMap := make(map[string]*model.DailyStats)

	day := func(t time.Time) *model.DailyStats {
		local := t.In(loc)
		key := local.Format(DayKeyLayout)
		ds, ok := dayMap[key]
		if !ok {
			ds = &model.DailyStats{Date: StartOfDay(local), Key: key}
			dayMap[key] = ds
		}
		return ds
	}

	for i, tb := range tbs {
		ds := day(tb.at)
		ds.Battles++
		switch outcomes[i].Result {
		case model.Win:
			ds.Wins++
		case model.Loss:
			ds.Losses++
		default:
			ds.Draws++
		}
		ds.TrophyDelta += outcomes[i].TrophyDelta
	}
	for _, s := range Segment(battles, maxGap) {
		day(s.Start).Sessions++
	}

	days := make([]model.DailyStats, 0, len(dayMap))
	for _, ds := range dayMap {
		ds.WinRate = winRate(ds.Wins, ds.Losses, true)
		days = append(days, *ds)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days
}

// AggregateHours buckets results by local hour of day across all days.
func AggregateHours(battles []model.Battle, loc *time.Location) []model.HourStats {
	if loc == nil {
		loc = time.UTC
	}

	hours := make([]model.HourStats, 24)
	for i := range hours {
		hours[i].Hour = i
	}

	tbs := chronological(battles)
	for i, o := range classifyChronological(tbs) {
		h := &hours[tbs[i].at.In(loc).Hour()]
		h.Battles++
		switch o.Result {
		case model.Win:
			h.Wins++
		case model.Loss:
			h.Losses++
		}
		h.TrophyDelta += o.TrophyDelta
	}
	for i := range hours {
		hours[i].WinRate = winRate(hours[i].Wins, hours[i].Losses, true)
	}
	return hours
}

// ModeName returns the game mode name of b, falling back to its battle type.
func ModeName(b model.Battle) string {
	switch {
	case b.GameMode.Name != "":
		return b.GameMode.Name
	case b.Type != "":
		return b.Type
	default:
		return "unknown"
	}
}

// AggregateModes computes per-mode results sorted by battle count.
func AggregateModes(battles []model.Battle) []model.ModeStats {
	tbs := chronological(battles)
	outcomes := classifyChronological(tbs)

	modeMap := make(map[string]*model.ModeStats)
	for i, tb := range tbs {
		name := ModeName(tb.battle)
		ms, ok := modeMap[name]
		if !ok {
			ms = &model.ModeStats{Mode: name}
			modeMap[name] = ms
		}
		ms.Battles++
		switch outcomes[i].Result {
		case model.Win:
			ms.Wins++
		case model.Loss:
			ms.Losses++
		}
		ms.TrophyDelta += outcomes[i].TrophyDelta
	}

	modes := make([]model.ModeStats, 0, len(modeMap))
	for _, ms := range modeMap {
		ms.WinRate = winRate(ms.Wins, ms.Losses, true)
		if len(tbs) > 0 {
			ms.SharePercent = float64(ms.Battles) / float64(len(tbs)) * 100
		}
		modes = append(modes, *ms)
	}
	sort.Slice(modes, func(i, j int) bool {
		if modes[i].Battles != modes[j].Battles {
			return modes[i].Battles > modes[j].Battles
		}
		return modes[i].Mode < modes[j].Mode
	})
	return modes
}

// FilterByMode keeps battles whose mode name contains mode, ignoring case.
func FilterByMode(battles []model.Battle, mode string) []model.Battle {
	if mode == "" {
		return battles
	}
	var result []model.Battle
	for _, b := range battles {
		if containsIgnoreCase(ModeName(b), mode) {
			result = append(result, b)
		}
	}
	return result
}

func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// BattleKey identifies a battle across overlapping exports and fetches.
func BattleKey(b model.Battle) string {
	return b.BattleTime + "|" + b.Player().Tag + "|" + b.Rival().Tag
}

// Dedupe drops repeated battles, keeping the first occurrence.
func Dedupe(battles []model.Battle) []model.Battle {
	seen := make(map[string]struct{}, len(battles))
	out := make([]model.Battle, 0, len(battles))
	for _, b := range battles {
		k := BattleKey(b)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, b)
	}
	return out
}

// NewestFirst returns the battles with valid timestamps sorted newest first.
// Equal instants keep their input order.
func NewestFirst(battles []model.Battle) []model.Battle {
	tbs := chronological(battles)
	sort.SliceStable(tbs, func(i, j int) bool { return tbs[i].at.After(tbs[j].at) })
	out := make([]model.Battle, len(tbs))
	for i, tb := range tbs {
		out[i] = tb.battle
	}
	return out
}
