package pipeline

import (
	"math"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/source"
)

// DayKeyLayout formats local calendar day keys.
const DayKeyLayout = "2006-01-02"

// StartOfDay returns the first instant of t's calendar day in t's
// location. On days where a DST jump skips midnight that is the moment the
// jump happens, not midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	mid := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	if my, mm, md := mid.Date(); my == y && mm == m && md == d {
		return mid
	}
	// mid normalized into the previous day; the zone change ends its period.
	if _, end := mid.ZoneBounds(); !end.IsZero() {
		if ey, em, ed := end.Date(); ey == y && em == m && ed == d {
			return end
		}
	}
	for range 24 * 60 {
		mid = mid.Add(time.Minute)
		if my, mm, md := mid.Date(); my == y && mm == m && md == d {
			return mid
		}
	}
	return t
}

// ComputeDailySummary rolls up the newest-first battles played at or after
// local midnight of now, where local means now.Location().
func ComputeDailySummary(newestFirst []model.Battle, now time.Time, maxGap time.Duration) model.DailySummary {
	midnight := StartOfDay(now)

	today := make([]model.Battle, 0, len(newestFirst))
	for _, b := range newestFirst {
		at, ok := source.ParseBattleTime(b.BattleTime)
		if !ok || at.Before(midnight) {
			continue
		}
		today = append(today, b)
	}

	summary := model.DailySummary{
		Date:     midnight.Format(DayKeyLayout),
		Battles:  len(today),
		Streak:   ComputeStreak(today),
		Sessions: Segment(today, maxGap),
	}

	tbs := chronological(today)
	for _, o := range classifyChronological(tbs) {
		switch o.Result {
		case model.Win:
			summary.Wins++
		case model.Loss:
			summary.Losses++
		default:
			summary.Draws++
		}
		summary.TrophyDelta += o.TrophyDelta
	}
	summary.WinRate = int(math.Round(winRate(summary.Wins, summary.Losses, true)))
	return summary
}
