package pipeline

import (
	"fmt"
	"slices"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
)

// BuildProgression reconstructs the trophy curve one point per session,
// oldest first, anchored so the last point equals current. Empty input
// yields an empty slice.
func BuildProgression(battles []model.Battle, current int, maxGap time.Duration) []model.ProgressionPoint {
	sessions := Segment(battles, maxGap)
	points := make([]model.ProgressionPoint, 0, len(sessions))
	if len(sessions) == 0 {
		return points
	}

	chrono := slices.Clone(sessions)
	slices.Reverse(chrono)

	total := 0
	for _, s := range chrono {
		total += s.TrophyDelta
	}

	running := current - total
	for i, s := range chrono {
		running += s.TrophyDelta
		points = append(points, model.ProgressionPoint{
			Index:    i,
			Label:    fmt.Sprintf("S%d", i+1),
			Time:     s.End,
			Trophies: running,
			Delta:    s.TrophyDelta,
			Wins:     s.Wins,
			Losses:   s.Losses,
		})
	}
	return points
}

// BuildDailyProgression is BuildProgression with one point per calendar day
// in loc. A nil loc means UTC.
func BuildDailyProgression(battles []model.Battle, current int, loc *time.Location) []model.ProgressionPoint {
	if loc == nil {
		loc = time.UTC
	}

	tbs := chronological(battles)
	outcomes := classifyChronological(tbs)

	var days []model.ProgressionPoint
	total := 0
	for i, tb := range tbs {
		local := tb.at.In(loc)
		key := local.Format(DayKeyLayout)
		if len(days) == 0 || days[len(days)-1].Label != key {
			days = append(days, model.ProgressionPoint{
				Index: len(days),
				Label: key,
				Time:  StartOfDay(local),
			})
		}
		p := &days[len(days)-1]
		p.Delta += outcomes[i].TrophyDelta
		switch outcomes[i].Result {
		case model.Win:
			p.Wins++
		case model.Loss:
			p.Losses++
		}
		total += outcomes[i].TrophyDelta
	}

	if days == nil {
		return []model.ProgressionPoint{}
	}

	running := current - total
	for i := range days {
		running += days[i].Delta
		days[i].Trophies = running
	}
	return days
}
