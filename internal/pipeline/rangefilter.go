package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/source"
)

// Range names a charting window.
type Range string

const (
	RangeToday  Range = "today"
	RangeWeek   Range = "week"
	RangeSeason Range = "season"
	RangeAll    Range = "all"
)

// SeasonLookbackDays approximates a ladder season as a fixed lookback rather
// than tracking real season boundaries.
const SeasonLookbackDays = 35

// Ranges lists the accepted range names.
var Ranges = []Range{RangeToday, RangeWeek, RangeSeason, RangeAll}

// ParseRange validates a user-supplied range name.
func ParseRange(s string) (Range, error) {
	r := Range(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Ranges {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown range %q (want today, week, season or all)", s)
}

// Cutoff returns the inclusive lower bound of r relative to now. The zero
// time means unbounded; ok is false for an unknown range.
func Cutoff(r Range, now time.Time) (time.Time, bool) {
	switch r {
	case RangeToday:
		return StartOfDay(now), true
	case RangeWeek:
		return StartOfDay(now.AddDate(0, 0, -7)), true
	case RangeSeason:
		return now.AddDate(0, 0, -SeasonLookbackDays), true
	case RangeAll:
		return time.Time{}, true
	default:
		return time.Time{}, false
	}
}

// FilterByRange keeps battles whose instant falls in [cutoff, now], in input
// order. Unparseable timestamps are dropped and an unknown range keeps
// nothing.
func FilterByRange(battles []model.Battle, r Range, now time.Time) []model.Battle {
	out := make([]model.Battle, 0)
	cutoff, ok := Cutoff(r, now)
	if !ok {
		return out
	}
	for _, b := range battles {
		at, ok := source.ParseBattleTime(b.BattleTime)
		if !ok || at.Before(cutoff) || at.After(now) {
			continue
		}
		out = append(out, b)
	}
	return out
}
