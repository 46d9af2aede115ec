package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
)

func TestFilterByRange(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) string { return ts(now.Sub(base) - d) }

	// Boundaries: one minute in the future, 00:00 today, 23:59:59 yesterday,
	// the week cutoff and the season cutoff.
	battles := []model.Battle{
		win(at(-time.Minute)),
		win(at(time.Hour)),
		win(at(12 * time.Hour)),
		win(at(12*time.Hour + time.Second)),
		win(at(7*24*time.Hour + 12*time.Hour)),
		win(at(7*24*time.Hour + 13*time.Hour)),
		win(at(35 * 24 * time.Hour)),
		win(at(35*24*time.Hour + time.Second)),
		win("garbage"),
	}

	tests := []struct {
		r    Range
		want int
	}{
		{RangeToday, 2},
		{RangeWeek, 4},
		{RangeSeason, 6},
		{RangeAll, 7},
		{Range("decade"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			got := FilterByRange(battles, tt.r, now)
			if len(got) != tt.want {
				t.Errorf("len(FilterByRange(%s)) = %d, want %d", tt.r, len(got), tt.want)
			}
			if got == nil {
				t.Error("FilterByRange returned nil")
			}
		})
	}
}

func TestFilterByRange_PreservesOrder(t *testing.T) {
	now := base.Add(time.Hour)
	battles := []model.Battle{win(ts(10 * time.Minute)), loss(ts(0)), win(ts(20 * time.Minute))}
	got := FilterByRange(battles, RangeToday, now)
	for i := range battles {
		if got[i].BattleTime != battles[i].BattleTime {
			t.Fatalf("order changed at %d", i)
		}
	}
}

func TestParseRange(t *testing.T) {
	for _, in := range []string{"today", "WEEK", " season ", "all"} {
		if _, err := ParseRange(in); err != nil {
			t.Errorf("ParseRange(%q) error: %v", in, err)
		}
	}
	if _, err := ParseRange("month"); err == nil {
		t.Error("ParseRange(month) should fail")
	}
}
