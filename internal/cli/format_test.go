package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-7500, "-7,500"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTrophyDelta(t *testing.T) {
	if got := FormatTrophyDelta(62); got != "+62" {
		t.Errorf("got %q", got)
	}
	if got := FormatTrophyDelta(-1030); got != "-1,030" {
		t.Errorf("got %q", got)
	}
	if got := FormatTrophyDelta(0); got != "0" {
		t.Errorf("got %q", got)
	}
}

func TestFormatWinRate(t *testing.T) {
	if got := FormatWinRate(67); got != "67%" {
		t.Errorf("got %q", got)
	}
	if got := FormatWinRate(66.6667); got != "66.7%" {
		t.Errorf("got %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{125 * time.Second, "2m"},
		{time.Hour + 2*time.Minute + 5*time.Second, "1h 2m"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatHoursAgo(t *testing.T) {
	if got := FormatHoursAgo(nil); got != "unknown" {
		t.Errorf("nil = %q", got)
	}
	half := 0.5
	if got := FormatHoursAgo(&half); got != "30m ago" {
		t.Errorf("0.5 = %q", got)
	}
	seven := 7.25
	if got := FormatHoursAgo(&seven); got != "7.2h ago" && got != "7.3h ago" {
		t.Errorf("7.25 = %q", got)
	}
}

func TestFormatStreakAndRecord(t *testing.T) {
	if got := FormatStreak(model.Streak{Type: model.StreakWin, Count: 3}); got != "W3" {
		t.Errorf("got %q", got)
	}
	if got := FormatStreak(model.Streak{Type: model.StreakNone}); got != "-" {
		t.Errorf("got %q", got)
	}
	if got := FormatRecord(3, 1, 0); got != "3W-1L" {
		t.Errorf("got %q", got)
	}
	if got := FormatRecord(3, 1, 2); got != "3W-1L-2D" {
		t.Errorf("got %q", got)
	}
}

func TestRenderTiltMeter(t *testing.T) {
	if got := RenderTiltMeter(0, 10); got == "" {
		t.Error("empty meter")
	}
	// Out-of-range risk is clamped rather than panicking.
	_ = RenderTiltMeter(250, 10)
	_ = RenderTiltMeter(-5, 10)
}

func TestRenderSparkline(t *testing.T) {
	if RenderSparkline(nil) != "" {
		t.Error("nil sparkline should be empty")
	}
	got := []rune(RenderSparkline([]float64{1, 2, 3, 4}))
	if len(got) != 4 || got[0] != '▁' || got[3] != '█' {
		t.Errorf("sparkline = %q", string(got))
	}
	flat := []rune(RenderSparkline([]float64{5, 5}))
	if flat[0] != flat[1] {
		t.Errorf("flat sparkline = %q", string(flat))
	}
}

func TestRenderBars(t *testing.T) {
	if RenderProgressBar(1, 0, 10) != "" {
		t.Error("zero total should render nothing")
	}
	if got := RenderProgressBar(5, 10, 10); !strings.Contains(got, "5/10") {
		t.Errorf("progress bar = %q", got)
	}
	if RenderHorizontalBar(3, 0, 10) != "" {
		t.Error("zero max should render nothing")
	}
	if got := strings.Count(RenderHorizontalBar(5, 10, 10), "█"); got != 5 {
		t.Errorf("half bar has %d blocks, want 5", got)
	}
}
