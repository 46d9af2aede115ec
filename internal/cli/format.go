// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatTrophyDelta formats a trophy change with an explicit sign.
// e.g., 62 -> "+62", -30 -> "-30", 0 -> "0"
func FormatTrophyDelta(n int) string {
	if n > 0 {
		return "+" + FormatNumber(int64(n))
	}
	return FormatNumber(int64(n))
}

// FormatWinRate formats a 0-100 win rate. Whole numbers print without
// decimals; raw rates keep one decimal.
func FormatWinRate(pct float64) string {
	if pct == math.Trunc(pct) {
		return fmt.Sprintf("%.0f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatRecord formats a W-L(-D) record.
func FormatRecord(wins, losses, draws int) string {
	if draws > 0 {
		return fmt.Sprintf("%dW-%dL-%dD", wins, losses, draws)
	}
	return fmt.Sprintf("%dW-%dL", wins, losses)
}

// FormatDuration formats a duration into a compact human-readable form.
// e.g., 1h2m5s -> "1h 2m", 2m5s -> "2m", 45s -> "45s"
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatHoursAgo formats an idle time in hours. A nil value means no battle
// time is known.
func FormatHoursAgo(h *float64) string {
	if h == nil {
		return "unknown"
	}
	if *h < 1 {
		return fmt.Sprintf("%dm ago", int(*h*60))
	}
	return fmt.Sprintf("%.1fh ago", *h)
}

// FormatStreak formats a streak as "W3", "L2" or "-".
func FormatStreak(s model.Streak) string {
	switch s.Type {
	case model.StreakWin:
		return fmt.Sprintf("W%d", s.Count)
	case model.StreakLoss:
		return fmt.Sprintf("L%d", s.Count)
	default:
		return "-"
	}
}

// FormatTiltLevel returns a display label for a tilt level.
func FormatTiltLevel(l model.TiltLevel) string {
	switch l {
	case model.TiltHigh:
		return "HIGH"
	case model.TiltMedium:
		return "MEDIUM"
	default:
		return "none"
	}
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
