package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/crpush/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, total := range []int{80, 81, 119, 120} {
		for n := 1; n <= 5; n++ {
			sum := 0
			for _, w := range LayoutRow(total, n) {
				sum += w
			}
			if sum != total {
				t.Errorf("LayoutRow(%d, %d) sums to %d", total, n, sum)
			}
		}
	}
	if LayoutRow(80, 0) != nil {
		t.Error("LayoutRow with n=0 should be nil")
	}
}

func TestCardRowPadsShorterCards(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("short card should be shorter than tall card")
	}

	joined := CardRow([]string{shortCard, tallCard})
	lines := strings.Split(joined, "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}

	// Below the short card the padding must still be styled.
	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no ANSI codes: %q", i, lines[i])
		}
	}

	width := lipgloss.Width(lines[0])
	for i, line := range lines {
		if w := lipgloss.Width(line); w != width {
			t.Errorf("line %d width = %d, want %d", i, w, width)
		}
	}
}

func TestCardRowSkipsEmpty(t *testing.T) {
	card := ContentCard("Only", "x", 20)
	if got := CardRow([]string{"", card, ""}); got != card {
		t.Error("CardRow should ignore empty cards")
	}
	if CardRow(nil) != "" {
		t.Error("CardRow(nil) should be empty")
	}
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Today", Value: "5W-2L"},
		{Label: "Trophies", Value: "+62", Detail: "7 battles"},
		{Label: "Streak", Value: "W3"},
	}, 90)
	for i, line := range strings.Split(row, "\n") {
		if w := lipgloss.Width(line); w != 90 {
			t.Errorf("line %d width = %d, want 90", i, w)
		}
	}
}

func TestSparkline(t *testing.T) {
	got := stripANSI(Sparkline([]float64{1, 2, 3}, theme.Active.Accent))
	if got != "▁▄█" {
		t.Errorf("Sparkline = %q, want ▁▄█", got)
	}
	flat := stripANSI(Sparkline([]float64{5, 5}, theme.Active.Accent))
	if flat != "▅▅" {
		t.Errorf("flat Sparkline = %q, want ▅▅", flat)
	}
	if Sparkline(nil, theme.Active.Accent) != "" {
		t.Error("empty Sparkline should be empty")
	}
}

func TestTrophyChartDimensions(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = 5000 + float64(i%17)*10
	}
	chart := TrophyChart(values, theme.Active.Gold, 60, 6)
	lines := strings.Split(chart, "\n")
	if len(lines) != 6 {
		t.Fatalf("chart height = %d, want 6", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 60 {
			t.Errorf("line %d width = %d, want 60", i, w)
		}
	}
	if !strings.Contains(stripANSI(lines[0]), "5160") {
		t.Errorf("top line should carry the max label: %q", stripANSI(lines[0]))
	}
}

func TestTabAtWidths(t *testing.T) {
	for i, tab := range Tabs {
		if TabIdxByKey(tab.Key) != i {
			t.Errorf("TabIdxByKey(%q) = %d, want %d", tab.Key, TabIdxByKey(tab.Key), i)
		}
		if TabVisualWidth(tab, false) <= len(tab.Name) {
			t.Errorf("inactive %s should be padded", tab.Name)
		}
	}
	if TabIdxByKey('z') != -1 {
		t.Error("unknown key should map to -1")
	}
}

func TestTiltGaugeShowsRisk(t *testing.T) {
	g := stripANSI(TiltGauge("Tilt", 140, "HIGH", 6, 10))
	if !strings.Contains(g, "100 HIGH") {
		t.Errorf("gauge should clamp risk to 100: %q", g)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && r == 'm':
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
