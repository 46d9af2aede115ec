package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/crpush/internal/tui/theme"
)

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values scaled between their min and max. A flat
// series sits on the middle block.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	lo, hi := bounds(values)
	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := len(blocks) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(blocks)-1))
		}
		buf.WriteRune(blocks[min(max(idx, 0), len(blocks)-1)])
	}
	return style.Render(buf.String())
}

// TrophyChart renders an area chart of a trophy curve with min and max
// labels on the y axis. Series wider than the chart are sampled.
func TrophyChart(values []float64, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	lo, hi := bounds(values)
	// Leave headroom so the lowest point still shows a sliver.
	span := hi - lo
	if span == 0 {
		span = 1
	}
	floor := lo - span*0.1

	yLabelW := max(len(fmt.Sprintf("%.0f", hi)), len(fmt.Sprintf("%.0f", lo))) + 1
	chartW := max(width-yLabelW-1, 5)

	cols := sample(values, chartW)

	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := height; row >= 1; row-- {
		rowTop := floor + (hi-floor)*float64(row)/float64(height)
		rowBottom := floor + (hi-floor)*float64(row-1)/float64(height)

		label := ""
		switch row {
		case height:
			label = fmt.Sprintf("%.0f", hi)
		case 1:
			label = fmt.Sprintf("%.0f", lo)
		}
		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, label)))
		b.WriteString(axisStyle.Render("│"))

		var line strings.Builder
		for _, v := range cols {
			switch {
			case v >= rowTop:
				line.WriteRune('█')
			case v > rowBottom:
				frac := (v - rowBottom) / (rowTop - rowBottom)
				line.WriteRune(blocks[min(max(int(frac*8)-1, 0), len(blocks)-1)])
			default:
				line.WriteRune(' ')
			}
		}
		b.WriteString(barStyle.Render(line.String()))
		b.WriteString(blank.Render(strings.Repeat(" ", chartW-len(cols))))
		if row > 1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// sample picks n evenly spaced values, keeping the first and last.
func sample(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = values[i*(len(values)-1)/(n-1)]
	}
	return out
}
