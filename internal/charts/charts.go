// Package charts renders trophy progression and daily results as
// interactive HTML charts.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/theirongolddev/crpush/internal/model"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title  string
	Width  string // e.g. "900px"
	Height string
	Theme  string // echarts theme name
	Smooth bool
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Title:  "Trophy progression",
		Width:  "900px",
		Height: "450px",
		Theme:  "dark",
		Smooth: true,
	}
}

func (c ChartConfig) globalOpts(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:     c.Width,
			Height:    c.Height,
			Theme:     c.Theme,
			PageTitle: c.Title,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
	}
}

// ProgressionChart builds a line chart of reconstructed trophy counts.
func ProgressionChart(points []model.ProgressionPoint, cfg ChartConfig) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(cfg.globalOpts(cfg.Title, fmt.Sprintf("%d points", len(points))),
		charts.WithYAxisOpts(opts.YAxis{Name: "Trophies", Scale: opts.Bool(true)}),
	)...)

	labels := make([]string, len(points))
	trophies := make([]opts.LineData, len(points))
	for i, p := range points {
		labels[i] = p.Label
		trophies[i] = opts.LineData{Value: p.Trophies, Name: p.Time.Format("Jan 2 15:04")}
	}

	line.SetXAxis(labels).
		AddSeries("Trophies", trophies).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth: opts.Bool(cfg.Smooth),
			}),
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(false),
			}),
		)
	return line
}

// DailyChart builds a bar chart of trophy change per day, oldest day first.
// days is expected newest first.
func DailyChart(days []model.DailyStats, cfg ChartConfig) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(cfg.globalOpts("Daily trophies", fmt.Sprintf("%d days", len(days)))...)

	n := len(days)
	labels := make([]string, n)
	deltas := make([]opts.BarData, n)
	rates := make([]opts.BarData, n)
	for i, d := range days {
		j := n - 1 - i
		labels[j] = d.Key
		deltas[j] = opts.BarData{Value: d.TrophyDelta}
		rates[j] = opts.BarData{Value: d.WinRate}
	}

	bar.SetXAxis(labels).
		AddSeries("Trophy change", deltas).
		AddSeries("Win rate %", rates)
	return bar
}

// RenderReport writes an HTML page with the progression and daily charts.
func RenderReport(w io.Writer, points []model.ProgressionPoint, days []model.DailyStats, cfg ChartConfig) error {
	page := components.NewPage()
	page.PageTitle = cfg.Title
	page.AddCharts(ProgressionChart(points, cfg))
	if len(days) > 0 {
		page.AddCharts(DailyChart(days, cfg))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// RenderReportFile writes the report to outputPath.
func RenderReportFile(outputPath string, points []model.ProgressionPoint, days []model.DailyStats, cfg ChartConfig) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer f.Close()

	return RenderReport(f, points, days, cfg)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("resolving chart path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
