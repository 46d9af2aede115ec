package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/charts"
	"github.com/theirongolddev/crpush/internal/pipeline"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Write an HTML report with the trophy curve and daily results",
	RunE:  runChart,
}

var (
	chartRange  string
	chartOutput string
	chartDaily  bool
	chartOpen   bool
)

func init() {
	chartCmd.Flags().StringVarP(&chartRange, "range", "r", "season", "Time range: today, week, season or all")
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "crpush-report.html", "Output HTML file")
	chartCmd.Flags().BoolVar(&chartDaily, "daily", false, "One progression point per day instead of per session")
	chartCmd.Flags().BoolVar(&chartOpen, "open", false, "Open the report in the default browser")
	rootCmd.AddCommand(chartCmd)
}

func runChart(cmd *cobra.Command, _ []string) error {
	rg, err := pipeline.ParseRange(chartRange)
	if err != nil {
		return err
	}
	ds, err := loadData(cmd.Context())
	if err != nil {
		return err
	}

	filtered := pipeline.FilterByRange(ds.Battles, rg, ds.Now)
	if len(filtered) == 0 {
		fmt.Println("\n  No battles in the selected range.")
		return nil
	}

	points := buildProgression(filtered, ds.Trophies, chartDaily)
	days := pipeline.AggregateDays(filtered, time.Local, maxGap())

	cfg := charts.DefaultChartConfig()
	cfg.Title = fmt.Sprintf("%s %s", ds.Tag, rg)
	if err := charts.RenderReportFile(chartOutput, points, days, cfg); err != nil {
		return err
	}
	fmt.Printf("\n  Report written to %s\n\n", chartOutput)

	if chartOpen {
		if err := charts.OpenInBrowser(chartOutput); err != nil {
			warnf("Could not open browser: %v", err)
		}
	}
	return nil
}
