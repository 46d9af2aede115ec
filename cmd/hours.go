package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/pipeline"
)

var hoursCmd = &cobra.Command{
	Use:   "hours",
	Short: "Battles and win rate by hour of day",
	RunE:  runHours,
}

var hoursRange string

func init() {
	hoursCmd.Flags().StringVarP(&hoursRange, "range", "r", "season", "Time range: today, week, season or all")
	rootCmd.AddCommand(hoursCmd)
}

func runHours(cmd *cobra.Command, _ []string) error {
	rg, err := pipeline.ParseRange(hoursRange)
	if err != nil {
		return err
	}
	ds, err := loadData(cmd.Context())
	if err != nil {
		return err
	}

	hours := pipeline.AggregateHours(pipeline.FilterByRange(ds.Battles, rg, ds.Now), time.Local)

	printTitle(fmt.Sprintf("BATTLES BY HOUR  %s  %s (local time)", ds.Tag, rg))

	maxBattles := 0
	for _, h := range hours {
		maxBattles = max(maxBattles, h.Battles)
	}
	if maxBattles == 0 {
		fmt.Println("  No battles in the selected range.")
		return nil
	}

	maxBarWidth := 40
	for _, h := range hours {
		bar := cli.RenderHorizontalBar(float64(h.Battles), float64(maxBattles), maxBarWidth)
		if flagPlain {
			bar = strings.Repeat("#", h.Battles*maxBarWidth/maxBattles)
		}

		rate := ""
		if h.Battles > 0 {
			rate = cli.FormatWinRate(h.WinRate)
		}
		fmt.Printf("  %02d:00 │ %4d │ %6s │ %s\n", h.Hour, h.Battles, rate, bar)
	}

	// Best hour needs a handful of battles to mean anything.
	best := -1
	for _, h := range hours {
		if h.Battles < 5 {
			continue
		}
		if best < 0 || h.WinRate > hours[best].WinRate {
			best = h.Hour
		}
	}
	if best >= 0 {
		fmt.Printf("\n  Best hour: %02d:00 (%s over %d battles)\n\n",
			best, cli.FormatWinRate(hours[best].WinRate), hours[best].Battles)
	}
	return nil
}
