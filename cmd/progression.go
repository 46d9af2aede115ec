package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
)

var progressionCmd = &cobra.Command{
	Use:   "progression",
	Short: "Reconstructed trophy curve",
	RunE:  runProgression,
}

var (
	progressionDaily bool
	progressionRange string
)

func init() {
	progressionCmd.Flags().BoolVar(&progressionDaily, "daily", false, "One point per day instead of per session")
	progressionCmd.Flags().StringVarP(&progressionRange, "range", "r", "season", "Time range: today, week, season or all")
	rootCmd.AddCommand(progressionCmd)
}

// buildProgression applies --daily to the already range-filtered battles.
func buildProgression(battles []model.Battle, trophies int, daily bool) []model.ProgressionPoint {
	if daily {
		return pipeline.BuildDailyProgression(battles, trophies, time.Local)
	}
	return pipeline.BuildProgression(battles, trophies, maxGap())
}

func runProgression(cmd *cobra.Command, _ []string) error {
	rg, err := pipeline.ParseRange(progressionRange)
	if err != nil {
		return err
	}
	ds, err := loadData(cmd.Context())
	if err != nil {
		return err
	}
	if ds.Trophies == 0 {
		warnf("Current trophies unknown; the curve is relative to 0 (use --trophies)")
	}

	points := buildProgression(pipeline.FilterByRange(ds.Battles, rg, ds.Now), ds.Trophies, progressionDaily)
	if len(points) == 0 {
		fmt.Println("\n  No battles in the selected range.")
		return nil
	}

	printTitle(fmt.Sprintf("PROGRESSION  %s  %s", ds.Tag, rg))

	values := make([]float64, len(points))
	rows := make([][]string, 0, len(points))
	for i, p := range points {
		values[i] = float64(p.Trophies)
		rows = append(rows, []string{
			p.Label,
			p.Time.Local().Format("Jan 02 15:04"),
			cli.FormatRecord(p.Wins, p.Losses, 0),
			cli.FormatTrophyDelta(p.Delta),
			cli.FormatNumber(int64(p.Trophies)),
		})
	}

	first, last := points[0], points[len(points)-1]
	fmt.Printf("  %s  %s -> %s (%s)\n\n",
		cli.RenderSparkline(values),
		cli.FormatNumber(int64(first.Trophies-first.Delta)),
		cli.FormatNumber(int64(last.Trophies)),
		cli.FormatTrophyDelta(last.Trophies-(first.Trophies-first.Delta)),
	)

	printTable(cli.Table{
		Headers: []string{"Point", "Time", "Record", "Change", "Trophies"},
		Rows:    rows,
	})
	return nil
}
