package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/pipeline"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Today's results and sessions",
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, _ []string) error {
	ds, err := loadData(cmd.Context())
	if err != nil {
		return err
	}

	summary := pipeline.ComputeDailySummary(ds.Battles, ds.Now, maxGap())

	printTitle(fmt.Sprintf("TODAY  %s  %s", ds.Tag, summary.Date))

	if summary.Battles == 0 {
		fmt.Println("  No battles today.")
		return nil
	}

	fmt.Println(cli.RenderLabel("Battles", cli.FormatNumber(int64(summary.Battles))))
	fmt.Println(cli.RenderLabel("Record", cli.FormatRecord(summary.Wins, summary.Losses, summary.Draws)))
	fmt.Println(cli.RenderLabel("Win rate", cli.FormatWinRate(float64(summary.WinRate))))
	fmt.Println(cli.RenderLabel("Trophies", cli.RenderDelta(summary.TrophyDelta)))
	fmt.Println(cli.RenderLabel("Streak", cli.FormatStreak(summary.Streak)))
	fmt.Println()

	printTable(sessionTable("Sessions", summary.Sessions))
	return nil
}
