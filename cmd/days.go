package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/pipeline"
)

var daysCmd = &cobra.Command{
	Use:   "days",
	Short: "Results per calendar day",
	RunE:  runDays,
}

var daysRange string

func init() {
	daysCmd.Flags().StringVarP(&daysRange, "range", "r", "season", "Time range: today, week, season or all")
	rootCmd.AddCommand(daysCmd)
}

func runDays(cmd *cobra.Command, _ []string) error {
	rg, err := pipeline.ParseRange(daysRange)
	if err != nil {
		return err
	}
	ds, err := loadData(cmd.Context())
	if err != nil {
		return err
	}

	days := pipeline.AggregateDays(pipeline.FilterByRange(ds.Battles, rg, ds.Now), time.Local, maxGap())
	if len(days) == 0 {
		fmt.Println("\n  No battles in the selected range.")
		return nil
	}

	printTitle(fmt.Sprintf("DAILY RESULTS  %s  %s", ds.Tag, rg))

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Key,
			cli.FormatDayOfWeek(int(d.Date.Weekday())),
			cli.FormatNumber(int64(d.Sessions)),
			cli.FormatNumber(int64(d.Battles)),
			cli.FormatRecord(d.Wins, d.Losses, d.Draws),
			cli.FormatWinRate(d.WinRate),
			cli.FormatTrophyDelta(d.TrophyDelta),
		})
	}

	printTable(cli.Table{
		Headers: []string{"Date", "Day", "Sessions", "Battles", "Record", "Win %", "Trophies"},
		Rows:    rows,
	})
	return nil
}
