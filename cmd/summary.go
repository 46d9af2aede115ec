package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Results, streaks and pushes over a time range",
	RunE:  runSummary,
}

var summaryRange string

func init() {
	summaryCmd.Flags().StringVarP(&summaryRange, "range", "r", "week", "Time range: today, week, season or all")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	rg, err := pipeline.ParseRange(summaryRange)
	if err != nil {
		return err
	}
	ds, err := loadData(cmd.Context())
	if err != nil {
		return err
	}

	stats := pipeline.Summarize(ds.Battles, rg, ds.Now, pipeline.SummaryOptions{
		MaxGap:         maxGap(),
		MinPushBattles: minBattles(),
	})
	if stats.Battles == 0 {
		fmt.Println("\n  No battles in the selected range.")
		return nil
	}

	printTitle(fmt.Sprintf("SUMMARY  %s  %s", ds.Tag, rg))

	rows := [][]string{
		{"Battles", cli.FormatNumber(int64(stats.Battles))},
		{"Record", cli.FormatRecord(stats.Wins, stats.Losses, stats.Draws)},
		{"Win rate", cli.FormatWinRate(stats.WinRate)},
		{"Trophy change", cli.FormatTrophyDelta(stats.TrophyDelta)},
		{"Active days", cli.FormatNumber(int64(stats.ActiveDays))},
		{"---"},
		{"Current streak", cli.FormatStreak(stats.Streak)},
		{"Longest win streak", cli.FormatNumber(int64(stats.LongestWinStreak))},
		{"Longest loss streak", cli.FormatNumber(int64(stats.LongestLossStreak))},
		{"---"},
		{"Sessions", cli.FormatNumber(int64(stats.Sessions))},
		{"Pushes", cli.FormatNumber(int64(stats.Pushes))},
		{"Battles / session", fmt.Sprintf("%.1f", stats.BattlesPerSession)},
	}
	if stats.BestPush != nil {
		rows = append(rows, []string{"Best push", pushLabel(*stats.BestPush)})
	}
	if stats.WorstPush != nil {
		rows = append(rows, []string{"Worst push", pushLabel(*stats.WorstPush)})
	}
	if ds.Trophies > 0 {
		rows = append(rows, []string{"---"}, []string{"Current trophies", cli.FormatNumber(int64(ds.Trophies))})
	}

	printTable(cli.Table{Rows: rows})
	return nil
}

func pushLabel(s model.Session) string {
	return fmt.Sprintf("%s on %s", cli.FormatTrophyDelta(s.TrophyDelta), s.Start.Local().Format("Jan 02 15:04"))
}
