package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/pipeline"
)

var modesCmd = &cobra.Command{
	Use:   "modes",
	Short: "Results per game mode",
	RunE:  runModes,
}

var modesRange string

func init() {
	modesCmd.Flags().StringVarP(&modesRange, "range", "r", "season", "Time range: today, week, season or all")
	rootCmd.AddCommand(modesCmd)
}

func runModes(cmd *cobra.Command, _ []string) error {
	rg, err := pipeline.ParseRange(modesRange)
	if err != nil {
		return err
	}
	ds, err := loadData(cmd.Context())
	if err != nil {
		return err
	}

	modes := pipeline.AggregateModes(pipeline.FilterByRange(ds.Battles, rg, ds.Now))
	if len(modes) == 0 {
		fmt.Println("\n  No battles in the selected range.")
		return nil
	}

	printTitle(fmt.Sprintf("GAME MODES  %s  %s", ds.Tag, rg))

	rows := make([][]string, 0, len(modes))
	for _, ms := range modes {
		rows = append(rows, []string{
			truncate(ms.Mode, 24),
			cli.FormatNumber(int64(ms.Battles)),
			cli.FormatRecord(ms.Wins, ms.Losses, 0),
			cli.FormatWinRate(ms.WinRate),
			cli.FormatTrophyDelta(ms.TrophyDelta),
			fmt.Sprintf("%.1f%%", ms.SharePercent),
		})
	}

	printTable(cli.Table{
		Headers: []string{"Mode", "Battles", "Record", "Win %", "Trophies", "Share"},
		Rows:    rows,
	})
	return nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-1]) + "…"
}
