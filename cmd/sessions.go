package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Play sessions with results and trophy change",
	RunE:  runSessions,
}

var (
	sessionsLimit  int
	sessionsRange  string
	sessionsPushes bool
	sessionsMode   string
)

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "l", 20, "Number of sessions to show")
	sessionsCmd.Flags().StringVarP(&sessionsRange, "range", "r", "week", "Time range: today, week, season or all")
	sessionsCmd.Flags().BoolVar(&sessionsPushes, "pushes", false, "Only sessions long enough to count as pushes")
	sessionsCmd.Flags().StringVarP(&sessionsMode, "mode", "m", "", "Filter to game mode (substring match)")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	rg, err := pipeline.ParseRange(sessionsRange)
	if err != nil {
		return err
	}
	ds, err := loadData(cmd.Context())
	if err != nil {
		return err
	}

	battles := pipeline.FilterByMode(pipeline.FilterByRange(ds.Battles, rg, ds.Now), sessionsMode)
	sessions := pipeline.SegmentWith(battles, pipeline.SegmentOptions{
		MaxGap:     maxGap(),
		RawWinRate: appCfg.Sessions.RawWinRate,
	})
	if sessionsPushes {
		sessions = pipeline.Pushes(sessions, minBattles())
	}

	if len(sessions) == 0 {
		fmt.Println("\n  No sessions in the selected range.")
		return nil
	}

	total := len(sessions)
	if sessionsLimit > 0 && len(sessions) > sessionsLimit {
		sessions = sessions[:sessionsLimit]
	}

	printTitle(fmt.Sprintf("SESSIONS  %s  %s (showing %d of %d)", ds.Tag, rg, len(sessions), total))
	printTable(sessionTable("", sessions))
	return nil
}

// sessionTable renders sessions newest first.
func sessionTable(title string, sessions []model.Session) cli.Table {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.Start.Local().Format("Jan 02 15:04"),
			cli.FormatDuration(s.Duration()),
			cli.FormatNumber(int64(s.BattleCount)),
			cli.FormatRecord(s.Wins, s.Losses, s.Draws),
			cli.FormatWinRate(s.WinRate),
			cli.FormatTrophyDelta(s.TrophyDelta),
		})
	}
	return cli.Table{
		Title:   title,
		Headers: []string{"Start", "Length", "Battles", "Record", "Win %", "Trophies"},
		Rows:    rows,
	}
}
