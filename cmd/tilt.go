package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
	"github.com/theirongolddev/crpush/internal/source"
)

var tiltCmd = &cobra.Command{
	Use:   "tilt",
	Short: "Tilt risk over your most recent battles",
	RunE:  runTilt,
}

func init() {
	rootCmd.AddCommand(tiltCmd)
}

func runTilt(cmd *cobra.Command, _ []string) error {
	ds, err := loadData(cmd.Context())
	if err != nil {
		return err
	}
	if len(ds.Battles) == 0 {
		fmt.Println("\n  No battles found.")
		return nil
	}

	st := pipeline.ComputeTiltState(ds.Battles, ds.Now)
	printTitle(fmt.Sprintf("TILT  %s", ds.Tag))
	printTiltState(st, ds.Battles)

	if st.Alert {
		fmt.Println()
		fmt.Println("  Take a break: recent results point to tilt.")
	}
	return nil
}

func printTiltState(st model.TiltState, newestFirst []model.Battle) {
	fmt.Println(cli.RenderLabel("Risk", cli.RenderTiltMeter(st.Risk, 20)))
	fmt.Println(cli.RenderLabel("Level", cli.FormatTiltLevel(st.Level)))
	fmt.Println(cli.RenderLabel("Base level", fmt.Sprintf("%s (%d)", cli.FormatTiltLevel(st.BaseLevel), st.BaseRisk)))
	fmt.Println(cli.RenderLabel("Last battle", cli.FormatHoursAgo(st.HoursSinceLastBattle)))
	if st.DecayStage != model.DecayNone {
		fmt.Println(cli.RenderLabel("Decay", "after "+string(st.DecayStage)))
	}
	fmt.Println(cli.RenderLabel(fmt.Sprintf("Last %d", st.WindowSize), recentResults(newestFirst, st.WindowSize)))
	fmt.Println(cli.RenderLabel("Record", cli.FormatRecord(st.Wins, st.Losses, st.WindowSize-st.Wins-st.Losses)))
	fmt.Println(cli.RenderLabel("Trophies", cli.RenderDelta(st.NetTrophyDelta)))
	fmt.Println(cli.RenderLabel("Longest loss run", fmt.Sprintf("%d", st.LongestLossRun)))
}

// recentResults renders the newest n results oldest to newest, e.g. "W W L L L".
func recentResults(newestFirst []model.Battle, n int) string {
	n = min(n, len(newestFirst))
	letters := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		b := newestFirst[i]
		if _, ok := source.ParseBattleTime(b.BattleTime); !ok {
			continue
		}
		var letter string
		switch pipeline.ResultOf(b) {
		case model.Win:
			letter = "W"
		case model.Loss:
			letter = "L"
		default:
			letter = "D"
		}
		if flagPlain {
			letters = append(letters, letter)
		} else {
			letters = append(letters, cli.RenderResult(letter))
		}
	}
	return strings.Join(letters, " ")
}
