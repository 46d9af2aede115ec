package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
	"github.com/theirongolddev/crpush/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [DIR]",
	Short: "Recompute today's results and tilt whenever exports change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

var watchPoll time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchPoll, "poll", 0, "Also refresh on this interval (0 disables)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, args []string) error {
	dir := flagDir
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		dir = appCfg.General.ImportDir
	}
	if dir == "" {
		return errors.New("no directory to watch: pass DIR, --dir or set general.import_dir")
	}

	log := newLogger()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var last *model.TiltState
	refresh := func(context.Context) error {
		res, err := pipeline.LoadDir(dir, nil)
		if err != nil {
			return err
		}
		now := time.Now()
		daily := pipeline.ComputeDailySummary(res.Battles, now, maxGap())
		tilt := pipeline.ComputeTiltState(res.Battles, now)

		fmt.Printf("  %s  %s  %s  %s  tilt %s\n",
			now.Format("15:04:05"),
			cli.FormatRecord(daily.Wins, daily.Losses, daily.Draws),
			cli.FormatTrophyDelta(daily.TrophyDelta),
			cli.FormatStreak(daily.Streak),
			cli.RenderTiltMeter(tilt.Risk, 10))

		if tilt.Alert && (last == nil || !last.Alert) {
			fmt.Println("  Tilt alert: take a break.")
		}
		last = &tilt
		return nil
	}

	printTitle(fmt.Sprintf("WATCHING  %s", dir))
	if err := refresh(ctx); err != nil {
		return err
	}

	w := watch.New(dir, watch.Options{Poll: watchPoll, Log: log})
	return w.Run(ctx, refresh)
}
