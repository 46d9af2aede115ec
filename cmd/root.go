package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/config"
	"github.com/theirongolddev/crpush/internal/logger"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
	"github.com/theirongolddev/crpush/internal/royale"
	"github.com/theirongolddev/crpush/internal/store"
)

var (
	flagTag        string
	flagFiles      []string
	flagDir        string
	flagGap        int
	flagMinBattles int
	flagTrophies   int
	flagPlain      bool
	flagOffline    bool
	flagQuiet      bool
	flagLogLevel   string
)

// appCfg is loaded once before any command runs.
var appCfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:   "crpush",
	Short: "Clash Royale ladder push tracker",
	Long:  "Track ladder pushes: sessions, streaks, tilt, daily results and trophy progression.",
	RunE:  runDaily,

	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		appCfg = cfg
		return nil
	},
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagTag, "tag", "t", "", "Player tag (defaults to config or "+config.EnvPlayerTag+")")
	pf.StringArrayVarP(&flagFiles, "file", "f", nil, "Battle-log JSON export to read instead of the API (repeatable)")
	pf.StringVarP(&flagDir, "dir", "d", "", "Directory of battle-log exports to read instead of the API")
	pf.IntVar(&flagGap, "gap", 0, "Max minutes between battles of one session (default from config)")
	pf.IntVar(&flagMinBattles, "min-battles", 0, "Min battles for a session to count as a push (default from config)")
	pf.IntVar(&flagTrophies, "trophies", 0, "Current trophy count used to anchor progressions")
	pf.BoolVar(&flagPlain, "plain", false, "Plain ASCII tables without color")
	pf.BoolVar(&flagOffline, "offline", false, "Use cached battles only, never call the API")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level for sync and daemon output (default from config)")
}

// maxGap returns the session gap from --gap or config.
func maxGap() time.Duration {
	if flagGap > 0 {
		return time.Duration(flagGap) * time.Minute
	}
	return appCfg.MaxGap()
}

// minBattles returns the push threshold from --min-battles or config.
func minBattles() int {
	if flagMinBattles > 0 {
		return flagMinBattles
	}
	return appCfg.Sessions.MinPushBattles
}

// playerTag resolves the player tag from --tag, env or config.
func playerTag() string {
	if flagTag != "" {
		return royale.NormalizeTag(flagTag)
	}
	return royale.NormalizeTag(config.GetPlayerTag(appCfg))
}

func newLogger() zerolog.Logger {
	level := flagLogLevel
	if level == "" {
		level = appCfg.Daemon.LogLevel
	}
	pretty := isatty.IsTerminal(os.Stderr.Fd())
	return logger.New(level, pretty, os.Stderr)
}

func newClient() *royale.Client {
	return royale.NewClient(config.GetAPIToken(appCfg), royale.Options{
		BaseURL:           config.GetBaseURL(appCfg),
		Timeout:           appCfg.Timeout(),
		RequestsPerSecond: appCfg.API.RequestsPerSecond,
	})
}

func warnf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
}

// dataset is the battle history every analytics command works on.
type dataset struct {
	Tag      string
	Battles  []model.Battle // newest first
	Trophies int
	Source   string
	Now      time.Time
}

// loadData resolves the input in precedence order: --file/--dir exports,
// then an API sync into the cache, then the cache alone when offline or
// when the sync fails.
func loadData(ctx context.Context) (*dataset, error) {
	ds := &dataset{Tag: playerTag(), Now: time.Now()}

	if len(flagFiles) > 0 || flagDir != "" {
		if err := loadExports(ds); err != nil {
			return nil, err
		}
		return ds, nil
	}

	if ds.Tag == "" {
		return nil, errors.New("no player tag: pass --tag, set " + config.EnvPlayerTag + " or run `crpush setup`")
	}

	cache, err := store.Open(config.CachePath())
	if err != nil {
		warnf("Cache unavailable (%v), continuing without it", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	client := newClient()
	if !flagOffline && client != nil {
		res, err := pipeline.Sync(ctx, client, cache, ds.Tag)
		if err == nil {
			ds.Battles, ds.Trophies, ds.Source = res.Battles, res.Trophies(), "api"
			return applyTrophyOverride(ds), nil
		}
		if cache == nil {
			return nil, err
		}
		warnf("Sync failed (%v), using cached battles", err)
	} else if !flagOffline {
		warnf("No API token configured, using cached battles")
	}

	if cache == nil {
		return nil, errors.New("no battle source: cache unavailable and API not used")
	}
	battles, trophies, err := pipeline.LoadCached(ctx, cache, ds.Tag)
	if err != nil {
		return nil, err
	}
	ds.Battles, ds.Trophies, ds.Source = battles, trophies, "cache"
	return applyTrophyOverride(ds), nil
}

func loadExports(ds *dataset) error {
	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%20 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Parsing %s", cli.RenderProgressBar(current, total, 30))
		}
	}

	var (
		result *pipeline.LoadResult
		err    error
	)
	if len(flagFiles) > 0 {
		result = pipeline.LoadPaths(flagFiles, progressFn)
	} else {
		result, err = pipeline.LoadDir(flagDir, progressFn)
		if err != nil {
			return err
		}
	}

	if !flagQuiet && result.TotalFiles > 0 {
		fmt.Fprintf(os.Stderr, "\r  Loaded %s battles from %d files    \n",
			cli.FormatNumber(int64(len(result.Battles))), result.ParsedFiles)
	}
	if result.FileErrors > 0 {
		warnf("%d files could not be read", result.FileErrors)
	}
	if result.ParseErrors > 0 || result.InvalidTimes > 0 {
		warnf("Skipped %d malformed records, %d with unreadable times", result.ParseErrors, result.InvalidTimes)
	}

	ds.Battles = result.Battles
	ds.Source = "files"
	applyTrophyOverride(ds)
	return nil
}

func applyTrophyOverride(ds *dataset) *dataset {
	if flagTrophies > 0 {
		ds.Trophies = flagTrophies
	}
	return ds
}

// printTable writes a table in the style selected by --plain.
func printTable(t cli.Table) {
	_ = cli.WriteTable(os.Stdout, t, flagPlain)
}

// printTitle prints a boxed title unless --plain is set.
func printTitle(title string) {
	fmt.Println()
	if flagPlain {
		fmt.Println(title)
	} else {
		fmt.Println(cli.RenderTitle(title))
	}
	fmt.Println()
}
