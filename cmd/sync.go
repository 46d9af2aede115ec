package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/config"
	"github.com/theirongolddev/crpush/internal/pipeline"
	"github.com/theirongolddev/crpush/internal/royale"
	"github.com/theirongolddev/crpush/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch battle logs into the local cache",
	Long: `Fetch the latest battle log for each tracked player and merge it into the
local cache. The upstream log only holds the most recent battles, so running
sync regularly (or the daemon) builds up a longer history.

With --import, battle-log exports under a directory are imported instead.`,
	RunE: runSync,
}

var (
	syncTags   []string
	syncImport string
	syncReset  bool
)

func init() {
	syncCmd.Flags().StringArrayVar(&syncTags, "player", nil, "Player tag to sync (repeatable, default from config)")
	syncCmd.Flags().StringVar(&syncImport, "import", "", "Import battle-log exports from a directory")
	syncCmd.Flags().BoolVar(&syncReset, "reset", false, "Drop cached battles for the tags before syncing")
	rootCmd.AddCommand(syncCmd)
}

func syncTagList() []string {
	var tags []string
	for _, t := range syncTags {
		if n := royale.NormalizeTag(t); n != "" {
			tags = append(tags, n)
		}
	}
	if len(tags) > 0 {
		return tags
	}
	if t := playerTag(); t != "" && flagTag != "" {
		return []string{t}
	}
	return config.DaemonTags(appCfg)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := newLogger()

	tags := syncTagList()
	if len(tags) == 0 {
		return errors.New("no player tag: pass --player, set " + config.EnvPlayerTag + " or run `crpush setup`")
	}

	cache, err := store.Open(config.CachePath())
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer cache.Close()

	if syncReset {
		for _, tag := range tags {
			if err := cache.DeleteBattles(ctx, tag); err != nil {
				return err
			}
			log.Info().Str("tag", tag).Msg("cache cleared")
		}
	}

	if syncImport != "" {
		if len(tags) != 1 {
			return errors.New("--import needs exactly one player tag")
		}
		start := time.Now()
		res, err := pipeline.ImportDir(ctx, syncImport, cache, tags[0], func(current, total int) {
			if !flagQuiet && (current%20 == 0 || current == total) {
				fmt.Fprintf(os.Stderr, "\r  Parsing [%d/%d]", current, total)
			}
		})
		if !flagQuiet && res != nil && res.Reparsed > 0 {
			fmt.Fprintln(os.Stderr)
		}
		if err != nil {
			return err
		}
		log.Info().
			Str("tag", tags[0]).
			Int("files", res.TotalFiles).
			Int("unchanged", res.CacheHits).
			Int("parsed", res.Reparsed).
			Int("inserted", res.Inserted).
			Int("file_errors", res.FileErrors).
			Int("parse_errors", res.ParseErrors).
			Dur("took", time.Since(start)).
			Msg("import complete")
		return nil
	}

	client := newClient()
	if client == nil {
		return errors.New("no API token: set " + config.EnvAPIToken + " or run `crpush setup`")
	}

	var failed []error
	for _, tag := range tags {
		res, err := pipeline.Sync(ctx, client, cache, tag)
		if err != nil {
			log.Error().Err(err).Str("tag", tag).Msg("sync failed")
			failed = append(failed, fmt.Errorf("%s: %w", tag, err))
			continue
		}
		total, _ := cache.CountBattles(ctx, tag)
		log.Info().
			Str("tag", tag).
			Int("fetched", res.Fetched).
			Int("inserted", res.Inserted).
			Int("cached", total).
			Int("trophies", res.Trophies()).
			Int("parse_errors", res.ParseErrors).
			Msg("sync complete")
	}
	return errors.Join(failed...)
}
