package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/cli"
	"github.com/theirongolddev/crpush/internal/config"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/royale"
	"github.com/theirongolddev/crpush/internal/store"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Show the player profile",
	RunE:  runPlayer,
}

func init() {
	rootCmd.AddCommand(playerCmd)
}

func runPlayer(cmd *cobra.Command, _ []string) error {
	tag := playerTag()
	if tag == "" {
		return errors.New("no player tag: pass --tag, set " + config.EnvPlayerTag + " or run `crpush setup`")
	}

	p, source, err := resolvePlayer(cmd.Context(), tag)
	if err != nil {
		return err
	}

	printTitle(fmt.Sprintf("PLAYER  %s", p.Tag))

	rows := [][]string{
		{"Name", p.Name},
		{"Trophies", cli.FormatNumber(int64(p.Trophies))},
		{"Best trophies", cli.FormatNumber(int64(p.BestTrophies))},
		{"Arena", p.Arena.Name},
		{"King level", fmt.Sprintf("%d", p.ExpLevel)},
		{"---"},
		{"Career record", cli.FormatRecord(p.Wins, p.Losses, 0)},
	}
	if p.Wins+p.Losses > 0 {
		rate := float64(p.Wins) / float64(p.Wins+p.Losses) * 100
		rows = append(rows, []string{"Career win rate", cli.FormatWinRate(rate)})
	}
	if p.BestTrophies > 0 {
		rows = append(rows, []string{"To personal best", fmt.Sprintf("%d", max(0, p.BestTrophies-p.Trophies))})
	}

	printTable(cli.Table{Headers: []string{"Field", "Value"}, Rows: rows})

	if !p.FetchedAt.IsZero() {
		fmt.Printf("  From %s, fetched %s\n\n", source, p.FetchedAt.Local().Format("Jan 02 15:04:05"))
	}
	return nil
}

// resolvePlayer fetches the live profile, falling back to the last cached one.
func resolvePlayer(ctx context.Context, tag string) (model.Player, string, error) {
	cache, cacheErr := store.Open(config.CachePath())
	if cacheErr == nil {
		defer cache.Close()
	}

	client := newClient()
	if !flagOffline && client != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Fetching player %s...\n", tag)
		}
		fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		p, err := client.FetchPlayer(fetchCtx, tag)
		if err == nil {
			p.Tag = tag
			if p.FetchedAt.IsZero() {
				p.FetchedAt = time.Now()
			}
			if cache != nil {
				if err := cache.SavePlayer(ctx, *p); err != nil {
					warnf("Could not cache player: %v", err)
				}
			}
			return *p, "api", nil
		}
		switch {
		case errors.Is(err, royale.ErrUnauthorized):
			return model.Player{}, "", errors.New("API token rejected; check " + config.EnvAPIToken + " or run `crpush setup`")
		case errors.Is(err, royale.ErrNotFound):
			return model.Player{}, "", fmt.Errorf("player %s not found", tag)
		}
		if cache == nil {
			return model.Player{}, "", err
		}
		warnf("Fetch failed (%v), using cached profile", err)
	}

	if cache == nil {
		return model.Player{}, "", fmt.Errorf("opening cache: %w", cacheErr)
	}
	p, err := cache.LoadPlayer(ctx, tag)
	if errors.Is(err, store.ErrNoPlayer) {
		return model.Player{}, "", fmt.Errorf("no cached profile for %s; run `crpush sync` first", tag)
	}
	if err != nil {
		return model.Player{}, "", err
	}
	return p, "cache", nil
}
