package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/royale"
	"github.com/theirongolddev/crpush/internal/store"
)

// Fetcher retrieves live data for a player. *royale.Client satisfies it.
type Fetcher interface {
	FetchBattleLog(ctx context.Context, tag string) (*royale.BattleLog, error)
	FetchPlayer(ctx context.Context, tag string) (*model.Player, error)
}

// SyncResult is the outcome of one fetch-and-store round for a player.
type SyncResult struct {
	Tag         string
	Player      *model.Player
	Battles     []model.Battle // full known history, newest first
	Fetched     int
	Inserted    int
	ParseErrors int
}

// Trophies returns the current trophy count used to anchor progressions.
func (r *SyncResult) Trophies() int {
	if r.Player == nil {
		return 0
	}
	return r.Player.Trophies
}

// Sync fetches the battle log and the profile concurrently, merges the
// battles into the cache and returns the full cached history. A nil cache
// returns only what was fetched.
func Sync(ctx context.Context, f Fetcher, cache *store.Cache, tag string) (*SyncResult, error) {
	var (
		log    *royale.BattleLog
		player *model.Player
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		log, err = f.FetchBattleLog(gctx, tag)
		if err != nil {
			return fmt.Errorf("fetching battle log: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		player, err = f.FetchPlayer(gctx, tag)
		if err != nil {
			return fmt.Errorf("fetching player: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &SyncResult{
		Tag:         tag,
		Player:      player,
		Fetched:     len(log.Battles),
		ParseErrors: log.ParseErrors,
	}

	if cache == nil {
		result.Battles = Dedupe(NewestFirst(log.Battles))
		return result, nil
	}

	n, err := cache.SaveBattles(ctx, tag, log.Battles)
	if err != nil {
		return nil, fmt.Errorf("saving battles: %w", err)
	}
	result.Inserted = n

	// Store the profile under the tag it was requested with so later
	// lookups by that tag find it.
	snapshot := *player
	snapshot.Tag = tag
	if err := cache.SavePlayer(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("saving player: %w", err)
	}

	battles, err := cache.LoadBattles(ctx, store.BattleQuery{Tag: tag})
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	result.Battles = battles
	return result, nil
}

// LoadCached returns the cached history and last known trophy count for
// tag without touching the network. A missing profile yields 0 trophies.
func LoadCached(ctx context.Context, cache *store.Cache, tag string) ([]model.Battle, int, error) {
	battles, err := cache.LoadBattles(ctx, store.BattleQuery{Tag: tag})
	if err != nil {
		return nil, 0, fmt.Errorf("loading history: %w", err)
	}
	p, err := cache.LoadPlayer(ctx, tag)
	if err != nil {
		if errors.Is(err, store.ErrNoPlayer) {
			return battles, 0, nil
		}
		return nil, 0, fmt.Errorf("loading player: %w", err)
	}
	return battles, p.Trophies, nil
}
