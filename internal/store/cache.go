// Package store provides a SQLite-backed history of battles and players.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/source"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNoPlayer is returned when a player has never been cached.
var ErrNoPlayer = errors.New("store: player not cached")

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Cache provides SQLite-backed battle history. Battles accumulate across
// fetches, so history outgrows the provider's short battle-log window.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// battleKey mirrors pipeline.BattleKey; store cannot import pipeline.
func battleKey(b model.Battle) string {
	return b.BattleTime + "|" + b.Player().Tag + "|" + b.Rival().Tag
}

// SaveBattles stores battles for tag, ignoring ones already cached and ones
// without a valid timestamp. It returns how many were new.
func (c *Cache) SaveBattles(ctx context.Context, tag string, battles []model.Battle) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO battles
		(player_tag, battle_key, battle_time, battle_unix, game_mode, raw, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, b := range battles {
		at, ok := source.ParseBattleTime(b.BattleTime)
		if !ok {
			continue
		}
		raw, err := json.Marshal(b)
		if err != nil {
			return 0, fmt.Errorf("encoding battle %s: %w", b.BattleTime, err)
		}
		res, err := stmt.ExecContext(ctx, tag, battleKey(b), b.BattleTime, at.Unix(), b.GameMode.Name, string(raw), now)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// BattleQuery narrows LoadBattles. Zero fields mean unbounded.
type BattleQuery struct {
	Tag   string
	Since time.Time
	Mode  string
	Limit int
}

// LoadBattles returns cached battles newest first.
func (c *Cache) LoadBattles(ctx context.Context, q BattleQuery) ([]model.Battle, error) {
	query := sqlBuilder.Select("raw").From("battles").
		Where(squirrel.Eq{"player_tag": q.Tag}).
		OrderBy("battle_unix DESC", "battle_key ASC")
	if !q.Since.IsZero() {
		query = query.Where(squirrel.GtOrEq{"battle_unix": q.Since.Unix()})
	}
	if q.Mode != "" {
		query = query.Where(squirrel.Eq{"game_mode": q.Mode})
	}
	if q.Limit > 0 {
		query = query.Limit(uint64(q.Limit))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building battle query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var battles []model.Battle
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var b model.Battle
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("decoding cached battle: %w", err)
		}
		battles = append(battles, b)
	}
	return battles, rows.Err()
}

// CountBattles returns how many battles are cached for tag.
func (c *Cache) CountBattles(ctx context.Context, tag string) (int, error) {
	stmt, args, err := sqlBuilder.Select("COUNT(*)").From("battles").
		Where(squirrel.Eq{"player_tag": tag}).ToSql()
	if err != nil {
		return 0, err
	}
	var count int
	err = c.db.QueryRowContext(ctx, stmt, args...).Scan(&count)
	return count, err
}

// Tags lists every player tag with cached battles.
func (c *Cache) Tags(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT DISTINCT player_tag FROM battles ORDER BY player_tag")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// SavePlayer stores the latest profile snapshot for a player.
func (c *Cache) SavePlayer(ctx context.Context, p model.Player) error {
	fetched := p.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO players
		(tag, name, trophies, best_trophies, exp_level, wins, losses, arena_id, arena_name, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Tag, p.Name, p.Trophies, p.BestTrophies, p.ExpLevel, p.Wins, p.Losses,
		p.Arena.ID, p.Arena.Name, fetched.UTC().Format(time.RFC3339),
	)
	return err
}

// LoadPlayer returns the cached profile for tag, or ErrNoPlayer.
func (c *Cache) LoadPlayer(ctx context.Context, tag string) (model.Player, error) {
	stmt, args, err := sqlBuilder.Select(
		"tag", "name", "trophies", "best_trophies", "exp_level", "wins", "losses",
		"arena_id", "arena_name", "fetched_at",
	).From("players").Where(squirrel.Eq{"tag": tag}).ToSql()
	if err != nil {
		return model.Player{}, err
	}

	var p model.Player
	var name, arenaName sql.NullString
	var best, exp, wins, losses, arenaID sql.NullInt64
	var fetched string
	err = c.db.QueryRowContext(ctx, stmt, args...).Scan(
		&p.Tag, &name, &p.Trophies, &best, &exp, &wins, &losses, &arenaID, &arenaName, &fetched,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Player{}, ErrNoPlayer
	}
	if err != nil {
		return model.Player{}, err
	}

	p.Name = name.String
	p.BestTrophies = int(best.Int64)
	p.ExpLevel = int(exp.Int64)
	p.Wins = int(wins.Int64)
	p.Losses = int(losses.Int64)
	p.Arena = model.Arena{ID: int(arenaID.Int64), Name: arenaName.String}
	p.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
	return p, nil
}

// FileInfo holds the tracked mtime and size for an imported file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for imported files.
func (c *Cache) GetTrackedFiles(ctx context.Context) (map[string]FileInfo, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// TrackFile records that path was imported at the given mtime and size.
func (c *Cache) TrackFile(ctx context.Context, path string, fi FileInfo) error {
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO file_tracker (file_path, mtime_ns, size_bytes)
		VALUES (?, ?, ?)`, path, fi.MtimeNs, fi.SizeBytes)
	return err
}

// DeleteBattles removes every cached battle for tag.
func (c *Cache) DeleteBattles(ctx context.Context, tag string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM battles WHERE player_tag = ?", tag)
	return err
}
