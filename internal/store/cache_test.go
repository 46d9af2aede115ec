package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "battles.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testBattle(battleTime, rival, mode string, team, opp float64) model.Battle {
	return model.Battle{
		BattleTime: battleTime,
		GameMode:   model.GameMode{Name: mode},
		Team:       []model.Participant{{Tag: "#P", Crowns: model.Num(team), TrophyChange: model.Num(30)}},
		Opponent:   []model.Participant{{Tag: rival, Crowns: model.Num(opp)}},
	}
}

func TestSaveAndLoadBattles(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	first := []model.Battle{
		testBattle("20240115T100000.000Z", "#A", "Ladder", 3, 0),
		testBattle("20240115T101000.000Z", "#B", "Ladder", 0, 1),
		testBattle("not-a-time", "#C", "Ladder", 1, 0),
	}
	n, err := c.SaveBattles(ctx, "#P", first)
	if err != nil {
		t.Fatalf("SaveBattles: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2 (invalid time skipped)", n)
	}

	// Overlapping fetch: one repeat, one new.
	second := []model.Battle{
		testBattle("20240115T101000.000Z", "#B", "Ladder", 0, 1),
		testBattle("20240115T110000.000Z", "#D", "Challenge", 2, 1),
	}
	n, err = c.SaveBattles(ctx, "#P", second)
	if err != nil {
		t.Fatalf("SaveBattles: %v", err)
	}
	if n != 1 {
		t.Errorf("inserted = %d, want 1", n)
	}

	battles, err := c.LoadBattles(ctx, BattleQuery{Tag: "#P"})
	if err != nil {
		t.Fatalf("LoadBattles: %v", err)
	}
	if len(battles) != 3 {
		t.Fatalf("len(battles) = %d, want 3", len(battles))
	}
	if battles[0].Rival().Tag != "#D" || battles[2].Rival().Tag != "#A" {
		t.Errorf("order = %s..%s, want newest first", battles[0].Rival().Tag, battles[2].Rival().Tag)
	}
	if !battles[2].Player().TrophyChange.Valid || battles[2].Player().TrophyChange.Value != 30 {
		t.Errorf("round-tripped trophyChange = %+v", battles[2].Player().TrophyChange)
	}

	count, err := c.CountBattles(ctx, "#P")
	if err != nil || count != 3 {
		t.Errorf("CountBattles = %d, %v; want 3", count, err)
	}
}

func TestLoadBattles_Filters(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)
	_, err := c.SaveBattles(ctx, "#P", []model.Battle{
		testBattle("20240115T100000.000Z", "#A", "Ladder", 3, 0),
		testBattle("20240116T100000.000Z", "#B", "Challenge", 0, 1),
		testBattle("20240117T100000.000Z", "#C", "Ladder", 1, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.SaveBattles(ctx, "#OTHER", []model.Battle{testBattle("20240117T100000.000Z", "#Z", "Ladder", 1, 0)}); err != nil {
		t.Fatal(err)
	}

	since := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		q    BattleQuery
		want int
	}{
		{"all", BattleQuery{Tag: "#P"}, 3},
		{"since", BattleQuery{Tag: "#P", Since: since}, 2},
		{"mode", BattleQuery{Tag: "#P", Mode: "Ladder"}, 2},
		{"limit", BattleQuery{Tag: "#P", Limit: 1}, 1},
		{"unknown tag", BattleQuery{Tag: "#NONE"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.LoadBattles(ctx, tt.q)
			if err != nil {
				t.Fatalf("LoadBattles: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}

	tags, err := c.Tags(ctx)
	if err != nil || len(tags) != 2 || tags[0] != "#OTHER" {
		t.Errorf("Tags = %v, %v", tags, err)
	}

	if err := c.DeleteBattles(ctx, "#OTHER"); err != nil {
		t.Fatal(err)
	}
	if n, _ := c.CountBattles(ctx, "#OTHER"); n != 0 {
		t.Errorf("CountBattles after delete = %d", n)
	}
}

func TestPlayerRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	if _, err := c.LoadPlayer(ctx, "#P"); !errors.Is(err, ErrNoPlayer) {
		t.Fatalf("LoadPlayer(missing) err = %v, want ErrNoPlayer", err)
	}

	fetched := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	in := model.Player{Tag: "#P", Name: "Ace", Trophies: 7012, BestTrophies: 7400, ExpLevel: 14,
		Wins: 900, Losses: 800, Arena: model.Arena{ID: 54000020, Name: "Legendary Arena"}, FetchedAt: fetched}
	if err := c.SavePlayer(ctx, in); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}
	in.Trophies = 7042
	if err := c.SavePlayer(ctx, in); err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}

	got, err := c.LoadPlayer(ctx, "#P")
	if err != nil {
		t.Fatalf("LoadPlayer: %v", err)
	}
	if !got.FetchedAt.Equal(fetched) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, fetched)
	}
	got.FetchedAt = in.FetchedAt
	if got != in {
		t.Errorf("LoadPlayer = %+v, want %+v", got, in)
	}
}

func TestTrackedFiles(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)
	if err := c.TrackFile(ctx, "/tmp/a.json", FileInfo{MtimeNs: 1, SizeBytes: 2}); err != nil {
		t.Fatal(err)
	}
	if err := c.TrackFile(ctx, "/tmp/a.json", FileInfo{MtimeNs: 3, SizeBytes: 4}); err != nil {
		t.Fatal(err)
	}
	tracked, err := c.GetTrackedFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tracked["/tmp/a.json"] != (FileInfo{MtimeNs: 3, SizeBytes: 4}) {
		t.Errorf("tracked = %+v", tracked)
	}
}
