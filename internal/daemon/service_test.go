package daemon

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/royale"
	"github.com/theirongolddev/crpush/internal/source"
	"github.com/theirongolddev/crpush/internal/store"
)

var day0 = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day0.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func result(t time.Time, won bool) model.Battle {
	team, opp, change := 3.0, 0.0, 30.0
	if !won {
		team, opp, change = 0, 1, -30
	}
	return model.Battle{
		BattleTime: source.FormatBattleTime(t),
		Team:       []model.Participant{{Tag: "#2PP", Crowns: model.Num(team), TrophyChange: model.Num(change)}},
		Opponent:   []model.Participant{{Tag: "#R" + t.Format("1504"), Crowns: model.Num(opp)}},
	}
}

type stubFetcher struct {
	mu       sync.Mutex
	battles  []model.Battle
	trophies int
	err      error
}

func (f *stubFetcher) set(trophies int, battles ...model.Battle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trophies = trophies
	f.battles = battles
}

func (f *stubFetcher) FetchBattleLog(context.Context, string) (*royale.BattleLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &royale.BattleLog{Battles: append([]model.Battle(nil), f.battles...)}, nil
}

func (f *stubFetcher) FetchPlayer(_ context.Context, tag string) (*model.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &model.Player{Tag: tag, Name: "pusher", Trophies: f.trophies}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newTestService(t *testing.T, fetcher *stubFetcher, clk *clock) *Service {
	t.Helper()
	cache, err := store.Open(filepath.Join(t.TempDir(), "battles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	cfg := Config{
		Tags:     []string{"#2PP"},
		Interval: time.Minute,
		Cache:    cache,
		Log:      zerolog.Nop(),
		Location: time.UTC,
		Now:      clk.Now,
	}
	if fetcher != nil {
		cfg.Fetcher = fetcher
	}
	return New(cfg)
}

func eventTypes(events []Event) []string {
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestPollOnce_EventLifecycle(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{}
	clk := &clock{now: at(10, 30)}
	s := newTestService(t, fetcher, clk)

	fetcher.set(7060, result(at(10, 0), true), result(at(10, 5), true))
	s.PollOnce(ctx)

	events := s.Events(0)
	require.Len(t, events, 1)
	assert.Equal(t, EventSnapshot, events[0].Type)
	assert.Equal(t, int64(1), events[0].ID)
	assert.Equal(t, 7060, events[0].Snapshot.Trophies)
	assert.Equal(t, 2, events[0].Snapshot.Wins)

	// Three straight losses trip the tilt alert.
	fetcher.set(6970, result(at(10, 50), false), result(at(10, 45), false), result(at(10, 40), false))
	clk.Set(at(11, 0))
	s.PollOnce(ctx)

	events = s.Events(0)
	require.Equal(t, []string{EventSnapshot, EventNewBattles, EventTiltAlert}, eventTypes(events))
	assert.Equal(t, 3, events[1].NewBattles)
	assert.Equal(t, 5, events[1].Snapshot.Battles, "history accumulates in the cache")
	assert.True(t, events[2].Snapshot.TiltAlert)
	assert.Equal(t, model.StreakLoss, events[2].Snapshot.Streak.Type)

	// Overnight the risk decays away and the day rolls over.
	clk.Set(day0.Add(24*time.Hour + 30*time.Minute))
	s.PollOnce(ctx)

	events = s.Events(2)
	require.Equal(t, []string{EventDailyReset, EventTiltCleared}, eventTypes(events))
	assert.Equal(t, 0, events[0].Snapshot.TodayBattles)
	assert.Equal(t, int64(5), events[1].ID)

	status := s.Status()
	assert.Equal(t, int64(3), status.PollCount)
	assert.Empty(t, status.LastError)
	assert.Equal(t, 6970, status.Players["#2PP"].Trophies)
}

func TestPollOnce_UnchangedEmitsNothing(t *testing.T) {
	fetcher := &stubFetcher{}
	fetcher.set(7000, result(at(9, 0), true))
	s := newTestService(t, fetcher, &clock{now: at(9, 10)})

	s.PollOnce(context.Background())
	s.PollOnce(context.Background())
	assert.Len(t, s.Events(0), 1)
}

func TestPollOnce_FetchErrorFallsBackToCache(t *testing.T) {
	ctx := context.Background()
	fetcher := &stubFetcher{}
	fetcher.set(7000, result(at(9, 0), true))
	s := newTestService(t, fetcher, &clock{now: at(9, 10)})
	s.PollOnce(ctx)

	fetcher.mu.Lock()
	fetcher.err = royale.ErrRateLimited
	fetcher.mu.Unlock()
	s.PollOnce(ctx)

	status := s.Status()
	assert.Empty(t, status.LastError, "cache fallback is not a poll error")
	assert.Equal(t, 1, status.Players["#2PP"].Battles)
}

func TestPollOnce_NoSourceRecordsError(t *testing.T) {
	s := New(Config{Tags: []string{"#2PP"}, Log: zerolog.Nop()})
	s.PollOnce(context.Background())

	status := s.Status()
	assert.Contains(t, status.LastError, "#2PP")
	assert.Empty(t, status.Players)
	assert.True(t, status.Offline)
}

func TestDiffSnapshots(t *testing.T) {
	t1, t2 := at(10, 0), at(10, 5)
	base := Snapshot{Day: "2024-01-15", LastBattleAt: &t1}

	assert.Empty(t, DiffSnapshots(base, base))

	next := base
	next.LastBattleAt = &t2
	assert.Equal(t, []string{EventNewBattles}, DiffSnapshots(base, next))

	alert := base
	alert.TiltAlert = true
	assert.Equal(t, []string{EventTiltAlert}, DiffSnapshots(base, alert))
	assert.Equal(t, []string{EventTiltCleared}, DiffSnapshots(alert, base))

	tomorrow := base
	tomorrow.Day = "2024-01-16"
	assert.Equal(t, []string{EventDailyReset}, DiffSnapshots(base, tomorrow))

	empty := Snapshot{Day: "2024-01-15"}
	assert.Equal(t, []string{EventNewBattles}, DiffSnapshots(empty, base))
}

func TestBuildSnapshot_NoBattles(t *testing.T) {
	snap := BuildSnapshot("#2PP", nil, 5000, at(12, 0), 0)
	assert.Nil(t, snap.LastBattleAt)
	assert.Equal(t, "2024-01-15", snap.Day)
	assert.Equal(t, model.TiltNone, snap.TiltLevel)
	assert.Equal(t, 5000, snap.Trophies)
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     time.Minute,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	events := s.Events(0)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, int64(3), events[1].ID)

	latest := s.Events(1)
	require.Len(t, latest, 1)
	assert.Equal(t, int64(3), latest[0].ID)
}

func TestPublishEvent_FansOutToSubscribers(t *testing.T) {
	s := New(Config{})
	ch := make(chan Event, 1)
	id := s.addSubscriber(ch)

	s.publishEvent(Event{ID: 7, Type: EventTiltAlert})
	select {
	case ev := <-ch:
		assert.Equal(t, int64(7), ev.ID)
	default:
		t.Fatal("subscriber did not receive event")
	}

	// A full subscriber channel never blocks publishing.
	s.publishEvent(Event{ID: 8})
	s.publishEvent(Event{ID: 9})

	s.removeSubscriber(id)
	assert.Equal(t, 0, s.Status().SubscriberCount)
}

func TestBuildSnapshot_LastBattleAt(t *testing.T) {
	battles := []model.Battle{
		result(at(10, 30), false),
		{BattleTime: "garbage"},
		result(at(11, 0), true),
	}
	snap := BuildSnapshot("#2PP", battles, 5000, at(12, 0), 0)
	require.NotNil(t, snap.LastBattleAt)
	assert.True(t, snap.LastBattleAt.Equal(at(11, 0)), "last battle = %v", snap.LastBattleAt)
}
