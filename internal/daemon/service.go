// Package daemon provides the long-running background push monitor: it
// polls battle logs for a set of players, turns consecutive snapshots into
// events and serves both over HTTP.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
	"github.com/theirongolddev/crpush/internal/source"
	"github.com/theirongolddev/crpush/internal/store"
)

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventNewBattles  = "new_battles"
	EventTiltAlert   = "tilt_alert"
	EventTiltCleared = "tilt_cleared"
	EventDailyReset  = "daily_reset"
)

// maxParallelPolls bounds concurrent player fetches per poll.
const maxParallelPolls = 4

// Config controls the daemon runtime behavior.
type Config struct {
	Tags           []string
	Interval       time.Duration
	Addr           string
	EventsBuffer   int
	MaxGap         time.Duration
	AllowedOrigins []string

	// Fetcher is nil in offline mode; the daemon then only watches the cache.
	Fetcher pipeline.Fetcher
	Cache   *store.Cache
	Log     zerolog.Logger

	// Location sets the calendar day boundary. Defaults to time.Local.
	Location *time.Location
	// Now is overridable for tests.
	Now func() time.Time
}

// Snapshot is the compact push state of one player.
type Snapshot struct {
	Tag          string          `json:"tag"`
	At           time.Time       `json:"at"`
	Day          string          `json:"day"`
	Trophies     int             `json:"trophies"`
	Battles      int             `json:"battles"`
	TodayBattles int             `json:"today_battles"`
	Wins         int             `json:"wins"`
	Losses       int             `json:"losses"`
	TrophyDelta  int             `json:"trophy_delta"`
	Streak       model.Streak    `json:"streak"`
	TiltRisk     int             `json:"tilt_risk"`
	TiltLevel    model.TiltLevel `json:"tilt_level"`
	TiltAlert    bool            `json:"tilt_alert"`
	LastBattleAt *time.Time      `json:"last_battle_at,omitempty"`
}

// Event is emitted whenever a player's snapshot changes meaningfully.
type Event struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Tag        string    `json:"tag"`
	Snapshot   Snapshot  `json:"snapshot"`
	NewBattles int       `json:"new_battles,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time           `json:"started_at"`
	LastPollAt      time.Time           `json:"last_poll_at"`
	PollIntervalSec int                 `json:"poll_interval_sec"`
	PollCount       int64               `json:"poll_count"`
	Tags            []string            `json:"tags"`
	Offline         bool                `json:"offline"`
	Players         map[string]Snapshot `json:"players"`
	LastError       string              `json:"last_error,omitempty"`
	EventCount      int                 `json:"event_count"`
	SubscriberCount int                 `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	log zerolog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	snapshots   map[string]Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 15*time.Second {
		cfg.Interval = time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8765"
	}
	if cfg.MaxGap <= 0 {
		cfg.MaxGap = pipeline.DefaultMaxGap
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		cfg:       cfg,
		log:       cfg.Log.With().Str("component", "daemon").Logger(),
		startedAt: cfg.Now(),
		snapshots: make(map[string]Snapshot),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info().Str("addr", s.cfg.Addr).Strs("tags", s.cfg.Tags).Dur("interval", s.cfg.Interval).Msg("daemon started")

	// Seed initial snapshots so status is useful immediately.
	s.PollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.log.Info().Msg("daemon stopping")
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.PollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollResult is one player's outcome within a poll.
type pollResult struct {
	tag      string
	battles  []model.Battle
	trophies int
	err      error
}

// PollOnce refreshes every configured player and publishes the resulting
// events. A failing player does not stop the others.
func (s *Service) PollOnce(ctx context.Context) {
	results := make([]pollResult, len(s.cfg.Tags))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelPolls)
	for i, tag := range s.cfg.Tags {
		g.Go(func() error {
			battles, trophies, err := s.loadPlayer(gctx, tag)
			results[i] = pollResult{tag: tag, battles: battles, trophies: trophies, err: err}
			return nil
		})
	}
	_ = g.Wait()

	now := s.cfg.Now().In(s.cfg.Location)
	var errs []error
	var events []Event

	s.mu.Lock()
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.tag, r.err))
			s.log.Warn().Err(r.err).Str("tag", r.tag).Msg("poll failed")
			continue
		}

		curr := BuildSnapshot(r.tag, r.battles, r.trophies, now, s.cfg.MaxGap)
		prev, seen := s.snapshots[r.tag]
		s.snapshots[r.tag] = curr

		if !seen {
			events = append(events, s.newEventLocked(EventSnapshot, curr, now, 0))
			continue
		}
		for _, typ := range DiffSnapshots(prev, curr) {
			n := 0
			if typ == EventNewBattles {
				n = countNewer(r.battles, prev.LastBattleAt)
			}
			events = append(events, s.newEventLocked(typ, curr, now, n))
		}
	}
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""
	if err := errors.Join(errs...); err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	for _, ev := range events {
		s.log.Info().Str("type", ev.Type).Str("tag", ev.Tag).Int64("id", ev.ID).Msg("event")
		s.publishEvent(ev)
	}
}

// loadPlayer fetches and stores a player's battles, falling back to the
// cache when the fetch fails.
func (s *Service) loadPlayer(ctx context.Context, tag string) ([]model.Battle, int, error) {
	if s.cfg.Fetcher != nil {
		res, err := pipeline.Sync(ctx, s.cfg.Fetcher, s.cfg.Cache, tag)
		if err == nil {
			return res.Battles, res.Trophies(), nil
		}
		if s.cfg.Cache == nil {
			return nil, 0, err
		}
		s.log.Warn().Err(err).Str("tag", tag).Msg("sync failed, using cache")
	}
	if s.cfg.Cache == nil {
		return nil, 0, errors.New("no fetcher and no cache configured")
	}
	return pipeline.LoadCached(ctx, s.cfg.Cache, tag)
}

func (s *Service) newEventLocked(typ string, snap Snapshot, now time.Time, newBattles int) Event {
	s.nextEventID++
	return Event{
		ID:         s.nextEventID,
		Type:       typ,
		Timestamp:  now,
		Tag:        snap.Tag,
		Snapshot:   snap,
		NewBattles: newBattles,
	}
}

// BuildSnapshot summarizes a newest-first history at now.
func BuildSnapshot(tag string, newestFirst []model.Battle, trophies int, now time.Time, maxGap time.Duration) Snapshot {
	daily := pipeline.ComputeDailySummary(newestFirst, now, maxGap)
	tilt := pipeline.ComputeTiltState(newestFirst, now)

	snap := Snapshot{
		Tag:          tag,
		At:           now,
		Day:          daily.Date,
		Trophies:     trophies,
		Battles:      len(newestFirst),
		TodayBattles: daily.Battles,
		Wins:         daily.Wins,
		Losses:       daily.Losses,
		TrophyDelta:  daily.TrophyDelta,
		Streak:       pipeline.ComputeStreak(newestFirst),
		TiltRisk:     tilt.Risk,
		TiltLevel:    tilt.Level,
		TiltAlert:    tilt.Alert,
	}
	if last, ok := pipeline.LatestBattleTime(newestFirst); ok {
		snap.LastBattleAt = &last
	}
	return snap
}

// DiffSnapshots returns the event types implied by moving from prev to curr.
func DiffSnapshots(prev, curr Snapshot) []string {
	var types []string
	if prev.Day != curr.Day {
		types = append(types, EventDailyReset)
	}
	if curr.LastBattleAt != nil && (prev.LastBattleAt == nil || curr.LastBattleAt.After(*prev.LastBattleAt)) {
		types = append(types, EventNewBattles)
	}
	switch {
	case !prev.TiltAlert && curr.TiltAlert:
		types = append(types, EventTiltAlert)
	case prev.TiltAlert && !curr.TiltAlert:
		types = append(types, EventTiltCleared)
	}
	return types
}

func countNewer(battles []model.Battle, since *time.Time) int {
	n := 0
	for _, b := range battles {
		at, ok := source.ParseBattleTime(b.BattleTime)
		if !ok {
			continue
		}
		if since == nil || at.After(*since) {
			n++
		}
	}
	return n
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

// Events returns up to limit of the most recent events, oldest first.
// A limit of zero or less returns all buffered events.
func (s *Service) Events(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.events
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Status returns the current daemon status.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make(map[string]Snapshot, len(s.snapshots))
	for tag, snap := range s.snapshots {
		players[tag] = snap
	}
	tags := append([]string(nil), s.cfg.Tags...)
	sort.Strings(tags)

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Tags:            tags,
		Offline:         s.cfg.Fetcher == nil,
		Players:         players,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
