package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/crpush/internal/charts"
	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/pipeline"
	"github.com/theirongolddev/crpush/internal/royale"
)

type contextKey string

// RequestIDKey holds the request id in a request context.
const RequestIDKey contextKey = "request_id"

// errNoCache is returned by player routes when the daemon runs without a
// battle cache.
var errNoCache = errors.New("battle cache unavailable")

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// Handler returns the daemon HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID(s.log))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)

		r.Route("/players/{tag}", func(r chi.Router) {
			r.Get("/battles", s.handleBattles)
			r.Get("/daily", s.handleDaily)
			r.Get("/sessions", s.handleSessions)
			r.Get("/tilt", s.handleTilt)
			r.Get("/progression", s.handleProgression)
			r.Get("/summary", s.handleSummary)
			r.Get("/chart", s.handleChart)
		})
	})

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
	return c.Handler(r)
}

// RequestID tags each request with an id, taken from X-Request-ID when the
// client sends one, and logs its start and completion.
func RequestID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			loggerWithID := logger.With().Str("request_id", requestID).Logger()
			ctx = loggerWithID.WithContext(ctx)

			loggerWithID.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("request started")

			next.ServeHTTP(w, r.WithContext(ctx))

			loggerWithID.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}

// GetRequestID returns the request id stored by RequestID.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: err.Error(),
		Code:    status,
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.Events(limit))
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Replay the current snapshot of every player first.
	status := s.Status()
	for _, tag := range status.Tags {
		snap, ok := status.Players[tag]
		if !ok {
			continue
		}
		writeSSE(w, Event{Type: EventSnapshot, Timestamp: snap.At, Tag: tag, Snapshot: snap})
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

// playerRequest holds the cached history behind a player route.
type playerRequest struct {
	tag      string
	battles  []model.Battle // newest first
	trophies int
	now      time.Time
}

// loadPlayerRequest resolves {tag} and loads its cached history, writing
// an error response and returning false on failure.
func (s *Service) loadPlayerRequest(w http.ResponseWriter, r *http.Request) (playerRequest, bool) {
	tag := royale.NormalizeTag(chi.URLParam(r, "tag"))
	if tag == "" || tag == "#" {
		writeError(w, http.StatusBadRequest, errors.New("missing player tag"))
		return playerRequest{}, false
	}
	if s.cfg.Cache == nil {
		writeError(w, http.StatusServiceUnavailable, errNoCache)
		return playerRequest{}, false
	}

	battles, trophies, err := pipeline.LoadCached(r.Context(), s.cfg.Cache, tag)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("tag", tag).Msg("loading cached player")
		writeError(w, http.StatusInternalServerError, err)
		return playerRequest{}, false
	}
	if len(battles) == 0 && trophies == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("no cached battles for %s", tag))
		return playerRequest{}, false
	}
	if battles == nil {
		battles = []model.Battle{}
	}

	return playerRequest{
		tag:      tag,
		battles:  battles,
		trophies: trophies,
		now:      s.cfg.Now().In(s.cfg.Location),
	}, true
}

// rangeParam parses ?range=, defaulting to def.
func rangeParam(w http.ResponseWriter, r *http.Request, def pipeline.Range) (pipeline.Range, bool) {
	raw := r.URL.Query().Get("range")
	if raw == "" {
		return def, true
	}
	rg, err := pipeline.ParseRange(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", false
	}
	return rg, true
}

func (s *Service) handleBattles(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.loadPlayerRequest(w, r)
	if !ok {
		return
	}
	rg, ok := rangeParam(w, r, pipeline.RangeAll)
	if !ok {
		return
	}

	battles := pipeline.FilterByMode(pipeline.FilterByRange(pr.battles, rg, pr.now), r.URL.Query().Get("mode"))
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		if n > 0 && len(battles) > n {
			battles = battles[:n]
		}
	}
	writeJSON(w, http.StatusOK, battles)
}

func (s *Service) handleDaily(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.loadPlayerRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pipeline.ComputeDailySummary(pr.battles, pr.now, s.cfg.MaxGap))
}

func (s *Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.loadPlayerRequest(w, r)
	if !ok {
		return
	}
	rg, ok := rangeParam(w, r, pipeline.RangeAll)
	if !ok {
		return
	}

	sessions := pipeline.Segment(pipeline.FilterByRange(pr.battles, rg, pr.now), s.cfg.MaxGap)
	if r.URL.Query().Get("pushes") == "true" {
		sessions = pipeline.Pushes(sessions, pipeline.DefaultMinPushBattles)
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Service) handleTilt(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.loadPlayerRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pipeline.ComputeTiltState(pr.battles, pr.now))
}

func (s *Service) progression(r *http.Request, pr playerRequest) []model.ProgressionPoint {
	if r.URL.Query().Get("daily") == "true" {
		return pipeline.BuildDailyProgression(pr.battles, pr.trophies, s.cfg.Location)
	}
	return pipeline.BuildProgression(pr.battles, pr.trophies, s.cfg.MaxGap)
}

func (s *Service) handleProgression(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.loadPlayerRequest(w, r)
	if !ok {
		return
	}
	rg, ok := rangeParam(w, r, pipeline.RangeAll)
	if !ok {
		return
	}
	pr.battles = pipeline.FilterByRange(pr.battles, rg, pr.now)
	writeJSON(w, http.StatusOK, s.progression(r, pr))
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.loadPlayerRequest(w, r)
	if !ok {
		return
	}
	rg, ok := rangeParam(w, r, pipeline.RangeWeek)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pipeline.Summarize(pr.battles, rg, pr.now, pipeline.SummaryOptions{
		MaxGap:         s.cfg.MaxGap,
		MinPushBattles: pipeline.DefaultMinPushBattles,
	}))
}

func (s *Service) handleChart(w http.ResponseWriter, r *http.Request) {
	pr, ok := s.loadPlayerRequest(w, r)
	if !ok {
		return
	}
	rg, ok := rangeParam(w, r, pipeline.RangeSeason)
	if !ok {
		return
	}
	pr.battles = pipeline.FilterByRange(pr.battles, rg, pr.now)

	cfg := charts.DefaultChartConfig()
	cfg.Title = pr.tag + " trophy progression"
	days := pipeline.AggregateDays(pr.battles, s.cfg.Location, s.cfg.MaxGap)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.RenderReport(w, s.progression(r, pr), days, cfg); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("rendering chart")
	}
}
