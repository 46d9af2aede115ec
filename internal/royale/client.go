// Package royale provides a client for the Clash Royale player and battle-log API.
package royale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/source"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the official API root. Proxies with the same paths
	// can be configured instead.
	DefaultBaseURL = "https://api.clashroyale.com/v1"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
	userAgent      = "crpush/1.0"
)

var (
	// ErrUnauthorized indicates the API token is missing, invalid, or not
	// allowed from this IP address.
	ErrUnauthorized = errors.New("royale: unauthorized (token invalid or IP not allowlisted)")
	// ErrNotFound indicates the player tag does not exist.
	ErrNotFound = errors.New("royale: player not found")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("royale: rate limited")
	// ErrUpstream indicates any other non-2xx response.
	ErrUpstream = errors.New("royale: upstream error")
)

// Options configures a Client. Zero values pick defaults.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client fetches player profiles and battle logs.
type Client struct {
	token   string
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	http    *http.Client
}

// NewClient creates a client for the given API token.
// Returns nil if the token is empty.
func NewClient(token string, opts Options) *Client {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	c := &Client{
		token:   token,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	c.limiter = rate.NewLimiter(limit, 1)
	return c
}

// BattleLog is a decoded battle-log response.
type BattleLog struct {
	Battles     []model.Battle
	ParseErrors int
}

// FetchBattleLog returns the recent battles of the player, newest first as
// the API delivers them. Undecodable records are counted, not fatal.
func (c *Client) FetchBattleLog(ctx context.Context, tag string) (*BattleLog, error) {
	body, err := c.get(ctx, "/players/"+escapeTag(tag)+"/battlelog")
	if err != nil {
		return nil, err
	}

	pr := source.DecodeBattleLog(body)
	if pr.Err != nil {
		return nil, fmt.Errorf("royale: parsing battle log: %w", pr.Err)
	}
	return &BattleLog{Battles: pr.Battles, ParseErrors: pr.ParseErrors}, nil
}

// FetchPlayer returns the player's profile, including the current trophy
// count used to anchor progressions.
func (c *Client) FetchPlayer(ctx context.Context, tag string) (*model.Player, error) {
	body, err := c.get(ctx, "/players/"+escapeTag(tag))
	if err != nil {
		return nil, err
	}

	var p model.Player
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("royale: parsing player: %w", err)
	}
	p.FetchedAt = time.Now()
	return &p, nil
}

// get performs an authenticated, rate-limited GET and returns the body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("royale: waiting for rate limiter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("royale: creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("royale: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("royale: reading response: %w", err)
	}
	return body, nil
}

// NormalizeTag upper-cases a player tag, adds the leading '#', and maps the
// letter O to the digit 0, which tags never contain.
func NormalizeTag(tag string) string {
	tag = strings.ToUpper(strings.TrimSpace(tag))
	tag = strings.TrimPrefix(tag, "#")
	tag = strings.ReplaceAll(tag, "O", "0")
	if tag == "" {
		return ""
	}
	return "#" + tag
}

func escapeTag(tag string) string {
	return url.PathEscape(NormalizeTag(tag))
}
