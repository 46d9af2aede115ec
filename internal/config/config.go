// Package config loads and saves crpush settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvAPIToken  = "CR_API_TOKEN"
	EnvPlayerTag = "CR_PLAYER_TAG"
	EnvBaseURL   = "CR_API_BASE_URL"
)

// Config holds all crpush configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	API        APIConfig        `toml:"api"`
	Sessions   SessionsConfig   `toml:"sessions"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	PlayerTag string `toml:"player_tag"`
	ImportDir string `toml:"import_dir,omitempty"`
}

// APIConfig holds battle-log provider settings.
type APIConfig struct {
	Token             string  `toml:"token,omitempty"`
	BaseURL           string  `toml:"base_url,omitempty"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// SessionsConfig holds segmentation settings.
type SessionsConfig struct {
	MaxGapMinutes  int  `toml:"max_gap_minutes"`
	MinPushBattles int  `toml:"min_push_battles"`
	RawWinRate     bool `toml:"raw_win_rate"`
}

// DaemonConfig holds background poller settings.
type DaemonConfig struct {
	Addr           string   `toml:"addr"`
	PollSeconds    int      `toml:"poll_seconds"`
	Tags           []string `toml:"tags,omitempty"`
	EventsBuffer   int      `toml:"events_buffer"`
	LogLevel       string   `toml:"log_level"`
	AllowedOrigins []string `toml:"allowed_origins,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			RequestsPerSecond: 5,
			TimeoutSeconds:    10,
		},
		Sessions: SessionsConfig{
			MaxGapMinutes:  30,
			MinPushBattles: 2,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8765",
			PollSeconds:  60,
			EventsBuffer: 200,
			LogLevel:     "info",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 60,
		},
	}
}

// MaxGap returns the configured session gap.
func (c Config) MaxGap() time.Duration {
	return time.Duration(c.Sessions.MaxGapMinutes) * time.Minute
}

// Timeout returns the configured API request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// PollInterval returns the daemon poll interval.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Daemon.PollSeconds) * time.Second
}

// RefreshInterval is the dashboard auto-refresh period.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.TUI.RefreshIntervalSec) * time.Second
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "crpush")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "crpush")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "crpush")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "crpush")
}

// CachePath returns the full path to the battle cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "battles.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
// A .env file in the working directory is loaded first, so its values
// reach the environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), fmt.Errorf("reading .env: %w", err)
	}
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it is missing.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyFloors()
	return cfg, nil
}

// applyFloors replaces nonsensical values with defaults.
func (c *Config) applyFloors() {
	def := DefaultConfig()
	if c.Sessions.MaxGapMinutes <= 0 {
		c.Sessions.MaxGapMinutes = def.Sessions.MaxGapMinutes
	}
	if c.Sessions.MinPushBattles <= 0 {
		c.Sessions.MinPushBattles = def.Sessions.MinPushBattles
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = def.API.TimeoutSeconds
	}
	if c.Daemon.PollSeconds < 15 {
		c.Daemon.PollSeconds = def.Daemon.PollSeconds
	}
	if c.Daemon.EventsBuffer <= 0 {
		c.Daemon.EventsBuffer = def.Daemon.EventsBuffer
	}
	if c.TUI.RefreshIntervalSec < 10 {
		c.TUI.RefreshIntervalSec = def.TUI.RefreshIntervalSec
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetAPIToken returns the API token from env var or config, in that order.
func GetAPIToken(cfg Config) string {
	if token := os.Getenv(EnvAPIToken); token != "" {
		return token
	}
	return cfg.API.Token
}

// GetPlayerTag returns the player tag from env var or config, in that order.
func GetPlayerTag(cfg Config) string {
	if tag := os.Getenv(EnvPlayerTag); tag != "" {
		return tag
	}
	return cfg.General.PlayerTag
}

// GetBaseURL returns the API base URL from env var or config, in that order.
func GetBaseURL(cfg Config) string {
	if u := os.Getenv(EnvBaseURL); u != "" {
		return u
	}
	return cfg.API.BaseURL
}

// DaemonTags returns the tags the daemon polls: the configured list, or the
// primary player when the list is empty.
func DaemonTags(cfg Config) []string {
	var tags []string
	seen := make(map[string]struct{})
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	for _, t := range cfg.Daemon.Tags {
		add(t)
	}
	if len(tags) == 0 {
		add(GetPlayerTag(cfg))
	}
	return tags
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
