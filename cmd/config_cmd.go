// Package cmd implements the crpush CLI commands.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Cache:       %s\n", config.CachePath())
	fmt.Println()

	fmt.Println("  [General]")
	if tag := config.GetPlayerTag(cfg); tag != "" {
		fmt.Printf("    Player tag: %s\n", tag)
	} else {
		fmt.Println("    Player tag: not configured")
	}
	if cfg.General.ImportDir != "" {
		fmt.Printf("    Import dir: %s\n", cfg.General.ImportDir)
	}
	fmt.Println()

	fmt.Println("  [API]")
	if token := config.GetAPIToken(cfg); token != "" {
		fmt.Printf("    Token:    %s\n", maskAPIKey(token))
	} else {
		fmt.Println("    Token:    not configured")
	}
	fmt.Printf("    Base URL: %s\n", config.GetBaseURL(cfg))
	fmt.Printf("    Rate:     %.1f req/s, timeout %s\n", cfg.API.RequestsPerSecond, cfg.Timeout())
	fmt.Println()

	fmt.Println("  [Sessions]")
	fmt.Printf("    Max gap:          %s\n", cfg.MaxGap())
	fmt.Printf("    Push threshold:   %d battles\n", cfg.Sessions.MinPushBattles)
	fmt.Printf("    Raw win rate:     %v\n", cfg.Sessions.RawWinRate)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Poll:     %s\n", cfg.PollInterval())
	fmt.Printf("    Players:  %s\n", strings.Join(config.DaemonTags(cfg), ", "))
	fmt.Printf("    Events:   %d retained\n", cfg.Daemon.EventsBuffer)
	fmt.Printf("    Log:      %s\n", cfg.Daemon.LogLevel)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Printf("    Dashboard refresh: %v every %s\n", cfg.TUI.AutoRefresh, cfg.RefreshInterval())
	fmt.Println()

	fmt.Println("  Run `crpush setup` to reconfigure.")
	return nil
}
