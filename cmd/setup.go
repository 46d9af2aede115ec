package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/config"
	"github.com/theirongolddev/crpush/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the saved file, not env overrides, so they are not persisted.
	cfg, err := config.LoadFrom(config.ConfigPath())
	if err != nil {
		cfg = config.DefaultConfig()
	}

	if err := tui.RunSetupForm(&cfg); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	if cfg.API.Token != "" {
		fmt.Printf("  API token: %s\n", maskAPIKey(cfg.API.Token))
	}
	fmt.Println("  Run `crpush sync` to fetch your battle log, or `crpush setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func maskAPIKey(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
