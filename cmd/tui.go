package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/crpush/internal/config"
	"github.com/theirongolddev/crpush/internal/tui"
	"github.com/theirongolddev/crpush/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive push dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appCfg.Appearance.Theme)

	// Force TrueColor so background styling always produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Progress and warnings would draw over the alt screen.
	flagQuiet = true

	load := func(ctx context.Context) (*tui.Data, error) {
		// Settings edited in the dashboard take effect on the next load.
		if cfg, err := config.Load(); err == nil {
			appCfg = cfg
		}
		ds, err := loadData(ctx)
		if err != nil {
			return nil, err
		}
		return &tui.Data{Tag: ds.Tag, Battles: ds.Battles, Trophies: ds.Trophies, Source: ds.Source}, nil
	}

	app := tui.NewApp(tui.Options{
		Load:            load,
		MaxGap:          maxGap(),
		MinPushBattles:  minBattles(),
		AutoRefresh:     appCfg.TUI.AutoRefresh,
		RefreshInterval: appCfg.RefreshInterval(),
		NeedSetup:       !config.Exists() && playerTag() == "",
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
