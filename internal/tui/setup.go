package tui

import (
	"errors"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/crpush/internal/config"
	"github.com/theirongolddev/crpush/internal/royale"
	"github.com/theirongolddev/crpush/internal/tui/theme"
)

// setupValues is bound to the first-run form fields.
type setupValues struct {
	tag   string
	token string
	theme string
	gap   string
}

// gapOptions are the session gaps offered during setup, in minutes.
var gapOptions = []int{15, 30, 45, 60}

// RunSetupForm runs the setup form standalone, outside the dashboard, and
// writes the answers into cfg. It returns huh.ErrUserAborted on cancel.
func RunSetupForm(cfg *config.Config) error {
	vals := &setupValues{
		tag:   config.GetPlayerTag(*cfg),
		theme: cfg.Appearance.Theme,
		gap:   strconv.Itoa(cfg.Sessions.MaxGapMinutes),
	}
	if err := buildSetupForm(vals).Run(); err != nil {
		return err
	}
	applySetup(vals, cfg)
	return nil
}

func newSetupForm(vals *setupValues) *huh.Form {
	cfg := loadConfigOrDefault()
	if vals.tag == "" {
		vals.tag = config.GetPlayerTag(cfg)
	}
	if vals.theme == "" {
		vals.theme = cfg.Appearance.Theme
	}
	if vals.gap == "" {
		vals.gap = strconv.Itoa(cfg.Sessions.MaxGapMinutes)
	}
	return buildSetupForm(vals)
}

func buildSetupForm(vals *setupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	gapOpts := make([]huh.Option[string], 0, len(gapOptions))
	for _, m := range gapOptions {
		v := strconv.Itoa(m)
		gapOpts = append(gapOpts, huh.NewOption(v+" minutes", v))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to crpush").
				Description("Track ladder pushes, streaks and tilt.\nA few settings and you're ready."),
			huh.NewInput().
				Title("Player tag").
				Description("Shown under your name in the game profile, e.g. #2PP.").
				Value(&vals.tag).
				Validate(func(s string) error {
					if royale.NormalizeTag(s) == "" {
						return errors.New("a player tag is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("API token").
				Description("From developer.clashroyale.com. Leave blank to use exports only.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.token),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Session gap").
				Description("Battles further apart than this start a new session.").
				Options(gapOpts...).
				Value(&vals.gap),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithShowHelp(false)
}

func applySetup(vals *setupValues, cfg *config.Config) {
	cfg.General.PlayerTag = royale.NormalizeTag(vals.tag)
	if vals.token != "" {
		cfg.API.Token = vals.token
	}
	if gap, err := strconv.Atoi(vals.gap); err == nil && gap > 0 {
		cfg.Sessions.MaxGapMinutes = gap
	}
	if vals.theme != "" {
		cfg.Appearance.Theme = vals.theme
	}
}

func (a *App) saveSetupConfig() error {
	cfg := loadConfigOrDefault()
	applySetup(&a.setupVals, &cfg)

	theme.SetActive(cfg.Appearance.Theme)
	a.opts.MaxGap = cfg.MaxGap()
	a.recompute()

	return config.Save(cfg)
}
