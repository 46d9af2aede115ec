package pipeline

import (
	"math"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/source"
)

// TiltWindow is how many of the most recent battles feed the tilt base level.
const TiltWindow = 10

// Base risk per tilt level.
const (
	highRisk   = 100
	mediumRisk = 60
)

// Decayed-risk thresholds. These differ from the base mapping above.
const (
	decayedHighAt   = 70
	decayedMediumAt = 40
)

// ComputeStreak walks newest-first battles and counts the leading run of
// identical results. A draw ends the run and a leading draw yields none.
func ComputeStreak(newestFirst []model.Battle) model.Streak {
	streak := model.Streak{Type: model.StreakNone}
	for i, b := range newestFirst {
		r := ResultOf(b)
		if r == model.Draw {
			break
		}
		t := model.StreakWin
		if r == model.Loss {
			t = model.StreakLoss
		}
		if i == 0 {
			streak.Type = t
		} else if t != streak.Type {
			break
		}
		streak.Count++
	}
	return streak
}

// ComputeTiltState grades tilt over the newest TiltWindow battles and decays
// the risk by the time elapsed between the latest valid battle and now.
func ComputeTiltState(newestFirst []model.Battle, now time.Time) model.TiltState {
	window := newestFirst
	if len(window) > TiltWindow {
		window = window[:TiltWindow]
	}

	st := model.TiltState{
		BaseLevel:  model.TiltNone,
		Level:      model.TiltNone,
		DecayStage: model.DecayNone,
		WindowSize: len(window),
	}

	run := 0
	for i, b := range window {
		var next *model.Battle
		if i > 0 {
			next = &newestFirst[i-1]
		}
		o := Classify(b, next)
		switch o.Result {
		case model.Win:
			st.Wins++
			run = 0
		case model.Loss:
			st.Losses++
			run++
			st.LongestLossRun = max(st.LongestLossRun, run)
		default:
			run = 0
		}
		st.NetTrophyDelta += o.TrophyDelta
	}

	// Draws stay in the denominator here, unlike session and daily win rates.
	var rate float64
	if st.WindowSize > 0 {
		rate = float64(st.Wins) / float64(st.WindowSize) * 100
	}
	switch {
	case st.LongestLossRun >= 3 || (rate < 40 && st.NetTrophyDelta <= -60):
		st.BaseLevel, st.BaseRisk = model.TiltHigh, highRisk
	case rate >= 40 && rate <= 50 && st.NetTrophyDelta < 0:
		st.BaseLevel, st.BaseRisk = model.TiltMedium, mediumRisk
	}

	last, ok := LatestBattleTime(newestFirst)
	if !ok {
		return st
	}
	hours := now.Sub(last).Hours()
	if hours < 0 {
		hours = 0
	}
	st.HoursSinceLastBattle = &hours

	multiplier, stage := decayFor(hours)
	st.DecayStage = stage
	st.Risk = int(math.Round(float64(st.BaseRisk) * multiplier))
	switch {
	case st.Risk >= decayedHighAt:
		st.Level = model.TiltHigh
	case st.Risk >= decayedMediumAt:
		st.Level = model.TiltMedium
	}
	st.Alert = st.Level == model.TiltHigh
	return st
}

func decayFor(hours float64) (float64, model.DecayStage) {
	switch {
	case hours < 2:
		return 1, model.DecayNone
	case hours < 6:
		return 0.7, model.Decay2h
	case hours < 12:
		return 0.4, model.Decay6h
	default:
		return 0, model.Decay12h
	}
}

// LatestBattleTime returns the newest parseable battle instant.
func LatestBattleTime(battles []model.Battle) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, b := range battles {
		t, ok := source.ParseBattleTime(b.BattleTime)
		if !ok {
			continue
		}
		if !found || t.After(latest) {
			latest, found = t, true
		}
	}
	return latest, found
}
