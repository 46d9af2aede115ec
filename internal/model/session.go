package model

import "time"

// Session is a run of battles where no two neighbours are further apart than
// the segmentation gap. Battles are stored oldest first.
type Session struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	BattleCount int       `json:"battleCount"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	TrophyDelta int       `json:"trophyDelta"`
	WinRate     float64   `json:"winRate"`
	Battles     []Battle  `json:"battles"`
}

// Duration is the span between the first and last battle.
func (s Session) Duration() time.Duration { return s.End.Sub(s.Start) }

// StreakType is the kind of run a streak counts.
type StreakType string

const (
	StreakWin  StreakType = "win"
	StreakLoss StreakType = "loss"
	StreakNone StreakType = "none"
)

// Streak is the current run of identical results.
type Streak struct {
	Type  StreakType `json:"type"`
	Count int        `json:"count"`
}

// TiltLevel grades how likely a player is playing on tilt.
type TiltLevel string

const (
	TiltNone   TiltLevel = "none"
	TiltMedium TiltLevel = "medium"
	TiltHigh   TiltLevel = "high"
)

// DecayStage names the idle bracket applied to the base risk.
type DecayStage string

const (
	DecayNone DecayStage = "none"
	Decay2h   DecayStage = "2h"
	Decay6h   DecayStage = "6h"
	Decay12h  DecayStage = "12h"
)

// TiltState is the tilt assessment over the most recent battles.
type TiltState struct {
	BaseLevel  TiltLevel  `json:"baseLevel"`
	BaseRisk   int        `json:"baseRisk"`
	Risk       int        `json:"risk"`
	Level      TiltLevel  `json:"level"`
	DecayStage DecayStage `json:"decayStage"`
	Alert      bool       `json:"alert"`

	// HoursSinceLastBattle is nil when no battle has a valid timestamp.
	HoursSinceLastBattle *float64 `json:"hoursSinceLastBattle"`

	WindowSize     int `json:"windowSize"`
	Wins           int `json:"wins"`
	Losses         int `json:"losses"`
	NetTrophyDelta int `json:"netTrophyDelta"`
	LongestLossRun int `json:"longestLossRun"`
}

// DailySummary rolls up the battles played since local midnight.
type DailySummary struct {
	Date        string    `json:"date"`
	Battles     int       `json:"battles"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	TrophyDelta int       `json:"trophyDelta"`
	WinRate     int       `json:"winRate"`
	Streak      Streak    `json:"streak"`
	Sessions    []Session `json:"sessions"`
}

// ProgressionPoint is one reconstructed point on the trophy curve.
type ProgressionPoint struct {
	Index    int       `json:"index"`
	Label    string    `json:"label"`
	Time     time.Time `json:"time"`
	Trophies int       `json:"trophies"`
	Delta    int       `json:"delta"`
	Wins     int       `json:"wins"`
	Losses   int       `json:"losses"`
}
