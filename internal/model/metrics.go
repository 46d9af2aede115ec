package model

import "time"

// RangeSummary holds the top-level aggregate over a time range.
type RangeSummary struct {
	Range       string  `json:"range"`
	Battles     int     `json:"battles"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Draws       int     `json:"draws"`
	WinRate     float64 `json:"winRate"`
	TrophyDelta int     `json:"trophyDelta"`
	ActiveDays  int     `json:"activeDays"`

	Streak            Streak `json:"streak"`
	LongestWinStreak  int    `json:"longestWinStreak"`
	LongestLossStreak int    `json:"longestLossStreak"`

	Sessions          int      `json:"sessions"`
	Pushes            int      `json:"pushes"`
	BattlesPerSession float64  `json:"battlesPerSession"`
	BestPush          *Session `json:"bestPush,omitempty"`
	WorstPush         *Session `json:"worstPush,omitempty"`
}

// DailyStats holds results for a single local calendar day.
type DailyStats struct {
	Date        time.Time `json:"date"`
	Key         string    `json:"key"`
	Battles     int       `json:"battles"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	Draws       int       `json:"draws"`
	TrophyDelta int       `json:"trophyDelta"`
	WinRate     float64   `json:"winRate"`
	Sessions    int       `json:"sessions"`
}

// HourStats holds results for one local hour of the day across all days.
type HourStats struct {
	Hour        int     `json:"hour"`
	Battles     int     `json:"battles"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	TrophyDelta int     `json:"trophyDelta"`
	WinRate     float64 `json:"winRate"`
}

// ModeStats holds results for a single game mode.
type ModeStats struct {
	Mode         string  `json:"mode"`
	Battles      int     `json:"battles"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	TrophyDelta  int     `json:"trophyDelta"`
	WinRate      float64 `json:"winRate"`
	SharePercent float64 `json:"sharePercent"`
}
