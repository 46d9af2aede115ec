// Package model defines domain types for crpush battles, sessions and stats.
package model

import (
	"encoding/json"
	"math"
)

// Number is a JSON number that tolerates absent, null or mistyped values.
// A value that is not a finite number decodes as absent rather than failing
// the surrounding record.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a present Number.
func Num(v float64) Number { return Number{Value: v, Valid: true} }

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Number{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = Number{}
		return nil
	}
	*n = Number{Value: f, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// IsZero reports whether the number is absent, so omitzero drops it.
func (n Number) IsZero() bool { return !n.Valid }

// Participant is one side of a battle as reported by the battle log.
type Participant struct {
	Tag              string `json:"tag,omitempty"`
	Name             string `json:"name,omitempty"`
	Crowns           Number `json:"crowns,omitzero"`
	TrophyChange     Number `json:"trophyChange,omitzero"`
	StartingTrophies Number `json:"startingTrophies,omitzero"`
}

// GameMode identifies the ruleset a battle was played under.
type GameMode struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Battle is one raw battle-log record. Only index 0 of Team and Opponent is
// read; records are never mutated after decoding.
type Battle struct {
	BattleTime string        `json:"battleTime"`
	Type       string        `json:"type,omitempty"`
	GameMode   GameMode      `json:"gameMode,omitzero"`
	Team       []Participant `json:"team"`
	Opponent   []Participant `json:"opponent"`
}

// Player returns the primary participant, or a zero Participant.
func (b Battle) Player() Participant {
	if len(b.Team) == 0 {
		return Participant{}
	}
	return b.Team[0]
}

// Rival returns the primary opponent, or a zero Participant.
func (b Battle) Rival() Participant {
	if len(b.Opponent) == 0 {
		return Participant{}
	}
	return b.Opponent[0]
}

// Result is the outcome of a battle from the player's side.
type Result string

const (
	Win  Result = "win"
	Loss Result = "loss"
	Draw Result = "draw"
)

// Outcome is the classification of a single battle.
type Outcome struct {
	Result      Result `json:"result"`
	TrophyDelta int    `json:"trophyDelta"`
}
