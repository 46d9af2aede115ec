package model

import "time"

// Arena is the ladder arena a player currently sits in.
type Arena struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Player is the profile returned by the upstream provider.
type Player struct {
	Tag          string    `json:"tag"`
	Name         string    `json:"name"`
	Trophies     int       `json:"trophies"`
	BestTrophies int       `json:"bestTrophies"`
	ExpLevel     int       `json:"expLevel"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	Arena        Arena     `json:"arena"`
	FetchedAt    time.Time `json:"fetchedAt,omitzero"`
}
