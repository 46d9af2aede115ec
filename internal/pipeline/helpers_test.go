package pipeline

import (
	"time"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/source"
)

var base = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

// ts returns the compact timestamp offset from base.
func ts(offset time.Duration) string {
	return source.FormatBattleTime(base.Add(offset))
}

type battleOpt func(*model.Battle)

func withChange(v float64) battleOpt {
	return func(b *model.Battle) { b.Team[0].TrophyChange = model.Num(v) }
}

func withStarting(v float64) battleOpt {
	return func(b *model.Battle) { b.Team[0].StartingTrophies = model.Num(v) }
}

func withMode(name string) battleOpt {
	return func(b *model.Battle) { b.GameMode.Name = name }
}

func withRival(tag string) battleOpt {
	return func(b *model.Battle) { b.Opponent[0].Tag = tag }
}

func battle(battleTime string, team, opp float64, opts ...battleOpt) model.Battle {
	b := model.Battle{
		BattleTime: battleTime,
		Team:       []model.Participant{{Tag: "#PLAYER", Crowns: model.Num(team)}},
		Opponent:   []model.Participant{{Tag: "#RIVAL", Crowns: model.Num(opp)}},
	}
	for _, o := range opts {
		o(&b)
	}
	return b
}

func win(battleTime string, opts ...battleOpt) model.Battle {
	return battle(battleTime, 3, 0, append([]battleOpt{withChange(30)}, opts...)...)
}

func loss(battleTime string, opts ...battleOpt) model.Battle {
	return battle(battleTime, 0, 1, append([]battleOpt{withChange(-30)}, opts...)...)
}

func draw(battleTime string) model.Battle {
	return battle(battleTime, 1, 1, withChange(0))
}
