package pipeline

import (
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
	"github.com/theirongolddev/crpush/internal/source"
)

// PlausibleTrophyBound is the largest per-battle trophy swing accepted from
// the provider or reconstructed from starting trophies. Anything outside
// ±PlausibleTrophyBound falls through to the fixed estimate. It may need to
// vary per game mode.
const PlausibleTrophyBound = 60

// Fixed trophy estimates used when no plausible delta is available.
const (
	FallbackWinDelta  = 30
	FallbackLossDelta = -30
)

// Classify derives the result and trophy delta of b. next is the battle that
// followed b chronologically, if known; it is only used to reconstruct the
// delta from starting trophies.
func Classify(b model.Battle, next *model.Battle) model.Outcome {
	result := ResultOf(b)
	return model.Outcome{Result: result, TrophyDelta: trophyDelta(b, next, result)}
}

// ResultOf compares the primary participants' crowns. Missing or negative
// crown counts are treated as zero.
func ResultOf(b model.Battle) model.Result {
	team, opp := crowns(b.Player()), crowns(b.Rival())
	switch {
	case team > opp:
		return model.Win
	case team < opp:
		return model.Loss
	default:
		return model.Draw
	}
}

func crowns(p model.Participant) float64 {
	if !p.Crowns.Valid || p.Crowns.Value < 0 {
		return 0
	}
	return p.Crowns.Value
}

func trophyDelta(b model.Battle, next *model.Battle, result model.Result) int {
	if tc := b.Player().TrophyChange; tc.Valid && plausible(tc.Value) {
		return int(math.Round(tc.Value))
	}

	if next != nil {
		cur, nxt := b.Player().StartingTrophies, next.Player().StartingTrophies
		if cur.Valid && nxt.Valid {
			if d := nxt.Value - cur.Value; plausible(d) {
				return int(math.Round(d))
			}
		}
	}

	switch result {
	case model.Win:
		return FallbackWinDelta
	case model.Loss:
		return FallbackLossDelta
	default:
		return 0
	}
}

func plausible(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= PlausibleTrophyBound
}

// timedBattle pairs a battle with its parsed instant.
type timedBattle struct {
	battle model.Battle
	at     time.Time
}

// chronological drops battles with unparseable timestamps and stable-sorts
// the rest oldest first, so equal instants keep their input order.
func chronological(battles []model.Battle) []timedBattle {
	out := make([]timedBattle, 0, len(battles))
	for _, b := range battles {
		if at, ok := source.ParseBattleTime(b.BattleTime); ok {
			out = append(out, timedBattle{battle: b, at: at})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out
}

// classifyChronological classifies each battle of an oldest-first list, using
// its successor for starting-trophy reconstruction.
func classifyChronological(tbs []timedBattle) []model.Outcome {
	outcomes := make([]model.Outcome, len(tbs))
	for i := range tbs {
		var next *model.Battle
		if i+1 < len(tbs) {
			next = &tbs[i+1].battle
		}
		outcomes[i] = Classify(tbs[i].battle, next)
	}
	return outcomes
}

// winRate returns wins / (wins+losses) as a percent, 0 without decisive games.
func winRate(wins, losses int, raw bool) float64 {
	if wins+losses == 0 {
		return 0
	}
	r := float64(wins) / float64(wins+losses) * 100
	if raw {
		return r
	}
	return math.Round(r)
}
