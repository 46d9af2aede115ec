package pipeline

import (
	"slices"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
)

// DefaultMaxGap is the largest pause between two battles of one session.
const DefaultMaxGap = 30 * time.Minute

// DefaultMinPushBattles is the smallest session counted as a push.
const DefaultMinPushBattles = 2

// SegmentOptions controls session grouping.
type SegmentOptions struct {
	MaxGap     time.Duration // <= 0 means DefaultMaxGap
	RawWinRate bool          // keep win rate unrounded
}

// Segment groups battles into sessions separated by more than maxGap, using
// DefaultMaxGap when maxGap <= 0. See SegmentWith.
func Segment(battles []model.Battle, maxGap time.Duration) []model.Session {
	return SegmentWith(battles, SegmentOptions{MaxGap: maxGap})
}

// SegmentWith groups battles given in any order into sessions. Battles with
// unparseable timestamps are dropped. Sessions are returned newest first;
// battles inside each session are oldest first. Empty input yields an empty,
// non-nil slice.
func SegmentWith(battles []model.Battle, opts SegmentOptions) []model.Session {
	gap := opts.MaxGap
	if gap <= 0 {
		gap = DefaultMaxGap
	}

	tbs := chronological(battles)
	sessions := make([]model.Session, 0)
	if len(tbs) == 0 {
		return sessions
	}
	outcomes := classifyChronological(tbs)

	start := 0
	for i := 1; i <= len(tbs); i++ {
		if i < len(tbs) && tbs[i].at.Sub(tbs[i-1].at) <= gap {
			continue
		}
		sessions = append(sessions, buildSession(tbs[start:i], outcomes[start:i], opts.RawWinRate))
		start = i
	}

	slices.Reverse(sessions)
	return sessions
}

func buildSession(tbs []timedBattle, outcomes []model.Outcome, rawWinRate bool) model.Session {
	s := model.Session{
		Start:       tbs[0].at,
		End:         tbs[len(tbs)-1].at,
		BattleCount: len(tbs),
		Battles:     make([]model.Battle, len(tbs)),
	}
	for i, tb := range tbs {
		s.Battles[i] = tb.battle
		switch outcomes[i].Result {
		case model.Win:
			s.Wins++
		case model.Loss:
			s.Losses++
		default:
			s.Draws++
		}
		s.TrophyDelta += outcomes[i].TrophyDelta
	}
	s.WinRate = winRate(s.Wins, s.Losses, rawWinRate)
	return s
}

// Pushes keeps sessions with at least minBattles battles, preserving order.
// minBattles <= 0 means DefaultMinPushBattles.
func Pushes(sessions []model.Session, minBattles int) []model.Session {
	if minBattles <= 0 {
		minBattles = DefaultMinPushBattles
	}
	out := make([]model.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.BattleCount >= minBattles {
			out = append(out, s)
		}
	}
	return out
}
