package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/crpush/internal/model"
)

// newestFirstResults builds battles one minute apart from a newest-first
// result string such as "LLLW". The newest battle sits at base.
func newestFirstResults(results string) []model.Battle {
	battles := make([]model.Battle, 0, len(results))
	for i, r := range results {
		at := ts(-time.Duration(i) * time.Minute)
		switch r {
		case 'W':
			battles = append(battles, win(at))
		case 'L':
			battles = append(battles, loss(at))
		default:
			battles = append(battles, draw(at))
		}
	}
	return battles
}

func TestComputeStreak(t *testing.T) {
	tests := []struct {
		results string
		want    model.Streak
	}{
		{"LLLW", model.Streak{Type: model.StreakLoss, Count: 3}},
		{"WWDW", model.Streak{Type: model.StreakWin, Count: 2}},
		{"W", model.Streak{Type: model.StreakWin, Count: 1}},
		{"DWWW", model.Streak{Type: model.StreakNone, Count: 0}},
		{"LWLL", model.Streak{Type: model.StreakLoss, Count: 1}},
		{"", model.Streak{Type: model.StreakNone, Count: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.results, func(t *testing.T) {
			if got := ComputeStreak(newestFirstResults(tt.results)); got != tt.want {
				t.Errorf("ComputeStreak(%s) = %+v, want %+v", tt.results, got, tt.want)
			}
		})
	}
}

func TestComputeTiltState_LosingRunDecay(t *testing.T) {
	battles := newestFirstResults("WWWLLLLLWW")
	now := base.Add(7 * time.Hour)

	st := ComputeTiltState(battles, now)
	if st.BaseLevel != model.TiltHigh || st.BaseRisk != 100 {
		t.Errorf("base = %s/%d, want high/100", st.BaseLevel, st.BaseRisk)
	}
	if st.LongestLossRun != 5 {
		t.Errorf("LongestLossRun = %d, want 5", st.LongestLossRun)
	}
	if st.DecayStage != model.Decay6h || st.Risk != 40 || st.Level != model.TiltMedium {
		t.Errorf("decayed = %s/%d/%s, want 6h/40/medium", st.DecayStage, st.Risk, st.Level)
	}
	if st.Alert {
		t.Error("Alert should be false at medium")
	}
	if st.HoursSinceLastBattle == nil || *st.HoursSinceLastBattle != 7 {
		t.Errorf("HoursSinceLastBattle = %v, want 7", st.HoursSinceLastBattle)
	}
}

func TestComputeTiltState_DecayStages(t *testing.T) {
	battles := newestFirstResults("LLLWWWWWWW")

	tests := []struct {
		elapsed time.Duration
		stage   model.DecayStage
		risk    int
		level   model.TiltLevel
		alert   bool
	}{
		{0, model.DecayNone, 100, model.TiltHigh, true},
		{119 * time.Minute, model.DecayNone, 100, model.TiltHigh, true},
		{2 * time.Hour, model.Decay2h, 70, model.TiltHigh, true},
		{5*time.Hour + 59*time.Minute, model.Decay2h, 70, model.TiltHigh, true},
		{6 * time.Hour, model.Decay6h, 40, model.TiltMedium, false},
		{12 * time.Hour, model.Decay12h, 0, model.TiltNone, false},
		{-time.Hour, model.DecayNone, 100, model.TiltHigh, true},
	}

	for _, tt := range tests {
		t.Run(tt.elapsed.String(), func(t *testing.T) {
			st := ComputeTiltState(battles, base.Add(tt.elapsed))
			if st.DecayStage != tt.stage || st.Risk != tt.risk || st.Level != tt.level || st.Alert != tt.alert {
				t.Errorf("got %s/%d/%s/%v, want %s/%d/%s/%v",
					st.DecayStage, st.Risk, st.Level, st.Alert, tt.stage, tt.risk, tt.level, tt.alert)
			}
		})
	}
}

func TestComputeTiltState_BaseLevels(t *testing.T) {
	tests := []struct {
		name    string
		battles []model.Battle
		level   model.TiltLevel
		risk    int
	}{
		{"empty", nil, model.TiltNone, 0},
		{"winning", newestFirstResults("WWWWWLWWWW"), model.TiltNone, 0},
		{"low win rate and net loss", newestFirstResults("LLWLLWLLWL"), model.TiltHigh, 100},
		{"coin flip with net loss", alternating(5, 20, -30), model.TiltMedium, 60},
		{"coin flip with net gain", alternating(5, 30, -20), model.TiltNone, 0},
		{"older losses outside window", newestFirstResults("WWWWWWWWWWLLLLL"), model.TiltNone, 0},
		{"draws break losing runs", newestFirstResults("LLDLLDWWWW"), model.TiltNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := ComputeTiltState(tt.battles, base)
			if st.BaseLevel != tt.level || st.BaseRisk != tt.risk {
				t.Errorf("base = %s/%d, want %s/%d (wins %d, net %d, run %d)",
					st.BaseLevel, st.BaseRisk, tt.level, tt.risk, st.Wins, st.NetTrophyDelta, st.LongestLossRun)
			}
			if st.WindowSize > TiltWindow {
				t.Errorf("WindowSize = %d exceeds %d", st.WindowSize, TiltWindow)
			}
		})
	}
}

// alternating returns 2n newest-first battles W,L,W,L... with the given deltas.
func alternating(n int, winDelta, lossDelta float64) []model.Battle {
	var battles []model.Battle
	for i := 0; i < 2*n; i++ {
		at := ts(-time.Duration(i) * time.Minute)
		if i%2 == 0 {
			battles = append(battles, battle(at, 2, 1, withChange(winDelta)))
		} else {
			battles = append(battles, battle(at, 1, 2, withChange(lossDelta)))
		}
	}
	return battles
}

func TestComputeTiltState_NoValidTimestamp(t *testing.T) {
	battles := []model.Battle{loss("x"), loss("y"), loss("z")}
	st := ComputeTiltState(battles, base)
	if st.HoursSinceLastBattle != nil {
		t.Errorf("HoursSinceLastBattle = %v, want nil", *st.HoursSinceLastBattle)
	}
	if st.Risk != 0 || st.Level != model.TiltNone || st.Alert || st.DecayStage != model.DecayNone {
		t.Errorf("decayed = %+v, want no tilt", st)
	}
	if st.BaseLevel != model.TiltHigh {
		t.Errorf("BaseLevel = %s, want high from three losses", st.BaseLevel)
	}
}

func TestComputeTiltState_Idempotent(t *testing.T) {
	battles := newestFirstResults("LLWLDLWW")
	a := ComputeTiltState(battles, base.Add(3*time.Hour))
	b := ComputeTiltState(battles, base.Add(3*time.Hour))
	if *a.HoursSinceLastBattle != *b.HoursSinceLastBattle {
		t.Fatal("elapsed hours differ between calls")
	}
	a.HoursSinceLastBattle, b.HoursSinceLastBattle = nil, nil
	if a != b {
		t.Errorf("ComputeTiltState not idempotent: %+v vs %+v", a, b)
	}
}

func TestLatestBattleTime(t *testing.T) {
	if _, ok := LatestBattleTime([]model.Battle{win("broken")}); ok {
		t.Error("no parseable battle should report ok=false")
	}
	// Input order does not matter and unparseable records are skipped.
	got, ok := LatestBattleTime([]model.Battle{
		loss(ts(5 * time.Minute)),
		win("broken"),
		win(ts(20 * time.Minute)),
		draw(ts(10 * time.Minute)),
	})
	if !ok || !got.Equal(base.Add(20*time.Minute)) {
		t.Errorf("LatestBattleTime = %v, %v; want %v", got, ok, base.Add(20*time.Minute))
	}
}
