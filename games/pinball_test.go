package games

import (
	"encoding/json"
	"testing"
)

func pinballRun(slots ...int) []BallResult {
	balls := make([]BallResult, len(slots))
	for i, s := range slots {
		balls[i] = BallResult{T: int64(i) * 3000, Angle: 10, Power: 0.8, Slot: s, DurationMs: 2000}
	}
	return balls
}

func TestPinballJudge(t *testing.T) {
	cfg, err := ResolveConfig(KindPinball, DifficultyEasy)
	if err != nil {
		t.Fatalf("ResolveConfig: %v", err)
	}
	state, _ := NewServerState(cfg, "pins")
	if len(state.PinOffsets) != cfg.PinCount {
		t.Fatalf("pin offsets = %d, want %d", len(state.PinOffsets), cfg.PinCount)
	}

	overlap := pinballRun(4, 4)
	overlap[1].T = 1000

	badAngle := pinballRun(4)
	badAngle[0].Angle = 75

	tooFast := pinballRun(4)
	tooFast[0].DurationMs = 100

	tests := []struct {
		name          string
		balls         []BallResult
		claim         Claim
		wantValid     bool
		wantCompleted bool
		wantScore     int
	}{
		{"full run", pinballRun(4, 4, 3, 5, 0), Claim{Score: 305}, true, true, 305},
		{"full run without claim", pinballRun(0, 1, 2, 3, 4), Claim{}, true, true, 185},
		{"partial run pays", pinballRun(4, 3), Claim{Score: 150}, true, false, 150},
		{"claim disagrees with slots", pinballRun(4, 4, 3, 5, 0), Claim{Score: 500}, false, false, 0},
		{"slot off the table", pinballRun(9), Claim{}, false, false, 0},
		{"too many balls", pinballRun(0, 0, 0, 0, 0, 0), Claim{}, false, false, 0},
		{"launch before landing", overlap, Claim{}, false, false, 0},
		{"angle out of range", badAngle, Claim{}, false, false, 0},
		{"implausibly short flight", tooFast, Claim{}, false, false, 0},
		{"claimed duration below flight time", pinballRun(4, 4), Claim{DurationMs: 1000}, false, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, _ := json.Marshal(tt.balls)
			v := PinballJudge{}.Evaluate(cfg, state, raw, tt.claim)
			if v.Valid != tt.wantValid || v.Completed != tt.wantCompleted || v.Score != tt.wantScore {
				t.Errorf("verdict = %+v (%s), want valid=%t completed=%t score=%d",
					v, v.Reason, tt.wantValid, tt.wantCompleted, tt.wantScore)
			}
		})
	}
}

func TestMaxPinballScore(t *testing.T) {
	cfg, _ := ResolveConfig(KindPinball, DifficultyHard)
	if got := MaxPinballScore(cfg); got != 300 {
		t.Errorf("MaxPinballScore = %d, want 300", got)
	}
}
