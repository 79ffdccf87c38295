package games

import (
	"encoding/json"
)

// BallResult is the client's report for one launched ball.
type BallResult struct {
	T          int64   `json:"t"`
	Angle      float64 `json:"angle"`
	Power      float64 `json:"power"`
	Slot       int     `json:"slot"`
	DurationMs int64   `json:"duration_ms"`
}

// pinOffsets jitters each pin by up to half a pin spacing. The client
// renders these; the judge never re-simulates them.
func pinOffsets(cfg Config, seed string) []float64 {
	s := NewStream(seed, OrdinalPins)
	offsets := make([]float64, cfg.PinCount)
	for i := range offsets {
		offsets[i] = s.Float() - 0.5
	}
	return offsets
}

// MaxPinballScore is the best achievable total for a full run.
func MaxPinballScore(cfg Config) int {
	best := 0
	for _, p := range cfg.SlotPayouts {
		best = max(best, p)
	}
	return best * cfg.BallCount
}

// PinballJudge only bounds-checks: the physics runs on the client and the
// server cannot re-simulate it, so slot outcomes are trusted as long as
// every ball, the total score and the elapsed time stay inside what the
// payout table and launch envelope allow.
type PinballJudge struct{}

func (PinballJudge) Kind() Kind { return KindPinball }

func (PinballJudge) Evaluate(cfg Config, _ ServerState, raw json.RawMessage, claim Claim) Verdict {
	var balls []BallResult
	if err := json.Unmarshal(raw, &balls); err != nil {
		return invalid("decode balls: %v", err)
	}
	if len(balls) > cfg.BallCount {
		return invalid("%d balls reported, only %d available", len(balls), cfg.BallCount)
	}

	stamps := make([]int64, len(balls))
	for i, b := range balls {
		stamps[i] = b.T
	}
	if reason := checkTimeline(cfg, stamps); reason != "" {
		return invalid("%s", reason)
	}

	score := 0
	var flight, prevEnd int64
	for i, b := range balls {
		if b.Angle < cfg.MinAngle || b.Angle > cfg.MaxAngle {
			return invalid("ball %d: angle %.2f out of range", i, b.Angle)
		}
		if b.Power <= 0 || b.Power > cfg.MaxPower {
			return invalid("ball %d: power %.2f out of range", i, b.Power)
		}
		if b.Slot < 0 || b.Slot >= len(cfg.SlotPayouts) {
			return invalid("ball %d: slot %d not on the payout table", i, b.Slot)
		}
		if b.DurationMs < cfg.MinBallMs || b.DurationMs > cfg.MaxBallMs {
			return invalid("ball %d: flight %dms outside [%d, %d]", i, b.DurationMs, cfg.MinBallMs, cfg.MaxBallMs)
		}
		// A ball cannot be launched before the previous one landed.
		if b.T < prevEnd {
			return invalid("ball %d: launched at %d before previous landed at %d", i, b.T, prevEnd)
		}
		prevEnd = b.T + b.DurationMs
		flight += b.DurationMs
		score += cfg.SlotPayouts[b.Slot]
	}

	limit := cfg.TimeLimit().Milliseconds()
	if flight > limit || prevEnd > limit {
		return invalid("flight time %dms exceeds limit %dms", max(flight, prevEnd), limit)
	}
	if claim.DurationMs != 0 && (claim.DurationMs < flight || claim.DurationMs > limit) {
		return invalid("claimed duration %dms outside [%d, %d]", claim.DurationMs, flight, limit)
	}
	if score > MaxPinballScore(cfg) {
		return invalid("score %d above table maximum", score)
	}
	if claim.Score != 0 && claim.Score != score {
		return invalid("claimed score %d, slots add up to %d", claim.Score, score)
	}

	return Verdict{Valid: true, Completed: len(balls) == cfg.BallCount, Score: score}
}
