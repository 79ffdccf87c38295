package games

import (
	"encoding/json"
	"fmt"
)

// ServerState is everything a judge needs that the client must not forge.
// It is generated once from the session seed and never mutated.
type ServerState struct {
	Seed       string    `json:"seed"`
	Cards      []int     `json:"cards,omitempty"`
	Grid       [][]int   `json:"grid,omitempty"`
	PinOffsets []float64 `json:"pin_offsets,omitempty"`
}

// Board is the client-visible part of ServerState.
type Board struct {
	Cards      []int     `json:"cards,omitempty"`
	Grid       [][]int   `json:"grid,omitempty"`
	PinOffsets []float64 `json:"pin_offsets,omitempty"`
}

// Public strips the seed.
func (s ServerState) Public() Board {
	return Board{Cards: s.Cards, Grid: s.Grid, PinOffsets: s.PinOffsets}
}

// NewServerState derives the initial board for cfg from seed. The result is
// a pure function of (cfg, seed).
func NewServerState(cfg Config, seed string) (ServerState, error) {
	state := ServerState{Seed: seed}
	switch cfg.Kind {
	case KindPairs:
		state.Cards = dealPairs(cfg, seed)
	case KindLinkUp:
		grid, err := dealLinkUp(cfg, seed)
		if err != nil {
			return ServerState{}, err
		}
		state.Grid = grid
	case KindPinball:
		state.PinOffsets = pinOffsets(cfg, seed)
	default:
		return ServerState{}, fmt.Errorf("%s has no session board", cfg.Kind)
	}
	return state, nil
}

// Claim is what the client says happened. Discrete judges ignore the score
// and recompute it; the pinball judge cross-checks it.
type Claim struct {
	Score      int   `json:"score"`
	Completed  bool  `json:"completed"`
	DurationMs int64 `json:"duration_ms"`
}

// Verdict is the judge's ruling. Reason is for server logs only.
type Verdict struct {
	Score     int    `json:"score"`
	Completed bool   `json:"completed"`
	Valid     bool   `json:"valid"`
	Reason    string `json:"-"`
}

// Payable is the part of the score the ledger may credit. An incomplete run
// pays only when its config grants partial credit.
func (v Verdict) Payable(cfg Config) int {
	if !v.Valid {
		return 0
	}
	if v.Completed || cfg.PartialCredit {
		return v.Score
	}
	return 0
}

func invalid(format string, args ...any) Verdict {
	return Verdict{Valid: false, Reason: fmt.Sprintf(format, args...)}
}

// Judge evaluates a move log against the frozen config and server state.
// Implementations must be pure.
type Judge interface {
	Kind() Kind
	Evaluate(cfg Config, state ServerState, moves json.RawMessage, claim Claim) Verdict
}

// Judges maps each session-based kind to its judge.
type Judges map[Kind]Judge

// DefaultJudges returns the judges for every session-based kind.
func DefaultJudges() Judges {
	js := Judges{}
	for _, j := range []Judge{PairsJudge{}, LinkUpJudge{}, PinballJudge{}} {
		js[j.Kind()] = j
	}
	return js
}

// Evaluate dispatches to the judge for cfg.Kind.
func (js Judges) Evaluate(cfg Config, state ServerState, moves json.RawMessage, claim Claim) (Verdict, error) {
	j, ok := js[cfg.Kind]
	if !ok {
		return Verdict{}, fmt.Errorf("no judge registered for %s", cfg.Kind)
	}
	return j.Evaluate(cfg, state, moves, claim), nil
}

// checkTimeline enforces non-decreasing timestamps within the time limit.
func checkTimeline(cfg Config, timestamps []int64) string {
	limit := cfg.TimeLimit().Milliseconds()
	var prev int64
	for i, t := range timestamps {
		if t < 0 || t < prev {
			return fmt.Sprintf("move %d: timestamp %d goes backwards", i, t)
		}
		if limit > 0 && t > limit {
			return fmt.Sprintf("move %d: timestamp %d past time limit %d", i, t, limit)
		}
		prev = t
	}
	return ""
}
