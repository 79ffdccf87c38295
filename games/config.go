package games

import (
	"fmt"
	"time"
)

// Config is resolved once at session creation and frozen with the session.
// Fields not used by a kind are left zero.
type Config struct {
	Kind         Kind       `json:"kind"`
	Difficulty   Difficulty `json:"difficulty"`
	TimeLimitSec int        `json:"time_limit_sec,omitempty"`

	// Board shape (pairs, linkup).
	Rows        int `json:"rows,omitempty"`
	Cols        int `json:"cols,omitempty"`
	PairCount   int `json:"pair_count,omitempty"`
	SymbolCount int `json:"symbol_count,omitempty"`
	MaxMoves    int `json:"max_moves,omitempty"`

	// Scoring constants.
	BaseScore      int `json:"base_score,omitempty"`
	PenaltyPerMove int `json:"penalty_per_move,omitempty"`
	MinScore       int `json:"min_score,omitempty"`
	MaxCombo       int `json:"max_combo,omitempty"`
	HintPenalty    int `json:"hint_penalty,omitempty"`
	ShufflePenalty int `json:"shuffle_penalty,omitempty"`
	MaxHints       int `json:"max_hints,omitempty"`
	MaxShuffles    int `json:"max_shuffles,omitempty"`

	// Pinball envelope.
	BallCount   int     `json:"ball_count,omitempty"`
	SlotPayouts []int   `json:"slot_payouts,omitempty"`
	PinCount    int     `json:"pin_count,omitempty"`
	MinAngle    float64 `json:"min_angle,omitempty"`
	MaxAngle    float64 `json:"max_angle,omitempty"`
	MaxPower    float64 `json:"max_power,omitempty"`
	MinBallMs   int64   `json:"min_ball_ms,omitempty"`
	MaxBallMs   int64   `json:"max_ball_ms,omitempty"`

	// PartialCredit pays valid but incomplete runs.
	PartialCredit bool `json:"partial_credit,omitempty"`
	// HideBoard keeps the board out of start/status responses.
	HideBoard bool `json:"hide_board,omitempty"`
}

// TimeLimit is the playable window; sessions expire a grace period later.
func (c Config) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSec) * time.Second
}

// Cells is the board cell count for grid games.
func (c Config) Cells() int {
	return c.Rows * c.Cols
}

var pinballPayouts = []int{5, 10, 20, 50, 100, 50, 20, 10, 5}

var configTable = map[Kind]map[Difficulty]Config{
	KindPairs: {
		DifficultyEasy:   {Rows: 4, Cols: 4, PairCount: 8, BaseScore: 80, PenaltyPerMove: 1, MinScore: 20, TimeLimitSec: 180},
		DifficultyNormal: {Rows: 4, Cols: 5, PairCount: 10, BaseScore: 120, PenaltyPerMove: 2, MinScore: 30, TimeLimitSec: 240},
		DifficultyHard:   {Rows: 6, Cols: 6, PairCount: 18, BaseScore: 200, PenaltyPerMove: 2, MinScore: 50, TimeLimitSec: 360},
	},
	KindLinkUp: {
		DifficultyEasy:   {Rows: 6, Cols: 8, SymbolCount: 8, TimeLimitSec: 240},
		DifficultyNormal: {Rows: 8, Cols: 10, SymbolCount: 12, TimeLimitSec: 360},
		DifficultyHard:   {Rows: 10, Cols: 12, SymbolCount: 18, TimeLimitSec: 480},
	},
	KindPinball: {
		DifficultyEasy:   {BallCount: 5, TimeLimitSec: 150},
		DifficultyNormal: {BallCount: 4, TimeLimitSec: 120},
		DifficultyHard:   {BallCount: 3, TimeLimitSec: 90},
	},
	KindSlots: {
		DifficultyEasy:   {},
		DifficultyNormal: {},
		DifficultyHard:   {},
	},
}

// ResolveConfig looks up the frozen config for a kind and difficulty.
func ResolveConfig(kind Kind, difficulty Difficulty) (Config, error) {
	rows, ok := configTable[kind]
	if !ok {
		return Config{}, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	cfg, ok := rows[difficulty]
	if !ok {
		return Config{}, fmt.Errorf("%w %q for %s", ErrUnknownDifficulty, difficulty, kind)
	}
	cfg.Kind = kind
	cfg.Difficulty = difficulty

	switch kind {
	case KindPairs:
		cfg.MaxMoves = 10 * cfg.Cells()
	case KindLinkUp:
		cfg.MaxMoves = cfg.Cells()
		cfg.BaseScore = 10
		cfg.MaxCombo = 5
		cfg.HintPenalty = 5
		cfg.ShufflePenalty = 10
		cfg.MaxHints = 3
		cfg.MaxShuffles = 2
	case KindPinball:
		cfg.SlotPayouts = append([]int(nil), pinballPayouts...)
		cfg.PinCount = 24
		cfg.MinAngle = -60
		cfg.MaxAngle = 60
		cfg.MaxPower = 1
		cfg.MinBallMs = 800
		cfg.MaxBallMs = 20_000
		cfg.PartialCredit = true
	}
	return cfg, nil
}
