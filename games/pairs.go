package games

import (
	"encoding/json"
)

// PairMove flips two cards. Matched is the client's optional claim about
// the outcome; when present it must agree with the replay.
type PairMove struct {
	T       int64 `json:"t"`
	First   int   `json:"first"`
	Second  int   `json:"second"`
	Matched *bool `json:"matched,omitempty"`
}

// dealPairs lays out PairCount symbol pairs over the board and shuffles
// them with the board stream.
func dealPairs(cfg Config, seed string) []int {
	cards := make([]int, 0, cfg.PairCount*2)
	for sym := 1; sym <= cfg.PairCount; sym++ {
		cards = append(cards, sym, sym)
	}
	Shuffle(NewStream(seed, OrdinalBoard), cards)
	return cards
}

// PairsScore is max(minScore, base - extraMoves*penalty), where extraMoves
// is the number of flips beyond the pair count.
func PairsScore(cfg Config, moveCount int) int {
	extra := moveCount - cfg.PairCount
	if extra < 0 {
		extra = 0
	}
	score := cfg.BaseScore - extra*cfg.PenaltyPerMove
	if score < cfg.MinScore {
		score = cfg.MinScore
	}
	return score
}

// PairsJudge replays memory-pairs flips against the dealt cards.
type PairsJudge struct{}

func (PairsJudge) Kind() Kind { return KindPairs }

func (PairsJudge) Evaluate(cfg Config, state ServerState, raw json.RawMessage, _ Claim) Verdict {
	var moves []PairMove
	if err := json.Unmarshal(raw, &moves); err != nil {
		return invalid("decode moves: %v", err)
	}
	if len(state.Cards) != cfg.PairCount*2 {
		return invalid("board has %d cards, config wants %d", len(state.Cards), cfg.PairCount*2)
	}
	if cfg.MaxMoves > 0 && len(moves) > cfg.MaxMoves {
		return invalid("%d moves exceeds limit %d", len(moves), cfg.MaxMoves)
	}

	stamps := make([]int64, len(moves))
	for i, m := range moves {
		stamps[i] = m.T
	}
	if reason := checkTimeline(cfg, stamps); reason != "" {
		return invalid("%s", reason)
	}

	removed := make([]bool, len(state.Cards))
	remaining := cfg.PairCount
	for i, m := range moves {
		if remaining == 0 {
			return invalid("move %d after board cleared", i)
		}
		if m.First < 0 || m.First >= len(state.Cards) || m.Second < 0 || m.Second >= len(state.Cards) {
			return invalid("move %d: card index out of range", i)
		}
		if m.First == m.Second {
			return invalid("move %d: flipped the same card twice", i)
		}
		if removed[m.First] || removed[m.Second] {
			return invalid("move %d: flipped a removed card", i)
		}
		matched := state.Cards[m.First] == state.Cards[m.Second]
		if m.Matched != nil && *m.Matched != matched {
			return invalid("move %d: claimed matched=%t, replay says %t", i, *m.Matched, matched)
		}
		if matched {
			removed[m.First] = true
			removed[m.Second] = true
			remaining--
		}
	}

	return Verdict{Valid: true, Completed: remaining == 0, Score: PairsScore(cfg, len(moves))}
}
