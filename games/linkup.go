package games

import (
	"encoding/json"
	"fmt"
)

// Point addresses a board cell.
type Point struct {
	R int `json:"r"`
	C int `json:"c"`
}

const (
	LinkMatch   = "match"
	LinkHint    = "hint"
	LinkShuffle = "shuffle"
)

// LinkMove is one entry of a tile-connect log. Match entries carry two
// points and the client's claim. Shuffle entries carry nothing: the new
// layout is derived from the session seed (see ShuffleRemaining).
type LinkMove struct {
	T       int64  `json:"t"`
	Type    string `json:"type"`
	A       Point  `json:"a"`
	B       Point  `json:"b"`
	Matched *bool  `json:"matched,omitempty"`
}

func dealLinkUp(cfg Config, seed string) ([][]int, error) {
	cells := cfg.Cells()
	if cells == 0 || cells%2 != 0 {
		return nil, fmt.Errorf("linkup board %dx%d must have an even cell count", cfg.Rows, cfg.Cols)
	}
	tiles := make([]int, 0, cells)
	for i := 0; i < cells/2; i++ {
		sym := i%cfg.SymbolCount + 1
		tiles = append(tiles, sym, sym)
	}
	Shuffle(NewStream(seed, OrdinalBoard), tiles)

	grid := make([][]int, cfg.Rows)
	for r := range grid {
		grid[r] = tiles[r*cfg.Cols : (r+1)*cfg.Cols : (r+1)*cfg.Cols]
	}
	return grid, nil
}

// linkBoard is the grid padded with one empty ring so paths may leave the
// board's extent.
type linkBoard struct {
	rows, cols int
	cells      [][]int
}

func newLinkBoard(grid [][]int) *linkBoard {
	rows := len(grid)
	cols := 0
	if rows > 0 {
		cols = len(grid[0])
	}
	cells := make([][]int, rows+2)
	for r := range cells {
		cells[r] = make([]int, cols+2)
	}
	for r, row := range grid {
		copy(cells[r+1][1:], row)
	}
	return &linkBoard{rows: rows, cols: cols, cells: cells}
}

func (b *linkBoard) inBoard(p Point) bool {
	return p.R >= 0 && p.R < b.rows && p.C >= 0 && p.C < b.cols
}

func (b *linkBoard) at(p Point) int { return b.cells[p.R+1][p.C+1] }

func (b *linkBoard) set(p Point, v int) { b.cells[p.R+1][p.C+1] = v }

// inRing reports whether p lies on the board or its padding ring.
func (b *linkBoard) inRing(p Point) bool {
	return p.R >= -1 && p.R <= b.rows && p.C >= -1 && p.C <= b.cols
}

func (b *linkBoard) empty(p Point) bool {
	return b.inRing(p) && b.at(p) == 0
}

// straight reports whether a and b share a row or column with only empty
// cells strictly between them.
func (b *linkBoard) straight(p, q Point) bool {
	switch {
	case p.R == q.R:
		lo, hi := min(p.C, q.C), max(p.C, q.C)
		for c := lo + 1; c < hi; c++ {
			if !b.empty(Point{p.R, c}) {
				return false
			}
		}
		return true
	case p.C == q.C:
		lo, hi := min(p.R, q.R), max(p.R, q.R)
		for r := lo + 1; r < hi; r++ {
			if !b.empty(Point{r, p.C}) {
				return false
			}
		}
		return true
	}
	return false
}

// oneTurn tries both L-shaped paths.
func (b *linkBoard) oneTurn(p, q Point) bool {
	for _, corner := range []Point{{p.R, q.C}, {q.R, p.C}} {
		if b.empty(corner) && b.straight(p, corner) && b.straight(corner, q) {
			return true
		}
	}
	return false
}

// connectable implements the link-up rule: a path of at most three
// axis-aligned segments (two turns) through empty cells, where the ring
// around the board counts as empty.
func (b *linkBoard) connectable(p, q Point) bool {
	if b.straight(p, q) || b.oneTurn(p, q) {
		return true
	}
	for _, d := range []Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		for cur := (Point{p.R + d.R, p.C + d.C}); b.empty(cur); cur = (Point{cur.R + d.R, cur.C + d.C}) {
			if b.oneTurn(cur, q) {
				return true
			}
		}
	}
	return false
}

// CanConnect reports whether the tiles at a and b may be removed together.
func CanConnect(grid [][]int, a, b Point) bool {
	board := newLinkBoard(grid)
	if !board.inBoard(a) || !board.inBoard(b) || a == b {
		return false
	}
	if board.at(a) == 0 || board.at(a) != board.at(b) {
		return false
	}
	return board.connectable(a, b)
}

// ComboMultiplier grows with consecutive matches up to the cap.
func ComboMultiplier(run, maxCombo int) int {
	if run < 1 {
		return 1
	}
	if maxCombo > 0 && run > maxCombo {
		return maxCombo
	}
	return run
}

// LinkUpJudge replays a tile-connect log and is authoritative for both the
// connectivity of each match and the score.
type LinkUpJudge struct{}

func (LinkUpJudge) Kind() Kind { return KindLinkUp }

func (LinkUpJudge) Evaluate(cfg Config, state ServerState, raw json.RawMessage, _ Claim) Verdict {
	var moves []LinkMove
	if err := json.Unmarshal(raw, &moves); err != nil {
		return invalid("decode moves: %v", err)
	}
	r, reason := replayLinkUp(cfg, state, moves)
	if reason != "" {
		return invalid("%s", reason)
	}

	score := r.gross - r.hints*cfg.HintPenalty - r.shuffles*cfg.ShufflePenalty
	if score < 0 {
		score = 0
	}
	return Verdict{Valid: true, Completed: r.remaining == 0, Score: score}
}

// LinkUpBoard replays a partial log and returns the board the client should
// now show. Clients call it after a shuffle to learn the new layout.
func LinkUpBoard(cfg Config, state ServerState, raw json.RawMessage) ([][]int, error) {
	var moves []LinkMove
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &moves); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMoveLog, err)
		}
	}
	r, reason := replayLinkUp(cfg, state, moves)
	if reason != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMoveLog, reason)
	}
	return r.board.grid(), nil
}

type linkReplay struct {
	board     *linkBoard
	gross     int
	hints     int
	shuffles  int
	remaining int
}

func replayLinkUp(cfg Config, state ServerState, moves []LinkMove) (linkReplay, string) {
	if len(state.Grid) != cfg.Rows {
		return linkReplay{}, fmt.Sprintf("board has %d rows, config wants %d", len(state.Grid), cfg.Rows)
	}
	for _, row := range state.Grid {
		if len(row) != cfg.Cols {
			return linkReplay{}, fmt.Sprintf("board row has %d cols, config wants %d", len(row), cfg.Cols)
		}
	}
	if limit := cfg.MaxMoves + cfg.MaxHints + cfg.MaxShuffles; len(moves) > limit {
		return linkReplay{}, fmt.Sprintf("%d entries exceeds limit %d", len(moves), limit)
	}

	stamps := make([]int64, len(moves))
	for i, m := range moves {
		stamps[i] = m.T
	}
	if reason := checkTimeline(cfg, stamps); reason != "" {
		return linkReplay{}, reason
	}

	r := linkReplay{board: newLinkBoard(state.Grid), remaining: cfg.Cells()}
	var run, matchMoves int
	for i, m := range moves {
		switch m.Type {
		case LinkMatch, "":
			matchMoves++
			if matchMoves > cfg.MaxMoves {
				return r, fmt.Sprintf("move %d: more match attempts than cells", i)
			}
			if !r.board.inBoard(m.A) || !r.board.inBoard(m.B) || m.A == m.B {
				return r, fmt.Sprintf("move %d: bad coordinates", i)
			}
			if m.Matched != nil && !*m.Matched {
				run = 0
				continue
			}
			sa, sb := r.board.at(m.A), r.board.at(m.B)
			if sa == 0 || sb == 0 {
				return r, fmt.Sprintf("move %d: tile already removed", i)
			}
			if sa != sb {
				return r, fmt.Sprintf("move %d: symbols %d and %d differ", i, sa, sb)
			}
			if !r.board.connectable(m.A, m.B) {
				return r, fmt.Sprintf("move %d: no path with at most two turns", i)
			}
			r.board.set(m.A, 0)
			r.board.set(m.B, 0)
			r.remaining -= 2
			run++
			r.gross += cfg.BaseScore * ComboMultiplier(run, cfg.MaxCombo)
		case LinkHint:
			r.hints++
			if r.hints > cfg.MaxHints {
				return r, fmt.Sprintf("move %d: hint limit %d exceeded", i, cfg.MaxHints)
			}
		case LinkShuffle:
			if r.shuffles >= cfg.MaxShuffles {
				return r, fmt.Sprintf("move %d: shuffle limit %d exceeded", i, cfg.MaxShuffles)
			}
			r.board.shuffle(state.Seed, r.shuffles)
			r.shuffles++
			run = 0
		default:
			return r, fmt.Sprintf("move %d: unknown type %q", i, m.Type)
		}
	}
	return r, ""
}

// ShuffleRemaining is the k-th shuffle (k from 0) of grid: the remaining
// tiles, read in row-major order, are permuted by the stream for
// (seed, OrdinalShuffle+k) and written back over the same occupied cells.
func ShuffleRemaining(grid [][]int, seed string, k int) [][]int {
	b := newLinkBoard(grid)
	b.shuffle(seed, k)
	return b.grid()
}

func (b *linkBoard) shuffle(seed string, k int) {
	var cells []Point
	var tiles []int
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			p := Point{r, c}
			if sym := b.at(p); sym != 0 {
				cells = append(cells, p)
				tiles = append(tiles, sym)
			}
		}
	}
	Shuffle(NewStream(seed, OrdinalShuffle+uint64(k)), tiles)
	for i, p := range cells {
		b.set(p, tiles[i])
	}
}

// grid copies the board without its padding ring.
func (b *linkBoard) grid() [][]int {
	out := make([][]int, b.rows)
	for r := range out {
		out[r] = append([]int(nil), b.cells[r+1][1:b.cols+1]...)
	}
	return out
}
