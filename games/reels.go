package games

// Symbol is a reel face.
type Symbol string

const (
	SymbolSeven  Symbol = "SEVEN"
	SymbolBar    Symbol = "BAR"
	SymbolBell   Symbol = "BELL"
	SymbolPlum   Symbol = "PLUM"
	SymbolLemon  Symbol = "LEMON"
	SymbolCherry Symbol = "CHERRY"
	SymbolWild   Symbol = "WILD"
)

// ReelSymbol pairs a face with its draw weight and its three-of-a-kind
// multiplier.
type ReelSymbol struct {
	Symbol Symbol `json:"symbol"`
	Weight int    `json:"weight"`
	Pays   int    `json:"pays"`
}

// ReelTable is the weighted symbol set and payline layout of a machine.
type ReelTable struct {
	Symbols    []ReelSymbol
	Paylines   [][3]Point
	CherryPair int // pays when the first two cells of a line are cherries
}

// DefaultReelTable is a 3x3 window with three rows and two diagonals.
var DefaultReelTable = ReelTable{
	Symbols: []ReelSymbol{
		{SymbolSeven, 2, 50},
		{SymbolBar, 4, 20},
		{SymbolBell, 6, 10},
		{SymbolPlum, 8, 6},
		{SymbolLemon, 10, 4},
		{SymbolCherry, 12, 3},
		{SymbolWild, 3, 100},
	},
	Paylines: [][3]Point{
		{{0, 0}, {0, 1}, {0, 2}},
		{{1, 0}, {1, 1}, {1, 2}},
		{{2, 0}, {2, 1}, {2, 2}},
		{{0, 0}, {1, 1}, {2, 2}},
		{{2, 0}, {1, 1}, {0, 2}},
	},
	CherryPair: 1,
}

// LineWin is one paying line.
type LineWin struct {
	Line       int    `json:"line"`
	Symbol     Symbol `json:"symbol"`
	Multiplier int    `json:"multiplier"`
}

// SpinOutcome is the authoritative result the client renders.
type SpinOutcome struct {
	Window     [3][3]Symbol `json:"window"`
	Wins       []LineWin    `json:"wins"`
	Multiplier int          `json:"multiplier"`
	Payout     int64        `json:"payout"`
}

func (t ReelTable) totalWeight() int {
	total := 0
	for _, s := range t.Symbols {
		total += s.Weight
	}
	return total
}

func (t ReelTable) draw(s *Stream) Symbol {
	pick := s.Float() * float64(t.totalWeight())
	acc := 0.0
	for _, sym := range t.Symbols {
		acc += float64(sym.Weight)
		if pick < acc {
			return sym.Symbol
		}
	}
	return t.Symbols[len(t.Symbols)-1].Symbol
}

func (t ReelTable) pays(sym Symbol) int {
	for _, s := range t.Symbols {
		if s.Symbol == sym {
			return s.Pays
		}
	}
	return 0
}

// Spin draws a window from seed and evaluates every payline. The payout is
// the summed line multiplier times bet.
func (t ReelTable) Spin(seed string, bet int64) SpinOutcome {
	s := NewStream(seed, OrdinalReels)
	var out SpinOutcome
	for reel := 0; reel < 3; reel++ {
		for row := 0; row < 3; row++ {
			out.Window[row][reel] = t.draw(s)
		}
	}
	for i, line := range t.Paylines {
		cells := [3]Symbol{}
		for j, p := range line {
			cells[j] = out.Window[p.R][p.C]
		}
		if win, ok := t.evaluateLine(cells); ok {
			win.Line = i
			out.Wins = append(out.Wins, win)
			out.Multiplier += win.Multiplier
		}
	}
	out.Payout = int64(out.Multiplier) * bet
	return out
}

// evaluateLine pays three of a kind with wild substitution, or a cherry
// pair on the first two cells.
func (t ReelTable) evaluateLine(cells [3]Symbol) (LineWin, bool) {
	base := SymbolWild
	for _, c := range cells {
		if c != SymbolWild {
			base = c
			break
		}
	}
	three := true
	for _, c := range cells {
		if c != base && c != SymbolWild {
			three = false
			break
		}
	}
	if three {
		return LineWin{Symbol: base, Multiplier: t.pays(base)}, true
	}
	if t.CherryPair > 0 && cells[0] == SymbolCherry && cells[1] == SymbolCherry {
		return LineWin{Symbol: SymbolCherry, Multiplier: t.CherryPair}, true
	}
	return LineWin{}, false
}
