// Package games holds the pure game logic: board generation, seeded
// randomness, the per-kind judges and the reel math. Nothing here touches
// storage or the clock.
package games

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

var (
	ErrUnknownKind       = errors.New("unknown game kind")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrInvalidMoveLog    = errors.New("invalid move log")
)

// Kind identifies a casual game.
type Kind string

const (
	KindPairs   Kind = "pairs"   // memory pairs
	KindLinkUp  Kind = "linkup"  // tile-connect
	KindPinball Kind = "pinball" // physics pinball, bounds-checked
	KindSlots   Kind = "slots"   // reel-spin, resolved server-side
)

// AllKinds lists every kind in catalog order.
var AllKinds = []Kind{KindPairs, KindLinkUp, KindPinball, KindSlots}

// SessionBased reports whether the kind goes through start/submit. Slots
// are resolved atomically at spin time and never open a session.
func (k Kind) SessionBased() bool {
	return k != KindSlots
}

func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind normalizes a route parameter ("Link-Up", "link_up", "linkup")
// into a known Kind.
func ParseKind(raw string) (Kind, error) {
	normalized := strings.NewReplacer("-", "", "_", "").Replace(slug.Make(raw))
	switch normalized {
	case "pairs", "memory", "memorypairs":
		return KindPairs, nil
	case "linkup", "tileconnect":
		return KindLinkUp, nil
	case "pinball":
		return KindPinball, nil
	case "slots", "reelspin", "slot":
		return KindSlots, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKind, raw)
}

// Difficulty selects a row of the config table.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

var AllDifficulties = []Difficulty{DifficultyEasy, DifficultyNormal, DifficultyHard}

// ParseDifficulty defaults an empty value to normal.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return DifficultyNormal, nil
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyNormal:
		return DifficultyNormal, nil
	case DifficultyHard:
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownDifficulty, raw)
}
