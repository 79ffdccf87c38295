package models

import (
	"time"

	"game-rewards-engine/games"
)

// CooldownMark records when a user may next start or spin a game kind.
type CooldownMark struct {
	UserID        string     `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	GameKind      games.Kind `gorm:"primaryKey;type:varchar(16)" json:"game_kind"`
	CooldownUntil time.Time  `gorm:"not null;index" json:"cooldown_until"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
