package models

import (
	"time"

	"game-rewards-engine/games"
)

// SpinRecord is the audit row for one slots spin. Window and Wins are
// recomputable from Seed, kept for support lookups.
type SpinRecord struct {
	ID           string             `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string             `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Seed         string             `gorm:"type:varchar(64);not null" json:"-"`
	Bet          int64              `gorm:"not null" json:"bet"`
	Window       [3][3]games.Symbol `gorm:"type:text;serializer:json" json:"window"`
	Wins         []games.LineWin    `gorm:"type:text;serializer:json" json:"wins"`
	Multiplier   int                `gorm:"not null" json:"multiplier"`
	Payout       int64              `gorm:"not null" json:"payout"`
	PointsEarned int64              `gorm:"not null" json:"points_earned"`
	CreatedAt    time.Time          `json:"created_at"`
}
