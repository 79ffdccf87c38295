package models

import (
	"time"
)

// LedgerSource classifies a ledger entry.
type LedgerSource string

const (
	SourceGameReward     LedgerSource = "game_reward"
	SourceGameWager      LedgerSource = "game_wager"
	SourceExchange       LedgerSource = "exchange"
	SourceExchangeRefund LedgerSource = "exchange_refund"
	SourceAdminAdjust    LedgerSource = "admin_adjust"
)

// Earn reports whether entries of this source count toward, and are
// clamped by, the daily cap.
func (s LedgerSource) Earn() bool {
	return s == SourceGameReward
}

func (s LedgerSource) Valid() bool {
	switch s {
	case SourceGameReward, SourceGameWager, SourceExchange, SourceExchangeRefund, SourceAdminAdjust:
		return true
	}
	return false
}

// PointsLedgerEntry is an append-only balance delta. BalanceAfter is the
// previous entry's BalanceAfter plus Amount. (Source, Reference) is unique
// when Reference is set, so a session or exchange can never be paid twice
// under the same source.
type PointsLedgerEntry struct {
	ID           string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string       `gorm:"type:varchar(64);not null;index:idx_ledger_user_created" json:"user_id"`
	Amount       int64        `gorm:"not null" json:"amount"`
	Source       LedgerSource `gorm:"type:varchar(32);not null;uniqueIndex:idx_ledger_source_ref,where:reference <> ''" json:"source"`
	Reference    string       `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_ledger_source_ref,where:reference <> ''" json:"reference,omitempty"`
	Description  string       `gorm:"type:text" json:"description"`
	BalanceAfter int64        `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time    `gorm:"not null;index:idx_ledger_user_created" json:"created_at"`
}

// PointAccount is the materialized balance, updated in the same
// transaction as every ledger append.
type PointAccount struct {
	UserID    string    `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DailyStats counts plays and capped earnings per calendar day.
type DailyStats struct {
	UserID       string    `gorm:"primaryKey;type:varchar(64)" json:"-"`
	Day          string    `gorm:"primaryKey;type:varchar(10)" json:"day"` // YYYY-MM-DD in the configured zone
	GamesPlayed  int       `gorm:"not null;default:0" json:"games_played"`
	PointsEarned int64     `gorm:"not null;default:0" json:"points_earned"`
	UpdatedAt    time.Time `json:"-"`
}

func (DailyStats) TableName() string { return "daily_stats" }
