package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExchangeStatus string

const (
	ExchangePending   ExchangeStatus = "pending"
	ExchangeSucceeded ExchangeStatus = "succeeded"
	ExchangeFailed    ExchangeStatus = "failed"    // quota service refused; points refunded
	ExchangeUncertain ExchangeStatus = "uncertain" // outcome unknown; reconciler or admin decides
)

// ExchangeRecord tracks one points-to-quota conversion. Points are debited
// before the quota service is called, so a record never leaves pending
// without either a succeeded mark or a refund.
type ExchangeRecord struct {
	ID         string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID     string          `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Points     int64           `gorm:"not null" json:"points"`
	Quota      decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"quota"`
	Rate       decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"rate"`
	Status     ExchangeStatus  `gorm:"type:varchar(16);not null;index" json:"status"`
	Attempts   int             `gorm:"not null;default:0" json:"attempts"`
	LastError  string          `gorm:"type:text" json:"last_error,omitempty"`
	NeedsAdmin bool            `gorm:"not null;default:false" json:"needs_admin"` // excluded from Reconcile
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
