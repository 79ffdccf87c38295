package services

import (
	"fmt"
	"log"
	"time"

	"game-rewards-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService is the single cross-game points store. Every balance change
// goes through CreditTx, which appends the entry, moves the materialized
// balance and updates the day's stats under one set of row locks.
type LedgerService struct {
	DB       *gorm.DB
	DailyCap int64
	Location *time.Location
	Now      func() time.Time
}

func NewLedgerService(db *gorm.DB, dailyCap int64, loc *time.Location) *LedgerService {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerService{DB: db, DailyCap: dailyCap, Location: loc, Now: utcNow}
}

type CreditRequest struct {
	UserID      string
	Amount      int64
	Source      models.LedgerSource
	Description string
	// Reference ties the entry to a session, spin or exchange; at most one
	// entry per (Source, Reference) is ever recorded.
	Reference string
	// CountGame bumps today's games played.
	CountGame bool
}

type CreditResult struct {
	Requested  int64                     `json:"requested"`
	Credited   int64                     `json:"credited"`
	Balance    int64                     `json:"balance"`
	Daily      models.DailyStats         `json:"daily_stats"`
	Capped     bool                      `json:"capped"`
	CapReached bool                      `json:"points_limit_reached"`
	Entry      *models.PointsLedgerEntry `json:"entry,omitempty"`
}

// Day is the calendar day of t in the ledger's zone.
func (l *LedgerService) Day(t time.Time) string {
	return t.In(l.Location).Format("2006-01-02")
}

// Credit runs CreditTx in its own transaction.
func (l *LedgerService) Credit(req CreditRequest) (*CreditResult, error) {
	var res *CreditResult
	err := l.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = l.CreditTx(tx, req, l.Now())
		return err
	})
	return res, err
}

// CreditTx applies req inside tx. Earn sources are clamped to what is left
// of today's cap; other sources pass through unclamped but may not take the
// balance below zero. A zero credit appends no entry.
func (l *LedgerService) CreditTx(tx *gorm.DB, req CreditRequest, now time.Time) (*CreditResult, error) {
	if req.UserID == "" || !req.Source.Valid() {
		return nil, fmt.Errorf("%w: user %q source %q", ErrInvalidAmount, req.UserID, req.Source)
	}
	if req.Source.Earn() && req.Amount < 0 {
		return nil, fmt.Errorf("%w: negative %s credit", ErrInvalidAmount, req.Source)
	}

	if req.Reference != "" {
		var n int64
		if err := tx.Model(&models.PointsLedgerEntry{}).
			Where("source = ? AND reference = ?", req.Source, req.Reference).
			Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateCredit, req.Source, req.Reference)
		}
	}

	day := l.Day(now)
	account, stats, err := l.lockRows(tx, req.UserID, day, now)
	if err != nil {
		return nil, err
	}

	credited := req.Amount
	if req.Source.Earn() {
		budget := l.DailyCap - stats.PointsEarned
		if budget < 0 {
			budget = 0
		}
		credited = min(credited, budget)
	} else if account.Balance+credited < 0 {
		return nil, ErrInsufficientBalance
	}

	res := &CreditResult{Requested: req.Amount, Credited: credited, Capped: credited < req.Amount}

	if credited != 0 {
		entry := &models.PointsLedgerEntry{
			ID:           uuid.NewString(),
			UserID:       req.UserID,
			Amount:       credited,
			Source:       req.Source,
			Reference:    req.Reference,
			Description:  req.Description,
			BalanceAfter: account.Balance + credited,
			CreatedAt:    now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return nil, fmt.Errorf("append ledger entry: %w", err)
		}
		if err := tx.Model(&models.PointAccount{}).
			Where("user_id = ?", req.UserID).
			Updates(map[string]any{"balance": gorm.Expr("balance + ?", credited), "updated_at": now}).Error; err != nil {
			return nil, fmt.Errorf("update balance: %w", err)
		}
		account.Balance += credited
		res.Entry = entry
	}

	updates := map[string]any{"updated_at": now}
	if req.Source.Earn() && credited > 0 {
		updates["points_earned"] = gorm.Expr("points_earned + ?", credited)
		stats.PointsEarned += credited
	}
	if req.CountGame {
		updates["games_played"] = gorm.Expr("games_played + ?", 1)
		stats.GamesPlayed++
	}
	if len(updates) > 1 {
		if err := tx.Model(&models.DailyStats{}).
			Where("user_id = ? AND day = ?", req.UserID, day).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update daily stats: %w", err)
		}
	}

	res.Balance = account.Balance
	res.Daily = stats
	res.CapReached = stats.PointsEarned >= l.DailyCap
	if res.Capped && req.Source.Earn() {
		log.Printf("🧢 [LEDGER] %s capped for %s: requested %d, credited %d (day %s at %d/%d)",
			req.Source, req.UserID, req.Amount, credited, day, stats.PointsEarned, l.DailyCap)
	}
	return res, nil
}

// lockRows makes sure the account and today's stats rows exist, then locks
// both for the rest of tx.
func (l *LedgerService) lockRows(tx *gorm.DB, userID, day string, now time.Time) (models.PointAccount, models.DailyStats, error) {
	var account models.PointAccount
	var stats models.DailyStats

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PointAccount{UserID: userID, CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		return account, stats, fmt.Errorf("ensure account: %w", err)
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.DailyStats{UserID: userID, Day: day, UpdatedAt: now}).Error; err != nil {
		return account, stats, fmt.Errorf("ensure daily stats: %w", err)
	}

	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&account).Error; err != nil {
		return account, stats, fmt.Errorf("lock account: %w", err)
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND day = ?", userID, day).First(&stats).Error; err != nil {
		return account, stats, fmt.Errorf("lock daily stats: %w", err)
	}
	return account, stats, nil
}

// Balance is the user's materialized balance; zero before the first credit.
func (l *LedgerService) Balance(userID string) (int64, error) {
	var accounts []models.PointAccount
	if err := l.DB.Where("user_id = ?", userID).Limit(1).Find(&accounts).Error; err != nil {
		return 0, err
	}
	if len(accounts) == 0 {
		return 0, nil
	}
	return accounts[0].Balance, nil
}

// TodayStats returns the stats for the day containing now.
func (l *LedgerService) TodayStats(userID string, now time.Time) (models.DailyStats, error) {
	day := l.Day(now)
	var rows []models.DailyStats
	if err := l.DB.Where("user_id = ? AND day = ?", userID, day).Limit(1).Find(&rows).Error; err != nil {
		return models.DailyStats{}, err
	}
	if len(rows) == 0 {
		return models.DailyStats{UserID: userID, Day: day}, nil
	}
	return rows[0], nil
}

// History pages through a user's entries, newest first.
func (l *LedgerService) History(userID string, page, limit int) ([]models.PointsLedgerEntry, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if page < 1 {
		page = 1
	}

	var total int64
	if err := l.DB.Model(&models.PointsLedgerEntry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.PointsLedgerEntry
	err := l.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}

// Since returns entries created at or after t, oldest first.
func (l *LedgerService) Since(userID string, t time.Time) ([]models.PointsLedgerEntry, error) {
	var entries []models.PointsLedgerEntry
	err := l.DB.Where("user_id = ? AND created_at >= ?", userID, t).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}

func utcNow() time.Time { return time.Now().UTC() }
