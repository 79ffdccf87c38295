package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"game-rewards-engine/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExchangeService converts points into external quota. Points leave the
// ledger before the quota call; a rejected call refunds them, an unanswered
// one parks the record as uncertain for Reconcile or an admin.
type ExchangeService struct {
	DB        *gorm.DB
	Ledger    *LedgerService
	Quota     QuotaCreditor // nil disables exchange
	Rate      decimal.Decimal
	MinPoints int64
	// StaleAfter is how old a pending record must be before Reconcile
	// assumes its request died with the process.
	StaleAfter time.Duration
	Now        func() time.Time
}

func NewExchangeService(db *gorm.DB, ledger *LedgerService, quota QuotaCreditor, rate decimal.Decimal, minPoints int64) *ExchangeService {
	return &ExchangeService{
		DB:         db,
		Ledger:     ledger,
		Quota:      quota,
		Rate:       rate,
		MinPoints:  minPoints,
		StaleAfter: 5 * time.Minute,
		Now:        utcNow,
	}
}

// Exchange debits points and credits quota = points x Rate.
func (s *ExchangeService) Exchange(ctx context.Context, userID string, points int64) (*models.ExchangeRecord, error) {
	if s.Quota == nil {
		return nil, ErrExchangeDisabled
	}
	if points < s.MinPoints {
		return nil, fmt.Errorf("%w: minimum exchange is %d points", ErrInvalidAmount, s.MinPoints)
	}

	now := s.Now()
	rec := &models.ExchangeRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Points:    points,
		Quota:     decimal.NewFromInt(points).Mul(s.Rate).Round(6),
		Rate:      s.Rate,
		Status:    models.ExchangePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		_, err := s.Ledger.CreditTx(tx, CreditRequest{
			UserID:      userID,
			Amount:      -points,
			Source:      models.SourceExchange,
			Description: fmt.Sprintf("exchange %d points for %s quota", points, rec.Quota),
			Reference:   rec.ID,
		}, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	outcome, callErr := s.Quota.Credit(ctx, rec.ID, userID, rec.Quota)
	log.Printf("💱 [EXCHANGE] %s exchange %s (%d points): quota service %s", userID, rec.ID, points, outcome)
	return s.settle(rec.ID, outcome, callErr)
}

// settle applies outcome to a pending or uncertain record. Each transition
// is conditional on the current status, so a record is refunded at most once.
func (s *ExchangeService) settle(id string, outcome QuotaOutcome, cause error) (*models.ExchangeRecord, error) {
	now := s.Now()
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	open := []models.ExchangeStatus{models.ExchangePending, models.ExchangeUncertain}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		switch outcome {
		case QuotaApplied:
			return tx.Model(&models.ExchangeRecord{}).
				Where("id = ? AND status IN ?", id, open).
				Updates(map[string]any{"status": models.ExchangeSucceeded, "last_error": "", "updated_at": now}).Error

		case QuotaRejected:
			res := tx.Model(&models.ExchangeRecord{}).
				Where("id = ? AND status IN ?", id, open).
				Updates(map[string]any{"status": models.ExchangeFailed, "last_error": msg, "updated_at": now})
			if res.Error != nil || res.RowsAffected == 0 {
				return res.Error
			}
			var rec models.ExchangeRecord
			if err := tx.First(&rec, "id = ?", id).Error; err != nil {
				return err
			}
			_, err := s.Ledger.CreditTx(tx, CreditRequest{
				UserID:      rec.UserID,
				Amount:      rec.Points,
				Source:      models.SourceExchangeRefund,
				Description: "refund for failed exchange " + id,
				Reference:   id,
			}, now)
			return err

		default:
			return tx.Model(&models.ExchangeRecord{}).
				Where("id = ? AND status IN ?", id, open).
				Updates(map[string]any{
					"status":     models.ExchangeUncertain,
					"attempts":   gorm.Expr("attempts + 1"),
					"last_error": msg,
					"updated_at": now,
				}).Error
		}
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

func (s *ExchangeService) Get(id string) (*models.ExchangeRecord, error) {
	var rec models.ExchangeRecord
	if err := s.DB.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExchangeNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List returns a user's exchanges, newest first.
func (s *ExchangeService) List(userID string, limit int) ([]models.ExchangeRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var recs []models.ExchangeRecord
	err := s.DB.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}

// ListUncertain returns the records waiting on reconciliation, oldest first.
func (s *ExchangeService) ListUncertain() ([]models.ExchangeRecord, error) {
	var recs []models.ExchangeRecord
	err := s.DB.Where("status = ?", models.ExchangeUncertain).Order("created_at ASC").Find(&recs).Error
	return recs, err
}

// Reconcile asks the quota service about every uncertain record and every
// stale pending one, and settles those it gets an answer for. A stale pending
// record the quota service has never heard of is held for an admin instead
// of refunded.
func (s *ExchangeService) Reconcile(ctx context.Context) (int, error) {
	if s.Quota == nil {
		return 0, nil
	}
	var recs []models.ExchangeRecord
	if err := s.DB.
		Where("(status = ? AND needs_admin = ?) OR (status = ? AND created_at <= ?)",
			models.ExchangeUncertain, false, models.ExchangePending, s.Now().Add(-s.StaleAfter)).
		Order("created_at ASC").
		Limit(100).
		Find(&recs).Error; err != nil {
		return 0, err
	}

	settled := 0
	for _, rec := range recs {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		outcome, err := s.Quota.Lookup(ctx, rec.ID)
		if rec.Status == models.ExchangePending && outcome == QuotaRejected {
			// The apply call may still be in flight, so a miss is not proof
			// the grant never happened.
			if herr := s.holdForAdmin(rec.ID, "quota service has no record of a stale pending exchange"); herr != nil {
				log.Printf("❌ [EXCHANGE] hold %s: %v", rec.ID, herr)
			}
			continue
		}
		if _, serr := s.settle(rec.ID, outcome, err); serr != nil {
			log.Printf("❌ [EXCHANGE] settle %s: %v", rec.ID, serr)
			continue
		}
		if outcome != QuotaUnknown {
			settled++
		}
	}
	return settled, nil
}

// holdForAdmin moves a pending record to uncertain and takes it out of
// Reconcile's hands.
func (s *ExchangeService) holdForAdmin(id, reason string) error {
	res := s.DB.Model(&models.ExchangeRecord{}).
		Where("id = ? AND status = ?", id, models.ExchangePending).
		Updates(map[string]any{
			"status":      models.ExchangeUncertain,
			"needs_admin": true,
			"attempts":    gorm.Expr("attempts + 1"),
			"last_error":  reason,
			"updated_at":  s.Now(),
		})
	if res.Error == nil && res.RowsAffected > 0 {
		log.Printf("⚠️ [EXCHANGE] %s held for admin: %s", id, reason)
	}
	return res.Error
}

// Resolve lets an admin settle an uncertain record by hand.
func (s *ExchangeService) Resolve(id string, applied bool) (*models.ExchangeRecord, error) {
	rec, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if rec.Status != models.ExchangeUncertain && rec.Status != models.ExchangePending {
		return nil, ErrExchangeSettled
	}
	outcome := QuotaRejected
	var cause error = errors.New("resolved by admin")
	if applied {
		outcome, cause = QuotaApplied, nil
	}
	log.Printf("🛠️ [EXCHANGE] admin resolving %s as %s", id, outcome)
	return s.settle(id, outcome, cause)
}
