package services

import (
	"errors"
	"fmt"
	"time"

	"game-rewards-engine/games"
	"game-rewards-engine/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRegistry owns the session lifecycle. The session_slots row per
// (user, game kind) is the compare-and-swap target that keeps at most one
// live session per key; finalize is a conditional update on the session's
// own status.
type SessionRegistry struct {
	DB *gorm.DB
}

func NewSessionRegistry(db *gorm.DB) *SessionRegistry {
	return &SessionRegistry{DB: db}
}

// Outcome is what finalize writes onto a session.
type Outcome struct {
	Score     int
	Completed bool
	Valid     bool
}

// Create persists s as the live session for its key.
func (r *SessionRegistry) Create(s *models.GameSession, now time.Time) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return r.CreateTx(tx, s, now)
	})
}

// CreateTx claims the slot for (s.UserID, s.GameKind) and inserts s. The
// claim succeeds only if the slot is free or its holder has lapsed; it
// fails with ErrAlreadyActive otherwise.
func (r *SessionRegistry) CreateTx(tx *gorm.DB, s *models.GameSession, now time.Time) error {
	res := tx.Model(&models.SessionSlot{}).
		Where("user_id = ? AND game_kind = ?", s.UserID, s.GameKind).
		Where("(session_id = '' OR expires_at <= ?)", now).
		Updates(map[string]any{
			"session_id": s.ID,
			"expires_at": s.ExpiresAt,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("claim session slot: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.SessionSlot{
			UserID:    s.UserID,
			GameKind:  s.GameKind,
			SessionID: s.ID,
			ExpiresAt: s.ExpiresAt,
			UpdatedAt: now,
		})
		if res.Error != nil {
			return fmt.Errorf("insert session slot: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyActive
		}
	}

	// The previous holder, if any, lapsed without a written transition.
	if err := tx.Model(&models.GameSession{}).
		Where("user_id = ? AND game_kind = ? AND status = ? AND expires_at <= ?",
			s.UserID, s.GameKind, models.SessionActive, now).
		Update("status", models.SessionExpired).Error; err != nil {
		return fmt.Errorf("expire lapsed sessions: %w", err)
	}

	if err := tx.Create(s).Error; err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetActive returns the live session for the key, or nil if there is none.
// A session past its deadline is never returned, whatever its status.
func (r *SessionRegistry) GetActive(userID string, kind games.Kind, now time.Time) (*models.GameSession, error) {
	var sessions []models.GameSession
	if err := r.DB.
		Where("user_id = ? AND game_kind = ? AND status = ? AND expires_at > ?",
			userID, kind, models.SessionActive, now).
		Order("created_at DESC").
		Limit(1).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return &sessions[0], nil
}

// Get loads a session owned by userID.
func (r *SessionRegistry) Get(userID, sessionID string) (*models.GameSession, error) {
	return r.get(r.DB, userID, sessionID)
}

func (r *SessionRegistry) get(db *gorm.DB, userID, sessionID string) (*models.GameSession, error) {
	var s models.GameSession
	if err := db.Where("id = ? AND user_id = ?", sessionID, userID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FinalizeTx moves an Active, unexpired session to status and frees its
// slot. Exactly one of any number of concurrent callers succeeds; the rest
// get ErrNotActive, or ErrSessionExpired once the deadline has passed.
func (r *SessionRegistry) FinalizeTx(tx *gorm.DB, userID, sessionID string, status models.SessionStatus, out Outcome, now time.Time) (*models.GameSession, error) {
	if status != models.SessionSubmitted && status != models.SessionCancelled {
		return nil, fmt.Errorf("cannot finalize session to %q", status)
	}

	res := tx.Model(&models.GameSession{}).
		Where("id = ? AND user_id = ? AND status = ? AND expires_at > ?",
			sessionID, userID, models.SessionActive, now).
		Updates(map[string]any{
			"status":       status,
			"score":        out.Score,
			"completed":    out.Completed,
			"valid":        out.Valid,
			"finalized_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("finalize session: %w", res.Error)
	}

	s, err := r.get(tx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		if s.Status == models.SessionExpired || (s.Status == models.SessionActive && s.ExpiredAt(now)) {
			return s, ErrSessionExpired
		}
		return s, ErrNotActive
	}

	if err := tx.Model(&models.SessionSlot{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]any{"session_id": "", "updated_at": now}).Error; err != nil {
		return nil, fmt.Errorf("release session slot: %w", err)
	}
	return s, nil
}

// SweepExpired writes the Expired status onto lapsed sessions and frees
// their slots. Reads already treat them as expired; this keeps the tables
// honest for reporting.
func (r *SessionRegistry) SweepExpired(now time.Time) (int64, error) {
	var swept int64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.GameSession{}).
			Where("status = ? AND expires_at <= ?", models.SessionActive, now).
			Update("status", models.SessionExpired)
		if res.Error != nil {
			return res.Error
		}
		swept = res.RowsAffected

		return tx.Model(&models.SessionSlot{}).
			Where("session_id <> '' AND expires_at <= ?", now).
			Updates(map[string]any{"session_id": "", "updated_at": now}).Error
	})
	return swept, err
}
