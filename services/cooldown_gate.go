package services

import (
	"fmt"
	"time"

	"game-rewards-engine/games"
	"game-rewards-engine/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CooldownGate enforces the idle window between the end of one session (or
// spin) and the start of the next, per user and game kind.
type CooldownGate struct {
	DB      *gorm.DB
	Windows map[games.Kind]time.Duration
}

func NewCooldownGate(db *gorm.DB, windows map[games.Kind]time.Duration) *CooldownGate {
	return &CooldownGate{DB: db, Windows: windows}
}

// Window is the cooldown applied after a terminal transition of kind.
func (g *CooldownGate) Window(kind games.Kind) time.Duration {
	return g.Windows[kind]
}

// Remaining reports how long until userID may start kind again.
func (g *CooldownGate) Remaining(userID string, kind games.Kind, now time.Time) (time.Duration, error) {
	var marks []models.CooldownMark
	if err := g.DB.Where("user_id = ? AND game_kind = ?", userID, kind).Limit(1).Find(&marks).Error; err != nil {
		return 0, err
	}
	if len(marks) == 0 {
		return 0, nil
	}
	return remaining(marks[0], now), nil
}

// CheckAndReserveTx admits a start inside tx. It locks the user's mark for
// kind, so a concurrent MarkTx for the same key waits for tx to finish; a
// *CooldownError is returned while the window is open.
func (g *CooldownGate) CheckAndReserveTx(tx *gorm.DB, userID string, kind games.Kind, now time.Time) error {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.CooldownMark{
		UserID:    userID,
		GameKind:  kind,
		UpdatedAt: now,
	}).Error; err != nil {
		return fmt.Errorf("ensure cooldown mark: %w", err)
	}

	var mark models.CooldownMark
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND game_kind = ?", userID, kind).
		First(&mark).Error; err != nil {
		return fmt.Errorf("lock cooldown mark: %w", err)
	}

	if left := remaining(mark, now); left > 0 {
		return &CooldownError{Kind: string(kind), Remaining: left}
	}
	return nil
}

// MarkTx starts the cooldown for (userID, kind) from now.
func (g *CooldownGate) MarkTx(tx *gorm.DB, userID string, kind games.Kind, now time.Time) error {
	until := now.Add(g.Window(kind))
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "game_kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"cooldown_until", "updated_at"}),
	}).Create(&models.CooldownMark{
		UserID:        userID,
		GameKind:      kind,
		CooldownUntil: until,
		UpdatedAt:     now,
	}).Error
}

// Prune removes marks whose window closed before cutoff.
func (g *CooldownGate) Prune(cutoff time.Time) (int64, error) {
	res := g.DB.Where("cooldown_until < ?", cutoff).Delete(&models.CooldownMark{})
	return res.RowsAffected, res.Error
}

func remaining(mark models.CooldownMark, now time.Time) time.Duration {
	if left := mark.CooldownUntil.Sub(now); left > 0 {
		return left
	}
	return 0
}
