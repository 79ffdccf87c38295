package models

import (
	"time"

	"game-rewards-engine/games"
)

// SessionStatus is the lifecycle state of a GameSession.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionSubmitted SessionStatus = "submitted"
	SessionCancelled SessionStatus = "cancelled"
	SessionExpired   SessionStatus = "expired" // written only by the sweeper; reads decide expiry by ExpiresAt
)

// Terminal reports whether no transition leaves s.
func (s SessionStatus) Terminal() bool {
	return s != SessionActive
}

// GameSession is one attempt at one game by one user. Config and
// ServerState are frozen at creation.
type GameSession struct {
	ID          string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string            `gorm:"type:varchar(64);not null;index:idx_session_user_kind" json:"user_id"`
	GameKind    games.Kind        `gorm:"type:varchar(16);not null;index:idx_session_user_kind" json:"game_kind"`
	Difficulty  games.Difficulty  `gorm:"type:varchar(16);not null" json:"difficulty"`
	Config      games.Config      `gorm:"type:text;serializer:json;not null" json:"config"`
	ServerState games.ServerState `gorm:"type:text;serializer:json;not null" json:"-"`
	Status      SessionStatus     `gorm:"type:varchar(16);not null;index" json:"status"`

	// Outcome, filled when the session is finalized.
	Score        int        `gorm:"not null;default:0" json:"score"`
	Completed    bool       `gorm:"not null;default:false" json:"completed"`
	Valid        bool       `gorm:"not null;default:false" json:"valid"`
	PointsEarned int64      `gorm:"not null;default:0" json:"points_earned"`
	FinalizedAt  *time.Time `json:"finalized_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

// ExpiredAt reports whether the session is past its deadline at now,
// whatever its persisted status says.
func (s *GameSession) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LiveAt reports whether the session can still be submitted or cancelled.
func (s *GameSession) LiveAt(now time.Time) bool {
	return s.Status == SessionActive && !s.ExpiredAt(now)
}

// SessionSlot is the (user, game kind) index that admits at most one live
// session. SessionID is empty when the slot is free.
type SessionSlot struct {
	UserID    string     `gorm:"primaryKey;type:varchar(64)" json:"user_id"`
	GameKind  games.Kind `gorm:"primaryKey;type:varchar(16)" json:"game_kind"`
	SessionID string     `gorm:"type:varchar(36);not null;default:''" json:"session_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
