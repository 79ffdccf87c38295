package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownGameKind     = errors.New("unknown game kind")
	ErrNotSessionGame      = errors.New("game kind has no sessions")
	ErrAlreadyActive       = errors.New("an active session already exists for this game")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExpired      = errors.New("session expired")
	ErrNotActive           = errors.New("session is not active")
	ErrInsufficientBalance = errors.New("insufficient points balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrDuplicateCredit     = errors.New("ledger entry already recorded for this reference")
	ErrExchangeNotFound    = errors.New("exchange not found")
	ErrExchangeSettled     = errors.New("exchange already settled")
	ErrExchangeDisabled    = errors.New("exchange is not configured")
)

// CooldownError rejects a start or spin until Remaining has passed.
type CooldownError struct {
	Kind      string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s is cooling down for another %s", e.Kind, e.Remaining.Round(time.Second))
}
