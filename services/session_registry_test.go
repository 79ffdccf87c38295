package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"game-rewards-engine/games"
	"game-rewards-engine/models"

	"gorm.io/gorm"
)

func newSession(id, user string, kind games.Kind, now time.Time, ttl time.Duration) *models.GameSession {
	return &models.GameSession{
		ID:        id,
		UserID:    user,
		GameKind:  kind,
		Status:    models.SessionActive,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestRegistryCreateIsExclusive(t *testing.T) {
	db := newTestDB(t)
	r := NewSessionRegistry(db)
	now := newTestClock().Now()

	if err := r.Create(newSession("s1", "u1", games.KindPairs, now, time.Minute), now); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := r.Create(newSession("s2", "u1", games.KindPairs, now, time.Minute), now); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("second create err = %v, want ErrAlreadyActive", err)
	}
	// Other kinds and other users have their own slots.
	if err := r.Create(newSession("s3", "u1", games.KindLinkUp, now, time.Minute), now); err != nil {
		t.Errorf("other kind: %v", err)
	}
	if err := r.Create(newSession("s4", "u2", games.KindPairs, now, time.Minute), now); err != nil {
		t.Errorf("other user: %v", err)
	}

	var n int64
	db.Model(&models.GameSession{}).Where("id = ?", "s2").Count(&n)
	if n != 0 {
		t.Error("rejected session was persisted")
	}
}

func TestRegistryLapsedSlotIsReclaimed(t *testing.T) {
	db := newTestDB(t)
	r := NewSessionRegistry(db)
	now := newTestClock().Now()

	r.Create(newSession("old", "u1", games.KindPairs, now, time.Minute), now)

	later := now.Add(2 * time.Minute)
	active, err := r.GetActive("u1", games.KindPairs, later)
	if err != nil || active != nil {
		t.Fatalf("GetActive after deadline = %v, %v; want nil", active, err)
	}

	if err := r.Create(newSession("new", "u1", games.KindPairs, later, time.Minute), later); err != nil {
		t.Fatalf("create after lapse: %v", err)
	}
	var old models.GameSession
	db.First(&old, "id = ?", "old")
	if old.Status != models.SessionExpired {
		t.Errorf("lapsed session status = %s, want expired", old.Status)
	}
}

func TestRegistryFinalizeOnce(t *testing.T) {
	db := newTestDB(t)
	r := NewSessionRegistry(db)
	now := newTestClock().Now()
	r.Create(newSession("s1", "u1", games.KindPairs, now, time.Minute), now)

	finalize := func(status models.SessionStatus, at time.Time) error {
		return db.Transaction(func(tx *gorm.DB) error {
			_, err := r.FinalizeTx(tx, "u1", "s1", status, Outcome{Score: 10, Valid: true, Completed: true}, at)
			return err
		})
	}

	if err := finalize(models.SessionSubmitted, now); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if err := finalize(models.SessionCancelled, now); !errors.Is(err, ErrNotActive) {
		t.Errorf("second finalize err = %v, want ErrNotActive", err)
	}

	s, _ := r.Get("u1", "s1")
	if s.Status != models.SessionSubmitted || s.Score != 10 || s.FinalizedAt == nil {
		t.Errorf("session after finalize = %+v", s)
	}

	// The slot is free again.
	if err := r.Create(newSession("s2", "u1", games.KindPairs, now, time.Minute), now); err != nil {
		t.Errorf("create after finalize: %v", err)
	}
}

func TestRegistryFinalizeErrors(t *testing.T) {
	db := newTestDB(t)
	r := NewSessionRegistry(db)
	now := newTestClock().Now()
	r.Create(newSession("s1", "u1", games.KindPairs, now, time.Minute), now)

	tests := []struct {
		name   string
		user   string
		id     string
		status models.SessionStatus
		at     time.Time
		want   error
	}{
		{"unknown id", "u1", "nope", models.SessionSubmitted, now, ErrSessionNotFound},
		{"someone else's session", "u2", "s1", models.SessionSubmitted, now, ErrSessionNotFound},
		{"past deadline", "u1", "s1", models.SessionSubmitted, now.Add(time.Minute), ErrSessionExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.Transaction(func(tx *gorm.DB) error {
				_, err := r.FinalizeTx(tx, tt.user, tt.id, tt.status, Outcome{}, tt.at)
				return err
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := r.FinalizeTx(tx, "u1", "s1", models.SessionExpired, Outcome{}, now)
		return err
	})
	if err == nil {
		t.Error("finalize to expired should be refused")
	}
}

func TestRegistryConcurrentCreate(t *testing.T) {
	db := newTestDB(t)
	r := NewSessionRegistry(db)
	now := newTestClock().Now()

	const racers = 12
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "s" + string(rune('a'+i))
			results[i] = r.Create(newSession(id, "u1", games.KindPinball, now, time.Minute), now)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case !errors.Is(err, ErrAlreadyActive):
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("%d creates succeeded, want exactly 1", wins)
	}
}

func TestRegistrySweepExpired(t *testing.T) {
	db := newTestDB(t)
	r := NewSessionRegistry(db)
	now := newTestClock().Now()
	r.Create(newSession("short", "u1", games.KindPairs, now, time.Minute), now)
	r.Create(newSession("long", "u2", games.KindPairs, now, time.Hour), now)

	n, err := r.SweepExpired(now.Add(5 * time.Minute))
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("swept %d, want 1", n)
	}

	var slot models.SessionSlot
	db.First(&slot, "user_id = ? AND game_kind = ?", "u1", games.KindPairs)
	if slot.SessionID != "" {
		t.Errorf("lapsed slot still held by %q", slot.SessionID)
	}
	var live models.SessionSlot
	db.First(&live, "user_id = ? AND game_kind = ?", "u2", games.KindPairs)
	if live.SessionID != "long" {
		t.Errorf("live slot holder = %q, want long", live.SessionID)
	}
}
