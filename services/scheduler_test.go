package services

import (
	"testing"
	"time"

	"game-rewards-engine/games"
	"game-rewards-engine/models"
)

func TestMaintenanceJobs(t *testing.T) {
	f := newFixture(t)
	m := NewMaintenanceScheduler(f.sessions, f.cooldowns)

	started, err := f.sessions.Start("u1", games.KindPinball, games.DifficultyHard)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.sessions.Cancel("u2", games.KindPairs, ""); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := f.sessions.Start("u2", games.KindPairs, games.DifficultyEasy); err != nil {
		t.Fatalf("Start u2: %v", err)
	}
	if err := f.sessions.Cancel("u2", games.KindPairs, ""); err != nil {
		t.Fatalf("Cancel u2: %v", err)
	}

	f.clock.Advance(2 * 24 * time.Hour)
	m.sweepSessions()
	if s := f.session(t, started.SessionID); s.Status != models.SessionExpired {
		t.Errorf("status after sweep = %s, want expired", s.Status)
	}

	m.pruneCooldowns()
	var marks int64
	f.db.Model(&models.CooldownMark{}).Count(&marks)
	if marks != 0 {
		t.Errorf("%d cooldown marks survived the prune", marks)
	}
}

func TestSchedulerStartStop(t *testing.T) {
	f := newFixture(t)
	m := NewMaintenanceScheduler(f.sessions, f.cooldowns)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Stop()
	m.Stop()
}
