// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// MaintenanceScheduler runs storage hygiene jobs. Nothing here is needed
// for correctness: expiry and cooldowns are evaluated at read time.
type MaintenanceScheduler struct {
	Sessions  *SessionService
	Cooldowns *CooldownGate
	sched     gocron.Scheduler
}

func NewMaintenanceScheduler(sessions *SessionService, cooldowns *CooldownGate) *MaintenanceScheduler {
	return &MaintenanceScheduler{Sessions: sessions, Cooldowns: cooldowns}
}

func (m *MaintenanceScheduler) Start() error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}

	// Every minute: write Expired onto lapsed sessions and free their slots
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(m.sweepSessions),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return err
	}

	// Daily: drop cooldown marks that closed more than a day ago
	if _, err := sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 30, 0))),
		gocron.NewTask(m.pruneCooldowns),
	); err != nil {
		return err
	}

	m.sched = sched
	sched.Start()
	return nil
}

func (m *MaintenanceScheduler) Stop() {
	if m.sched == nil {
		return
	}
	if err := m.sched.Shutdown(); err != nil {
		log.Printf("[Scheduler] shutdown: %v", err)
	}
	m.sched = nil
}

func (m *MaintenanceScheduler) sweepSessions() {
	n, err := m.Sessions.SweepExpired()
	if err != nil {
		log.Printf("[SWEEP] DB error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("🧹 [SWEEP] expired %d lapsed session(s)", n)
	}
}

func (m *MaintenanceScheduler) pruneCooldowns() {
	n, err := m.Cooldowns.Prune(m.Sessions.Now().Add(-24 * time.Hour))
	if err != nil {
		log.Printf("[SWEEP] cooldown prune failed: %v", err)
		return
	}
	log.Printf("🧹 [SWEEP] pruned %d cooldown mark(s)", n)
}
