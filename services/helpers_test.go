package services

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"game-rewards-engine/games"
	"game-rewards-engine/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database. One connection keeps every
// goroutine on the same database and serializes transactions.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	db        *gorm.DB
	clock     *testClock
	ledger    *LedgerService
	cooldowns *CooldownGate
	sessions  *SessionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	clock := newTestClock()

	ledger := NewLedgerService(db, 2000, time.UTC)
	ledger.Now = clock.Now

	cooldowns := NewCooldownGate(db, map[games.Kind]time.Duration{
		games.KindPairs:   30 * time.Second,
		games.KindLinkUp:  30 * time.Second,
		games.KindPinball: time.Minute,
		games.KindSlots:   3 * time.Second,
	})

	sessions := NewSessionService(db, ledger, cooldowns, NewSeedService("test-secret"))
	sessions.Now = clock.Now

	return &fixture{db: db, clock: clock, ledger: ledger, cooldowns: cooldowns, sessions: sessions}
}

func (f *fixture) session(t *testing.T, id string) models.GameSession {
	t.Helper()
	var s models.GameSession
	if err := f.db.First(&s, "id = ?", id).Error; err != nil {
		t.Fatalf("load session %s: %v", id, err)
	}
	return s
}

func (f *fixture) entries(t *testing.T, userID string) []models.PointsLedgerEntry {
	t.Helper()
	var es []models.PointsLedgerEntry
	if err := f.db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Find(&es).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	return es
}

// solvePairs clears the dealt board in the minimum number of flips.
func solvePairs(t *testing.T, cards []int) json.RawMessage {
	t.Helper()
	seen := map[int]int{}
	var moves []games.PairMove
	ts := int64(500)
	for i, sym := range cards {
		if j, ok := seen[sym]; ok {
			moves = append(moves, games.PairMove{T: ts, First: j, Second: i})
			ts += 500
			continue
		}
		seen[sym] = i
	}
	raw, err := json.Marshal(moves)
	if err != nil {
		t.Fatalf("marshal moves: %v", err)
	}
	return raw
}
