package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"game-rewards-engine/games"

	"github.com/gosimple/slug"
)

// ObjectStore is the subset of the R2 client the archive needs.
type ObjectStore interface {
	PutJSON(ctx context.Context, key string, body []byte) error
}

// MoveLogRecord is the archived evidence for one submitted session.
type MoveLogRecord struct {
	SessionID    string           `json:"session_id"`
	UserID       string           `json:"user_id"`
	Kind         games.Kind       `json:"kind"`
	Difficulty   games.Difficulty `json:"difficulty"`
	Config       games.Config     `json:"config"`
	Moves        json.RawMessage  `json:"moves"`
	Claim        games.Claim      `json:"claim"`
	Verdict      games.Verdict    `json:"verdict"`
	Reason       string           `json:"reason,omitempty"`
	PointsEarned int64            `json:"points_earned"`
	SubmittedAt  time.Time        `json:"submitted_at"`
}

// MoveLogArchive stores move logs for later dispute and anti-cheat review.
// Archiving is best effort: uploads run on a fixed set of workers behind a
// bounded queue, and a record that finds the queue full is logged and dropped.
type MoveLogArchive struct {
	Store   ObjectStore
	Timeout time.Duration

	queue  chan MoveLogRecord
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewMoveLogArchive(store ObjectStore, queueSize int) *MoveLogArchive {
	return &MoveLogArchive{
		Store:   store,
		Timeout: 15 * time.Second,
		queue:   make(chan MoveLogRecord, queueSize),
	}
}

// Start launches the upload workers. Close drains them.
func (a *MoveLogArchive) Start(workers int) {
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			for rec := range a.queue {
				if err := a.Archive(context.Background(), rec); err != nil {
					log.Printf("⚠️  [ARCHIVE] session %s: %v", rec.SessionID, err)
					continue
				}
				log.Printf("📦 [ARCHIVE] stored move log for session %s", rec.SessionID)
			}
		}()
	}
}

// Close stops accepting records and waits for queued uploads to finish.
// Each upload is bounded by Timeout.
func (a *MoveLogArchive) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	a.wg.Wait()
}

// Key is move-logs/<kind>-<difficulty>/<yyyy-mm-dd>/<session-id>.json.
func (a *MoveLogArchive) Key(rec MoveLogRecord) string {
	return fmt.Sprintf("move-logs/%s/%s/%s.json",
		slug.Make(string(rec.Kind)+"-"+string(rec.Difficulty)),
		rec.SubmittedAt.UTC().Format("2006-01-02"),
		rec.SessionID)
}

func (a *MoveLogArchive) Archive(ctx context.Context, rec MoveLogRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode move log: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()
	return a.Store.PutJSON(ctx, a.Key(rec), body)
}

// ArchiveAsync queues rec for upload without blocking. It reports whether
// the record was accepted.
func (a *MoveLogArchive) ArchiveAsync(rec MoveLogRecord) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		log.Printf("⚠️  [ARCHIVE] closed, dropping move log for session %s", rec.SessionID)
		return false
	}
	select {
	case a.queue <- rec:
		return true
	default:
		log.Printf("⚠️  [ARCHIVE] queue full, dropping move log for session %s", rec.SessionID)
		return false
	}
}
