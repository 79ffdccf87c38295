package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"game-rewards-engine/models"

	"github.com/gofiber/fiber/v2"
)

// StreamInterval is how often the ledger stream polls for new entries.
var StreamInterval = 2 * time.Second

// CursorLookback is how far behind its newest entry a cursor keeps
// re-reading. CreditTx stamps an entry before it waits on the row locks, so
// an entry can commit after a newer one; it is still delivered as long as
// it lands within this window.
var CursorLookback = time.Minute

// LedgerCursor yields each of a user's ledger entries once, in the order
// they become visible.
type LedgerCursor struct {
	ledger *LedgerService
	userID string
	high   time.Time
	seen   map[string]time.Time
}

// NewCursor starts a cursor at from. Entries already visible and created in
// the lookback window before from count as delivered.
func (l *LedgerService) NewCursor(userID string, from time.Time) (*LedgerCursor, error) {
	c := &LedgerCursor{ledger: l, userID: userID, high: from, seen: map[string]time.Time{}}
	existing, err := l.Since(userID, from.Add(-CursorLookback))
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		c.mark(e)
	}
	return c, nil
}

func (c *LedgerCursor) mark(e models.PointsLedgerEntry) {
	c.seen[e.ID] = e.CreatedAt
	if e.CreatedAt.After(c.high) {
		c.high = e.CreatedAt
	}
}

// Next returns entries not yet delivered, oldest first.
func (c *LedgerCursor) Next() ([]models.PointsLedgerEntry, error) {
	entries, err := c.ledger.Since(c.userID, c.high.Add(-CursorLookback))
	if err != nil {
		return nil, err
	}
	var fresh []models.PointsLedgerEntry
	for _, e := range entries {
		if _, ok := c.seen[e.ID]; ok {
			continue
		}
		fresh = append(fresh, e)
		c.mark(e)
	}

	floor := c.high.Add(-CursorLookback)
	for id, at := range c.seen {
		if at.Before(floor) {
			delete(c.seen, id)
		}
	}
	return fresh, nil
}

// StreamLedgerSSE streams the caller's new ledger entries, each batch
// followed by the resulting balance, until the client disconnects.
func (l *LedgerService) StreamLedgerSSE(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	cursor, err := l.NewCursor(userID, l.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     "failed to open ledger stream",
			"code":      "internal",
			"cause":     err.Error(),
			"retryable": true,
		})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	done := c.Context().Done()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		l.writeLedgerStream(done, w, userID, cursor)
	})
	return nil
}

func (l *LedgerService) writeLedgerStream(done <-chan struct{}, w *bufio.Writer, userID string, cursor *LedgerCursor) {
	ticker := time.NewTicker(StreamInterval)
	defer ticker.Stop()

	w.WriteString(":\n\n")
	if err := w.Flush(); err != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			entries, err := cursor.Next()
			if err != nil {
				log.Printf("[SSE] ledger query error for user %s: %v", userID, err)
				continue
			}
			if len(entries) == 0 {
				// Keepalive so dead clients surface as flush errors.
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
				continue
			}

			for _, e := range entries {
				payload, _ := json.Marshal(e)
				fmt.Fprintf(w, "event: ledger\ndata: %s\n\n", payload)
			}
			if balance, err := l.Balance(userID); err == nil {
				fmt.Fprintf(w, "event: balance\ndata: {\"balance\":%d}\n\n", balance)
			}

			if err := w.Flush(); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
