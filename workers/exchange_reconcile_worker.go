package workers

import (
	"context"
	"log"
	"time"

	"game-rewards-engine/services"
)

// Reconciler is the part of the exchange service the poller drives.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// PollExchanges settles uncertain exchanges against the quota service
// every pollInterval until ctx is done.
func PollExchanges(ctx context.Context, r Reconciler, pollInterval time.Duration) {
	log.Println("Starting exchange reconciliation polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Exchange reconciliation stopped.")
			return
		case <-ticker.C:
			reconcileOnce(ctx, r)
		}
	}
}

func reconcileOnce(ctx context.Context, r Reconciler) int {
	settled, err := r.Reconcile(ctx)
	if err != nil {
		log.Printf("❌ Error reconciling exchanges: %v", err)
		return settled
	}
	if settled > 0 {
		log.Printf("✅ Settled %d uncertain exchange(s).", settled)
	}
	return settled
}

var _ Reconciler = (*services.ExchangeService)(nil)
