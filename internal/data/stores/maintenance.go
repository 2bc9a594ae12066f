package stores

import (
	"context"
	"time"

	"github.com/wardwatch/wardwatch/internal/core/logging"
)

// RunMaintenance periodically clears expired KV entries and prunes read
// inbox items older than retentionDays. A non-positive retention keeps
// the inbox forever. Blocks until the context is cancelled.
func RunMaintenance(ctx context.Context, kvStore *KVStore, inboxStore *InboxStore, every time.Duration, retentionDays int) {
	log := logging.Component("maintenance")

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := kvStore.SweepExpired(ctx); err != nil {
				log.Debug().Err(err).Msg("kv sweep failed")
			}

			if retentionDays <= 0 {
				continue
			}
			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			n, err := inboxStore.Prune(ctx, cutoff)
			if err != nil {
				log.Debug().Err(err).Msg("inbox prune failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("removed", n).Msg("pruned read inbox items")
			}
		}
	}
}
