package game

import (
	"context"
	"log"
	"time"
)

// StartQueueCleanupWorker runs the periodic stale-queue sweep. The engine
// never schedules its own eviction; this worker is the external scheduler.
func StartQueueCleanupWorker(ctx context.Context, gm *GameManager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[QUEUE] Starting queue cleanup worker (poll every %v)", interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[QUEUE] Cleanup worker stopped")
			return
		case <-ticker.C:
			if removed := gm.CleanupStaleQueue(ctx); removed > 0 {
				log.Printf("[QUEUE] Cleanup sweep removed %d stale entries", removed)
			}
		}
	}
}
