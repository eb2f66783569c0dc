package session

import (
	"context"
	"log"
	"time"
)

// Purger deletes session entries past their expiry. Redis expires keys itself.
type Purger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// StartCleanup purges expired sessions every interval until ctx is cancelled.
func StartCleanup(ctx context.Context, purger Purger, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purgeOnce(ctx, purger)
			}
		}
	}()

	log.Printf("Started session cleanup background task (every %s)", interval)
}

func purgeOnce(ctx context.Context, purger Purger) int64 {
	removed, err := purger.PurgeExpiredSessions(ctx)
	if err != nil {
		log.Printf("Error cleaning up expired sessions: %v", err)
		return 0
	}
	if removed > 0 {
		log.Printf("Session cleanup removed %d entries", removed)
	}
	return removed
}
