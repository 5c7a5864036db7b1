package lending

import (
	"context"
	"log"
	"time"
)

// Sweeper runs the overdue sweep on a fixed cadence. The sweep itself is one
// conditional update keyed on status = 'borrowed', so running it alongside
// borrow/return/renew traffic is safe.
type Sweeper struct {
	svc      *Service
	interval time.Duration
}

func NewSweeper(svc *Service, interval time.Duration) *Sweeper {
	return &Sweeper{svc: svc, interval: interval}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (sw *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sw.svc.SweepOverdue(ctx)
			if err != nil {
				log.Printf("[ERROR] overdue sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[INFO] overdue sweep: %d transaction(s) marked overdue", n)
			}
		}
	}
}
