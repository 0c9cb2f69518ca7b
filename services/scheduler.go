// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartReminderScheduler nudges the admin about payment requests that have
// been pending longer than olderThan. Replaces manual /pending polling.
func (s *PaymentService) StartReminderScheduler(every, olderThan time.Duration) {
	sched, _ := gocron.NewScheduler(gocron.WithClock(s.clock))
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			cutoff := s.clock.Now().Add(-olderThan)
			stale, err := s.payments.ListPendingOlderThan(ctx, cutoff)
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			if len(stale) == 0 {
				return
			}

			text := fmt.Sprintf("⏳ %d payment request(s) still waiting for review:\n", len(stale))
			for _, pr := range stale {
				text += fmt.Sprintf("\n👤 %s — 📦 %s — 💰 %s (since %s)",
					pr.PlayerName, pr.Product, pr.Amount, pr.SubmittedAt.Format("2006-01-02 15:04"))
			}
			if _, err := s.notifier.Notify(ctx, s.adminID, text); err != nil {
				log.Printf("[Scheduler] reminder notification failed: %v", err)
			}
		}),
	)
}
