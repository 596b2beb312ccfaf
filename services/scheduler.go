// services/scheduler.go
package services

import (
	"context"
	"log"
	"time"

	"content-jackpot-service/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// StartJackpotScheduler runs the two periodic jobs: settling expired
// campaigns and refreshing the live leaderboard of active ones. The returned
// scheduler should be shut down on exit.
func (s *SettlementService) StartJackpotScheduler(ctx context.Context, tick time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	// Every minute: settle any ACTIVE jackpot past its end date.
	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			settled, err := s.SettleExpired(ctx)
			if err != nil {
				log.Printf("[Scheduler] Settle sweep error: %v", err)
				return
			}
			if settled > 0 {
				log.Printf("✅ Auto-settled %d expired jackpot(s)", settled)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	// Short tick: keep ranks, danger-zone flags and pool previews current for
	// live campaigns.
	_, err = sched.NewJob(
		gocron.DurationJob(tick),
		gocron.NewTask(func() {
			refreshActiveJackpots(s.DB)
		}),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}

func refreshActiveJackpots(db *gorm.DB) {
	var ids []string
	if err := db.Model(&models.Jackpot{}).
		Where("status = ?", models.JackpotStatusActive).
		Pluck("id", &ids).Error; err != nil {
		log.Printf("[Scheduler] DB error listing active jackpots: %v", err)
		return
	}
	for _, id := range ids {
		if err := RefreshJackpotScoring(db, id); err != nil {
			log.Printf("[Scheduler] Failed to refresh jackpot %s: %v", id, err)
		}
	}
}
