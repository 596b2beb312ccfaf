// services/scoring_refresh.go
package services

import (
	"fmt"
	"time"

	"content-jackpot-service/models"
	"content-jackpot-service/scoring"

	"gorm.io/gorm"
)

// RefreshJackpotScoring recomputes and persists the derived fields of every
// submission in a jackpot: rank, base earnings, danger-zone flag, stripped
// amount and potential jackpot. It is the single write path for ranking
// state, shared by the submission endpoints, the view-sync worker and the
// scheduler tick. The whole recompute is one transaction so readers never see
// a half-ranked leaderboard.
func RefreshJackpotScoring(db *gorm.DB, jackpotID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var jackpot models.Jackpot
		if err := tx.First(&jackpot, "id = ?", jackpotID).Error; err != nil {
			return fmt.Errorf("load jackpot %s: %w", jackpotID, err)
		}

		// Settled campaigns are frozen; their stored fields are final.
		if jackpot.Status == models.JackpotStatusSettled || jackpot.Status == models.JackpotStatusPaid {
			return nil
		}

		var submissions []models.Submission
		if err := tx.Where("jackpot_id = ?", jackpotID).
			Order("views_count DESC").
			Find(&submissions).Error; err != nil {
			return fmt.Errorf("load submissions for jackpot %s: %w", jackpotID, err)
		}
		if len(submissions) == 0 {
			return nil
		}

		var totalViews int64
		entries := make([]scoring.Entry, len(submissions))
		for i, sub := range submissions {
			totalViews += sub.ViewsCount
			entries[i] = scoring.Entry{SubmissionID: sub.ID, Views: sub.ViewsCount}
		}

		usagePct := scoring.BudgetUsagePercent(totalViews, jackpot.RewardRatePer1k, jackpot.Budget)
		tier := scoring.ActiveTier(
			scoring.Tier{BottomPercentile: jackpot.BottomPercentile, StripPercentage: jackpot.StripPercentage},
			jackpot.DangerZonePhases,
			usagePct,
			jackpot.ProgressiveEnabled,
		)

		earnings := scoring.ComputeEarnings(scoring.Rank(entries), scoring.EarningsParams{
			Tier:              tier,
			RatePer1k:         jackpot.RewardRatePer1k,
			StripType:         jackpot.StripType,
			DangerZoneEnabled: jackpot.DangerZoneEnabled,
			WinnersCount:      jackpot.WinnersCount,
			Budget:            jackpot.Budget,
			PrizeDistribution: jackpot.PrizeDistribution,
		})

		now := time.Now()
		for _, e := range earnings {
			if err := tx.Model(&models.Submission{}).
				Where("id = ?", e.SubmissionID).
				Updates(map[string]interface{}{
					"rank":              e.Rank,
					"base_earnings":     e.BaseEarnings,
					"in_danger_zone":    e.InDangerZone,
					"stripped_amount":   e.StrippedAmount,
					"potential_jackpot": e.PotentialJackpot,
					"last_updated":      now,
				}).Error; err != nil {
				return fmt.Errorf("update submission %s: %w", e.SubmissionID, err)
			}
		}
		return nil
	})
}
