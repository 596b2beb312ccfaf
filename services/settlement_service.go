// services/settlement_service.go
package services

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"content-jackpot-service/models"
	"content-jackpot-service/scoring"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// SettlementService finalizes expired campaigns: freezes the leaderboard,
// computes the pool and split, and records winners — exactly once per
// campaign.
type SettlementService struct {
	DB   *gorm.DB
	Rand *rand.Rand

	// mu serializes draws from Rand; settlements of different campaigns run
	// concurrently.
	mu sync.Mutex
}

func NewSettlementService(db *gorm.DB) *SettlementService {
	return &SettlementService{
		DB:   db,
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SettleExpired settles every ACTIVE jackpot whose end date has passed.
// Campaigns are independent, so the sweep fans out; the conditional status
// flip inside SettleJackpot keeps each campaign at-most-once even when a
// scheduler tick and the cron endpoint race.
func (s *SettlementService) SettleExpired(ctx context.Context) (int, error) {
	var expired []models.Jackpot
	err := s.DB.WithContext(ctx).
		Where("status = ? AND end_date <= ?", models.JackpotStatusActive, time.Now()).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	var settled int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	results := make([]bool, len(expired))
	for i, j := range expired {
		i, id := i, j.ID
		g.Go(func() error {
			done, err := s.SettleJackpot(ctx, id)
			if err != nil {
				log.Printf("❌ Failed to settle jackpot %s: %v", id, err)
				return err
			}
			results[i] = done
			return nil
		})
	}
	err = g.Wait()
	for _, done := range results {
		if done {
			settled++
		}
	}
	return int(settled), err
}

// SettleJackpot runs the one-time settlement for a single campaign. Returns
// false when the campaign was already settled (or not yet expired) — a safe
// no-op, never an error. The status flip, pool, split and winners are written
// in a single transaction: either the full settlement lands or none of it.
func (s *SettlementService) SettleJackpot(ctx context.Context, jackpotID string) (bool, error) {
	settled := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		// Atomic check-and-set: only one caller wins the ACTIVE → SETTLED
		// flip; everyone else sees zero rows and backs off.
		result := tx.Model(&models.Jackpot{}).
			Where("id = ? AND status = ? AND end_date <= ?", jackpotID, models.JackpotStatusActive, now).
			Updates(map[string]interface{}{
				"status":     models.JackpotStatusSettled,
				"settled_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		var jackpot models.Jackpot
		if err := tx.First(&jackpot, "id = ?", jackpotID).Error; err != nil {
			return err
		}

		var submissions []models.Submission
		if err := tx.Where("jackpot_id = ?", jackpotID).
			Order("views_count DESC").
			Find(&submissions).Error; err != nil {
			return err
		}

		// Zero participants is a valid terminal state: empty pool, no
		// winners. No synthetic data is ever fabricated here.
		var totalViews int64
		entries := make([]scoring.Entry, len(submissions))
		byID := make(map[string]models.Submission, len(submissions))
		for i, sub := range submissions {
			totalViews += sub.ViewsCount
			entries[i] = scoring.Entry{SubmissionID: sub.ID, Views: sub.ViewsCount}
			byID[sub.ID] = sub
		}

		usagePct := scoring.BudgetUsagePercent(totalViews, jackpot.RewardRatePer1k, jackpot.Budget)
		tier := scoring.ActiveTier(
			scoring.Tier{BottomPercentile: jackpot.BottomPercentile, StripPercentage: jackpot.StripPercentage},
			jackpot.DangerZonePhases,
			usagePct,
			jackpot.ProgressiveEnabled,
		)
		ranked := scoring.Rank(entries)
		earnings := scoring.ComputeEarnings(ranked, scoring.EarningsParams{
			Tier:              tier,
			RatePer1k:         jackpot.RewardRatePer1k,
			StripType:         jackpot.StripType,
			DangerZoneEnabled: jackpot.DangerZoneEnabled,
			WinnersCount:      jackpot.WinnersCount,
			Budget:            jackpot.Budget,
			PrizeDistribution: jackpot.PrizeDistribution,
		})

		s.mu.Lock()
		plan := scoring.PlanSettlement(earnings, scoring.SettleConfig{
			WinnersCount:      jackpot.WinnersCount,
			Randomized:        jackpot.RandomizedSplit,
			PrizeDistribution: jackpot.PrizeDistribution,
			Rand:              s.Rand,
		})
		s.mu.Unlock()

		// Freeze the final derived fields on the submissions themselves.
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
				return err
			}
		}

		settlement := &models.SettlementResult{
			ID:          uuid.NewString(),
			JackpotID:   jackpotID,
			Pool:        plan.Pool,
			SplitFirst:  plan.Split.First,
			SplitSecond: plan.Split.Second,
			SplitThird:  plan.Split.Third,
			SettledAt:   now,
		}
		if err := tx.Omit("Winners").Create(settlement).Error; err != nil {
			return err
		}
		for _, w := range plan.Winners {
			sub := byID[w.SubmissionID]
			winner := models.SettlementWinner{
				ID:           uuid.NewString(),
				SettlementID: settlement.ID,
				SubmissionID: w.SubmissionID,
				UserID:       sub.UserID,
				UserName:     sub.UserName,
				Views:        w.Views,
				Rank:         w.Rank,
				Amount:       w.Amount,
			}
			if err := tx.Create(&winner).Error; err != nil {
				return err
			}
		}

		settled = true
		log.Printf("✅ Settled jackpot %s: pool=%.2f winners=%d", jackpotID, plan.Pool, len(plan.Winners))
		return nil
	})
	return settled, err
}

// --- HTTP handlers ---

// SettleExpiredEndpoint is the on-demand settle trigger for an external cron.
func (s *SettlementService) SettleExpiredEndpoint(c *fiber.Ctx) error {
	settled, err := s.SettleExpired(c.Context())
	if err != nil {
		log.Printf("ERROR settling expired jackpots: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "failed to settle expired jackpots",
		})
	}
	return c.JSON(fiber.Map{"success": true, "settled": settled})
}

// GetSettlement returns the immutable settlement result of a jackpot.
func (s *SettlementService) GetSettlement(c *fiber.Ctx) error {
	jackpotID := c.Params("id")

	var settlement models.SettlementResult
	err := s.DB.
		Preload("Winners", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		First(&settlement, "jackpot_id = ?", jackpotID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "jackpot has no settlement yet"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(settlement)
}
