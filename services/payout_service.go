// services/payout_service.go
package services

import (
	"errors"
	"log"
	"time"

	"content-jackpot-service/models"
	"content-jackpot-service/scoring"
	"content-jackpot-service/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// platformFeeRate is the commission withheld from the payout total.
const platformFeeRate = 0.10

// PayoutService executes the SETTLED → PAID step. Actual money movement is
// delegated to an external payment processor; this service computes the
// breakdown and records the transition.
type PayoutService struct {
	DB *gorm.DB
}

func NewPayoutService(db *gorm.DB) *PayoutService {
	return &PayoutService{DB: db}
}

// PayJackpot marks a settled jackpot as paid and returns the payout
// breakdown: gross total from the settlement winners, a 10% platform fee,
// and the net amount creators receive.
func (s *PayoutService) PayJackpot(c *fiber.Ctx) error {
	id := c.Params("id")

	var jackpot models.Jackpot
	if err := s.DB.First(&jackpot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "jackpot not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if jackpot.Status == models.JackpotStatusPaid {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "jackpot already paid"})
	}
	if jackpot.Status != models.JackpotStatusSettled {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "jackpot must be settled before payout"})
	}

	var settlement models.SettlementResult
	err := s.DB.
		Preload("Winners", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		First(&settlement, "jackpot_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "settled jackpot has no settlement result"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var total float64
	recipients := make([]fiber.Map, 0, len(settlement.Winners))
	for _, w := range settlement.Winners {
		total += w.Amount
		recipients = append(recipients, fiber.Map{
			"user_id":        w.UserID,
			"user_name":      w.UserName,
			"rank":           w.Rank,
			"amount":         w.Amount,
			"amount_display": utils.FormatAmount(w.Amount, jackpot.Currency),
		})
	}
	fee := scoring.Round2(total * platformFeeRate)
	net := scoring.Round2(total - fee)

	now := time.Now()
	result := s.DB.Model(&models.Jackpot{}).
		Where("id = ? AND status = ?", id, models.JackpotStatusSettled).
		Updates(map[string]interface{}{
			"status":  models.JackpotStatusPaid,
			"paid_at": now,
		})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "jackpot status changed concurrently"})
	}

	log.Printf("💸 Jackpot %s paid: total=%.2f fee=%.2f net=%.2f", id, total, fee, net)

	return c.JSON(fiber.Map{
		"ok":            true,
		"jackpot_id":    id,
		"currency":      jackpot.Currency,
		"total":         scoring.Round2(total),
		"fee":           fee,
		"net":           net,
		"total_display": utils.FormatAmount(scoring.Round2(total), jackpot.Currency),
		"net_display":   utils.FormatAmount(net, jackpot.Currency),
		"recipients":    recipients,
		"paid_at":       now,
	})
}
