// services/jackpot_service.go
package services

import (
	"errors"
	"log"
	"math"
	"net/url"
	"path/filepath"
	"time"

	"content-jackpot-service/models"
	"content-jackpot-service/scoring"
	"content-jackpot-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type JackpotService struct {
	DB *gorm.DB
}

func NewJackpotService(db *gorm.DB) *JackpotService {
	return &JackpotService{DB: db}
}

// CreateJackpot creates a new jackpot campaign in DRAFT status.
func (s *JackpotService) CreateJackpot(c *fiber.Ctx) error {
	var req struct {
		CampaignName              string                   `json:"campaign_name"`
		ContentRewardsCampaignURL string                   `json:"content_rewards_campaign_url"`
		Budget                    float64                  `json:"budget"`
		Currency                  string                   `json:"currency"`
		RewardRatePer1k           float64                  `json:"reward_rate_per_1k"`
		PayoutMode                models.PayoutMode        `json:"payout_mode"`
		StartDate                 string                   `json:"start_date"`
		EndDate                   string                   `json:"end_date"`
		Platforms                 models.Platforms         `json:"platforms"`
		ContentRequirements       string                   `json:"content_requirements"`
		GuidelinesLink            string                   `json:"guidelines_link"`
		Eligibility               models.Eligibility       `json:"eligibility"`
		DangerZoneEnabled         *bool                    `json:"danger_zone_enabled"`
		BottomPercentile          float64                  `json:"bottom_percentile"`
		StripPercentage           float64                  `json:"strip_percentage"`
		ProgressiveEnabled        bool                     `json:"progressive_enabled"`
		DangerZonePhases          []models.DangerZonePhase `json:"danger_zone_phases"`
		StripType                 models.StripType         `json:"strip_type"`
		WinnersCount              int                      `json:"winners_count"`
		PrizeDistribution         []float64                `json:"prize_distribution"`
		RandomizedSplit           bool                     `json:"randomized_split"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	// --- Defaults ---
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.PayoutMode == "" {
		req.PayoutMode = models.PayoutModeInstant
	}
	if req.Eligibility == "" {
		req.Eligibility = models.EligibilityPublic
	}
	if req.StripType == "" {
		req.StripType = models.StripTypePartial
	}
	if req.WinnersCount == 0 {
		req.WinnersCount = 3
	}
	if len(req.PrizeDistribution) == 0 && req.WinnersCount == 3 {
		req.PrizeDistribution = []float64{60, 30, 10}
	}
	dangerZoneEnabled := true
	if req.DangerZoneEnabled != nil {
		dangerZoneEnabled = *req.DangerZoneEnabled
	}

	// --- Boundary validation: reject, never silently correct ---
	details := fiber.Map{}
	if req.CampaignName == "" {
		details["campaign_name"] = "campaign name is required"
	} else if len(req.CampaignName) > 100 {
		details["campaign_name"] = "campaign name must be less than 100 characters"
	}
	if req.ContentRewardsCampaignURL == "" {
		details["content_rewards_campaign_url"] = "Content Rewards campaign URL is required"
	} else if !validURL(req.ContentRewardsCampaignURL) {
		details["content_rewards_campaign_url"] = "must be a valid URL"
	}
	if req.Budget < 1 {
		details["budget"] = "jackpot budget must be at least 1"
	}
	switch req.Currency {
	case "USD", "EUR", "GBP":
	default:
		details["currency"] = "currency must be one of USD, EUR, GBP"
	}
	if req.RewardRatePer1k < 0 {
		details["reward_rate_per_1k"] = "reward rate must be non-negative"
	}
	switch req.PayoutMode {
	case models.PayoutModeInstant, models.PayoutModeBatch:
	default:
		details["payout_mode"] = "payout mode must be INSTANT or BATCH"
	}
	switch req.Eligibility {
	case models.EligibilityCustomersOnly, models.EligibilityPublic:
	default:
		details["eligibility"] = "eligibility must be CUSTOMERS_ONLY or PUBLIC"
	}
	if !req.Platforms.Any() {
		details["platforms"] = "at least one platform must be selected"
	}
	if req.GuidelinesLink != "" && !validURL(req.GuidelinesLink) {
		details["guidelines_link"] = "must be a valid URL"
	}

	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		details["start_date"] = "invalid start_date (use RFC3339)"
	}
	endDate, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		details["end_date"] = "invalid end_date (use RFC3339)"
	} else if _, ok := details["start_date"]; !ok && !endDate.After(startDate) {
		details["end_date"] = "end date must be after start date"
	}

	if req.BottomPercentile < 1 || req.BottomPercentile > 100 {
		details["bottom_percentile"] = "bottom percentile must be between 1 and 100"
	}
	if req.StripPercentage < 1 || req.StripPercentage > 100 {
		details["strip_percentage"] = "strip percentage must be between 1 and 100"
	}
	switch req.StripType {
	case models.StripTypeFull, models.StripTypePartial, models.StripTypeProgressive:
	default:
		details["strip_type"] = "strip type must be FULL, PARTIAL or PROGRESSIVE"
	}
	if req.ProgressiveEnabled && len(req.DangerZonePhases) == 0 {
		details["danger_zone_phases"] = "add at least one progressive danger-zone phase or disable progressive mode"
	}
	if len(req.DangerZonePhases) > 3 {
		details["danger_zone_phases"] = "at most 3 danger-zone phases are allowed"
	}
	for _, p := range req.DangerZonePhases {
		if p.UsagePercent < 1 || p.UsagePercent > 100 ||
			p.StripPercentile < 1 || p.StripPercentile > 100 ||
			p.StripPercentage < 1 || p.StripPercentage > 100 {
			details["danger_zone_phases"] = "phase values must be between 1 and 100"
			break
		}
	}
	if req.WinnersCount < 1 || req.WinnersCount > 3 {
		details["winners_count"] = "winners count must be between 1 and 3"
	} else if len(req.PrizeDistribution) != req.WinnersCount {
		details["prize_distribution"] = "prize distribution must have one percentage per winner place"
	} else {
		var sum float64
		for _, pct := range req.PrizeDistribution {
			if pct < 0 {
				details["prize_distribution"] = "prize percentages must be non-negative"
			}
			sum += pct
		}
		if _, bad := details["prize_distribution"]; !bad && math.Abs(sum-100) > 1e-9 {
			details["prize_distribution"] = "prize distribution must sum to 100"
		}
	}

	if len(details) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid data provided",
			"details": details,
		})
	}

	creatorID, _ := c.Locals("user_id").(string)

	jackpot := &models.Jackpot{
		ID:                        uuid.NewString(),
		CampaignName:              req.CampaignName,
		Slug:                      slug.Make(req.CampaignName),
		ContentRewardsCampaignURL: req.ContentRewardsCampaignURL,
		CreatorID:                 creatorID,
		Budget:                    req.Budget,
		Currency:                  req.Currency,
		RewardRatePer1k:           req.RewardRatePer1k,
		PayoutMode:                req.PayoutMode,
		StartDate:                 startDate,
		EndDate:                   endDate,
		Platforms:                 req.Platforms,
		ContentRequirements:       req.ContentRequirements,
		GuidelinesLink:            req.GuidelinesLink,
		Eligibility:               req.Eligibility,
		DangerZoneEnabled:         dangerZoneEnabled,
		BottomPercentile:          req.BottomPercentile,
		StripPercentage:           req.StripPercentage,
		ProgressiveEnabled:        req.ProgressiveEnabled,
		DangerZonePhases:          req.DangerZonePhases,
		StripType:                 req.StripType,
		WinnersCount:              req.WinnersCount,
		PrizeDistribution:         req.PrizeDistribution,
		RandomizedSplit:           req.RandomizedSplit,
		Status:                    models.JackpotStatusDraft, // always start as draft
	}

	if err := s.DB.Create(jackpot).Error; err != nil {
		log.Printf("DB Error creating jackpot: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create jackpot"})
	}

	return c.Status(fiber.StatusCreated).JSON(jackpot)
}

// GetAllJackpots lists jackpots with live preview metrics, optionally
// filtered by status and creator.
func (s *JackpotService) GetAllJackpots(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Jackpot{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if creatorID := c.Query("creatorId"); creatorID != "" {
		query = query.Where("creator_id = ?", creatorID)
	}

	var jackpots []models.Jackpot
	err := query.
		Preload("Submissions", func(db *gorm.DB) *gorm.DB {
			return db.Order("views_count DESC")
		}).
		Order("created_at DESC").
		Find(&jackpots).Error
	if err != nil {
		log.Printf("ERROR fetching jackpots: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch jackpots"})
	}

	for i := range jackpots {
		applyLiveScoring(&jackpots[i])
	}
	return c.JSON(jackpots)
}

// GetJackpotByID returns a jackpot with its submissions rescored on read and
// its settlement result when present.
func (s *JackpotService) GetJackpotByID(c *fiber.Ctx) error {
	id := c.Params("id")

	var jackpot models.Jackpot
	err := s.DB.
		Preload("Submissions", func(db *gorm.DB) *gorm.DB {
			return db.Order("views_count DESC")
		}).
		Preload("Settlement.Winners", func(db *gorm.DB) *gorm.DB {
			return db.Order("rank ASC")
		}).
		Preload("Settlement").
		First(&jackpot, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "jackpot not found"})
		}
		log.Printf("ERROR fetching jackpot %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	applyLiveScoring(&jackpot)
	return c.JSON(jackpot)
}

// UpdateJackpot updates campaign configuration. Settled and paid campaigns
// are frozen.
func (s *JackpotService) UpdateJackpot(c *fiber.Ctx) error {
	id := c.Params("id")

	var existing models.Jackpot
	if err := s.DB.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "jackpot not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if existing.Status == models.JackpotStatusSettled || existing.Status == models.JackpotStatusPaid {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "settled jackpots cannot be modified"})
	}

	var req struct {
		CampaignName        *string                   `json:"campaign_name"`
		Budget              *float64                  `json:"budget"`
		RewardRatePer1k     *float64                  `json:"reward_rate_per_1k"`
		EndDate             *string                   `json:"end_date"`
		ContentRequirements *string                   `json:"content_requirements"`
		GuidelinesLink      *string                   `json:"guidelines_link"`
		DangerZoneEnabled   *bool                     `json:"danger_zone_enabled"`
		BottomPercentile    *float64                  `json:"bottom_percentile"`
		StripPercentage     *float64                  `json:"strip_percentage"`
		ProgressiveEnabled  *bool                     `json:"progressive_enabled"`
		DangerZonePhases    *[]models.DangerZonePhase `json:"danger_zone_phases"`
		StripType           *models.StripType         `json:"strip_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.CampaignName != nil {
		if *req.CampaignName == "" || len(*req.CampaignName) > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "campaign name must be 1-100 characters"})
		}
		existing.CampaignName = *req.CampaignName
		existing.Slug = slug.Make(*req.CampaignName)
	}
	if req.Budget != nil {
		if *req.Budget < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "jackpot budget must be at least 1"})
		}
		existing.Budget = *req.Budget
	}
	if req.RewardRatePer1k != nil {
		if *req.RewardRatePer1k < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "reward rate must be non-negative"})
		}
		existing.RewardRatePer1k = *req.RewardRatePer1k
	}
	if req.EndDate != nil {
		endDate, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid end_date (use RFC3339)"})
		}
		if !endDate.After(existing.StartDate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end date must be after start date"})
		}
		existing.EndDate = endDate
	}
	if req.ContentRequirements != nil {
		existing.ContentRequirements = *req.ContentRequirements
	}
	if req.GuidelinesLink != nil {
		existing.GuidelinesLink = *req.GuidelinesLink
	}
	if req.DangerZoneEnabled != nil {
		existing.DangerZoneEnabled = *req.DangerZoneEnabled
	}
	if req.BottomPercentile != nil {
		if *req.BottomPercentile < 1 || *req.BottomPercentile > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bottom percentile must be between 1 and 100"})
		}
		existing.BottomPercentile = *req.BottomPercentile
	}
	if req.StripPercentage != nil {
		if *req.StripPercentage < 1 || *req.StripPercentage > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "strip percentage must be between 1 and 100"})
		}
		existing.StripPercentage = *req.StripPercentage
	}
	if req.ProgressiveEnabled != nil {
		existing.ProgressiveEnabled = *req.ProgressiveEnabled
	}
	if req.DangerZonePhases != nil {
		if len(*req.DangerZonePhases) > 3 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "at most 3 danger-zone phases are allowed"})
		}
		for _, p := range *req.DangerZonePhases {
			if p.UsagePercent < 1 || p.UsagePercent > 100 ||
				p.StripPercentile < 1 || p.StripPercentile > 100 ||
				p.StripPercentage < 1 || p.StripPercentage > 100 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "phase values must be between 1 and 100"})
			}
		}
		existing.DangerZonePhases = *req.DangerZonePhases
	}
	if req.StripType != nil {
		switch *req.StripType {
		case models.StripTypeFull, models.StripTypePartial, models.StripTypeProgressive:
			existing.StripType = *req.StripType
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "strip type must be FULL, PARTIAL or PROGRESSIVE"})
		}
	}
	if existing.ProgressiveEnabled && len(existing.DangerZonePhases) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "add at least one progressive danger-zone phase or disable progressive mode"})
	}

	if err := s.DB.Save(&existing).Error; err != nil {
		log.Printf("DB Error updating jackpot %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update jackpot"})
	}

	// Configuration changed; derived submission fields must follow.
	if err := RefreshJackpotScoring(s.DB, existing.ID); err != nil {
		log.Printf("⚠️ Failed to refresh scoring for jackpot %s: %v", existing.ID, err)
	}

	return c.JSON(existing)
}

// DeleteJackpot removes a jackpot and everything hanging off it.
func (s *JackpotService) DeleteJackpot(c *fiber.Ctx) error {
	id := c.Params("id")

	var jackpot models.Jackpot
	if err := s.DB.First(&jackpot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "jackpot not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var settlement models.SettlementResult
		if err := tx.Where("jackpot_id = ?", id).First(&settlement).Error; err == nil {
			if err := tx.Where("settlement_id = ?", settlement.ID).Delete(&models.SettlementWinner{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&settlement).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Where("jackpot_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		return tx.Delete(&jackpot).Error
	})
	if err != nil {
		log.Printf("DB Error deleting jackpot %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete jackpot"})
	}

	return c.JSON(fiber.Map{"message": "Jackpot deleted successfully"})
}

// UpdateJackpotStatus moves a jackpot forward in its lifecycle. Only the
// DRAFT → ACTIVE step is allowed here: SETTLED is reached exclusively through
// the settlement engine and PAID through the payout endpoint.
func (s *JackpotService) UpdateJackpotStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	var req struct {
		Status models.JackpotStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	if req.Status != models.JackpotStatusActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "only the ACTIVE transition is allowed here"})
	}

	var jackpot models.Jackpot
	if err := s.DB.First(&jackpot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "jackpot not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if !jackpot.CanTransitionTo(req.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "invalid status transition",
			"from":  jackpot.Status,
			"to":    req.Status,
		})
	}

	// Conditional update keeps the transition monotonic under races.
	result := s.DB.Model(&models.Jackpot{}).
		Where("id = ? AND status = ?", id, jackpot.Status).
		Update("status", req.Status)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "jackpot status changed concurrently"})
	}

	jackpot.Status = req.Status
	return c.JSON(jackpot)
}

// UploadThumbnail stores a campaign thumbnail in R2 and records its URL.
func (s *JackpotService) UploadThumbnail(c *fiber.Ctx) error {
	id := c.Params("id")

	var jackpot models.Jackpot
	if err := s.DB.First(&jackpot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "jackpot not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	file, err := c.FormFile("thumbnail")
	if err != nil || file.Size == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "thumbnail file is required"})
	}

	ext := filepath.Ext(file.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := "jackpots/thumbnails/" + uuid.NewString() + ext
	publicURL, err := utils.UploadFileToR2(file, key)
	if err != nil {
		log.Printf("R2 upload failed for jackpot %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload thumbnail"})
	}

	if err := s.DB.Model(&jackpot).Update("thumbnail_url", publicURL).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save thumbnail URL"})
	}

	return c.JSON(fiber.Map{"message": "Thumbnail uploaded", "thumbnail_url": publicURL})
}

// applyLiveScoring recomputes the derived submission fields and preview
// metrics for an in-memory jackpot. Submissions must already be ordered by
// views descending (the ranking order). Settled campaigns are frozen, so
// their stored fields are summarized as-is instead of being rescored.
func applyLiveScoring(j *models.Jackpot) {
	j.SubmissionCount = int64(len(j.Submissions))

	var totalViews int64
	entries := make([]scoring.Entry, len(j.Submissions))
	for i, sub := range j.Submissions {
		totalViews += sub.ViewsCount
		entries[i] = scoring.Entry{SubmissionID: sub.ID, Views: sub.ViewsCount}
	}
	j.TotalViews = totalViews
	j.BudgetUsagePct = scoring.BudgetUsagePercent(totalViews, j.RewardRatePer1k, j.Budget)

	if j.Status == models.JackpotStatusSettled || j.Status == models.JackpotStatusPaid {
		var pool float64
		for _, sub := range j.Submissions {
			if sub.InDangerZone {
				j.DangerZoneCount++
				pool += sub.StrippedAmount
			}
		}
		j.PoolPreview = scoring.Round2(pool)
		if j.Settlement != nil {
			j.PoolPreview = j.Settlement.Pool
		}
		return
	}

	tier := scoring.ActiveTier(
		scoring.Tier{BottomPercentile: j.BottomPercentile, StripPercentage: j.StripPercentage},
		j.DangerZonePhases,
		j.BudgetUsagePct,
		j.ProgressiveEnabled,
	)

	earnings := scoring.ComputeEarnings(scoring.Rank(entries), scoring.EarningsParams{
		Tier:              tier,
		RatePer1k:         j.RewardRatePer1k,
		StripType:         j.StripType,
		DangerZoneEnabled: j.DangerZoneEnabled,
		WinnersCount:      j.WinnersCount,
		Budget:            j.Budget,
		PrizeDistribution: j.PrizeDistribution,
	})

	byID := make(map[string]scoring.SubmissionEarnings, len(earnings))
	for _, e := range earnings {
		byID[e.SubmissionID] = e
	}
	var zoneCount int64
	for i := range j.Submissions {
		e, ok := byID[j.Submissions[i].ID]
		if !ok {
			continue
		}
		j.Submissions[i].Rank = e.Rank
		j.Submissions[i].BaseEarnings = e.BaseEarnings
		j.Submissions[i].InDangerZone = e.InDangerZone
		j.Submissions[i].StrippedAmount = e.StrippedAmount
		j.Submissions[i].PotentialJackpot = e.PotentialJackpot
		if e.InDangerZone {
			zoneCount++
		}
	}
	j.DangerZoneCount = zoneCount
	j.PoolPreview = scoring.Round2(scoring.Pool(earnings))
}

func validURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
