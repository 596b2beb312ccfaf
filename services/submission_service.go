// services/submission_service.go
package services

import (
	"errors"
	"log"
	"time"

	"content-jackpot-service/models"
	"content-jackpot-service/scoring"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionService struct {
	DB *gorm.DB
}

func NewSubmissionService(db *gorm.DB) *SubmissionService {
	return &SubmissionService{DB: db}
}

// CreateSubmission enters a creator into a jackpot. One submission per user
// per jackpot; duplicates are rejected, never merged.
func (s *SubmissionService) CreateSubmission(c *fiber.Ctx) error {
	var req struct {
		JackpotID  string          `json:"jackpot_id"`
		UserID     string          `json:"user_id"`
		UserName   string          `json:"user_name"`
		ContentURL string          `json:"content_url"`
		Platform   models.Platform `json:"platform"`
		ViewsCount int64           `json:"views_count"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.UserID == "" {
		// Fall back to the gateway-provided identity.
		req.UserID, _ = c.Locals("user_id").(string)
	}

	details := fiber.Map{}
	if req.JackpotID == "" {
		details["jackpot_id"] = "jackpot_id is required"
	}
	if req.UserID == "" {
		details["user_id"] = "user_id is required"
	}
	if req.ContentURL == "" || !validURL(req.ContentURL) {
		details["content_url"] = "content_url must be a valid URL"
	}
	if !models.ValidPlatform(req.Platform) {
		details["platform"] = "platform must be one of TIKTOK, INSTAGRAM, YOUTUBE, TWITTER"
	}
	if req.ViewsCount < 0 {
		details["views_count"] = "views_count must be non-negative"
	}
	if len(details) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid data provided",
			"details": details,
		})
	}

	var jackpot models.Jackpot
	if err := s.DB.First(&jackpot, "id = ?", req.JackpotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "jackpot not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if jackpot.Status != models.JackpotStatusActive {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "jackpot is not active for submissions"})
	}

	var existing models.Submission
	err := s.DB.Where("jackpot_id = ? AND user_id = ?", req.JackpotID, req.UserID).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "user already has a submission for this jackpot"})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	submission := &models.Submission{
		ID:           uuid.NewString(),
		JackpotID:    req.JackpotID,
		UserID:       req.UserID,
		UserName:     req.UserName,
		ContentURL:   req.ContentURL,
		Platform:     req.Platform,
		ViewsCount:   req.ViewsCount,
		BaseEarnings: scoring.BaseEarnings(req.ViewsCount, jackpot.RewardRatePer1k),
		LastUpdated:  time.Now(),
	}

	if err := s.DB.Create(submission).Error; err != nil {
		// Two concurrent creates can both pass the lookup above; the unique
		// index catches the loser.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "user already has a submission for this jackpot"})
		}
		log.Printf("DB Error creating submission: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create submission"})
	}

	// A new entrant shifts everyone's rank.
	if err := RefreshJackpotScoring(s.DB, req.JackpotID); err != nil {
		log.Printf("⚠️ Failed to refresh scoring for jackpot %s: %v", req.JackpotID, err)
	}

	s.DB.First(submission, "id = ?", submission.ID)
	return c.Status(fiber.StatusCreated).JSON(submission)
}

// GetSubmissions lists submissions, filterable by jackpot and user, ordered
// by views descending (the ranking order).
func (s *SubmissionService) GetSubmissions(c *fiber.Ctx) error {
	query := s.DB.Model(&models.Submission{})
	if jackpotID := c.Query("jackpotId"); jackpotID != "" {
		query = query.Where("jackpot_id = ?", jackpotID)
	}
	if userID := c.Query("userId"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var submissions []models.Submission
	if err := query.Order("views_count DESC").Find(&submissions).Error; err != nil {
		log.Printf("ERROR fetching submissions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch submissions"})
	}
	return c.JSON(submissions)
}

// UpdateSubmission applies a view-count update. Views are monotonically
// non-decreasing while a campaign is live; decreases are rejected.
func (s *SubmissionService) UpdateSubmission(c *fiber.Ctx) error {
	id := c.Params("id")

	var submission models.Submission
	if err := s.DB.First(&submission, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "submission not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var jackpot models.Jackpot
	if err := s.DB.First(&jackpot, "id = ?", submission.JackpotID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if jackpot.Status == models.JackpotStatusSettled || jackpot.Status == models.JackpotStatusPaid {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "jackpot is settled; submissions are frozen"})
	}

	var req struct {
		ViewsCount *int64  `json:"views_count"`
		ContentURL *string `json:"content_url"`
		UserName   *string `json:"user_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	viewsChanged := false
	if req.ViewsCount != nil {
		if *req.ViewsCount < submission.ViewsCount {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "views_count cannot decrease"})
		}
		if *req.ViewsCount != submission.ViewsCount {
			submission.ViewsCount = *req.ViewsCount
			submission.BaseEarnings = scoring.BaseEarnings(*req.ViewsCount, jackpot.RewardRatePer1k)
			viewsChanged = true
		}
	}
	if req.ContentURL != nil {
		if !validURL(*req.ContentURL) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "content_url must be a valid URL"})
		}
		submission.ContentURL = *req.ContentURL
	}
	if req.UserName != nil {
		submission.UserName = *req.UserName
	}
	submission.LastUpdated = time.Now()

	if err := s.DB.Save(&submission).Error; err != nil {
		log.Printf("DB Error updating submission %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update submission"})
	}

	if viewsChanged {
		if err := RefreshJackpotScoring(s.DB, submission.JackpotID); err != nil {
			log.Printf("⚠️ Failed to refresh scoring for jackpot %s: %v", submission.JackpotID, err)
		}
		s.DB.First(&submission, "id = ?", id)
	}

	return c.JSON(submission)
}

// DeleteSubmission withdraws an entry from a live campaign.
func (s *SubmissionService) DeleteSubmission(c *fiber.Ctx) error {
	id := c.Params("id")

	var submission models.Submission
	if err := s.DB.First(&submission, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "submission not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var jackpot models.Jackpot
	if err := s.DB.First(&jackpot, "id = ?", submission.JackpotID).Error; err == nil {
		if jackpot.Status == models.JackpotStatusSettled || jackpot.Status == models.JackpotStatusPaid {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "jackpot is settled; submissions are frozen"})
		}
	}

	if err := s.DB.Delete(&submission).Error; err != nil {
		log.Printf("DB Error deleting submission %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete submission"})
	}

	if err := RefreshJackpotScoring(s.DB, submission.JackpotID); err != nil {
		log.Printf("⚠️ Failed to refresh scoring for jackpot %s: %v", submission.JackpotID, err)
	}

	return c.JSON(fiber.Map{"message": "Submission deleted successfully"})
}
