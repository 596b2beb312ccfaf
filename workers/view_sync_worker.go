package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"content-jackpot-service/models"
	"content-jackpot-service/services"

	"gorm.io/gorm"
)

// ViewUpdate is one view-count reading from the analytics service.
type ViewUpdate struct {
	ContentURL string `json:"contentUrl"`
	Views      int64  `json:"views"`
}

// ViewSyncClient pulls view-count deltas from the analytics service and
// writes them through to submissions.
type ViewSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewViewSyncClient(db *gorm.DB) *ViewSyncClient {
	baseURL := os.Getenv("VIEW_SOURCE_URL")
	if baseURL == "" {
		log.Fatal("VIEW_SOURCE_URL environment variable is required")
	}
	token := os.Getenv("JACKPOT_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("JACKPOT_SERVICE_TOKEN environment variable is required for view sync")
	}

	return &ViewSyncClient{
		BaseURL: baseURL,
		Token:   token,
		DB:      db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *ViewSyncClient) GetViewUpdates(ctx context.Context, since time.Time) ([]ViewUpdate, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/views", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call view source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("view source returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Updates []ViewUpdate `json:"updates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode view source response: %w", err)
	}

	return response.Updates, nil
}

// PollViews periodically ingests view updates and re-scores the jackpots
// whose submissions changed. View counts only ever move up; a lower reading
// from the source is ignored so earnings never regress between polls.
func PollViews(ctx context.Context, client *ViewSyncClient, pollInterval time.Duration) {
	log.Println("Starting view polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("View polling stopped.")
			return
		case <-ticker.C:
			logTime := time.Now().UTC()
			log.Printf("Polling for view updates since %s...", lastSyncTime.Format(time.RFC3339))

			updates, err := client.GetViewUpdates(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling views: %v", err)
				continue
			}

			count := len(updates)
			if count == 0 {
				log.Println("➡️ No new view updates.")
				continue
			}
			log.Printf("📥 Received %d view update(s).", count)

			affected, err := applyViewUpdates(client.DB, updates)
			if err != nil {
				log.Printf("❌ Failed to apply view updates: %v", err)
				// Do NOT advance lastSyncTime on failure — retry same window next tick
				continue
			}

			for jackpotID := range affected {
				if err := services.RefreshJackpotScoring(client.DB, jackpotID); err != nil {
					log.Printf("❌ Failed to refresh jackpot %s after view sync: %v", jackpotID, err)
				}
			}

			lastSyncTime = logTime
			log.Printf("✅ Applied view updates across %d jackpot(s).", len(affected))
		}
	}
}

// applyViewUpdates writes monotonic view increases to matching submissions in
// ACTIVE jackpots and returns the set of jackpot IDs that changed.
func applyViewUpdates(db *gorm.DB, updates []ViewUpdate) (map[string]struct{}, error) {
	affected := make(map[string]struct{})

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, upd := range updates {
			var subs []models.Submission
			if err := tx.
				Joins("JOIN jackpots ON jackpots.id = submissions.jackpot_id").
				Where("submissions.content_url = ? AND jackpots.status = ?", upd.ContentURL, models.JackpotStatusActive).
				Find(&subs).Error; err != nil {
				return err
			}

			for _, sub := range subs {
				if upd.Views <= sub.ViewsCount {
					continue
				}
				if err := tx.Model(&models.Submission{}).
					Where("id = ?", sub.ID).
					Updates(map[string]interface{}{
						"views_count":  upd.Views,
						"last_updated": time.Now().UTC(),
					}).Error; err != nil {
					return err
				}
				affected[sub.JackpotID] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return affected, nil
}
