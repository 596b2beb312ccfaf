package models

import (
	"time"
)

type Platform string

const (
	PlatformTikTok    Platform = "TIKTOK"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformYouTube   Platform = "YOUTUBE"
	PlatformTwitter   Platform = "TWITTER"
)

// ValidPlatform reports whether p is one of the supported content platforms.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformTikTok, PlatformInstagram, PlatformYouTube, PlatformTwitter:
		return true
	}
	return false
}

// Submission is one creator's entry into a jackpot. A user may submit at most
// once per jackpot (unique index). Rank, danger-zone flag, stripped amount and
// potential jackpot are derived and recomputed whenever the ranking changes.
type Submission struct {
	ID        string `json:"id" gorm:"primaryKey"`
	JackpotID string `json:"jackpot_id" gorm:"not null;index;uniqueIndex:idx_jackpot_user"`
	UserID    string `json:"user_id" gorm:"not null;index;uniqueIndex:idx_jackpot_user"`
	UserName  string `json:"user_name"`

	ContentURL string   `json:"content_url" gorm:"type:text;not null"`
	Platform   Platform `json:"platform" gorm:"type:varchar(16);not null"`

	// ViewsCount is monotonically non-decreasing while the campaign is live.
	ViewsCount int64 `json:"views_count" gorm:"default:0"`

	BaseEarnings     float64 `json:"base_earnings" gorm:"default:0"`
	Rank             int     `json:"rank" gorm:"default:0"`
	InDangerZone     bool    `json:"in_danger_zone" gorm:"default:false"`
	StrippedAmount   float64 `json:"stripped_amount" gorm:"default:0"`
	PotentialJackpot float64 `json:"potential_jackpot" gorm:"default:0"`

	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
	LastUpdated time.Time `json:"last_updated"`
}
