package models

import (
	"time"
)

// JackpotStatus is the campaign lifecycle state. Transitions are monotonic:
// DRAFT → ACTIVE → SETTLED → PAID, never backwards.
type JackpotStatus string

const (
	JackpotStatusDraft   JackpotStatus = "DRAFT"
	JackpotStatusActive  JackpotStatus = "ACTIVE"
	JackpotStatusSettled JackpotStatus = "SETTLED"
	JackpotStatusPaid    JackpotStatus = "PAID"
)

// StripType controls how much of a danger-zone creator's base earnings is
// confiscated into the pool.
type StripType string

const (
	StripTypeFull        StripType = "FULL"
	StripTypePartial     StripType = "PARTIAL"
	StripTypeProgressive StripType = "PROGRESSIVE"
)

type PayoutMode string

const (
	PayoutModeInstant PayoutMode = "INSTANT"
	PayoutModeBatch   PayoutMode = "BATCH"
)

type Eligibility string

const (
	EligibilityCustomersOnly Eligibility = "CUSTOMERS_ONLY"
	EligibilityPublic        Eligibility = "PUBLIC"
)

// DangerZonePhase overrides the base danger-zone tier once budget usage
// crosses UsagePercent. Phases are kept sorted ascending by UsagePercent.
type DangerZonePhase struct {
	UsagePercent    float64 `json:"usage_percent"`
	StripPercentile float64 `json:"strip_percentile"`
	StripPercentage float64 `json:"strip_percentage"`
}

// Platforms flags which content platforms a campaign accepts.
type Platforms struct {
	TikTok    bool `json:"tiktok"`
	Instagram bool `json:"instagram"`
	YouTube   bool `json:"youtube"`
	Twitter   bool `json:"twitter"`
}

// Any reports whether at least one platform is enabled.
func (p Platforms) Any() bool {
	return p.TikTok || p.Instagram || p.YouTube || p.Twitter
}

// Jackpot is a competitive layer on top of a Content Rewards campaign.
type Jackpot struct {
	ID                        string `json:"id" gorm:"primaryKey"`
	CampaignName              string `json:"campaign_name" gorm:"not null"`
	Slug                      string `json:"slug" gorm:"index"`
	ContentRewardsCampaignURL string `json:"content_rewards_campaign_url" gorm:"type:text"`
	ThumbnailURL              string `json:"thumbnail_url" gorm:"type:text"`
	CreatorID                 string `json:"creator_id" gorm:"index"`

	Budget          float64    `json:"budget" gorm:"not null"`
	Currency        string     `json:"currency" gorm:"size:3;default:'USD'"`
	RewardRatePer1k float64    `json:"reward_rate_per_1k" gorm:"default:0"`
	PayoutMode      PayoutMode `json:"payout_mode" gorm:"type:varchar(16);default:'INSTANT'"`

	StartDate time.Time `json:"start_date" gorm:"not null"`
	EndDate   time.Time `json:"end_date" gorm:"not null"`

	Platforms           Platforms   `json:"platforms" gorm:"serializer:json"`
	ContentRequirements string      `json:"content_requirements" gorm:"type:text"`
	GuidelinesLink      string      `json:"guidelines_link,omitempty" gorm:"type:text"`
	Eligibility         Eligibility `json:"eligibility" gorm:"type:varchar(16);default:'PUBLIC'"`

	// Base danger zone, always present. Progressive phases override it at
	// runtime once budget usage crosses their thresholds. DangerZoneEnabled
	// carries no default tag: GORM substitutes tag defaults for zero values
	// on insert, which would turn an explicit false into true. The create
	// handler resolves the default instead.
	DangerZoneEnabled  bool              `json:"danger_zone_enabled"`
	BottomPercentile   float64           `json:"bottom_percentile" gorm:"default:25"`
	StripPercentage    float64           `json:"strip_percentage" gorm:"default:50"`
	ProgressiveEnabled bool              `json:"progressive_enabled" gorm:"default:false"`
	DangerZonePhases   []DangerZonePhase `json:"danger_zone_phases,omitempty" gorm:"serializer:json"`
	StripType          StripType         `json:"strip_type" gorm:"type:varchar(16);default:'PARTIAL'"`

	WinnersCount      int       `json:"winners_count" gorm:"default:3"`
	PrizeDistribution []float64 `json:"prize_distribution" gorm:"serializer:json"` // percent per place, sums to 100
	RandomizedSplit   bool      `json:"randomized_split" gorm:"default:false"`

	Status    JackpotStatus `json:"status" gorm:"type:varchar(16);default:'DRAFT';index"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
	SettledAt *time.Time    `json:"settled_at,omitempty"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`

	// Relationships
	Submissions []Submission      `json:"submissions,omitempty" gorm:"foreignKey:JackpotID"`
	Settlement  *SettlementResult `json:"settlement,omitempty" gorm:"foreignKey:JackpotID"`

	// Calculated fields (not stored in DB)
	SubmissionCount int64   `json:"submission_count,omitempty" gorm:"-"`
	TotalViews      int64   `json:"total_views,omitempty" gorm:"-"`
	BudgetUsagePct  float64 `json:"budget_usage_pct,omitempty" gorm:"-"`
	PoolPreview     float64 `json:"pool_preview,omitempty" gorm:"-"`
	DangerZoneCount int64   `json:"danger_zone_count,omitempty" gorm:"-"`
}

// statusRank orders the lifecycle for the monotonic-transition guard.
var statusRank = map[JackpotStatus]int{
	JackpotStatusDraft:   0,
	JackpotStatusActive:  1,
	JackpotStatusSettled: 2,
	JackpotStatusPaid:    3,
}

// CanTransitionTo reports whether moving from the current status to next is a
// forward step in the lifecycle.
func (j *Jackpot) CanTransitionTo(next JackpotStatus) bool {
	cur, ok := statusRank[j.Status]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}
	return nxt == cur+1
}
