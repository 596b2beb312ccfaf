package models

import (
	"time"
)

// SettlementResult is the one-time finalization of a jackpot. It is written
// exactly once, in the same transaction as the ACTIVE → SETTLED status flip,
// and is immutable afterwards.
type SettlementResult struct {
	ID        string `json:"id" gorm:"primaryKey"`
	JackpotID string `json:"jackpot_id" gorm:"not null;uniqueIndex"`

	// Pool is the accumulated stripped earnings, rounded to 2 decimals at
	// settlement time.
	Pool float64 `json:"pool"`

	// Prize split as fractions: first ≥ 0.50, third ≥ 0.10, second > third,
	// sum == 1.00 when randomized; degraded {0.60,0.40,0} / {1.00,0,0} when
	// fewer than 3 winners exist.
	SplitFirst  float64 `json:"split_first"`
	SplitSecond float64 `json:"split_second"`
	SplitThird  float64 `json:"split_third"`

	SettledAt time.Time `json:"settled_at"`

	Winners []SettlementWinner `json:"winners" gorm:"foreignKey:SettlementID"`
}

// SettlementWinner is one top-ranked creator's payout allocation.
type SettlementWinner struct {
	ID           string `json:"id" gorm:"primaryKey"`
	SettlementID string `json:"settlement_id" gorm:"not null;index"`
	SubmissionID string `json:"submission_id"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`

	Views  int64   `json:"views"`
	Rank   int     `json:"rank"`
	Amount float64 `json:"amount"` // pool * split share, rounded to 2 decimals
}
