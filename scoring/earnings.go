package scoring

import (
	"math"

	"content-jackpot-service/models"
)

// SubmissionEarnings is the per-submission scoring output.
type SubmissionEarnings struct {
	SubmissionID     string
	Views            int64
	Rank             int
	BaseEarnings     float64
	InDangerZone     bool
	StrippedAmount   float64
	PotentialJackpot float64
}

// EarningsParams carries the campaign configuration needed to price a ranked
// submission list.
type EarningsParams struct {
	Tier              Tier
	RatePer1k         float64
	StripType         models.StripType
	DangerZoneEnabled bool
	WinnersCount      int
	Budget            float64
	PrizeDistribution []float64
}

// BaseEarnings is the raw creator payout before any stripping.
func BaseEarnings(views int64, ratePer1k float64) float64 {
	return float64(views) / 1000 * ratePer1k
}

// DangerZoneThreshold is how many bottom-ranked submissions fall into the
// danger zone: ceil(N * bottomPercentile / 100). Zero when either input is
// non-positive.
func DangerZoneThreshold(total int, bottomPercentile float64) int {
	if total <= 0 || bottomPercentile <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) * bottomPercentile / 100))
}

// StrippedAmount applies the strip policy to a danger-zone submission.
// PROGRESSIVE strips proportionally more from worse ranks (rank/total).
func StrippedAmount(base float64, rank, total int, st models.StripType) float64 {
	switch st {
	case models.StripTypeFull:
		return base
	case models.StripTypePartial:
		return base * 0.5
	case models.StripTypeProgressive:
		if total <= 0 {
			return 0
		}
		return base * (float64(rank) / float64(total))
	}
	return 0
}

// PrizePercent returns the configured prize percentage for a 1-based rank,
// 0 for ranks without a place.
func PrizePercent(rank int, distribution []float64) float64 {
	if rank < 1 || rank > len(distribution) {
		return 0
	}
	return distribution[rank-1]
}

// ComputeEarnings prices every ranked submission: base earnings from views,
// danger-zone membership from the active tier, the stripped amount per strip
// policy, and the pre-settlement potential jackpot for winning ranks. The
// danger zone covers the bottom ranks of the SAME ordering that produced the
// ranks; mixing orderings here would misflag submissions.
func ComputeEarnings(ranked []Ranked, p EarningsParams) []SubmissionEarnings {
	total := len(ranked)
	threshold := 0
	if p.DangerZoneEnabled {
		threshold = DangerZoneThreshold(total, p.Tier.BottomPercentile)
	}

	out := make([]SubmissionEarnings, total)
	for i, r := range ranked {
		base := BaseEarnings(r.Views, p.RatePer1k)
		inZone := p.DangerZoneEnabled && threshold > 0 && r.Rank > total-threshold

		stripped := 0.0
		if inZone {
			stripped = StrippedAmount(base, r.Rank, total, p.StripType)
		}

		potential := 0.0
		if r.Rank <= p.WinnersCount {
			potential = p.Budget * PrizePercent(r.Rank, p.PrizeDistribution) / 100
		}

		out[i] = SubmissionEarnings{
			SubmissionID:     r.SubmissionID,
			Views:            r.Views,
			Rank:             r.Rank,
			BaseEarnings:     base,
			InDangerZone:     inZone,
			StrippedAmount:   stripped,
			PotentialJackpot: potential,
		}
	}
	return out
}

// Pool accumulates the jackpot pool: the sum of everything actually stripped
// from danger-zone submissions. Unrounded; callers round at display or
// settlement.
func Pool(earnings []SubmissionEarnings) float64 {
	var pool float64
	for _, e := range earnings {
		if e.InDangerZone {
			pool += e.StrippedAmount
		}
	}
	return pool
}
