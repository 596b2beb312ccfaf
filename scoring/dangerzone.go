package scoring

import (
	"math"
	"sort"

	"content-jackpot-service/models"
)

// Tier is the active danger-zone configuration: which bottom slice of the
// ranking is at risk and how much of their earnings is stripped.
type Tier struct {
	BottomPercentile float64
	StripPercentage  float64
}

// BudgetUsagePercent derives budget consumption from total views. Revenue is
// capped at the budget, so the result is clamped to [0,100]. A zero budget
// reads as 0% used.
func BudgetUsagePercent(totalViews int64, ratePer1k, budget float64) float64 {
	if budget <= 0 {
		return 0
	}
	used := math.Min(float64(totalViews)/1000*ratePer1k, budget)
	pct := used / budget * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ActiveTier resolves the danger-zone tier in effect at the given budget
// usage. With progressive mode off or no phases configured, the base tier
// applies. Otherwise the highest-threshold phase whose trigger has been
// reached wins; the base tier is the fallback when none qualify. The policy
// only ever tightens as the budget is consumed.
func ActiveTier(base Tier, phases []models.DangerZonePhase, usagePct float64, progressiveEnabled bool) Tier {
	if !progressiveEnabled || len(phases) == 0 {
		return base
	}

	eligible := make([]models.DangerZonePhase, 0, len(phases))
	for _, p := range phases {
		if p.UsagePercent <= usagePct {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return base
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].UsagePercent < eligible[j].UsagePercent
	})

	active := eligible[len(eligible)-1]
	return Tier{
		BottomPercentile: active.StripPercentile,
		StripPercentage:  active.StripPercentage,
	}
}
