package scoring

import (
	"math/rand"
	"sort"
)

// DefaultSplitRetries bounds the randomized split's rejection sampling.
const DefaultSplitRetries = 1000

// PlannedWinner is one winner's payout in a settlement plan.
type PlannedWinner struct {
	SubmissionID string
	Views        int64
	Rank         int
	Amount       float64
}

// SettleConfig carries the campaign's settlement configuration.
type SettleConfig struct {
	// WinnersCount is capped at 3: the prize split is three-way.
	WinnersCount int
	// Randomized selects sampled-split mode over the configured distribution.
	Randomized        bool
	PrizeDistribution []float64 // percent per place
	Rand              *rand.Rand
	SplitRetries      int
}

// SettlementPlan is the pure outcome of settling a campaign: the pool, the
// final split and the per-winner allocations. Persisting it (and making the
// run at-most-once) is the caller's job.
type SettlementPlan struct {
	Pool    float64
	Split   Split
	Winners []PlannedWinner
}

// PlanSettlement freezes the given earnings into a settlement plan. Zero
// participants is a valid terminal case: empty pool, no winners. Winner
// amounts are rounded per winner from the unrounded pool so rounding error
// does not compound.
func PlanSettlement(earnings []SubmissionEarnings, cfg SettleConfig) SettlementPlan {
	places := cfg.WinnersCount
	if places <= 0 || places > 3 {
		places = 3
	}
	retries := cfg.SplitRetries
	if retries <= 0 {
		retries = DefaultSplitRetries
	}

	pool := Pool(earnings)

	byRank := make([]SubmissionEarnings, len(earnings))
	copy(byRank, earnings)
	sort.SliceStable(byRank, func(i, j int) bool {
		return byRank[i].Rank < byRank[j].Rank
	})
	if len(byRank) > places {
		byRank = byRank[:places]
	}

	var split Split
	if cfg.Randomized {
		// Sampled splits are always three-way; collapse to however many
		// winners actually exist.
		split = DegradeSplit(RandomSplit(cfg.Rand, retries), len(byRank))
	} else {
		split = Split{
			First:  PrizePercent(1, cfg.PrizeDistribution) / 100,
			Second: PrizePercent(2, cfg.PrizeDistribution) / 100,
			Third:  PrizePercent(3, cfg.PrizeDistribution) / 100,
		}
		// A configured distribution stands as long as every place is filled;
		// degradation only covers a winner shortfall.
		if len(byRank) < places {
			split = DegradeSplit(split, len(byRank))
		}
	}

	winners := make([]PlannedWinner, len(byRank))
	for i, e := range byRank {
		winners[i] = PlannedWinner{
			SubmissionID: e.SubmissionID,
			Views:        e.Views,
			Rank:         e.Rank,
			Amount:       Round2(pool * split.Share(e.Rank)),
		}
	}

	return SettlementPlan{
		Pool:    Round2(pool),
		Split:   split,
		Winners: winners,
	}
}
