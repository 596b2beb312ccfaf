package scoring

import (
	"math/rand"
	"testing"

	"content-jackpot-service/models"

	"github.com/stretchr/testify/require"
)

func settleConfig(randomized bool) SettleConfig {
	return SettleConfig{
		WinnersCount:      3,
		Randomized:        randomized,
		PrizeDistribution: []float64{60, 30, 10},
		Rand:              rand.New(rand.NewSource(99)),
	}
}

func TestPlanSettlement(t *testing.T) {
	t.Parallel()

	t.Run("fixed distribution allocates pool by configured shares", func(t *testing.T) {
		t.Parallel()

		earnings := ComputeEarnings(rankedScenario(), scenarioParams(models.StripTypeFull))
		plan := PlanSettlement(earnings, settleConfig(false))

		// FULL strip on ranks 4 and 5: 112.50 + 30.00
		require.InDelta(t, 142.50, plan.Pool, 0.01)
		require.Len(t, plan.Winners, 3)

		require.Equal(t, "s5", plan.Winners[0].SubmissionID)
		require.Equal(t, 1, plan.Winners[0].Rank)
		require.InDelta(t, Round2(142.50*0.60), plan.Winners[0].Amount, 0.001)
		require.InDelta(t, Round2(142.50*0.30), plan.Winners[1].Amount, 0.001)
		require.InDelta(t, Round2(142.50*0.10), plan.Winners[2].Amount, 0.001)
	})

	t.Run("randomized split satisfies invariants and allocates per winner", func(t *testing.T) {
		t.Parallel()

		earnings := ComputeEarnings(rankedScenario(), scenarioParams(models.StripTypePartial))
		plan := PlanSettlement(earnings, settleConfig(true))

		require.True(t, plan.Split.Valid())
		require.Len(t, plan.Winners, 3)
		for _, w := range plan.Winners {
			require.InDelta(t, Round2(plan.Pool*plan.Split.Share(w.Rank)), w.Amount, 0.01)
		}
	})

	t.Run("identical input yields identical plan", func(t *testing.T) {
		t.Parallel()

		earnings := ComputeEarnings(rankedScenario(), scenarioParams(models.StripTypePartial))
		a := PlanSettlement(earnings, settleConfig(false))
		b := PlanSettlement(earnings, settleConfig(false))
		require.Equal(t, a, b)
	})

	t.Run("two participants degrade to 60/40", func(t *testing.T) {
		t.Parallel()

		ranked := Rank([]Entry{
			{SubmissionID: "a", Views: 9000},
			{SubmissionID: "b", Views: 4000},
		})
		p := scenarioParams(models.StripTypePartial)
		p.Tier.BottomPercentile = 50 // bottom 1 of 2
		earnings := ComputeEarnings(ranked, p)

		plan := PlanSettlement(earnings, settleConfig(true))
		require.Equal(t, Split{First: 0.60, Second: 0.40, Third: 0}, plan.Split)
		require.Len(t, plan.Winners, 2)
	})

	t.Run("single participant takes the whole pool", func(t *testing.T) {
		t.Parallel()

		ranked := Rank([]Entry{{SubmissionID: "solo", Views: 8000}})
		p := scenarioParams(models.StripTypeFull)
		p.Tier.BottomPercentile = 100
		earnings := ComputeEarnings(ranked, p)

		plan := PlanSettlement(earnings, settleConfig(true))
		require.Equal(t, Split{First: 1.00, Second: 0, Third: 0}, plan.Split)
		require.Len(t, plan.Winners, 1)
		require.InDelta(t, plan.Pool, plan.Winners[0].Amount, 0.01)
	})

	t.Run("zero participants settle to empty pool and no winners", func(t *testing.T) {
		t.Parallel()

		plan := PlanSettlement(nil, settleConfig(true))
		require.Zero(t, plan.Pool)
		require.Empty(t, plan.Winners)
		require.Equal(t, Split{}, plan.Split)
	})

	t.Run("two-place fixed distribution keeps its configured shares", func(t *testing.T) {
		t.Parallel()

		earnings := ComputeEarnings(rankedScenario(), scenarioParams(models.StripTypeFull))
		cfg := settleConfig(false)
		cfg.WinnersCount = 2
		cfg.PrizeDistribution = []float64{70, 30}

		plan := PlanSettlement(earnings, cfg)
		require.Equal(t, Split{First: 0.70, Second: 0.30, Third: 0}, plan.Split)
		require.Len(t, plan.Winners, 2)
		require.InDelta(t, Round2(plan.Pool*0.70), plan.Winners[0].Amount, 0.001)
		require.InDelta(t, Round2(plan.Pool*0.30), plan.Winners[1].Amount, 0.001)
	})

	t.Run("fixed distribution degrades only on winner shortfall", func(t *testing.T) {
		t.Parallel()

		ranked := Rank([]Entry{
			{SubmissionID: "a", Views: 9000},
			{SubmissionID: "b", Views: 4000},
		})
		p := scenarioParams(models.StripTypePartial)
		p.Tier.BottomPercentile = 50
		earnings := ComputeEarnings(ranked, p)

		// Three configured places but only two entrants.
		plan := PlanSettlement(earnings, settleConfig(false))
		require.Equal(t, Split{First: 0.60, Second: 0.40, Third: 0}, plan.Split)
	})

	t.Run("winners capped by configured count", func(t *testing.T) {
		t.Parallel()

		earnings := ComputeEarnings(rankedScenario(), scenarioParams(models.StripTypePartial))
		cfg := settleConfig(false)
		cfg.WinnersCount = 1
		cfg.PrizeDistribution = []float64{100}

		plan := PlanSettlement(earnings, cfg)
		require.Len(t, plan.Winners, 1)
		require.InDelta(t, plan.Pool, plan.Winners[0].Amount, 0.01)
	})
}
