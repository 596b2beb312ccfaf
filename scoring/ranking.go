// Package scoring holds the pure jackpot math: ranking, danger-zone tier
// resolution, earnings/stripping, pool accumulation and settlement planning.
// Nothing in here touches the database; services feed it plain data and
// persist what comes back.
package scoring

import (
	"math"
	"sort"
)

// Entry is one submission's scoring input.
type Entry struct {
	SubmissionID string
	Views        int64
}

// Ranked is an Entry with its assigned rank, 1 = highest views.
type Ranked struct {
	Entry
	Rank int
}

// Rank orders entries by views descending and assigns ranks 1..N. The sort is
// stable, so ties keep their input order. Deterministic for identical input.
func Rank(entries []Entry) []Ranked {
	ranked := make([]Ranked, len(entries))
	for i, e := range entries {
		ranked[i] = Ranked{Entry: e}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Views > ranked[j].Views
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Round2 rounds to 2 decimal places. Applied at display and settlement time
// only, never on intermediate values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
