package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	t.Parallel()

	t.Run("orders by views descending", func(t *testing.T) {
		t.Parallel()

		ranked := Rank([]Entry{
			{SubmissionID: "a", Views: 12000},
			{SubmissionID: "b", Views: 125000},
			{SubmissionID: "c", Views: 76000},
		})

		require.Len(t, ranked, 3)
		require.Equal(t, "b", ranked[0].SubmissionID)
		require.Equal(t, 1, ranked[0].Rank)
		require.Equal(t, "c", ranked[1].SubmissionID)
		require.Equal(t, 2, ranked[1].Rank)
		require.Equal(t, "a", ranked[2].SubmissionID)
		require.Equal(t, 3, ranked[2].Rank)
	})

	t.Run("ranks are a permutation of 1..N", func(t *testing.T) {
		t.Parallel()

		viewVectors := [][]int64{
			{},
			{0},
			{5, 5, 5, 5},
			{100, 0, 100, 50, 25, 25},
			{12000, 45000, 76000, 98000, 125000},
		}

		for _, views := range viewVectors {
			entries := make([]Entry, len(views))
			for i, v := range views {
				entries[i] = Entry{SubmissionID: string(rune('a' + i)), Views: v}
			}
			ranked := Rank(entries)
			require.Len(t, ranked, len(views))

			seen := map[int]bool{}
			for _, r := range ranked {
				require.GreaterOrEqual(t, r.Rank, 1)
				require.LessOrEqual(t, r.Rank, len(views))
				require.False(t, seen[r.Rank], "duplicate rank %d", r.Rank)
				seen[r.Rank] = true
			}
		}
	})

	t.Run("ties keep input order", func(t *testing.T) {
		t.Parallel()

		ranked := Rank([]Entry{
			{SubmissionID: "first", Views: 500},
			{SubmissionID: "second", Views: 500},
			{SubmissionID: "third", Views: 500},
		})

		require.Equal(t, "first", ranked[0].SubmissionID)
		require.Equal(t, "second", ranked[1].SubmissionID)
		require.Equal(t, "third", ranked[2].SubmissionID)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		t.Parallel()

		entries := []Entry{
			{SubmissionID: "a", Views: 1},
			{SubmissionID: "b", Views: 2},
		}
		Rank(entries)
		require.Equal(t, "a", entries[0].SubmissionID)
		require.Equal(t, "b", entries[1].SubmissionID)
	})
}
