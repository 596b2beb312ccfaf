package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomSplit(t *testing.T) {
	t.Parallel()

	t.Run("always satisfies the split invariants", func(t *testing.T) {
		t.Parallel()

		r := rand.New(rand.NewSource(42))
		for i := 0; i < 5000; i++ {
			s := RandomSplit(r, DefaultSplitRetries)

			require.GreaterOrEqual(t, s.First, 0.50)
			require.LessOrEqual(t, s.First, 0.70)
			require.GreaterOrEqual(t, s.Third, 0.10)
			require.Greater(t, s.Second, s.Third)
			require.Equal(t, 1.00, Round2(s.First+s.Second+s.Third))
		}
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		t.Parallel()

		a := RandomSplit(rand.New(rand.NewSource(7)), DefaultSplitRetries)
		b := RandomSplit(rand.New(rand.NewSource(7)), DefaultSplitRetries)
		require.Equal(t, a, b)
	})

	t.Run("exhausted retry budget falls back to 60/25/15", func(t *testing.T) {
		t.Parallel()

		s := RandomSplit(rand.New(rand.NewSource(1)), 0)
		require.Equal(t, FallbackSplit, s)
		require.True(t, s.Valid())
	})
}

func TestDegradeSplit(t *testing.T) {
	t.Parallel()

	full := Split{First: 0.55, Second: 0.30, Third: 0.15}

	tests := []struct {
		name    string
		winners int
		want    Split
	}{
		{"three winners keep the split", 3, full},
		{"more than three winners keep the split", 5, full},
		{"two winners degrade to 60/40", 2, Split{First: 0.60, Second: 0.40, Third: 0}},
		{"one winner takes everything", 1, Split{First: 1.00, Second: 0, Third: 0}},
		{"zero winners zero split", 0, Split{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, DegradeSplit(full, tt.winners))
		})
	}
}

func TestSplitShare(t *testing.T) {
	t.Parallel()

	s := Split{First: 0.60, Second: 0.25, Third: 0.15}
	require.Equal(t, 0.60, s.Share(1))
	require.Equal(t, 0.25, s.Share(2))
	require.Equal(t, 0.15, s.Share(3))
	require.Zero(t, s.Share(4))
	require.Zero(t, s.Share(0))
}
