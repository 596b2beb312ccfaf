package scoring

import (
	"math/rand"
)

// Split is the three-way prize split as fractions of the pool.
type Split struct {
	First  float64 `json:"first"`
	Second float64 `json:"second"`
	Third  float64 `json:"third"`
}

// FallbackSplit is used when randomized sampling exhausts its retry budget.
var FallbackSplit = Split{First: 0.60, Second: 0.25, Third: 0.15}

// Share returns the fraction for a 1-based rank.
func (s Split) Share(rank int) float64 {
	switch rank {
	case 1:
		return s.First
	case 2:
		return s.Second
	case 3:
		return s.Third
	}
	return 0
}

// Valid checks the split invariants: first ∈ [0.50, 0.70], third ≥ 0.10,
// second strictly greater than third, and the rounded values sum to exactly
// 1.00.
func (s Split) Valid() bool {
	if s.First < 0.50 || s.First > 0.70 {
		return false
	}
	if s.Third < 0.10 {
		return false
	}
	if s.Second <= s.Third {
		return false
	}
	return Round2(s.First+s.Second+s.Third) == 1.00
}

// RandomSplit samples a split satisfying Valid by bounded rejection sampling:
// draw first in [0.50, 0.70), third in [0.10, min(0.30, 1-first-0.10)),
// second takes the remainder, then round to 2 decimals and re-check. Falls
// back to the fixed 60/25/15 split when maxRetries draws all fail.
func RandomSplit(r *rand.Rand, maxRetries int) Split {
	for i := 0; i < maxRetries; i++ {
		first := 0.5 + r.Float64()*0.2
		thirdMax := 1 - first - 0.10
		if thirdMax > 0.30 {
			thirdMax = 0.30
		}
		if thirdMax <= 0.10 {
			continue
		}
		third := 0.10 + r.Float64()*(thirdMax-0.10)
		second := 1 - first - third
		if second <= third {
			continue
		}

		s := Split{
			First:  Round2(first),
			Second: Round2(second),
		}
		// Absorb rounding drift into third, then validate the result.
		s.Third = Round2(1 - s.First - s.Second)
		if s.Valid() {
			return s
		}
	}
	return FallbackSplit
}

// DegradeSplit collapses a split when fewer than 3 winners exist:
// 2 winners → {0.60, 0.40, 0}, 1 winner → {1.00, 0, 0}, 0 winners → zero
// split. With 3 or more eligible winners the split is returned unchanged.
func DegradeSplit(s Split, winners int) Split {
	switch {
	case winners <= 0:
		return Split{}
	case winners == 1:
		return Split{First: 1.00}
	case winners == 2:
		return Split{First: 0.60, Second: 0.40}
	}
	return s
}
