package trust

import (
	"math"
	"time"
)

// A single rating event (eg, a buyer review) with its original timestamp.
type Rating struct {
	SubjectID string
	Value     float64
	CreatedAt time.Time
}

// Decay constant for rating recency, in days. A rating this old counts for
// about 37% of a fresh one.
const DefaultDecayDays = 180.0

type ReputationConfig struct {
	// Exponential decay constant, in days. Zero means DefaultDecayDays.
	DecayDays float64
	// Maximum rating value on the platform's scale (eg, 5 for five-star).
	MaxRating float64
}

func (c ReputationConfig) decayDays() float64 {
	if c.DecayDays <= 0 {
		return DefaultDecayDays
	}
	return c.DecayDays
}

// Recency-weighted reputation on a [0,100] scale. Each rating is weighted by
// exp(-ageDays/decay), then normalized against the maximum possible rating at
// the same weights. A single max-value rating therefore scores 100 no matter
// how old it is. No ratings at all yields the neutral default of 50.
func ReputationScore(ratings []Rating, cfg ReputationConfig, now time.Time) float64 {
	if len(ratings) == 0 || cfg.MaxRating <= 0 {
		return DefaultScore
	}
	decay := cfg.decayDays()
	var weighted, totalWeight float64
	for _, r := range ratings {
		ageDays := now.Sub(r.CreatedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		w := math.Exp(-ageDays / decay)
		weighted += r.Value * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return DefaultScore
	}
	return 100 * weighted / (totalWeight * cfg.MaxRating)
}
