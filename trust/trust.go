package trust

import (
	"time"
)

// A single normalized input signal for one subject. Weight may be negative,
// which models inverse metrics (eg, dispute rate: more is worse).
type Metric struct {
	SubjectID string
	Type      string
	Value     float64
	MaxValue  float64
	Weight    float64
	Source    string
}

type BadgeStatus string

const (
	BadgeVerified BadgeStatus = "verified"
	BadgePending  BadgeStatus = "pending"
	BadgeRevoked  BadgeStatus = "revoked"
)

// A verification badge held by a subject. Only verified, unexpired badges
// contribute to the trust score.
type Badge struct {
	SubjectID string
	Type      string
	Status    BadgeStatus
	ExpiresAt *time.Time
}

func (b *Badge) ValidAt(now time.Time) bool {
	if b.Status != BadgeVerified {
		return false
	}
	if b.ExpiresAt != nil && !b.ExpiresAt.After(now) {
		return false
	}
	return true
}

type Level string

const (
	LevelNew       Level = "new"
	LevelBasic     Level = "basic"
	LevelTrusted   Level = "trusted"
	LevelExemplary Level = "exemplary"
)

// Maps a final (clamped) trust score to a trust level. Lower bounds inclusive.
func LevelForScore(score int) Level {
	switch {
	case score >= 85:
		return LevelExemplary
	case score >= 65:
		return LevelTrusted
	case score >= 40:
		return LevelBasic
	default:
		return LevelNew
	}
}

// Derived scoring record for one subject. Always recomputed from the current
// metric/badge/rating snapshot, never mutated field-by-field. Version is
// checked on write for optimistic concurrency.
type Profile struct {
	SubjectID        string
	TrustScore       int
	TrustLevel       Level
	ReputationScore  float64
	ReliabilityScore float64
	ActivityScore    float64
	SocialScore      float64
	ProfileStrength  float64
	Version          int64
	UpdatedAt        time.Time
}

// Neutral starting score for subjects with no history at all.
const DefaultScore = 50

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Combines the aggregated base score with the verification bonus. This is the
// single place the total saturates at [0,100]; neither input is clamped on
// its own, so multiple simultaneous badges may pin the score at 100.
func CombineScore(baseScore float64, bonus int) int {
	return int(clamp(baseScore+float64(bonus), 0, 100))
}
