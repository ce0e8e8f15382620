package risk

import (
	"time"
)

type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Maps an overall risk score to a level. Lower bounds are inclusive, so a
// score of exactly 70.0 is critical.
func LevelForScore(score float64) Level {
	switch {
	case score >= 70:
		return LevelCritical
	case score >= 50:
		return LevelHigh
	case score >= 30:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Flag names for the known detectable risk conditions. These are persisted
// per-subject in the flag store, so renaming a value is a migration.
const (
	FlagDuplicateIdentity = "duplicate-identity"
	FlagHighDisputeRate   = "high-dispute-rate"
	FlagPolicyViolations  = "policy-violations"
	FlagRapidAccountAge   = "rapid-new-account"
)

// A single weighted risk condition detected during assessment. Factors are
// ephemeral: produced fresh each assessment and never read back as truth.
type Factor struct {
	Flag     string
	Score    float64 // [0,100]
	Weight   float64 // [0,1]
	Evidence string
}

// The current risk picture for one subject. One record per subject,
// recomputed on demand and upserted; Version is checked on write.
type Assessment struct {
	SubjectID       string
	OverallScore    float64
	Level           Level
	Factors         []Factor
	Recommendations []string
	AssessedAt      time.Time
	Version         int64
}

// Counted signals for one subject, read from the count store at assessment
// time. All counts are point-in-time; the assessor never mutates them.
type SignalCounts struct {
	TotalOrders      int
	DisputedOrders   int
	PolicyViolations int
	// Number of distinct subjects sharing a device or payment fingerprint
	// with this subject (1 means only this subject).
	SharedIdentitySubjects int
	AccountAgeDays         int
}
