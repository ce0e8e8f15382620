package risk

import (
	"fmt"
	"time"
)

// Fixed conversion rules from raw signal counts to weighted factors. These
// are deliberately simple closed-form formulas, not a learned model, so an
// assessment can always be explained from its evidence strings.
func factorsFromSignals(sig SignalCounts) []Factor {
	var out []Factor

	if sig.TotalOrders > 0 && sig.DisputedOrders > 0 {
		ratePct := 100 * float64(sig.DisputedOrders) / float64(sig.TotalOrders)
		score := ratePct * 2
		if score > 50 {
			score = 50
		}
		out = append(out, Factor{
			Flag:     FlagHighDisputeRate,
			Score:    score,
			Weight:   0.8,
			Evidence: fmt.Sprintf("%d of %d orders disputed (%.1f%%)", sig.DisputedOrders, sig.TotalOrders, ratePct),
		})
	}

	if sig.PolicyViolations > 0 {
		score := float64(sig.PolicyViolations) * 20
		if score > 100 {
			score = 100
		}
		out = append(out, Factor{
			Flag:     FlagPolicyViolations,
			Score:    score,
			Weight:   1.0,
			Evidence: fmt.Sprintf("%d policy violations on record", sig.PolicyViolations),
		})
	}

	if sig.SharedIdentitySubjects > 1 {
		score := float64(sig.SharedIdentitySubjects-1) * 30
		if score > 90 {
			score = 90
		}
		out = append(out, Factor{
			Flag:     FlagDuplicateIdentity,
			Score:    score,
			Weight:   0.9,
			Evidence: fmt.Sprintf("identity fingerprint shared with %d other subjects", sig.SharedIdentitySubjects-1),
		})
	}

	if sig.AccountAgeDays >= 0 && sig.AccountAgeDays < 7 && (sig.DisputedOrders > 0 || sig.PolicyViolations > 0) {
		out = append(out, Factor{
			Flag:     FlagRapidAccountAge,
			Score:    40,
			Weight:   0.5,
			Evidence: fmt.Sprintf("negative signals within %d days of account creation", sig.AccountAgeDays),
		})
	}

	return out
}

// Produces a fresh assessment from counted signals. The overall score is the
// weight-normalized combination of all detected factors, clamped to [0,100];
// no factors at all means zero risk, not the neutral trust default.
func Assess(subjectID string, sig SignalCounts, now time.Time) *Assessment {
	factors := factorsFromSignals(sig)

	var weighted, totalWeight float64
	for _, f := range factors {
		weighted += f.Score * f.Weight
		totalWeight += f.Weight
	}
	var overall float64
	if totalWeight > 0 {
		overall = weighted / totalWeight
	}
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}

	level := LevelForScore(overall)
	return &Assessment{
		SubjectID:       subjectID,
		OverallScore:    overall,
		Level:           level,
		Factors:         factors,
		Recommendations: Recommendations(level, factors),
		AssessedAt:      now,
	}
}
