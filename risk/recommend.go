package risk

import (
	"github.com/fairmarket/vigil/util"
)

// Deterministic recommendation lookup, keyed on the overall level and on
// which factor flags are present. Output order is stable (level entries
// first, then flag entries in factor order) and duplicate-free.

var levelRecommendations = map[Level][]string{
	LevelCritical: {
		"suspend new listings pending manual review",
		"require re-verification of identity documents",
	},
	LevelHigh: {
		"hold payouts for manual review",
		"limit daily transaction volume",
	},
	LevelMedium: {
		"enable enhanced monitoring for 30 days",
	},
	LevelLow: {
		"no action required",
	},
}

var flagRecommendations = map[string][]string{
	FlagDuplicateIdentity: {
		"cross-check linked accounts for ban evasion",
	},
	FlagHighDisputeRate: {
		"review recent disputed orders for a common cause",
	},
	FlagPolicyViolations: {
		"re-send policy guidelines and record acknowledgement",
	},
	FlagRapidAccountAge: {
		"apply new-account transaction limits",
	},
}

func Recommendations(level Level, factors []Factor) []string {
	var out []string
	out = append(out, levelRecommendations[level]...)
	for _, f := range factors {
		out = append(out, flagRecommendations[f.Flag]...)
	}
	return util.DedupeStrings(out)
}
