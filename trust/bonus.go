package trust

import (
	"time"
)

// Fixed additive bonus per badge type. Loaded once at startup and treated as
// immutable; never mutated at request time.
type BonusTable map[string]int

// Baseline bonus values. Identity verification is deliberately worth much
// more than the low-effort confirmations.
func DefaultBonusTable() BonusTable {
	return BonusTable{
		"identity": 15,
		"business": 12,
		"payment":  8,
		"address":  5,
		"phone":    3,
		"email":    2,
	}
}

// Sums the fixed bonus for every currently-valid verification badge. No
// per-badge or total cap is applied here; saturation happens only when
// CombineScore clamps the final result. Badge types missing from the table
// contribute nothing.
func VerificationBonus(badges []Badge, table BonusTable, now time.Time) int {
	total := 0
	for _, b := range badges {
		if !b.ValidAt(now) {
			continue
		}
		total += table[b.Type]
	}
	return total
}
