package content

import (
	"unicode"
)

// High confidence for deterministic text signals; the image category gets
// whatever confidence the external classifier reports.
const textConfidence = 0.9

// Minimum letters before the capitalization ratio is meaningful. Short
// shouty titles ("SALE") are normal in a marketplace.
const capRatioMinLetters = 20

func excessiveCapitalization(text string) bool {
	letters, upper := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters < capRatioMinLetters {
		return false
	}
	return float64(upper)/float64(letters) > 0.7
}

// Length at which a run of one repeated character stops looking like
// emphasis and starts looking like junk ("!!!!!!", "aaaaaaa").
const repeatedRunLength = 6

func hasRepeatedRuns(text string) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if r == prev {
			run++
			if run >= repeatedRunLength {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// Runs the text heuristics over the combined text fields. Each category
// score is the max of its triggered signals; untriggered categories are
// omitted entirely.
func (lx *Lexicon) scoreText(text string) map[Category]CategoryScore {
	out := make(map[Category]CategoryScore)

	if lx.containsProfanity(text) {
		out[CategoryProfanity] = CategoryScore{
			Score:      profanitySignal,
			Confidence: textConfidence,
			Details:    "lexicon word match",
		}
	}

	spamScore := 0.0
	details := ""
	if lx.matchesSpamPattern(text) {
		spamScore = spamPatternSignal
		details = "spam pattern match"
	}
	if excessiveCapitalization(text) && excessiveCapSignal > spamScore {
		spamScore = excessiveCapSignal
		details = "excessive capitalization"
	}
	if hasRepeatedRuns(text) && repeatedRunSignal > spamScore {
		spamScore = repeatedRunSignal
		details = "repeated character runs"
	}
	if spamScore > 0 {
		out[CategorySpam] = CategoryScore{
			Score:      spamScore,
			Confidence: textConfidence,
			Details:    details,
		}
	}
	return out
}
