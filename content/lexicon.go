package content

import (
	"fmt"
	"regexp"
	"strings"
)

// Signal scores for the text heuristics. A category's score is the MAXIMUM
// of its triggered signals, not a sum.
const (
	profanitySignal    = 85.0
	spamPatternSignal  = 60.0
	excessiveCapSignal = 30.0
	repeatedRunSignal  = 25.0
)

// Immutable text-matching configuration, compiled once at startup and shared
// read-only across every analysis. Never mutated at request time.
type Lexicon struct {
	profanity    map[string]bool
	spamPatterns []*regexp.Regexp
}

// Compiles a lexicon from raw word lists and spam regex patterns. Profanity
// words are slugified so the set matches the tokenizer output. A pattern
// that fails to compile is a configuration error: rejected here, at load
// time, rather than degraded at request time.
func NewLexicon(profanity []string, spamPatterns []string) (*Lexicon, error) {
	words := make(map[string]bool, len(profanity))
	for _, w := range profanity {
		slug := slugify(w)
		if slug != "" {
			words[slug] = true
		}
	}
	compiled := make([]*regexp.Regexp, 0, len(spamPatterns))
	for _, p := range spamPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compiling spam pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return &Lexicon{profanity: words, spamPatterns: compiled}, nil
}

// Baseline patterns for marketplace spam. Deployments can extend these via
// the sets file; the defaults catch the obvious stuff.
func DefaultSpamPatterns() []string {
	return []string{
		`\bbuy now\b`,
		`\bfree money\b`,
		`\b100% free\b`,
		`\blimited time offer\b`,
		`\bwork from home\b`,
		`\bguaranteed income\b`,
		`\bdm me to invest\b`,
	}
}

func (lx *Lexicon) containsProfanity(text string) bool {
	for _, tok := range tokenizeText(text) {
		// de-pluralize
		tok = strings.TrimSuffix(tok, "s")
		if lx.profanity[tok] {
			return true
		}
	}
	return false
}

func (lx *Lexicon) matchesSpamPattern(text string) bool {
	for _, re := range lx.spamPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
