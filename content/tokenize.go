package content

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)
var nonSlugChars = regexp.MustCompile(`[^\pL\pN]+`)

// Splits free-form listing/review text in to lower-case tokens, with unicode
// normalization and accent folding, so lexicon matching is not defeated by
// decorative characters.
func tokenizeText(text string) []string {
	// the transform chain must be constructed per call; it carries state
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	folded, _, err := transform.String(normFunc, bare)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		folded = bare
	}
	return strings.Fields(folded)
}

// Collapses a string to lower-case letters and digits only. Normalizes
// lexicon entries so configured words match tokenizer output.
func slugify(orig string) string {
	return strings.ToLower(nonSlugChars.ReplaceAllString(orig, ""))
}
