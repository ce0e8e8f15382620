package content

import (
	"context"

	"github.com/fairmarket/vigil/rules"
)

// A single piece of user-submitted content up for moderation: a listing, a
// review, a profile blurb, or a message.
type Record struct {
	ID          string
	AuthorID    string
	ContentType string
	Title       string
	Description string
	Body        string
	Images      []string
	Metadata    map[string]any
}

// All text fields combined, for whole-text heuristics.
func (r *Record) FullText() string {
	parts := []string{r.Title, r.Description, r.Body}
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p
	}
	return out
}

// Field document for the rule-condition interpreter. Metadata entries are
// exposed under the "metadata." prefix so rule authors can target them.
func (r *Record) Fields() map[string]any {
	out := map[string]any{
		"id":           r.ID,
		"author_id":    r.AuthorID,
		"content_type": r.ContentType,
		"title":        r.Title,
		"description":  r.Description,
		"body":         r.Body,
	}
	if len(r.Metadata) > 0 {
		out["metadata"] = r.Metadata
	}
	return out
}

type Category string

const (
	CategoryProfanity Category = "profanity"
	CategorySpam      Category = "spam"
	CategoryImage     Category = "image"
	CategoryPolicy    Category = "policy"
)

type CategoryScore struct {
	Score      float64
	Confidence float64
	Details    string
}

type Action string

const (
	ActionReject              Action = "reject"
	ActionRequireVerification Action = "require_verification"
	ActionWarn                Action = "warn"
	ActionApprove             Action = "approve"
)

type Recommendation struct {
	Action     Action
	Severity   rules.Severity
	Confidence float64
	Reason     string
}

// Output of one analysis pass. Deterministic for a fixed content + rule
// snapshot: no timestamps or random state in here, the storage layer stamps
// the persisted record instead.
type ModerationResult struct {
	ContentID           string
	OverallScore        float64
	CategoryScores      map[Category]CategoryScore
	Violations          []rules.Violation
	Recommendations     []Recommendation
	RequiresHumanReview bool
}

// Verdict from an external image classifier.
type ImageVerdict struct {
	Score      float64
	Confidence float64
	Details    string
}

// Pluggable image heuristic. Implementations call out to a vendor API or an
// in-house model; the analyzer treats failures as a skipped category.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, ref string) (*ImageVerdict, error)
}
