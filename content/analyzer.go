package content

import (
	"context"
	"log/slog"

	"github.com/fairmarket/vigil/rules"
)

// Combines text heuristics, the optional image heuristic, and rule-engine
// violations into a single moderation result. Stateless apart from the
// immutable lexicon; safe for concurrent use.
type Analyzer struct {
	Lexicon *Lexicon
	Image   ImageAnalyzer // optional
	Logger  *slog.Logger
}

func severityScore(s rules.Severity) float64 {
	switch s {
	case rules.SeverityCritical:
		return 95
	case rules.SeverityHigh:
		return 80
	case rules.SeverityMedium:
		return 60
	case rules.SeverityLow:
		return 40
	default:
		return 40
	}
}

// Analyzes one content record against a point-in-time rule snapshot
// (callers pass active rules sorted by priority descending). Deterministic
// for fixed inputs. Heuristic failures degrade to skipped categories; a
// result is always produced.
func (a *Analyzer) Analyze(ctx context.Context, rec *Record, ruleset []rules.Rule) *ModerationResult {
	logger := a.logger().With("content", rec.ID, "type", rec.ContentType)

	scores := a.Lexicon.scoreText(rec.FullText())

	violations := rules.EvaluateAll(ruleset, rec.ContentType, rec.Fields())
	if len(violations) > 0 {
		policy := CategoryScore{Confidence: 1.0, Details: "policy rule match"}
		for _, v := range violations {
			if s := severityScore(v.Severity); s > policy.Score {
				policy.Score = s
			}
			if v.Confidence < policy.Confidence {
				policy.Confidence = v.Confidence
			}
		}
		scores[CategoryPolicy] = policy
	}

	if a.Image != nil {
		for _, ref := range rec.Images {
			verdict, err := a.Image.AnalyzeImage(ctx, ref)
			if err != nil {
				logger.Warn("image analysis failed, skipping", "ref", ref, "err", err)
				continue
			}
			cur, ok := scores[CategoryImage]
			if !ok || verdict.Score > cur.Score {
				scores[CategoryImage] = CategoryScore{
					Score:      verdict.Score,
					Confidence: verdict.Confidence,
					Details:    verdict.Details,
				}
			}
		}
	}

	overall := 0.0
	for _, cs := range scores {
		if cs.Score > overall {
			overall = cs.Score
		}
	}

	recs := recommendationsForScore(overall)
	return &ModerationResult{
		ContentID:           rec.ID,
		OverallScore:        overall,
		CategoryScores:      scores,
		Violations:          violations,
		Recommendations:     recs,
		RequiresHumanReview: requiresHumanReview(overall, scores, recs),
	}
}

// Fixed recommendation thresholds. The 20-39 band intentionally produces no
// recommendation at all; downstream consumers rely on this gap and it must
// not be "fixed" to emit an approve.
func recommendationsForScore(overall float64) []Recommendation {
	switch {
	case overall >= 80:
		return []Recommendation{{
			Action:     ActionReject,
			Severity:   rules.SeverityHigh,
			Confidence: 0.9,
			Reason:     "overall score in rejection band",
		}}
	case overall >= 60:
		return []Recommendation{{
			Action:     ActionRequireVerification,
			Severity:   rules.SeverityMedium,
			Confidence: 0.85,
			Reason:     "overall score requires extra verification",
		}}
	case overall >= 40:
		return []Recommendation{{
			Action:     ActionWarn,
			Severity:   rules.SeverityLow,
			Confidence: 0.8,
			Reason:     "overall score in warning band",
		}}
	case overall < 20:
		return []Recommendation{{
			Action:     ActionApprove,
			Severity:   rules.SeverityLow,
			Confidence: 0.95,
			Reason:     "no significant signals",
		}}
	default:
		return nil
	}
}

func requiresHumanReview(overall float64, scores map[Category]CategoryScore, recs []Recommendation) bool {
	if overall >= 40 && overall <= 70 {
		return true
	}
	for _, cs := range scores {
		if cs.Confidence < 0.7 {
			return true
		}
	}
	for _, r := range recs {
		if r.Confidence < 0.8 {
			return true
		}
	}
	return false
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
