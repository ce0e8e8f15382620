package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/fairmarket/vigil/cachestore"
	"github.com/fairmarket/vigil/countstore"
	"github.com/fairmarket/vigil/risk"
)

// Recomputes the risk assessment for one subject from its signal counters
// and identity metadata, persists it with a version check, and records the
// detected factor flags. A subject with no negative signals assesses to zero
// risk, not the neutral trust default.
func (eng *Engine) AssessRisk(ctx context.Context, subjectID string) (*risk.Assessment, error) {
	now := eng.now()

	meta, err := eng.Repo.SubjectMeta(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("reading subject meta for %s: %w", subjectID, err)
	}

	// unknown account age disables the young-account factor
	sig := risk.SignalCounts{AccountAgeDays: -1}
	sig.TotalOrders, err = eng.Counters.GetCount(ctx, countstore.SignalOrder, subjectID, countstore.PeriodTotal)
	if err != nil {
		return nil, fmt.Errorf("reading order count for %s: %w", subjectID, err)
	}
	sig.DisputedOrders, err = eng.Counters.GetCount(ctx, countstore.SignalDispute, subjectID, countstore.PeriodTotal)
	if err != nil {
		return nil, fmt.Errorf("reading dispute count for %s: %w", subjectID, err)
	}
	sig.PolicyViolations, err = eng.Counters.GetCount(ctx, countstore.SignalViolation, subjectID, countstore.PeriodTotal)
	if err != nil {
		return nil, fmt.Errorf("reading violation count for %s: %w", subjectID, err)
	}
	if meta != nil {
		sig.AccountAgeDays = int(now.Sub(meta.CreatedAt).Hours() / 24)
		// the widest-shared fingerprint drives the duplicate-identity factor
		for _, fp := range meta.Fingerprints {
			n, err := eng.Counters.GetCountDistinct(ctx, countstore.DistinctFingerprint, fp, countstore.PeriodTotal)
			if err != nil {
				return nil, fmt.Errorf("reading fingerprint count for %s: %w", subjectID, err)
			}
			if n > sig.SharedIdentitySubjects {
				sig.SharedIdentitySubjects = n
			}
		}
	}

	a := risk.Assess(subjectID, sig, now)

	if err := eng.putAssessment(ctx, a); err != nil {
		return nil, err
	}
	if len(a.Factors) > 0 {
		flags := make([]string, 0, len(a.Factors))
		for _, f := range a.Factors {
			flags = append(flags, f.Flag)
		}
		if err := eng.Flags.Add(ctx, subjectID, flags); err != nil {
			eng.logger().Warn("failed to persist risk flags", "subject", subjectID, "err", err)
		}
	}
	eng.cacheJSON(ctx, cachestore.NameAssessment, subjectID, a)

	riskAssessmentCount.WithLabelValues(string(a.Level)).Inc()
	eng.logger().Info("risk assessed",
		"subject", subjectID, "score", a.OverallScore, "level", a.Level, "factors", len(a.Factors))
	return a, nil
}

func (eng *Engine) putAssessment(ctx context.Context, a *risk.Assessment) error {
	for i := 0; i < maxVersionRetries; i++ {
		cur, err := eng.Repo.GetAssessment(ctx, a.SubjectID)
		if err != nil {
			return fmt.Errorf("reading assessment version for %s: %w", a.SubjectID, err)
		}
		a.Version = 1
		if cur != nil {
			a.Version = cur.Version + 1
		}
		err = eng.Writer.PutAssessment(ctx, a)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return fmt.Errorf("persisting assessment for %s: %w", a.SubjectID, err)
		}
		versionConflictCount.WithLabelValues("assessment").Inc()
	}
	return fmt.Errorf("persisting assessment for %s: %w", a.SubjectID, ErrVersionConflict)
}
