package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fairmarket/vigil/cachestore"
	"github.com/fairmarket/vigil/countstore"
	"github.com/fairmarket/vigil/trust"
)

// Recomputes the full trust profile for one subject from the current
// metric/badge/rating snapshot and signal counters, persists it with a
// version check, and returns the final [0,100] trust score. Subjects with no
// history at all land on the neutral default.
func (eng *Engine) ComputeTrustScore(ctx context.Context, subjectID string) (int, error) {
	now := eng.now()

	metrics, err := eng.Repo.MetricsFor(ctx, subjectID)
	if err != nil {
		return 0, fmt.Errorf("reading metrics for %s: %w", subjectID, err)
	}
	badges, err := eng.Repo.BadgesFor(ctx, subjectID)
	if err != nil {
		return 0, fmt.Errorf("reading badges for %s: %w", subjectID, err)
	}
	ratings, err := eng.Repo.RatingsFor(ctx, subjectID)
	if err != nil {
		return 0, fmt.Errorf("reading ratings for %s: %w", subjectID, err)
	}
	orders, err := eng.Counters.GetCount(ctx, countstore.SignalOrder, subjectID, countstore.PeriodTotal)
	if err != nil {
		return 0, fmt.Errorf("reading order count for %s: %w", subjectID, err)
	}
	endorsers, err := eng.Counters.GetCountDistinct(ctx, countstore.DistinctEndorsement, subjectID, countstore.PeriodTotal)
	if err != nil {
		return 0, fmt.Errorf("reading endorsement count for %s: %w", subjectID, err)
	}

	base := trust.BaseScore(metrics)
	bonus := trust.VerificationBonus(badges, eng.bonusTable(), now)
	final := trust.CombineScore(base, bonus)

	p := &trust.Profile{
		SubjectID:        subjectID,
		TrustScore:       final,
		TrustLevel:       trust.LevelForScore(final),
		ReputationScore:  trust.ReputationScore(ratings, eng.reputationCfg(), now),
		ReliabilityScore: capPct(base),
		ActivityScore:    capPct(2 * float64(orders)),
		SocialScore:      capPct(10 * float64(endorsers)),
		UpdatedAt:        now,
	}
	p.ProfileStrength = (float64(p.TrustScore) + p.ReputationScore + p.ActivityScore + p.SocialScore) / 4

	if err := eng.putProfile(ctx, p); err != nil {
		return 0, err
	}
	eng.cacheJSON(ctx, cachestore.NameProfile, subjectID, p)

	trustScoreCount.WithLabelValues(string(p.TrustLevel)).Inc()
	eng.logger().Info("trust score computed",
		"subject", subjectID, "score", final, "level", p.TrustLevel, "version", p.Version)
	return final, nil
}

// Cached read path for callers that only need the last computed profile.
// ErrNotFound means the subject has never been scored.
func (eng *Engine) Profile(ctx context.Context, subjectID string) (*trust.Profile, error) {
	if val, err := eng.Cache.Get(ctx, cachestore.NameProfile, subjectID); err == nil && val != "" {
		var p trust.Profile
		if err := json.Unmarshal([]byte(val), &p); err == nil {
			return &p, nil
		}
	}
	p, err := eng.Repo.GetProfile(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("reading profile for %s: %w", subjectID, err)
	}
	if p == nil {
		return nil, fmt.Errorf("profile for %s: %w", subjectID, ErrNotFound)
	}
	return p, nil
}

// Versioned upsert with bounded retry. The expensive snapshot computation is
// not redone on conflict, only the version read.
func (eng *Engine) putProfile(ctx context.Context, p *trust.Profile) error {
	for i := 0; i < maxVersionRetries; i++ {
		cur, err := eng.Repo.GetProfile(ctx, p.SubjectID)
		if err != nil {
			return fmt.Errorf("reading profile version for %s: %w", p.SubjectID, err)
		}
		p.Version = 1
		if cur != nil {
			p.Version = cur.Version + 1
		}
		err = eng.Writer.PutProfile(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return fmt.Errorf("persisting profile for %s: %w", p.SubjectID, err)
		}
		versionConflictCount.WithLabelValues("profile").Inc()
	}
	return fmt.Errorf("persisting profile for %s: %w", p.SubjectID, ErrVersionConflict)
}

func capPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Best-effort cache write; a miss on the next read just falls back to
// storage.
func (eng *Engine) cacheJSON(ctx context.Context, name cachestore.Name, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		eng.logger().Warn("failed to encode record for cache", "name", name, "key", key, "err", err)
		return
	}
	if err := eng.Cache.Set(ctx, name, key, string(b)); err != nil {
		eng.logger().Warn("failed to cache record", "name", name, "key", key, "err", err)
	}
}
