package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fairmarket/vigil/cachestore"
	"github.com/fairmarket/vigil/content"
	"github.com/fairmarket/vigil/countstore"
	"github.com/fairmarket/vigil/rules"
	"github.com/fairmarket/vigil/status"
	"github.com/fairmarket/vigil/triage"
	"github.com/fairmarket/vigil/util"
)

// Classifies one content record: runs heuristics and the active policy rules,
// persists the result with an initial lifecycle status decided through the
// moderation state machine, and queues the record for human review when
// confidence demands it. Results are cached by content+ruleset hash, so
// resubmitting unchanged content is idempotent.
//
// Recovers from panics in heuristic or rule evaluation; a classification
// error is returned instead of crashing the caller.
func (eng *Engine) ClassifyContent(ctx context.Context, rec *content.Record) (res *content.ModerationResult, err error) {
	logger := eng.logger().With("content", rec.ID, "type", rec.ContentType)
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		classifyDuration.WithLabelValues(rec.ContentType).Observe(duration.Seconds())
		if r := recover(); r != nil {
			logger.Error("content classification exception", "err", r)
			classifyErrorCount.WithLabelValues(rec.ContentType).Inc()
			res = nil
			err = fmt.Errorf("classifying content %s: internal error", rec.ID)
		}
	}()

	ruleset, err := eng.Repo.ActiveRules(ctx)
	if err != nil {
		// heuristics still run; rule coverage degrades for this pass only
		logger.Warn("failed to load active rules, continuing without", "err", err)
		ruleset = nil
	}
	sort.SliceStable(ruleset, func(i, j int) bool {
		return ruleset[i].Priority > ruleset[j].Priority
	})

	key := classifyCacheKey(rec, ruleset)
	if val, cerr := eng.Cache.Get(ctx, cachestore.NameModerationResult, key); cerr == nil && val != "" {
		var cached content.ModerationResult
		if jerr := json.Unmarshal([]byte(val), &cached); jerr == nil {
			return &cached, nil
		}
	}

	res = eng.Analyzer.Analyze(ctx, rec, ruleset)

	// the initial status is decided exactly once, from pending
	var ev status.Event
	switch {
	case res.RequiresHumanReview:
		ev = status.EventQueue
	case res.OverallScore >= 80:
		ev = status.EventAutoReject
	default:
		ev = status.EventAutoApprove
	}
	st, err := status.ModerationPending.Transition(ev)
	if err != nil {
		return nil, fmt.Errorf("classifying content %s: %w", rec.ID, err)
	}

	if err := eng.Writer.PutModerationResult(ctx, res, st); err != nil {
		return nil, fmt.Errorf("persisting moderation result for %s: %w", rec.ID, err)
	}
	if st == status.ModerationUnderReview {
		asg := triage.ForScore(res.OverallScore, eng.now())
		qe := &QueueEntry{ContentID: rec.ID, Priority: asg.Priority, DueAt: asg.DueAt}
		if err := eng.Writer.CreateQueueEntry(ctx, qe); err != nil {
			return nil, fmt.Errorf("queueing content %s for review: %w", rec.ID, err)
		}
	}
	if st == status.ModerationRejected && rec.AuthorID != "" {
		// auto-rejections feed back into the author's risk signals
		if err := eng.Counters.Increment(ctx, countstore.SignalViolation, rec.AuthorID); err != nil {
			logger.Warn("failed to increment violation counter", "author", rec.AuthorID, "err", err)
		}
	}
	eng.cacheJSON(ctx, cachestore.NameModerationResult, key, res)

	classifyCount.WithLabelValues(rec.ContentType, string(st)).Inc()
	logger.Info("content classified",
		"score", res.OverallScore, "status", st, "violations", len(res.Violations), "review", res.RequiresHumanReview)
	return res, nil
}

// Applies a human reviewer's decision to previously classified content.
// Terminal decisions remove the queue entry; escalation keeps the content
// queued for a senior reviewer. Illegal transitions (eg, approving content
// that was never queued) fail with status.ErrInvalidTransition.
func (eng *Engine) RecordDecision(ctx context.Context, contentID string, ev status.Event) (status.ModerationStatus, error) {
	cur, err := eng.Repo.ModerationStatus(ctx, contentID)
	if err != nil {
		return "", fmt.Errorf("reading moderation status for %s: %w", contentID, err)
	}
	next, err := cur.Transition(ev)
	if err != nil {
		return cur, err
	}
	if err := eng.Writer.SetModerationStatus(ctx, contentID, next); err != nil {
		return cur, fmt.Errorf("persisting moderation status for %s: %w", contentID, err)
	}
	if next == status.ModerationApproved || next == status.ModerationRejected {
		if err := eng.Writer.DeleteQueueEntry(ctx, contentID); err != nil {
			eng.logger().Warn("failed to remove queue entry", "content", contentID, "err", err)
		}
	}
	decisionCount.WithLabelValues(string(ev)).Inc()
	eng.logger().Info("review decision recorded", "content", contentID, "event", ev, "status", next)
	return next, nil
}

// Deterministic key over the content fields and the full rule snapshot that
// scored them. Every rule field participates, so editing a rule's conditions
// or severity moves the key and invalidates cached results even when the
// priority stays put.
func classifyCacheKey(rec *content.Record, ruleset []rules.Rule) string {
	var sb strings.Builder
	recBytes, _ := json.Marshal(rec)
	sb.Write(recBytes)
	for _, r := range ruleset {
		ruleBytes, _ := json.Marshal(r)
		sb.WriteByte('|')
		sb.Write(ruleBytes)
	}
	return util.HashOfString(sb.String())
}
