package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairmarket/vigil/cachestore"
	"github.com/fairmarket/vigil/content"
	"github.com/fairmarket/vigil/countstore"
	"github.com/fairmarket/vigil/engine"
	"github.com/fairmarket/vigil/flagstore"
	"github.com/fairmarket/vigil/risk"
	"github.com/fairmarket/vigil/rules"
	"github.com/fairmarket/vigil/status"
	"github.com/fairmarket/vigil/store"
	"github.com/fairmarket/vigil/triage"
	"github.com/fairmarket/vigil/trust"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func engineTestFixture(t *testing.T) (*engine.Engine, *store.MemStore) {
	t.Helper()
	lexicon, err := content.NewLexicon([]string{"frack"}, content.DefaultSpamPatterns())
	require.NoError(t, err)

	ms := store.NewMemStore()
	eng := &engine.Engine{
		Repo:     ms,
		Writer:   ms,
		Counters: countstore.NewMemCountStore(),
		Cache:    cachestore.NewMemCacheStore(100, time.Hour),
		Flags:    flagstore.NewMemFlagStore(),
		Analyzer: &content.Analyzer{Lexicon: lexicon},
		Now:      func() time.Time { return fixedNow },
	}
	return eng, ms
}

func TestComputeTrustScoreNoHistory(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	score, err := eng.ComputeTrustScore(ctx, "seller-new")
	assert.NoError(err)
	assert.Equal(50, score)

	p, err := ms.GetProfile(ctx, "seller-new")
	assert.NoError(err)
	if assert.NotNil(p) {
		assert.Equal(trust.LevelBasic, p.TrustLevel)
		assert.Equal(int64(1), p.Version)
	}
}

func TestComputeTrustScoreFull(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	ms.AddMetric(trust.Metric{SubjectID: "seller-1", Type: "completion_rate", Value: 95, MaxValue: 100, Weight: 1.0})
	ms.AddMetric(trust.Metric{SubjectID: "seller-1", Type: "response_rate", Value: 90, MaxValue: 100, Weight: 0.5})
	ms.AddBadge(trust.Badge{SubjectID: "seller-1", Type: "identity", Status: trust.BadgeVerified})
	ms.AddBadge(trust.Badge{SubjectID: "seller-1", Type: "email", Status: trust.BadgeVerified})
	ms.AddRating(trust.Rating{SubjectID: "seller-1", Value: 5, CreatedAt: fixedNow.AddDate(0, 0, -10)})

	score, err := eng.ComputeTrustScore(ctx, "seller-1")
	assert.NoError(err)
	// base 93.33 plus identity 15 and email 2, clamped at 100
	assert.Equal(100, score)

	p, err := ms.GetProfile(ctx, "seller-1")
	assert.NoError(err)
	if assert.NotNil(p) {
		assert.Equal(trust.LevelExemplary, p.TrustLevel)
		assert.InDelta(100.0, p.ReputationScore, 0.001)
		assert.InDelta(93.333, p.ReliabilityScore, 0.01)
		assert.Equal(int64(1), p.Version)
	}

	// recompute bumps the version, not a new record
	_, err = eng.ComputeTrustScore(ctx, "seller-1")
	assert.NoError(err)
	p, err = ms.GetProfile(ctx, "seller-1")
	assert.NoError(err)
	if assert.NotNil(p) {
		assert.Equal(int64(2), p.Version)
	}

	cached, err := eng.Profile(ctx, "seller-1")
	assert.NoError(err)
	if assert.NotNil(cached) {
		assert.Equal(100, cached.TrustScore)
	}
}

func TestComputeTrustScoreActivity(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	for i := 0; i < 30; i++ {
		assert.NoError(eng.Counters.Increment(ctx, countstore.SignalOrder, "seller-2"))
	}
	assert.NoError(eng.Counters.IncrementDistinct(ctx, countstore.DistinctEndorsement, "seller-2", "buyer-a"))
	assert.NoError(eng.Counters.IncrementDistinct(ctx, countstore.DistinctEndorsement, "seller-2", "buyer-b"))

	_, err := eng.ComputeTrustScore(ctx, "seller-2")
	assert.NoError(err)
	p, err := ms.GetProfile(ctx, "seller-2")
	assert.NoError(err)
	if assert.NotNil(p) {
		assert.InDelta(60.0, p.ActivityScore, 0.001)
		assert.InDelta(20.0, p.SocialScore, 0.001)
	}
}

func TestProfileNotFound(t *testing.T) {
	assert := assert.New(t)
	eng, _ := engineTestFixture(t)

	_, err := eng.Profile(context.Background(), "nobody")
	assert.ErrorIs(err, engine.ErrNotFound)
}

func TestAssessRiskClean(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	a, err := eng.AssessRisk(ctx, "seller-clean")
	assert.NoError(err)
	assert.Equal(0.0, a.OverallScore)
	assert.Equal(risk.LevelLow, a.Level)
	assert.Empty(a.Factors)

	stored, err := ms.GetAssessment(ctx, "seller-clean")
	assert.NoError(err)
	if assert.NotNil(stored) {
		assert.Equal(int64(1), stored.Version)
	}
}

func TestAssessRiskFullSignals(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	for i := 0; i < 10; i++ {
		assert.NoError(eng.Counters.Increment(ctx, countstore.SignalOrder, "seller-risky"))
	}
	for i := 0; i < 3; i++ {
		assert.NoError(eng.Counters.Increment(ctx, countstore.SignalDispute, "seller-risky"))
	}
	assert.NoError(eng.Counters.Increment(ctx, countstore.SignalViolation, "seller-risky"))
	// device fingerprint shared across three subjects
	for _, id := range []string{"seller-risky", "seller-alt1", "seller-alt2"} {
		assert.NoError(eng.Counters.IncrementDistinct(ctx, countstore.DistinctFingerprint, "device-xyz", id))
	}
	ms.PutSubjectMeta(&engine.SubjectMeta{
		SubjectID:    "seller-risky",
		CreatedAt:    fixedNow.AddDate(0, 0, -2),
		Fingerprints: []string{"device-xyz"},
	})

	a, err := eng.AssessRisk(ctx, "seller-risky")
	assert.NoError(err)
	assert.Len(a.Factors, 4)
	// (50*0.8 + 20*1.0 + 60*0.9 + 40*0.5) / 3.2
	assert.InDelta(41.875, a.OverallScore, 0.001)
	assert.Equal(risk.LevelMedium, a.Level)

	flags, err := eng.Flags.Get(ctx, "seller-risky")
	assert.NoError(err)
	assert.Contains(flags, risk.FlagHighDisputeRate)
	assert.Contains(flags, risk.FlagPolicyViolations)
	assert.Contains(flags, risk.FlagDuplicateIdentity)
	assert.Contains(flags, risk.FlagRapidAccountAge)
}

// writer that loses exactly one race per record type: the first write is
// preempted by an interleaved recompute landing version 1 first
type racingWriter struct {
	*store.MemStore
	profileRaced    bool
	assessmentRaced bool
}

func (w *racingWriter) PutProfile(ctx context.Context, p *trust.Profile) error {
	if !w.profileRaced {
		w.profileRaced = true
		interloper := *p
		interloper.TrustScore = 10
		if err := w.MemStore.PutProfile(ctx, &interloper); err != nil {
			return err
		}
		return engine.ErrVersionConflict
	}
	return w.MemStore.PutProfile(ctx, p)
}

func (w *racingWriter) PutAssessment(ctx context.Context, a *risk.Assessment) error {
	if !w.assessmentRaced {
		w.assessmentRaced = true
		interloper := *a
		interloper.OverallScore = 99
		if err := w.MemStore.PutAssessment(ctx, &interloper); err != nil {
			return err
		}
		return engine.ErrVersionConflict
	}
	return w.MemStore.PutAssessment(ctx, a)
}

func TestComputeTrustScoreRetriesOnConflict(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)
	w := &racingWriter{MemStore: ms}
	eng.Writer = w

	score, err := eng.ComputeTrustScore(ctx, "seller-race")
	assert.NoError(err)
	assert.Equal(50, score)
	assert.True(w.profileRaced)

	// the retried write lands on the version after the interleaved one
	p, err := ms.GetProfile(ctx, "seller-race")
	assert.NoError(err)
	if assert.NotNil(p) {
		assert.Equal(int64(2), p.Version)
		assert.Equal(50, p.TrustScore)
	}
}

func TestAssessRiskRetriesOnConflict(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)
	w := &racingWriter{MemStore: ms}
	eng.Writer = w

	a, err := eng.AssessRisk(ctx, "seller-race")
	assert.NoError(err)
	assert.Equal(0.0, a.OverallScore)
	assert.True(w.assessmentRaced)

	stored, err := ms.GetAssessment(ctx, "seller-race")
	assert.NoError(err)
	if assert.NotNil(stored) {
		assert.Equal(int64(2), stored.Version)
		assert.Equal(0.0, stored.OverallScore)
	}
}

func TestClassifyContentAutoApprove(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	rec := &content.Record{
		ID:          "listing-1",
		AuthorID:    "seller-1",
		ContentType: "listing",
		Title:       "Vintage camera",
		Description: "A well kept film camera from the 1970s.",
	}
	res, err := eng.ClassifyContent(ctx, rec)
	assert.NoError(err)
	assert.Equal(0.0, res.OverallScore)
	assert.False(res.RequiresHumanReview)

	st, err := ms.ModerationStatus(ctx, "listing-1")
	assert.NoError(err)
	assert.Equal(status.ModerationAutoApproved, st)

	qe, err := ms.QueueEntry(ctx, "listing-1")
	assert.NoError(err)
	assert.Nil(qe)
}

func TestClassifyContentAutoReject(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	rec := &content.Record{
		ID:          "review-1",
		AuthorID:    "buyer-9",
		ContentType: "review",
		Body:        "what a frack, this seller never shipped",
	}
	res, err := eng.ClassifyContent(ctx, rec)
	assert.NoError(err)
	assert.Equal(85.0, res.OverallScore)
	assert.False(res.RequiresHumanReview)

	st, err := ms.ModerationStatus(ctx, "review-1")
	assert.NoError(err)
	assert.Equal(status.ModerationRejected, st)

	// auto-rejection feeds the author's violation counter
	n, err := eng.Counters.GetCount(ctx, countstore.SignalViolation, "buyer-9", countstore.PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, n)
}

func TestClassifyContentQueued(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	rec := &content.Record{
		ID:          "listing-2",
		AuthorID:    "seller-3",
		ContentType: "listing",
		Description: "free money if you buy today",
	}
	res, err := eng.ClassifyContent(ctx, rec)
	assert.NoError(err)
	assert.Equal(60.0, res.OverallScore)
	assert.True(res.RequiresHumanReview)

	st, err := ms.ModerationStatus(ctx, "listing-2")
	assert.NoError(err)
	assert.Equal(status.ModerationUnderReview, st)

	qe, err := ms.QueueEntry(ctx, "listing-2")
	assert.NoError(err)
	if assert.NotNil(qe) {
		assert.Equal(triage.PriorityHigh, qe.Priority)
		assert.Equal(fixedNow.Add(4*time.Hour), qe.DueAt)
	}
}

func TestClassifyContentRuleViolation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	ms.PutRule(rules.Rule{
		ID:       "rule-weapons",
		Name:     "prohibited items",
		Severity: rules.SeverityCritical,
		Priority: 100,
		Active:   true,
		Conditions: []rules.Condition{
			{Field: "title", Operator: rules.OpContains, Value: "weapon"},
		},
	})

	rec := &content.Record{
		ID:          "listing-3",
		AuthorID:    "seller-4",
		ContentType: "listing",
		Title:       "Antique weapon replica",
	}
	res, err := eng.ClassifyContent(ctx, rec)
	assert.NoError(err)
	assert.Equal(95.0, res.OverallScore)
	assert.Len(res.Violations, 1)
	assert.Equal("rule-weapons", res.Violations[0].RuleID)

	st, err := ms.ModerationStatus(ctx, "listing-3")
	assert.NoError(err)
	assert.Equal(status.ModerationRejected, st)
}

func TestClassifyContentIdempotent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := engineTestFixture(t)

	rec := &content.Record{
		ID:          "listing-4",
		AuthorID:    "seller-5",
		ContentType: "listing",
		Description: "free money if you buy today",
	}
	first, err := eng.ClassifyContent(ctx, rec)
	assert.NoError(err)
	second, err := eng.ClassifyContent(ctx, rec)
	assert.NoError(err)
	assert.Equal(first, second)
}

func TestClassifyContentRuleEditInvalidatesCache(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	rule := rules.Rule{
		ID:       "rule-edit",
		Name:     "offsite payment",
		Severity: rules.SeverityHigh,
		Priority: 10,
		Active:   true,
		Conditions: []rules.Condition{
			{Field: "description", Operator: rules.OpContains, Value: "wire transfer"},
		},
	}
	ms.PutRule(rule)

	rec := &content.Record{
		ID:          "listing-7",
		AuthorID:    "seller-9",
		ContentType: "listing",
		Description: "pay by wire transfer only",
	}
	res, err := eng.ClassifyContent(ctx, rec)
	assert.NoError(err)
	assert.Len(res.Violations, 1)
	assert.Equal(80.0, res.OverallScore)

	// editing the conditions without touching id or priority must not serve
	// the stale cached result
	rule.Conditions = []rules.Condition{
		{Field: "description", Operator: rules.OpContains, Value: "cashier check"},
	}
	ms.PutRule(rule)

	res, err = eng.ClassifyContent(ctx, rec)
	assert.NoError(err)
	assert.Empty(res.Violations)
	assert.Equal(0.0, res.OverallScore)
}

func TestRecordDecision(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	rec := &content.Record{
		ID:          "listing-5",
		AuthorID:    "seller-6",
		ContentType: "listing",
		Description: "free money if you buy today",
	}
	_, err := eng.ClassifyContent(ctx, rec)
	assert.NoError(err)

	next, err := eng.RecordDecision(ctx, "listing-5", status.EventApprove)
	assert.NoError(err)
	assert.Equal(status.ModerationApproved, next)

	qe, err := ms.QueueEntry(ctx, "listing-5")
	assert.NoError(err)
	assert.Nil(qe)

	// approved is terminal
	_, err = eng.RecordDecision(ctx, "listing-5", status.EventReject)
	assert.ErrorIs(err, status.ErrInvalidTransition)
}

func TestRecordDecisionEscalation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, ms := engineTestFixture(t)

	rec := &content.Record{
		ID:          "listing-6",
		AuthorID:    "seller-7",
		ContentType: "listing",
		Description: "free money if you buy today",
	}
	_, err := eng.ClassifyContent(ctx, rec)
	assert.NoError(err)

	next, err := eng.RecordDecision(ctx, "listing-6", status.EventEscalate)
	assert.NoError(err)
	assert.Equal(status.ModerationEscalated, next)

	// escalated content stays queued for a senior reviewer
	qe, err := ms.QueueEntry(ctx, "listing-6")
	assert.NoError(err)
	assert.NotNil(qe)

	next, err = eng.RecordDecision(ctx, "listing-6", status.EventReject)
	assert.NoError(err)
	assert.Equal(status.ModerationRejected, next)

	qe, err = ms.QueueEntry(ctx, "listing-6")
	assert.NoError(err)
	assert.Nil(qe)
}

func TestRecordDecisionUnknownContent(t *testing.T) {
	assert := assert.New(t)
	eng, _ := engineTestFixture(t)

	_, err := eng.RecordDecision(context.Background(), "no-such-content", status.EventApprove)
	assert.ErrorIs(err, engine.ErrNotFound)
}

func TestOpenDispute(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := engineTestFixture(t)

	d := &engine.Dispute{
		ID:        "dsp-1",
		SubjectID: "seller-8",
		Type:      triage.DisputePaymentIssue,
		Category:  triage.CategorySafety,
		Amount:    50,
	}
	assert.NoError(eng.OpenDispute(ctx, d))
	assert.Equal(triage.PriorityCritical, d.Priority)
	assert.Equal(fixedNow.AddDate(0, 0, 1), d.DueAt)
	assert.Equal(status.DisputeSubmitted, d.Status)

	n, err := eng.Counters.GetCount(ctx, countstore.SignalDispute, "seller-8", countstore.PeriodTotal)
	assert.NoError(err)
	assert.Equal(1, n)

	// the amount check outranks the safety category
	big := &engine.Dispute{
		ID:       "dsp-2",
		Type:     triage.DisputePaymentIssue,
		Category: triage.CategorySafety,
		Amount:   2000,
	}
	assert.NoError(eng.OpenDispute(ctx, big))
	assert.Equal(triage.PriorityHigh, big.Priority)
	assert.Equal(fixedNow.AddDate(0, 0, 2), big.DueAt)
}

func TestDisputeLifecycle(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := engineTestFixture(t)

	d := &engine.Dispute{ID: "dsp-3", Type: triage.DisputeServiceComplaint, Category: triage.CategoryQuality}
	assert.NoError(eng.OpenDispute(ctx, d))

	assert.NoError(eng.TransitionDispute(d, status.EventStartReview))
	assert.NoError(eng.TransitionDispute(d, status.EventInvestigate))
	assert.NoError(eng.TransitionDispute(d, status.EventResolve))
	assert.Equal(status.DisputeResolved, d.Status)

	// resolved disputes cannot re-enter investigation
	err := eng.TransitionDispute(d, status.EventInvestigate)
	assert.ErrorIs(err, status.ErrInvalidTransition)
	assert.Equal(status.DisputeResolved, d.Status)
}
