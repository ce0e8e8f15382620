package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fairmarket/vigil/cachestore"
	"github.com/fairmarket/vigil/content"
	"github.com/fairmarket/vigil/countstore"
	"github.com/fairmarket/vigil/flagstore"
	"github.com/fairmarket/vigil/risk"
	"github.com/fairmarket/vigil/rules"
	"github.com/fairmarket/vigil/status"
	"github.com/fairmarket/vigil/triage"
	"github.com/fairmarket/vigil/trust"
)

// Returned by writers when a versioned upsert loses a race with a concurrent
// recomputation. The engine re-reads and retries; callers never see it.
var ErrVersionConflict = errors.New("stale version on write")

// Returned when a referenced subject or content record does not exist at
// all. Distinct from "subject with no history", which scores with neutral
// defaults instead of failing.
var ErrNotFound = errors.New("record not found")

// Identity-level metadata for one subject, as known to the platform.
type SubjectMeta struct {
	SubjectID string
	CreatedAt time.Time
	// Device/payment fingerprints observed for this subject, used for
	// duplicate-identity detection via distinct counters.
	Fingerprints []string
}

// A human-review work item. Created only when classification requires human
// review; removed once a human decision is recorded.
type QueueEntry struct {
	ContentID  string
	Priority   triage.Priority
	DueAt      time.Time
	AssignedTo string
}

// Read-only snapshot supplier. Implementations fetch point-in-time state
// from storage; the engine never mutates anything through this interface.
type Repository interface {
	MetricsFor(ctx context.Context, subjectID string) ([]trust.Metric, error)
	BadgesFor(ctx context.Context, subjectID string) ([]trust.Badge, error)
	RatingsFor(ctx context.Context, subjectID string) ([]trust.Rating, error)
	// May return (nil, nil) when nothing is known about the subject yet.
	SubjectMeta(ctx context.Context, subjectID string) (*SubjectMeta, error)
	// Active rules, sorted by priority descending.
	ActiveRules(ctx context.Context) ([]rules.Rule, error)
	// Profile and assessment reads return (nil, nil) when no record exists
	// yet; a missing record is a normal state, not an error.
	GetProfile(ctx context.Context, subjectID string) (*trust.Profile, error)
	GetAssessment(ctx context.Context, subjectID string) (*risk.Assessment, error)
	// Returns ErrNotFound for content that was never classified.
	ModerationStatus(ctx context.Context, contentID string) (status.ModerationStatus, error)
}

// Write-side contract, upsert semantics: at most one current record per
// subject/content. PutProfile and PutAssessment are version-checked: the
// record's Version must be exactly one greater than the stored version (or 1
// for a fresh record), otherwise ErrVersionConflict.
type Writer interface {
	PutProfile(ctx context.Context, p *trust.Profile) error
	PutAssessment(ctx context.Context, a *risk.Assessment) error
	PutModerationResult(ctx context.Context, res *content.ModerationResult, st status.ModerationStatus) error
	SetModerationStatus(ctx context.Context, contentID string, st status.ModerationStatus) error
	CreateQueueEntry(ctx context.Context, qe *QueueEntry) error
	DeleteQueueEntry(ctx context.Context, contentID string) error
}

// Runtime for scoring subjects and classifying content. All computation is
// pure over snapshots read through Repo; the stores carry the cross-request
// state. Fields should be non-nil unless noted.
type Engine struct {
	Logger   *slog.Logger
	Repo     Repository
	Writer   Writer
	Counters countstore.CountStore
	Cache    cachestore.CacheStore
	Flags    flagstore.FlagStore
	Analyzer *content.Analyzer

	// Scoring configuration, loaded once at startup.
	BonusTable    trust.BonusTable
	ReputationCfg trust.ReputationConfig

	// Clock override for tests. Nil means time.Now.
	Now func() time.Time
}

// Bounded retries for version-conflict races on per-subject records.
const maxVersionRetries = 3

func (eng *Engine) now() time.Time {
	if eng.Now != nil {
		return eng.Now()
	}
	return time.Now().UTC()
}

func (eng *Engine) logger() *slog.Logger {
	if eng.Logger != nil {
		return eng.Logger
	}
	return slog.Default()
}

func (eng *Engine) bonusTable() trust.BonusTable {
	if eng.BonusTable != nil {
		return eng.BonusTable
	}
	return trust.DefaultBonusTable()
}

func (eng *Engine) reputationCfg() trust.ReputationConfig {
	if eng.ReputationCfg.MaxRating > 0 {
		return eng.ReputationCfg
	}
	return trust.ReputationConfig{MaxRating: 5}
}
