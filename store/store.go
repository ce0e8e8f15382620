package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fairmarket/vigil/content"
	"github.com/fairmarket/vigil/engine"
	"github.com/fairmarket/vigil/risk"
	"github.com/fairmarket/vigil/rules"
	"github.com/fairmarket/vigil/status"
	"github.com/fairmarket/vigil/triage"
	"github.com/fairmarket/vigil/trust"
)

// Database-backed store. Safe for concurrent use; versioned upserts rely on
// conditional updates, not table locks.
type DbStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

var _ engine.Repository = (*DbStore)(nil)
var _ engine.Writer = (*DbStore)(nil)

func NewDbStore(db *gorm.DB, logger *slog.Logger) (*DbStore, error) {
	if err := MigrateModels(db); err != nil {
		return nil, fmt.Errorf("migrating store tables: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DbStore{db: db, logger: logger}, nil
}

func (s *DbStore) MetricsFor(ctx context.Context, subjectID string) ([]trust.Metric, error) {
	var rows []SubjectMetric
	if err := s.db.WithContext(ctx).Find(&rows, "subject_id = ?", subjectID).Error; err != nil {
		return nil, err
	}
	out := make([]trust.Metric, len(rows))
	for i, r := range rows {
		out[i] = trust.Metric{
			SubjectID: r.SubjectID,
			Type:      r.Type,
			Value:     r.Value,
			MaxValue:  r.MaxValue,
			Weight:    r.Weight,
			Source:    r.Source,
		}
	}
	return out, nil
}

func (s *DbStore) BadgesFor(ctx context.Context, subjectID string) ([]trust.Badge, error) {
	var rows []SubjectBadge
	if err := s.db.WithContext(ctx).Find(&rows, "subject_id = ?", subjectID).Error; err != nil {
		return nil, err
	}
	out := make([]trust.Badge, len(rows))
	for i, r := range rows {
		out[i] = trust.Badge{
			SubjectID: r.SubjectID,
			Type:      r.Type,
			Status:    trust.BadgeStatus(r.Status),
			ExpiresAt: r.ExpiresAt,
		}
	}
	return out, nil
}

func (s *DbStore) RatingsFor(ctx context.Context, subjectID string) ([]trust.Rating, error) {
	var rows []SubjectRating
	if err := s.db.WithContext(ctx).Find(&rows, "subject_id = ?", subjectID).Error; err != nil {
		return nil, err
	}
	out := make([]trust.Rating, len(rows))
	for i, r := range rows {
		out[i] = trust.Rating{
			SubjectID: r.SubjectID,
			Value:     r.Value,
			CreatedAt: r.CreatedAt,
		}
	}
	return out, nil
}

func (s *DbStore) SubjectMeta(ctx context.Context, subjectID string) (*engine.SubjectMeta, error) {
	var row Subject
	err := s.db.WithContext(ctx).First(&row, "subject_id = ?", subjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	meta := &engine.SubjectMeta{
		SubjectID: row.SubjectID,
		CreatedAt: row.CreatedAt,
	}
	if row.Fingerprints != "" {
		if err := json.Unmarshal([]byte(row.Fingerprints), &meta.Fingerprints); err != nil {
			return nil, fmt.Errorf("decoding fingerprints for %s: %w", subjectID, err)
		}
	}
	return meta, nil
}

// Active rules, highest priority first. A rule row with malformed condition
// JSON is skipped and logged rather than failing every classification.
func (s *DbStore) ActiveRules(ctx context.Context) ([]rules.Rule, error) {
	var rows []PolicyRule
	if err := s.db.WithContext(ctx).Order("priority desc").Find(&rows, "active = ?", true).Error; err != nil {
		return nil, err
	}
	out := make([]rules.Rule, 0, len(rows))
	for _, row := range rows {
		r, err := ruleFromRow(row)
		if err != nil {
			s.logger.Warn("skipping malformed rule row", "rule", row.RuleID, "err", err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func ruleFromRow(row PolicyRule) (rules.Rule, error) {
	r := rules.Rule{
		ID:       row.RuleID,
		Name:     row.Name,
		Priority: row.Priority,
		Severity: rules.Severity(row.Severity),
		Active:   row.Active,
	}
	if row.Conditions != "" {
		if err := json.Unmarshal([]byte(row.Conditions), &r.Conditions); err != nil {
			return r, fmt.Errorf("decoding conditions: %w", err)
		}
	}
	if row.ContentTypes != "" {
		var types []string
		if err := json.Unmarshal([]byte(row.ContentTypes), &types); err != nil {
			return r, fmt.Errorf("decoding content types: %w", err)
		}
		if len(types) > 0 {
			r.ContentTypes = make(map[string]bool, len(types))
			for _, t := range types {
				r.ContentTypes[t] = true
			}
		}
	}
	return r, nil
}

func (s *DbStore) GetProfile(ctx context.Context, subjectID string) (*trust.Profile, error) {
	var row TrustProfile
	err := s.db.WithContext(ctx).First(&row, "subject_id = ?", subjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &trust.Profile{
		SubjectID:        row.SubjectID,
		TrustScore:       row.TrustScore,
		TrustLevel:       trust.Level(row.TrustLevel),
		ReputationScore:  row.ReputationScore,
		ReliabilityScore: row.ReliabilityScore,
		ActivityScore:    row.ActivityScore,
		SocialScore:      row.SocialScore,
		ProfileStrength:  row.ProfileStrength,
		Version:          row.Version,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}

func (s *DbStore) GetAssessment(ctx context.Context, subjectID string) (*risk.Assessment, error) {
	var row RiskRecord
	err := s.db.WithContext(ctx).First(&row, "subject_id = ?", subjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a := &risk.Assessment{
		SubjectID:    row.SubjectID,
		OverallScore: row.OverallScore,
		Level:        risk.Level(row.Level),
		AssessedAt:   row.AssessedAt,
		Version:      row.Version,
	}
	if row.Factors != "" {
		if err := json.Unmarshal([]byte(row.Factors), &a.Factors); err != nil {
			return nil, fmt.Errorf("decoding factors for %s: %w", subjectID, err)
		}
	}
	if row.Recommendations != "" {
		if err := json.Unmarshal([]byte(row.Recommendations), &a.Recommendations); err != nil {
			return nil, fmt.Errorf("decoding recommendations for %s: %w", subjectID, err)
		}
	}
	return a, nil
}

func (s *DbStore) ModerationStatus(ctx context.Context, contentID string) (status.ModerationStatus, error) {
	var row ModerationRecord
	err := s.db.WithContext(ctx).First(&row, "content_id = ?", contentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("moderation record for %s: %w", contentID, engine.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return status.ModerationStatus(row.Status), nil
}

func (s *DbStore) PutProfile(ctx context.Context, p *trust.Profile) error {
	row := TrustProfile{
		SubjectID:        p.SubjectID,
		TrustScore:       p.TrustScore,
		TrustLevel:       string(p.TrustLevel),
		ReputationScore:  p.ReputationScore,
		ReliabilityScore: p.ReliabilityScore,
		ActivityScore:    p.ActivityScore,
		SocialScore:      p.SocialScore,
		ProfileStrength:  p.ProfileStrength,
		Version:          p.Version,
		UpdatedAt:        p.UpdatedAt,
	}
	return s.versionedPut(ctx, &row, "subject_id", p.SubjectID, p.Version)
}

func (s *DbStore) PutAssessment(ctx context.Context, a *risk.Assessment) error {
	factors, err := json.Marshal(a.Factors)
	if err != nil {
		return fmt.Errorf("encoding factors for %s: %w", a.SubjectID, err)
	}
	recs, err := json.Marshal(a.Recommendations)
	if err != nil {
		return fmt.Errorf("encoding recommendations for %s: %w", a.SubjectID, err)
	}
	row := RiskRecord{
		SubjectID:       a.SubjectID,
		OverallScore:    a.OverallScore,
		Level:           string(a.Level),
		Factors:         string(factors),
		Recommendations: string(recs),
		AssessedAt:      a.AssessedAt,
		Version:         a.Version,
	}
	return s.versionedPut(ctx, &row, "subject_id", a.SubjectID, a.Version)
}

// Optimistic upsert: version 1 must insert a new row, any later version must
// replace exactly the previous one. Both failure modes surface as
// engine.ErrVersionConflict so the caller can re-read and retry.
func (s *DbStore) versionedPut(ctx context.Context, row any, keyCol, keyVal string, version int64) error {
	if version <= 1 {
		err := s.db.WithContext(ctx).Create(row).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return engine.ErrVersionConflict
		}
		return err
	}
	res := s.db.WithContext(ctx).Model(row).
		Where(fmt.Sprintf("%s = ? AND version = ?", keyCol), keyVal, version-1).
		Select("*").Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return engine.ErrVersionConflict
	}
	return nil
}

func (s *DbStore) PutModerationResult(ctx context.Context, res *content.ModerationResult, st status.ModerationStatus) error {
	encoded, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding moderation result for %s: %w", res.ContentID, err)
	}
	row := ModerationRecord{
		ContentID:    res.ContentID,
		Status:       string(st),
		OverallScore: res.OverallScore,
		Result:       string(encoded),
		UpdatedAt:    time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "content_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (s *DbStore) SetModerationStatus(ctx context.Context, contentID string, st status.ModerationStatus) error {
	res := s.db.WithContext(ctx).Model(&ModerationRecord{}).
		Where("content_id = ?", contentID).
		Updates(map[string]any{"status": string(st), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("moderation record for %s: %w", contentID, engine.ErrNotFound)
	}
	return nil
}

func (s *DbStore) CreateQueueEntry(ctx context.Context, qe *engine.QueueEntry) error {
	row := ReviewQueueEntry{
		ContentID:  qe.ContentID,
		Priority:   string(qe.Priority),
		DueAt:      qe.DueAt,
		AssignedTo: qe.AssignedTo,
	}
	// reclassifying already-queued content keeps the original entry
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *DbStore) DeleteQueueEntry(ctx context.Context, contentID string) error {
	return s.db.WithContext(ctx).Delete(&ReviewQueueEntry{}, "content_id = ?", contentID).Error
}

// Oldest-due-first slice of the review queue, for worker assignment.
func (s *DbStore) QueueEntries(ctx context.Context, limit int) ([]engine.QueueEntry, error) {
	var rows []ReviewQueueEntry
	q := s.db.WithContext(ctx).Order("due_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]engine.QueueEntry, len(rows))
	for i, r := range rows {
		out[i] = engine.QueueEntry{
			ContentID:  r.ContentID,
			Priority:   triage.Priority(r.Priority),
			DueAt:      r.DueAt,
			AssignedTo: r.AssignedTo,
		}
	}
	return out, nil
}

func (s *DbStore) PutRule(ctx context.Context, r rules.Rule) error {
	conditions, err := json.Marshal(r.Conditions)
	if err != nil {
		return fmt.Errorf("encoding conditions for rule %s: %w", r.ID, err)
	}
	var types []string
	for t := range r.ContentTypes {
		types = append(types, t)
	}
	encodedTypes, err := json.Marshal(types)
	if err != nil {
		return fmt.Errorf("encoding content types for rule %s: %w", r.ID, err)
	}
	row := PolicyRule{
		RuleID:       r.ID,
		Name:         r.Name,
		Conditions:   string(conditions),
		Priority:     r.Priority,
		Severity:     string(r.Severity),
		ContentTypes: string(encodedTypes),
		Active:       r.Active,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "rule_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (s *DbStore) PutSubjectMeta(ctx context.Context, meta *engine.SubjectMeta) error {
	fps, err := json.Marshal(meta.Fingerprints)
	if err != nil {
		return fmt.Errorf("encoding fingerprints for %s: %w", meta.SubjectID, err)
	}
	row := Subject{
		SubjectID:    meta.SubjectID,
		CreatedAt:    meta.CreatedAt,
		Fingerprints: string(fps),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (s *DbStore) AddMetric(ctx context.Context, m trust.Metric) error {
	row := SubjectMetric{
		SubjectID: m.SubjectID,
		Type:      m.Type,
		Value:     m.Value,
		MaxValue:  m.MaxValue,
		Weight:    m.Weight,
		Source:    m.Source,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *DbStore) AddBadge(ctx context.Context, b trust.Badge) error {
	row := SubjectBadge{
		SubjectID: b.SubjectID,
		Type:      b.Type,
		Status:    string(b.Status),
		ExpiresAt: b.ExpiresAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *DbStore) AddRating(ctx context.Context, r trust.Rating) error {
	row := SubjectRating{
		SubjectID: r.SubjectID,
		Value:     r.Value,
		CreatedAt: r.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}
