package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fairmarket/vigil/content"
	"github.com/fairmarket/vigil/engine"
	"github.com/fairmarket/vigil/risk"
	"github.com/fairmarket/vigil/rules"
	"github.com/fairmarket/vigil/status"
	"github.com/fairmarket/vigil/trust"
)

// In-memory store with the same versioning semantics as the database-backed
// one. Used in tests and for local development without a database.
type MemStore struct {
	mu sync.RWMutex

	metrics     map[string][]trust.Metric
	badges      map[string][]trust.Badge
	ratings     map[string][]trust.Rating
	subjects    map[string]*engine.SubjectMeta
	rules       map[string]rules.Rule
	profiles    map[string]*trust.Profile
	assessments map[string]*risk.Assessment
	results     map[string]*content.ModerationResult
	statuses    map[string]status.ModerationStatus
	queue       map[string]*engine.QueueEntry
}

var _ engine.Repository = (*MemStore)(nil)
var _ engine.Writer = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		metrics:     make(map[string][]trust.Metric),
		badges:      make(map[string][]trust.Badge),
		ratings:     make(map[string][]trust.Rating),
		subjects:    make(map[string]*engine.SubjectMeta),
		rules:       make(map[string]rules.Rule),
		profiles:    make(map[string]*trust.Profile),
		assessments: make(map[string]*risk.Assessment),
		results:     make(map[string]*content.ModerationResult),
		statuses:    make(map[string]status.ModerationStatus),
		queue:       make(map[string]*engine.QueueEntry),
	}
}

func (s *MemStore) MetricsFor(ctx context.Context, subjectID string) ([]trust.Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]trust.Metric(nil), s.metrics[subjectID]...), nil
}

func (s *MemStore) BadgesFor(ctx context.Context, subjectID string) ([]trust.Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]trust.Badge(nil), s.badges[subjectID]...), nil
}

func (s *MemStore) RatingsFor(ctx context.Context, subjectID string) ([]trust.Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]trust.Rating(nil), s.ratings[subjectID]...), nil
}

func (s *MemStore) SubjectMeta(ctx context.Context, subjectID string) (*engine.SubjectMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.subjects[subjectID]
	if !ok {
		return nil, nil
	}
	cp := *meta
	return &cp, nil
}

func (s *MemStore) ActiveRules(ctx context.Context) ([]rules.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []rules.Rule
	for _, r := range s.rules {
		if r.Active {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) GetProfile(ctx context.Context, subjectID string) (*trust.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[subjectID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *MemStore) GetAssessment(ctx context.Context, subjectID string) (*risk.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assessments[subjectID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *MemStore) ModerationStatus(ctx context.Context, contentID string) (status.ModerationStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[contentID]
	if !ok {
		return "", fmt.Errorf("moderation record for %s: %w", contentID, engine.ErrNotFound)
	}
	return st, nil
}

func (s *MemStore) PutProfile(ctx context.Context, p *trust.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.profiles[p.SubjectID]
	if !ok && p.Version != 1 {
		return engine.ErrVersionConflict
	}
	if ok && cur.Version != p.Version-1 {
		return engine.ErrVersionConflict
	}
	cp := *p
	s.profiles[p.SubjectID] = &cp
	return nil
}

func (s *MemStore) PutAssessment(ctx context.Context, a *risk.Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.assessments[a.SubjectID]
	if !ok && a.Version != 1 {
		return engine.ErrVersionConflict
	}
	if ok && cur.Version != a.Version-1 {
		return engine.ErrVersionConflict
	}
	cp := *a
	s.assessments[a.SubjectID] = &cp
	return nil
}

func (s *MemStore) PutModerationResult(ctx context.Context, res *content.ModerationResult, st status.ModerationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *res
	s.results[res.ContentID] = &cp
	s.statuses[res.ContentID] = st
	return nil
}

func (s *MemStore) SetModerationStatus(ctx context.Context, contentID string, st status.ModerationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statuses[contentID]; !ok {
		return fmt.Errorf("moderation record for %s: %w", contentID, engine.ErrNotFound)
	}
	s.statuses[contentID] = st
	return nil
}

func (s *MemStore) CreateQueueEntry(ctx context.Context, qe *engine.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.queue[qe.ContentID]; ok {
		return nil
	}
	cp := *qe
	s.queue[qe.ContentID] = &cp
	return nil
}

func (s *MemStore) DeleteQueueEntry(ctx context.Context, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queue, contentID)
	return nil
}

func (s *MemStore) QueueEntry(ctx context.Context, contentID string) (*engine.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qe, ok := s.queue[contentID]
	if !ok {
		return nil, nil
	}
	cp := *qe
	return &cp, nil
}

// seeding helpers

func (s *MemStore) AddMetric(m trust.Metric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[m.SubjectID] = append(s.metrics[m.SubjectID], m)
}

func (s *MemStore) AddBadge(b trust.Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges[b.SubjectID] = append(s.badges[b.SubjectID], b)
}

func (s *MemStore) AddRating(r trust.Rating) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[r.SubjectID] = append(s.ratings[r.SubjectID], r)
}

func (s *MemStore) PutSubjectMeta(meta *engine.SubjectMeta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *meta
	s.subjects[meta.SubjectID] = &cp
}

func (s *MemStore) PutRule(r rules.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[r.ID] = r
}
