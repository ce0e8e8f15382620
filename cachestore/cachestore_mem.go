package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// In-process expiring LRU, one shared capacity across all namespaces. Scoring
// a subject and classifying their content on the same node hit the same
// entries, so a per-namespace split would just fragment the budget.
type MemCacheStore struct {
	records *expirable.LRU[string, string]
}

var _ CacheStore = (*MemCacheStore)(nil)

func NewMemCacheStore(capacity int, ttl time.Duration) *MemCacheStore {
	return &MemCacheStore{
		records: expirable.NewLRU[string, string](capacity, nil, ttl),
	}
}

// A miss (never cached, evicted, or expired) returns the empty string, not
// an error; callers fall back to storage.
func (s *MemCacheStore) Get(ctx context.Context, name Name, key string) (string, error) {
	v, ok := s.records.Get(cacheKey(name, key))
	if !ok {
		return "", nil
	}
	return v, nil
}

func (s *MemCacheStore) Set(ctx context.Context, name Name, key string, val string) error {
	s.records.Add(cacheKey(name, key), val)
	return nil
}

func (s *MemCacheStore) Purge(ctx context.Context, name Name, key string) error {
	s.records.Remove(cacheKey(name, key))
	return nil
}
