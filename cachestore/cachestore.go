// Package cachestore caches derived records (trust profiles, risk
// assessments, moderation results) between recomputations. Values are opaque
// encoded strings; encoding lives with the caller, not the cache.
package cachestore

import (
	"context"
)

// Cache namespace. Closed set: each derived record type gets its own
// namespace so a purge or key collision in one can never touch another.
type Name string

const (
	NameProfile          Name = "profile"
	NameAssessment       Name = "assessment"
	NameModerationResult Name = "modresult"
)

type CacheStore interface {
	Get(ctx context.Context, name Name, key string) (string, error)
	Set(ctx context.Context, name Name, key string, val string) error
	Purge(ctx context.Context, name Name, key string) error
}

func cacheKey(name Name, key string) string {
	return string(name) + "/" + key
}
