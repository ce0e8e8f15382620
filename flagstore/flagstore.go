// Package flagstore persists operational flags on subjects and content:
// risk-factor flags from assessments, moderation flags from classification.
// Flags are internal state, never shown to end users.
package flagstore

import (
	"context"
)

type FlagStore interface {
	Get(ctx context.Context, key string) ([]string, error)
	Add(ctx context.Context, key string, flags []string) error
	Remove(ctx context.Context, key string, flags []string) error
}
