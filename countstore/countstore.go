// Package countstore tracks per-subject signal counters: orders, disputes,
// policy violations, and distinct identity fingerprints. The risk assessor
// reads these as a point-in-time snapshot; it never writes them.
package countstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	PeriodTotal = "total"
	PeriodDay   = "day"
	PeriodHour  = "hour"
)

// Well-known counter namespaces. Counter values are subject IDs.
const (
	SignalOrder     = "order"
	SignalDispute   = "dispute"
	SignalViolation = "violation"
)

// Distinct-counter namespaces. Fingerprint buckets count subjects per device
// or payment fingerprint; endorsement buckets count distinct endorsers per
// subject.
const (
	DistinctFingerprint = "fingerprint"
	DistinctEndorsement = "endorsement"
)

type CountStore interface {
	GetCount(ctx context.Context, name, val, period string) (int, error)
	Increment(ctx context.Context, name, val string) error
	// Distinct counters answer "how many different X": eg, how many
	// subjects share one device fingerprint.
	GetCountDistinct(ctx context.Context, name, bucket, period string) (int, error)
	IncrementDistinct(ctx context.Context, name, bucket, val string) error
}

func periodBucket(name, val, period string) string {
	switch period {
	case PeriodTotal:
		return fmt.Sprintf("%s/%s", name, val)
	case PeriodDay:
		t := time.Now().UTC().Format(time.DateOnly)
		return fmt.Sprintf("%s/%s/%s", name, val, t)
	case PeriodHour:
		t := time.Now().UTC().Format(time.RFC3339)[0:13]
		return fmt.Sprintf("%s/%s/%s", name, val, t)
	default:
		slog.Warn("unhandled counter period", "period", period)
		return fmt.Sprintf("%s/%s", name, val)
	}
}
