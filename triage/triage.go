// Package triage maps moderation scores and disputes to queue priorities
// and SLA due dates. Everything here is a pure lookup: priorities and due
// offsets are never set ad hoc by callers.
package triage

import (
	"time"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

type Assignment struct {
	Priority Priority
	DueAt    time.Time
}

// Moderation-queue SLA offsets, in hours. Dispute SLAs below use days; the
// two tables are intentionally separate and must not be unified.
var moderationDueHours = map[Priority]int{
	PriorityCritical: 1,
	PriorityHigh:     4,
	PriorityNormal:   24,
	PriorityLow:      72,
}

// Assigns queue priority and due date from the overall moderation score.
// Bands are lower-bound inclusive.
func ForScore(overallScore float64, now time.Time) Assignment {
	var p Priority
	switch {
	case overallScore >= 80:
		p = PriorityCritical
	case overallScore >= 60:
		p = PriorityHigh
	case overallScore >= 40:
		p = PriorityNormal
	default:
		p = PriorityLow
	}
	return Assignment{
		Priority: p,
		DueAt:    now.Add(time.Duration(moderationDueHours[p]) * time.Hour),
	}
}

type DisputeType string

const (
	DisputeUserConduct      DisputeType = "USER_CONDUCT"
	DisputeServiceComplaint DisputeType = "SERVICE_COMPLAINT"
	DisputeDeliveryProblem  DisputeType = "DELIVERY_PROBLEM"
	DisputePaymentIssue     DisputeType = "PAYMENT_ISSUE"
)

type DisputeCategory string

const (
	CategorySafety  DisputeCategory = "SAFETY"
	CategoryQuality DisputeCategory = "QUALITY"
	CategoryBilling DisputeCategory = "BILLING"
)

// Dispute SLA offsets, in days.
var disputeDueDays = map[Priority]int{
	PriorityCritical: 1,
	PriorityUrgent:   1,
	PriorityHigh:     2,
	PriorityMedium:   5,
	PriorityLow:      7,
}

// Assigns dispute priority with fixed precedence: the checks run in this
// exact order and the first match wins, they are never combined. A 2000-unit
// SAFETY dispute is therefore HIGH (amount rule), not CRITICAL.
func ForDispute(typ DisputeType, category DisputeCategory, amount float64, now time.Time) Assignment {
	var p Priority
	switch {
	case amount > 1000:
		p = PriorityHigh
	case category == CategorySafety:
		p = PriorityCritical
	case typ == DisputeUserConduct:
		p = PriorityUrgent
	case typ == DisputeServiceComplaint || typ == DisputeDeliveryProblem:
		p = PriorityMedium
	default:
		p = PriorityLow
	}
	return Assignment{
		Priority: p,
		DueAt:    now.AddDate(0, 0, disputeDueDays[p]),
	}
}
