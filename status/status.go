// Package status holds the lifecycle state machines for moderated content,
// disputes, and verification requests. Transitions are total functions of
// (current status, event): anything not in the tables fails with
// ErrInvalidTransition instead of being applied silently.
package status

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type ModerationStatus string

const (
	ModerationPending      ModerationStatus = "pending"
	ModerationAutoApproved ModerationStatus = "auto_approved"
	ModerationUnderReview  ModerationStatus = "under_review"
	ModerationApproved     ModerationStatus = "approved"
	ModerationRejected     ModerationStatus = "rejected"
	ModerationEscalated    ModerationStatus = "escalated"
)

type Event string

const (
	// classification outcomes (decided once, by the engine)
	EventAutoApprove Event = "auto_approve"
	EventQueue       Event = "queue"
	EventAutoReject  Event = "auto_reject"
	// human decisions
	EventApprove  Event = "approve"
	EventReject   Event = "reject"
	EventEscalate Event = "escalate"
	// dispute lifecycle
	EventStartReview Event = "start_review"
	EventInvestigate Event = "investigate"
	EventMediate     Event = "mediate"
	EventResolve     Event = "resolve"
	EventClose       Event = "close"
	EventAppeal      Event = "appeal"
	EventReassign    Event = "reassign"
	// verification lifecycle
	EventExpire Event = "expire"
)

var moderationTransitions = map[ModerationStatus]map[Event]ModerationStatus{
	ModerationPending: {
		EventAutoApprove: ModerationAutoApproved,
		EventQueue:       ModerationUnderReview,
		EventAutoReject:  ModerationRejected,
	},
	ModerationUnderReview: {
		EventApprove:  ModerationApproved,
		EventReject:   ModerationRejected,
		EventEscalate: ModerationEscalated,
	},
	ModerationEscalated: {
		EventApprove: ModerationApproved,
		EventReject:  ModerationRejected,
	},
}

func (s ModerationStatus) Transition(ev Event) (ModerationStatus, error) {
	next, ok := moderationTransitions[s][ev]
	if !ok {
		return s, fmt.Errorf("%w: moderation %s on %q", ErrInvalidTransition, s, ev)
	}
	return next, nil
}

type DisputeStatus string

const (
	DisputeSubmitted     DisputeStatus = "submitted"
	DisputeUnderReview   DisputeStatus = "under_review"
	DisputeInvestigation DisputeStatus = "investigation"
	DisputeMediation     DisputeStatus = "mediation"
	DisputeResolved      DisputeStatus = "resolved"
	DisputeEscalated     DisputeStatus = "escalated"
	DisputeClosed        DisputeStatus = "closed"
	DisputeAppealed      DisputeStatus = "appealed"
)

var disputeTransitions = map[DisputeStatus]map[Event]DisputeStatus{
	DisputeSubmitted: {
		EventStartReview: DisputeUnderReview,
	},
	DisputeUnderReview: {
		EventInvestigate: DisputeInvestigation,
		EventMediate:     DisputeMediation,
	},
	DisputeInvestigation: {
		EventResolve:  DisputeResolved,
		EventEscalate: DisputeEscalated,
	},
	DisputeMediation: {
		EventResolve:  DisputeResolved,
		EventEscalate: DisputeEscalated,
	},
	DisputeResolved: {
		EventClose:  DisputeClosed,
		EventAppeal: DisputeAppealed,
	},
	DisputeEscalated: {
		EventClose:  DisputeClosed,
		EventAppeal: DisputeAppealed,
		// escalated disputes may re-enter review when reassigned
		EventReassign: DisputeUnderReview,
	},
}

func (s DisputeStatus) Transition(ev Event) (DisputeStatus, error) {
	next, ok := disputeTransitions[s][ev]
	if !ok {
		return s, fmt.Errorf("%w: dispute %s on %q", ErrInvalidTransition, s, ev)
	}
	return next, nil
}

type VerificationStatus string

const (
	VerificationPending     VerificationStatus = "pending"
	VerificationUnderReview VerificationStatus = "under_review"
	VerificationApproved    VerificationStatus = "approved"
	VerificationRejected    VerificationStatus = "rejected"
	VerificationExpired     VerificationStatus = "expired"
)

var verificationTransitions = map[VerificationStatus]map[Event]VerificationStatus{
	VerificationPending: {
		EventStartReview: VerificationUnderReview,
	},
	VerificationUnderReview: {
		EventApprove: VerificationApproved,
		EventReject:  VerificationRejected,
	},
	// approved is terminal except for expiry; rejected is fully terminal
	VerificationApproved: {
		EventExpire: VerificationExpired,
	},
}

func (s VerificationStatus) Transition(ev Event) (VerificationStatus, error) {
	next, ok := verificationTransitions[s][ev]
	if !ok {
		return s, fmt.Errorf("%w: verification %s on %q", ErrInvalidTransition, s, ev)
	}
	return next, nil
}
