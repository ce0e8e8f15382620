package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/fairmarket/vigil/countstore"
	"github.com/fairmarket/vigil/status"
	"github.com/fairmarket/vigil/triage"
)

// A buyer/seller dispute being triaged. Priority and DueAt are stamped at
// open time from the fixed triage tables and never recomputed afterwards,
// even if the dispute is later escalated.
type Dispute struct {
	ID        string
	SubjectID string
	Type      triage.DisputeType
	Category  triage.DisputeCategory
	Amount    float64
	Priority  triage.Priority
	DueAt     time.Time
	Status    status.DisputeStatus
	OpenedAt  time.Time
}

// Stamps a newly filed dispute with its triage assignment and initial
// lifecycle status, and feeds the per-subject dispute counter that risk
// assessment reads.
func (eng *Engine) OpenDispute(ctx context.Context, d *Dispute) error {
	now := eng.now()
	asg := triage.ForDispute(d.Type, d.Category, d.Amount, now)
	d.Priority = asg.Priority
	d.DueAt = asg.DueAt
	d.Status = status.DisputeSubmitted
	d.OpenedAt = now

	if d.SubjectID != "" {
		if err := eng.Counters.Increment(ctx, countstore.SignalDispute, d.SubjectID); err != nil {
			return fmt.Errorf("recording dispute signal for %s: %w", d.SubjectID, err)
		}
	}
	disputeOpenedCount.WithLabelValues(string(d.Priority)).Inc()
	eng.logger().Info("dispute opened",
		"dispute", d.ID, "subject", d.SubjectID, "priority", d.Priority, "due", d.DueAt)
	return nil
}

// Advances a dispute through its lifecycle. The state machine is the single
// source of legal moves; callers get ErrInvalidTransition for anything else
// and the dispute is left unchanged.
func (eng *Engine) TransitionDispute(d *Dispute, ev status.Event) error {
	next, err := d.Status.Transition(ev)
	if err != nil {
		return err
	}
	d.Status = next
	eng.logger().Info("dispute transitioned", "dispute", d.ID, "event", ev, "status", next)
	return nil
}
