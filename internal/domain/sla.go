package domain

import "time"

// SLARule holds the time budgets configured for a priority.
type SLARule struct {
	Priority             string
	FirstResponseMinutes int
	ResolutionMinutes    int
}

// FirstResponseBudget returns the first response budget as a duration.
func (r SLARule) FirstResponseBudget() time.Duration {
	return time.Duration(r.FirstResponseMinutes) * time.Minute
}

// ResolutionBudget returns the resolution budget as a duration.
func (r SLARule) ResolutionBudget() time.Duration {
	return time.Duration(r.ResolutionMinutes) * time.Minute
}

// SLAState summarizes compliance for one deadline.
type SLAState string

const (
	SLAStateUntracked SLAState = "untracked"
	SLAStatePending   SLAState = "pending"
	SLAStateMet       SLAState = "met"
	SLAStateBreached  SLAState = "breached"
)

// SLAStatus is derived at read time from ticket data; it is never stored.
type SLAStatus struct {
	FirstResponse SLAState
	Resolution    SLAState
}

// WithinSLA reports whether the resolution deadline was honoured.
func (s SLAStatus) WithinSLA() bool {
	return s.Resolution == SLAStateMet
}

// EvaluateSLA computes compliance for t as of now.
func EvaluateSLA(t *Ticket, now time.Time) SLAStatus {
	return SLAStatus{
		FirstResponse: evaluateDeadline(t.SLAFirstResponseDeadline, t.FirstResponseAt, now),
		Resolution:    evaluateDeadline(t.SLAResolutionDeadline, t.ResolvedAt, now),
	}
}

func evaluateDeadline(deadline, done *time.Time, now time.Time) SLAState {
	if deadline == nil {
		return SLAStateUntracked
	}
	if done != nil {
		if done.After(*deadline) {
			return SLAStateBreached
		}
		return SLAStateMet
	}
	if now.After(*deadline) {
		return SLAStateBreached
	}
	return SLAStatePending
}
