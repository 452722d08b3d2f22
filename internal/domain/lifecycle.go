package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTicketFinalized rejects conversation on resolved or closed tickets.
	ErrTicketFinalized = errors.New("ticket is finalized")
	// ErrAlreadyResolved rejects a second resolution of the same ticket.
	ErrAlreadyResolved = errors.New("ticket already resolved")
	// ErrInvalidTransition rejects status changes the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// EventKind names what drives a transition.
type EventKind string

const (
	EventUserMessage    EventKind = "message.user"
	EventSupportMessage EventKind = "message.support"
	EventSetStatus      EventKind = "admin.set_status"
)

// Event is a lifecycle input. Target is only used by EventSetStatus.
type Event struct {
	Kind   EventKind
	Target TicketStatus
}

// MessageEvent returns the event produced by a message from role.
func MessageEvent(role SenderRole) Event {
	if role == SenderRoleSupport {
		return Event{Kind: EventSupportMessage}
	}
	return Event{Kind: EventUserMessage}
}

// SetStatusEvent returns the administrative event targeting status.
func SetStatusEvent(status TicketStatus) Event {
	return Event{Kind: EventSetStatus, Target: status}
}

// SideEffect is a write that must happen in the same atomic unit as the transition.
type SideEffect string

const (
	EffectAppendEntry        SideEffect = "append_entry"
	EffectStampFirstResponse SideEffect = "stamp_first_response"
	EffectStampResolvedAt    SideEffect = "stamp_resolved_at"
	EffectIssueSurvey        SideEffect = "issue_survey"
	EffectStampClosedAt      SideEffect = "stamp_closed_at"
	EffectAppendAudit        SideEffect = "append_audit"
)

// State is the part of a ticket the lifecycle depends on.
type State struct {
	Status   TicketStatus
	Resolved bool
}

// Outcome is the result of a permitted transition.
type Outcome struct {
	From    TicketStatus
	To      TicketStatus
	Effects []SideEffect
}

// Changed reports whether the transition moves the ticket to another status.
func (o Outcome) Changed() bool {
	return o.From != o.To
}

// Has reports whether effect is part of the outcome.
func (o Outcome) Has(effect SideEffect) bool {
	for _, e := range o.Effects {
		if e == effect {
			return true
		}
	}
	return false
}

type transitionKey struct {
	from   TicketStatus
	kind   EventKind
	target TicketStatus
}

type transitionRule struct {
	to      TicketStatus
	effects []SideEffect
	err     error
}

var activeStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusAwaitingSupport,
	TicketStatusAwaitingClient,
}

var transitions = buildTransitions()

func buildTransitions() map[transitionKey]transitionRule {
	table := map[transitionKey]transitionRule{}

	for _, from := range activeStatuses {
		table[transitionKey{from, EventUserMessage, ""}] = transitionRule{
			to:      TicketStatusAwaitingSupport,
			effects: []SideEffect{EffectAppendEntry},
		}
		table[transitionKey{from, EventSupportMessage, ""}] = transitionRule{
			to:      TicketStatusAwaitingClient,
			effects: []SideEffect{EffectAppendEntry, EffectStampFirstResponse},
		}
		for _, target := range activeStatuses {
			rule := transitionRule{to: target}
			if target != from {
				rule.effects = []SideEffect{EffectAppendAudit}
			}
			table[transitionKey{from, EventSetStatus, target}] = rule
		}
		table[transitionKey{from, EventSetStatus, TicketStatusResolved}] = transitionRule{
			to:      TicketStatusResolved,
			effects: []SideEffect{EffectStampResolvedAt, EffectIssueSurvey, EffectAppendAudit},
		}
		table[transitionKey{from, EventSetStatus, TicketStatusClosed}] = transitionRule{
			to:      TicketStatusClosed,
			effects: []SideEffect{EffectStampClosedAt, EffectAppendAudit},
		}
	}

	for _, from := range []TicketStatus{TicketStatusResolved, TicketStatusClosed} {
		table[transitionKey{from, EventUserMessage, ""}] = transitionRule{err: ErrTicketFinalized}
		table[transitionKey{from, EventSupportMessage, ""}] = transitionRule{err: ErrTicketFinalized}
		for _, target := range activeStatuses {
			table[transitionKey{from, EventSetStatus, target}] = transitionRule{err: ErrInvalidTransition}
		}
	}

	table[transitionKey{TicketStatusResolved, EventSetStatus, TicketStatusResolved}] = transitionRule{err: ErrAlreadyResolved}
	table[transitionKey{TicketStatusResolved, EventSetStatus, TicketStatusClosed}] = transitionRule{
		to:      TicketStatusClosed,
		effects: []SideEffect{EffectStampClosedAt, EffectAppendAudit},
	}
	// A ticket closed without ever being resolved can still be resolved once.
	table[transitionKey{TicketStatusClosed, EventSetStatus, TicketStatusResolved}] = transitionRule{
		to:      TicketStatusResolved,
		effects: []SideEffect{EffectStampResolvedAt, EffectIssueSurvey, EffectAppendAudit},
	}
	table[transitionKey{TicketStatusClosed, EventSetStatus, TicketStatusClosed}] = transitionRule{to: TicketStatusClosed}

	return table
}

// Transition resolves the outcome of applying ev to a ticket in state.
func Transition(state State, ev Event) (Outcome, error) {
	key := transitionKey{from: state.Status, kind: ev.Kind}
	if ev.Kind == EventSetStatus {
		key.target = ev.Target
	}
	rule, ok := transitions[key]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev.Kind, state.Status)
	}
	if rule.err != nil {
		return Outcome{}, rule.err
	}
	if state.Resolved && containsEffect(rule.effects, EffectStampResolvedAt) {
		return Outcome{}, ErrAlreadyResolved
	}
	return Outcome{
		From:    state.Status,
		To:      rule.to,
		Effects: append([]SideEffect(nil), rule.effects...),
	}, nil
}

func containsEffect(effects []SideEffect, effect SideEffect) bool {
	for _, e := range effects {
		if e == effect {
			return true
		}
	}
	return false
}
