package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "OPEN"
	TicketStatusAwaitingSupport TicketStatus = "AWAITING_SUPPORT"
	TicketStatusAwaitingClient  TicketStatus = "AWAITING_CLIENT"
	TicketStatusResolved        TicketStatus = "RESOLVED"
	TicketStatusClosed          TicketStatus = "CLOSED"
)

// TicketStatuses lists every status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusAwaitingSupport,
	TicketStatusAwaitingClient,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Finalized reports whether the status rejects further conversation.
func (s TicketStatus) Finalized() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// ParseTicketStatus accepts the canonical value or its label in any case.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	raw = strings.TrimSpace(raw)
	status := TicketStatus(strings.ToUpper(raw))
	if status.Valid() {
		return status, true
	}
	for candidate, label := range statusLabels {
		if strings.EqualFold(label, raw) {
			return candidate, true
		}
	}
	return status, false
}

// Creator identifies who opened a ticket.
type Creator struct {
	ID    string
	Name  string
	Email string
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID                       string
	Subject                  string
	Type                     string
	CategoryID               string
	SubcategoryID            string
	Priority                 string
	Creator                  Creator
	ClientScopeID            *string
	Status                   TicketStatus
	DestinationProfile       string
	AssignedAgentID          *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
	FirstResponseAt          *time.Time
	ResolvedAt               *time.Time
	ClosedAt                 *time.Time
	SLAFirstResponseDeadline *time.Time
	SLAResolutionDeadline    *time.Time
	SurveyToken              *string
	SurveyCompletedAt        *time.Time
}

// Finalized reports whether the ticket is resolved or closed.
func (t *Ticket) Finalized() bool {
	return t.Status.Finalized()
}

// State returns the snapshot the lifecycle table operates on.
func (t *Ticket) State() State {
	return State{Status: t.Status, Resolved: t.ResolvedAt != nil}
}

var statusLabels = map[TicketStatus]string{
	TicketStatusOpen:            "Open",
	TicketStatusAwaitingSupport: "AwaitingSupport",
	TicketStatusAwaitingClient:  "AwaitingClient",
	TicketStatusResolved:        "Resolved",
	TicketStatusClosed:          "Closed",
}

// Label returns the human readable status name used in audit entries.
func (s TicketStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}
