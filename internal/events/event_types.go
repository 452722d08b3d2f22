package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket.created"
	EventMessageCreated      EventType = "message.created"
	EventTicketStatusChanged EventType = "ticket.status_changed"
	EventTicketUpdated       EventType = "ticket.updated"
	EventTicketDeleted       EventType = "ticket.deleted"
	EventSurveyIssued        EventType = "survey.issued"
	EventSurveyCompleted     EventType = "survey.completed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Profile string `json:"profile,omitempty"`
}

// Audience describes who may receive an event, mirroring ticket visibility.
type Audience struct {
	DestinationProfile string  `json:"destination_profile"`
	CreatorID          string  `json:"creator_id"`
	ClientScopeID      *string `json:"client_scope_id,omitempty"`
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Audience  Audience  `json:"audience"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// AudienceOf derives the audience of events about ticket.
func AudienceOf(ticket *domain.Ticket) Audience {
	return Audience{
		DestinationProfile: ticket.DestinationProfile,
		CreatorID:          ticket.Creator.ID,
		ClientScopeID:      ticket.ClientScopeID,
	}
}

// ActorOf converts a domain actor.
func ActorOf(actor *domain.Actor) Actor {
	if actor == nil {
		return Actor{ID: "system", Name: "system"}
	}
	return Actor{ID: actor.ID, Name: actor.Name, Profile: actor.Profile}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject            string              `json:"subject"`
	Priority           string              `json:"priority"`
	Status             domain.TicketStatus `json:"status"`
	DestinationProfile string              `json:"destination_profile"`
}

// MessageCreatedPayload payload.
type MessageCreatedPayload struct {
	EntryID     int64             `json:"entry_id"`
	Kind        domain.EntryKind  `json:"kind"`
	SenderID    string            `json:"sender_id"`
	SenderRole  domain.SenderRole `json:"sender_role"`
	TextPreview string            `json:"text_preview,omitempty"`
	HasFile     bool              `json:"has_attachment"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketUpdatedPayload lists the administrative fields that changed.
type TicketUpdatedPayload struct {
	Changed []string `json:"changed"`
}

// SurveyIssuedPayload carries the token to the delivery collaborator. It is
// never forwarded to realtime subscribers.
type SurveyIssuedPayload struct {
	Token          string `json:"-"`
	RecipientEmail string `json:"-"`
	RecipientName  string `json:"recipient_name"`
	Subject        string `json:"subject"`
}

// SurveyCompletedPayload payload.
type SurveyCompletedPayload struct {
	SurveyID int64 `json:"survey_id"`
	Rating   int   `json:"rating"`
}
