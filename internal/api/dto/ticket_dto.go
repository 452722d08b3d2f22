package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject            string             `json:"subject"`
	Type               *string            `json:"type"`
	Priority           *string            `json:"priority"`
	DestinationProfile *string            `json:"destination_profile"`
	CategoryID         string             `json:"category_id"`
	SubcategoryID      string             `json:"subcategory_id"`
	Message            string             `json:"message"`
	Attachment         *AttachmentPayload `json:"attachment"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Text       string             `json:"text"`
	Attachment *AttachmentPayload `json:"attachment"`
}

// UpdateTicketRequest payload. Absent fields are left untouched; an empty
// assigned_agent_id clears the assignment.
type UpdateTicketRequest struct {
	Status          *string `json:"status"`
	Priority        *string `json:"priority"`
	AssignedAgentID *string `json:"assigned_agent_id"`
}

// AttachmentPayload is a blob store reference.
type AttachmentPayload struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	MIME string `json:"mime"`
}

// CreatorResponse identifies the ticket creator.
type CreatorResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                       string              `json:"id"`
	Subject                  string              `json:"subject"`
	Type                     string              `json:"type"`
	CategoryID               string              `json:"category_id"`
	SubcategoryID            string              `json:"subcategory_id"`
	Priority                 string              `json:"priority"`
	Status                   domain.TicketStatus `json:"status"`
	DestinationProfile       string              `json:"destination_profile"`
	Creator                  CreatorResponse     `json:"creator"`
	ClientScopeID            *string             `json:"client_scope_id,omitempty"`
	AssignedAgentID          *string             `json:"assigned_agent_id"`
	CreatedAt                time.Time           `json:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at"`
	FirstResponseAt          *time.Time          `json:"first_response_at"`
	ResolvedAt               *time.Time          `json:"resolved_at"`
	ClosedAt                 *time.Time          `json:"closed_at"`
	SLAFirstResponseDeadline *time.Time          `json:"sla_first_response_deadline"`
	SLAResolutionDeadline    *time.Time          `json:"sla_resolution_deadline"`
	SurveyCompletedAt        *time.Time          `json:"survey_completed_at"`
}

// SLAResponse is the derived compliance of a ticket.
type SLAResponse struct {
	FirstResponse domain.SLAState `json:"first_response"`
	Resolution    domain.SLAState `json:"resolution"`
	WithinSLA     bool            `json:"within_sla"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	SLA      SLAResponse           `json:"sla"`
	Messages []ThreadEntryResponse `json:"messages"`
}

// ThreadEntryResponse represents one thread entry.
type ThreadEntryResponse struct {
	ID         int64              `json:"id"`
	TicketID   string             `json:"ticket_id"`
	SenderID   string             `json:"sender_id"`
	SenderName string             `json:"sender_name"`
	SenderRole domain.SenderRole  `json:"sender_role"`
	Kind       domain.EntryKind   `json:"kind"`
	Text       string             `json:"text"`
	Attachment *AttachmentPayload `json:"attachment,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// NewTicketSummary maps a domain ticket. The survey token is never exposed.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:                       t.ID,
		Subject:                  t.Subject,
		Type:                     t.Type,
		CategoryID:               t.CategoryID,
		SubcategoryID:            t.SubcategoryID,
		Priority:                 t.Priority,
		Status:                   t.Status,
		DestinationProfile:       t.DestinationProfile,
		Creator:                  CreatorResponse{ID: t.Creator.ID, Name: t.Creator.Name, Email: t.Creator.Email},
		ClientScopeID:            t.ClientScopeID,
		AssignedAgentID:          t.AssignedAgentID,
		CreatedAt:                t.CreatedAt,
		UpdatedAt:                t.UpdatedAt,
		FirstResponseAt:          t.FirstResponseAt,
		ResolvedAt:               t.ResolvedAt,
		ClosedAt:                 t.ClosedAt,
		SLAFirstResponseDeadline: t.SLAFirstResponseDeadline,
		SLAResolutionDeadline:    t.SLAResolutionDeadline,
		SurveyCompletedAt:        t.SurveyCompletedAt,
	}
}

// NewThreadEntryResponse maps a thread entry.
func NewThreadEntryResponse(e *domain.ThreadEntry) ThreadEntryResponse {
	resp := ThreadEntryResponse{
		ID:         e.ID,
		TicketID:   e.TicketID,
		SenderID:   e.Sender.ID,
		SenderName: e.Sender.Name,
		SenderRole: e.Sender.Role,
		Kind:       e.Kind,
		Text:       e.Text,
		CreatedAt:  e.CreatedAt,
	}
	if e.Attachment != nil {
		resp.Attachment = &AttachmentPayload{URL: e.Attachment.URL, Name: e.Attachment.Name, MIME: e.Attachment.MIME}
	}
	return resp
}

// NewThreadEntries maps a thread.
func NewThreadEntries(entries []domain.ThreadEntry) []ThreadEntryResponse {
	out := make([]ThreadEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, NewThreadEntryResponse(&entries[i]))
	}
	return out
}

// NewTicketDetail maps a ticket with its thread and SLA status.
func NewTicketDetail(t *domain.Ticket, entries []domain.ThreadEntry, sla domain.SLAStatus) TicketDetailResponse {
	return TicketDetailResponse{
		TicketSummary: NewTicketSummary(t),
		SLA: SLAResponse{
			FirstResponse: sla.FirstResponse,
			Resolution:    sla.Resolution,
			WithinSLA:     sla.WithinSLA(),
		},
		Messages: NewThreadEntries(entries),
	}
}

// ToAttachmentRef converts an optional payload.
func (p *AttachmentPayload) ToAttachmentRef() *domain.AttachmentRef {
	if p == nil || p.URL == "" {
		return nil
	}
	return &domain.AttachmentRef{URL: p.URL, Name: p.Name, MIME: p.MIME}
}
