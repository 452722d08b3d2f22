package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// RedeemSurveyRequest payload.
type RedeemSurveyRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SurveySummaryResponse is what the token holder sees before answering.
type SurveySummaryResponse struct {
	TicketID   string     `json:"ticket_id"`
	Subject    string     `json:"subject"`
	ResolvedAt *time.Time `json:"resolved_at"`
	AgentID    *string    `json:"agent_id,omitempty"`
}

// SurveyResponse is a stored survey.
type SurveyResponse struct {
	ID        int64     `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSurveySummary maps a summary.
func NewSurveySummary(s *domain.SurveySummary) SurveySummaryResponse {
	return SurveySummaryResponse{TicketID: s.TicketID, Subject: s.Subject, ResolvedAt: s.ResolvedAt, AgentID: s.AgentID}
}

// NewSurveyResponse maps a survey.
func NewSurveyResponse(s *domain.Survey) SurveyResponse {
	return SurveyResponse{ID: s.ID, TicketID: s.TicketID, Rating: s.Rating, Comment: s.Comment, CreatedAt: s.CreatedAt}
}
