package domain

import "time"

const (
	SurveyMinRating = 1
	SurveyMaxRating = 5
)

// Survey is the feedback submitted once per resolved ticket.
type Survey struct {
	ID        int64
	TicketID  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// ValidRating reports whether rating is inside the accepted scale.
func ValidRating(rating int) bool {
	return rating >= SurveyMinRating && rating <= SurveyMaxRating
}

// SurveySummary is what a token holder may see about the ticket.
type SurveySummary struct {
	TicketID   string
	Subject    string
	ResolvedAt *time.Time
	AgentID    *string
}
