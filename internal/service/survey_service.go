package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const surveyTokenBytes = 32

// TokenIssuer produces unguessable one-time survey tokens.
type TokenIssuer interface {
	Issue() (string, error)
}

// RandomTokenIssuer draws tokens from crypto/rand.
type RandomTokenIssuer struct{}

// Issue returns 32 random bytes encoded as unpadded base64url.
func (RandomTokenIssuer) Issue() (string, error) {
	buf := make([]byte, surveyTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate survey token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SurveyService fetches and redeems survey tokens.
type SurveyService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// SurveyDependencies bundles collaborators for the survey service.
type SurveyDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewSurveyService constructs the service.
func NewSurveyService(deps SurveyDependencies) *SurveyService {
	s := &SurveyService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// FetchByToken returns what a token holder may see. Unknown and consumed
// tokens are both reported as not found.
func (s *SurveyService) FetchByToken(ctx context.Context, token string) (*domain.SurveySummary, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewNotFound("survey", nil)
	}
	ticket, err := s.store.Tickets().GetBySurveyToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("survey", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if ticket.SurveyCompletedAt != nil {
		return nil, apperrors.NewNotFound("survey", nil)
	}
	return &domain.SurveySummary{
		TicketID:   ticket.ID,
		Subject:    ticket.Subject,
		ResolvedAt: ticket.ResolvedAt,
		AgentID:    ticket.AssignedAgentID,
	}, nil
}

// Redeem stores the survey for token, stamps survey_completed_at and clears
// the token in one transaction.
func (s *SurveyService) Redeem(ctx context.Context, token string, rating int, comment string) (*domain.Survey, error) {
	if !domain.ValidRating(rating) {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{
			"rating": rating,
			"min":    domain.SurveyMinRating,
			"max":    domain.SurveyMaxRating,
		})
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperrors.NewNotFound("survey", nil)
	}

	var (
		survey *domain.Survey
		ticket *domain.Ticket
	)
	err := s.store.WithTx(ctx, func(stores repository.StoreProvider) error {
		var err error
		ticket, err = stores.Tickets().GetBySurveyTokenForUpdate(ctx, token)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewConflict("survey token is no longer valid", nil)
			}
			return err
		}
		if ticket.SurveyCompletedAt != nil {
			return apperrors.NewConflict("survey already submitted", map[string]any{"ticket_id": ticket.ID})
		}

		now := storedTime(s.now())
		survey = &domain.Survey{
			TicketID:  ticket.ID,
			Rating:    rating,
			Comment:   strings.TrimSpace(comment),
			CreatedAt: now,
		}
		if err := stores.Surveys().Create(ctx, survey); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewConflict("survey already submitted", map[string]any{"ticket_id": ticket.ID})
			}
			return err
		}
		ticket.SurveyCompletedAt = &now
		ticket.SurveyToken = nil
		ticket.UpdatedAt = now
		return stores.Tickets().Update(ctx, ticket)
	})
	if err != nil {
		return nil, mapTxError(err)
	}

	s.metrics.SurveyRedeemed(rating)
	s.logger.Info("survey redeemed", zap.String("ticket_id", ticket.ID), zap.Int("rating", rating))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventSurveyCompleted,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: ticket.Creator.ID, Name: ticket.Creator.Name},
		Audience: events.AudienceOf(ticket),
		Payload: events.SurveyCompletedPayload{
			SurveyID: survey.ID,
			Rating:   survey.Rating,
		},
	})
	return survey, nil
}

// publish stamps identity fields and hands the event to the dispatcher. It is
// only called after commit and never fails the caller.
func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = dispatcher.Publish(ctx, event)
}
