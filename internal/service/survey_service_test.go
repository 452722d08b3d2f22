package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

func resolvedTicket(t *testing.T, h *harness) (*domain.Ticket, string) {
	t.Helper()
	ticket := h.create(t, "Alta")
	resolved, err := h.tickets.UpdateTicket(context.Background(), admin, ticket.ID, UpdateTicketInput{
		Status:          statusPtr(domain.TicketStatusResolved),
		AssignedAgentID: strPtr("a-1"),
	})
	require.NoError(t, err)
	require.NotNil(t, resolved.SurveyToken)
	return resolved, *resolved.SurveyToken
}

func TestSurveyTokenRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ticket, token := resolvedTicket(t, h)

	summary, err := h.surveys.FetchByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, summary.TicketID)
	assert.Equal(t, "VPN down", summary.Subject)
	require.NotNil(t, summary.AgentID)
	assert.Equal(t, "a-1", *summary.AgentID)

	h.clock.Advance(time.Hour)
	survey, err := h.surveys.Redeem(ctx, token, 5, " great ")
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, survey.TicketID)
	assert.Equal(t, "great", survey.Comment)

	stored, err := h.store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.SurveyToken)
	require.NotNil(t, stored.SurveyCompletedAt)
	assert.Equal(t, t0.Add(time.Hour), *stored.SurveyCompletedAt)

	_, err = h.surveys.Redeem(ctx, token, 4, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = h.surveys.FetchByToken(ctx, token)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	saved, err := h.store.Surveys().GetByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, saved.Rating)
	assert.Contains(t, h.eventTypes(), events.EventSurveyCompleted)
}

func TestSurveyRedeemValidatesRatingFirst(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, token := resolvedTicket(t, h)

	for _, rating := range []int{0, 6, -1} {
		_, err := h.surveys.Redeem(ctx, token, rating, "")
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), rating)
	}
	_, err := h.surveys.FetchByToken(ctx, token)
	assert.NoError(t, err)
}

func TestSurveyUnknownToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.surveys.FetchByToken(ctx, "nope")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = h.surveys.FetchByToken(ctx, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	_, err = h.surveys.Redeem(ctx, "nope", 3, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestSurveyRedeemRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ticket, token := resolvedTicket(t, h)
	h.store.InjectFault(repository.FaultTicketUpdate, errors.New("timeout"))

	_, err := h.surveys.Redeem(ctx, token, 3, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTransactionFailed))

	_, err = h.store.Surveys().GetByTicket(ctx, ticket.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = h.surveys.Redeem(ctx, token, 3, "")
	assert.NoError(t, err)
}

func TestSurveyCompletionUsesStoredPrecision(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ticket, token := resolvedTicket(t, h)

	local := time.FixedZone("UTC-5", -5*60*60)
	h.clock.mu.Lock()
	h.clock.now = t0.Add(2*time.Hour + 1234*time.Nanosecond).In(local)
	h.clock.mu.Unlock()
	survey, err := h.surveys.Redeem(ctx, token, 4, "")
	require.NoError(t, err)

	want := t0.Add(2*time.Hour + time.Microsecond)
	assert.Equal(t, want, survey.CreatedAt)
	assert.Equal(t, time.UTC, survey.CreatedAt.Location())

	stored, err := h.store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SurveyCompletedAt)
	assert.Equal(t, want, *stored.SurveyCompletedAt)
}

func TestRandomTokenIssuer(t *testing.T) {
	a, err := RandomTokenIssuer{}.Issue()
	require.NoError(t, err)
	b, err := RandomTokenIssuer{}.Issue()
	require.NoError(t, err)
	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}
