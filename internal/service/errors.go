package service

import (
	"errors"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// mapTxError converts an error returned from a transaction into a DomainError.
// Anything that is not a business rejection means the group rolled back on a
// storage failure and may be retried as a whole.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("ticket", nil)
	case errors.Is(err, domain.ErrAlreadyResolved):
		return apperrors.NewConflict("ticket already resolved", nil)
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperrors.NewConflict(err.Error(), nil)
	}
	return apperrors.NewTransactionFailure(err)
}

// lifecycleError maps a rejected transition for ticket.
func lifecycleError(ticket *domain.Ticket, err error) error {
	if errors.Is(err, domain.ErrTicketFinalized) {
		return apperrors.NewTicketFinalized(ticket.ID, string(ticket.Status))
	}
	if errors.Is(err, domain.ErrAlreadyResolved) {
		return apperrors.NewConflict("ticket already resolved", map[string]any{
			"ticket_id":   ticket.ID,
			"resolved_at": ticket.ResolvedAt,
		})
	}
	return apperrors.NewConflict(err.Error(), map[string]any{"ticket_id": ticket.ID})
}
