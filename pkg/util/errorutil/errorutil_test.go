package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"domain error passes through", NewForbidden("nope"), CodeForbidden, http.StatusForbidden},
		{"wrapped domain error", fmt.Errorf("ctx: %w", NewConflict("dup", nil)), CodeConflict, http.StatusConflict},
		{"no rows maps to not found", pgx.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"unknown error is internal", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
		{"finalized", NewTicketFinalized("CRM-1025-0001", "CLOSED"), CodeTicketFinalized, http.StatusConflict},
		{"transaction failure", NewTransactionFailure(errors.New("conn reset")), CodeTransactionFailed, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			de := ToDomainError(tt.err)
			require.NotNil(t, de)
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Equal(t, tt.wantStatus, de.HTTPStatus)
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	assert.NoError(t, MapError(nil))
	assert.Nil(t, ToDomainError(nil))
}

func TestTransactionFailureIsRetryableAndUnwraps(t *testing.T) {
	cause := errors.New("serialization failure")
	err := NewTransactionFailure(cause)

	assert.True(t, ToDomainError(err).Retryable())
	assert.ErrorIs(t, err, cause)
	assert.False(t, ToDomainError(NewConflict("x", nil)).Retryable())
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(fmt.Errorf("wrap: %w", NewValidationError("bad", nil)), CodeValidation))
	assert.False(t, HasCode(errors.New("plain"), CodeValidation))
}
