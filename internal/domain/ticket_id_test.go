package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodPrefix(t *testing.T) {
	at := time.Date(2025, time.October, 3, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "CRM-1025", PeriodPrefix("CRM", at))

	jan := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "CRM-0126", PeriodPrefix("CRM", jan))
}

func TestFormatTicketID(t *testing.T) {
	assert.Equal(t, "CRM-1025-0007", FormatTicketID("CRM-1025", 7))
	assert.Equal(t, "CRM-1025-12345", FormatTicketID("CRM-1025", 12345))
}

func TestParseTicketStatus(t *testing.T) {
	cases := map[string]TicketStatus{
		"open":            TicketStatusOpen,
		"AWAITING_CLIENT": TicketStatusAwaitingClient,
		"AwaitingSupport": TicketStatusAwaitingSupport,
		" resolved ":      TicketStatusResolved,
	}
	for raw, want := range cases {
		got, ok := ParseTicketStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := ParseTicketStatus("reopened")
	assert.False(t, ok)
	assert.Equal(t, "AwaitingClient", TicketStatusAwaitingClient.Label())
}
