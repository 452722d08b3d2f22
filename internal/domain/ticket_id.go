package domain

import (
	"fmt"
	"time"
)

const ticketSequenceWidth = 4

// PeriodPrefix returns the period-scoped prefix, e.g. "CRM-1025" for October 2025.
func PeriodPrefix(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%02d%02d", prefix, int(at.Month()), at.Year()%100)
}

// FormatTicketID joins a period prefix and its sequence number.
func FormatTicketID(periodPrefix string, sequence int) string {
	return fmt.Sprintf("%s-%0*d", periodPrefix, ticketSequenceWidth, sequence)
}
