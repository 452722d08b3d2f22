package service

import (
	"context"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// SLAPolicyTable exposes read-only SLA budgets per priority label.
type SLAPolicyTable interface {
	Lookup(ctx context.Context, priority string) (domain.SLARule, bool)
}

// SLAPolicyEngine stamps deadlines and first response markers on tickets.
type SLAPolicyEngine struct {
	table SLAPolicyTable
}

// NewSLAPolicyEngine builds an engine; table may be nil, which tracks nothing.
func NewSLAPolicyEngine(table SLAPolicyTable) *SLAPolicyEngine {
	return &SLAPolicyEngine{table: table}
}

// Stamp sets both deadlines from ticket.CreatedAt when a rule matches its
// priority. Without a rule the deadlines stay unset. Reports whether SLA is tracked.
func (e *SLAPolicyEngine) Stamp(ctx context.Context, ticket *domain.Ticket) bool {
	rule, ok := e.lookup(ctx, ticket.Priority)
	if !ok {
		return false
	}
	first := ticket.CreatedAt.Add(rule.FirstResponseBudget())
	resolution := ticket.CreatedAt.Add(rule.ResolutionBudget())
	ticket.SLAFirstResponseDeadline = &first
	ticket.SLAResolutionDeadline = &resolution
	return true
}

// Restamp recomputes deadlines after a priority change. Deadlines stay as they
// were when the ticket is already resolved or the new priority has no rule.
func (e *SLAPolicyEngine) Restamp(ctx context.Context, ticket *domain.Ticket) bool {
	if ticket.ResolvedAt != nil {
		return false
	}
	return e.Stamp(ctx, ticket)
}

// StampFirstResponse records the first support reply. It never overwrites an
// existing stamp and reports whether it wrote one.
func (e *SLAPolicyEngine) StampFirstResponse(ticket *domain.Ticket, now time.Time) bool {
	if ticket.FirstResponseAt != nil {
		return false
	}
	ticket.FirstResponseAt = &now
	return true
}

func (e *SLAPolicyEngine) lookup(ctx context.Context, priority string) (domain.SLARule, bool) {
	if e.table == nil || priority == "" {
		return domain.SLARule{}, false
	}
	return e.table.Lookup(ctx, priority)
}
