package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// TicketFilter captures listing parameters. Visibility fields are set by the
// service layer from the actor and are always applied.
type TicketFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []string
	AssigneeID  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time

	// Visibility: when AllProfiles is false a ticket matches if its destination
	// equals Profile (case-insensitive) or it was created by CreatorID.
	AllProfiles   bool
	Profile       string
	CreatorID     string
	ClientScopeID *string

	Limit  int
	Offset int
}

// TicketStore persists tickets and their per-period sequence counters.
type TicketStore interface {
	// NextSequence atomically increments and returns the counter for prefix.
	// The counter stays locked until the enclosing transaction ends.
	NextSequence(ctx context.Context, prefix string) (int, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate loads the ticket and locks it until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	GetBySurveyToken(ctx context.Context, token string) (*domain.Ticket, error)
	GetBySurveyTokenForUpdate(ctx context.Context, token string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

// ThreadStore appends and reads ticket conversations.
type ThreadStore interface {
	// Append assigns ID and a created_at strictly after the ticket's last entry.
	Append(ctx context.Context, entry *domain.ThreadEntry) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.ThreadEntry, error)
	CountByTicket(ctx context.Context, ticketID string) (int, error)
}

// SurveyStore persists redeemed surveys.
type SurveyStore interface {
	Create(ctx context.Context, survey *domain.Survey) error
	GetByTicket(ctx context.Context, ticketID string) (*domain.Survey, error)
}

// StoreProvider exposes the stores bound to one connection or transaction.
type StoreProvider interface {
	Tickets() TicketStore
	Threads() ThreadStore
	Surveys() SurveyStore
}

// TxRunner runs fn inside a transaction; any error rolls back every write made through stores.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

// Store is the full storage surface used by the services.
type Store interface {
	StoreProvider
	TxRunner
}
