package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// Fault injection points understood by MemoryStore.InjectFault.
const (
	FaultTicketCreate = "tickets.create"
	FaultTicketUpdate = "tickets.update"
	FaultThreadAppend = "threads.append"
	FaultSurveyCreate = "surveys.create"
)

// MemoryStore is an in-process Store used when no database is configured and
// by tests. Transactions are serialized and run against a copy of the state
// that replaces the committed state only when fn succeeds.
type MemoryStore struct {
	mu     sync.RWMutex
	state  *memState
	faults map[string]error
}

type memState struct {
	tickets      map[string]domain.Ticket
	entries      map[string][]domain.ThreadEntry
	surveys      map[string]domain.Survey
	sequences    map[string]int
	nextEntryID  int64
	nextSurveyID int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			tickets:   map[string]domain.Ticket{},
			entries:   map[string][]domain.ThreadEntry{},
			surveys:   map[string]domain.Survey{},
			sequences: map[string]int{},
		},
		faults: map[string]error{},
	}
}

// InjectFault makes the next call to op fail with err inside a transaction.
func (m *MemoryStore) InjectFault(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[op] = err
}

// WithTx runs fn against a private copy of the state and commits it on success.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	working := m.state.clone()
	if err := fn(&memProvider{state: working, faults: m.faults}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.state = working
	return nil
}

func (m *MemoryStore) Tickets() TicketStore { return &memLockedTickets{store: m} }
func (m *MemoryStore) Threads() ThreadStore { return &memLockedThreads{store: m} }
func (m *MemoryStore) Surveys() SurveyStore { return &memLockedSurveys{store: m} }

func (m *MemoryStore) read(fn func(p *memProvider) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memProvider{state: m.state})
}

func (m *MemoryStore) write(ctx context.Context, fn func(p *memProvider) error) error {
	return m.WithTx(ctx, func(stores StoreProvider) error {
		return fn(stores.(*memProvider))
	})
}

func (s *memState) clone() *memState {
	out := &memState{
		tickets:      make(map[string]domain.Ticket, len(s.tickets)),
		entries:      make(map[string][]domain.ThreadEntry, len(s.entries)),
		surveys:      make(map[string]domain.Survey, len(s.surveys)),
		sequences:    make(map[string]int, len(s.sequences)),
		nextEntryID:  s.nextEntryID,
		nextSurveyID: s.nextSurveyID,
	}
	for k, v := range s.tickets {
		out.tickets[k] = v
	}
	for k, v := range s.entries {
		out.entries[k] = append([]domain.ThreadEntry(nil), v...)
	}
	for k, v := range s.surveys {
		out.surveys[k] = v
	}
	for k, v := range s.sequences {
		out.sequences[k] = v
	}
	return out
}

type memProvider struct {
	state  *memState
	faults map[string]error
}

func (p *memProvider) Tickets() TicketStore { return memTickets{p} }
func (p *memProvider) Threads() ThreadStore { return memThreads{p} }
func (p *memProvider) Surveys() SurveyStore { return memSurveys{p} }

func (p *memProvider) fault(op string) error {
	if p.faults == nil {
		return nil
	}
	if err, ok := p.faults[op]; ok {
		delete(p.faults, op)
		return err
	}
	return nil
}

type memTickets struct{ p *memProvider }

func (t memTickets) NextSequence(_ context.Context, prefix string) (int, error) {
	t.p.state.sequences[prefix]++
	return t.p.state.sequences[prefix], nil
}

func (t memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	if err := t.p.fault(FaultTicketCreate); err != nil {
		return err
	}
	if _, exists := t.p.state.tickets[ticket.ID]; exists {
		return ErrDuplicate
	}
	t.p.state.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (t memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	if err := t.p.fault(FaultTicketUpdate); err != nil {
		return err
	}
	if _, exists := t.p.state.tickets[ticket.ID]; !exists {
		return ErrNotFound
	}
	if ticket.SurveyToken != nil {
		for id, other := range t.p.state.tickets {
			if id != ticket.ID && other.SurveyToken != nil && *other.SurveyToken == *ticket.SurveyToken {
				return ErrDuplicate
			}
		}
	}
	t.p.state.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (t memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := t.p.state.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyTicket(&ticket)
	return &out, nil
}

func (t memTickets) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return t.GetByID(ctx, id)
}

func (t memTickets) GetBySurveyToken(_ context.Context, token string) (*domain.Ticket, error) {
	for _, ticket := range t.p.state.tickets {
		if ticket.SurveyToken != nil && *ticket.SurveyToken == token {
			out := copyTicket(&ticket)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (t memTickets) GetBySurveyTokenForUpdate(ctx context.Context, token string) (*domain.Ticket, error) {
	return t.GetBySurveyToken(ctx, token)
}

func (t memTickets) Delete(_ context.Context, id string) error {
	if _, ok := t.p.state.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(t.p.state.tickets, id)
	delete(t.p.state.entries, id)
	delete(t.p.state.surveys, id)
	return nil
}

func (t memTickets) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	var matched []domain.Ticket
	for _, ticket := range t.p.state.tickets {
		if matchesFilter(&ticket, filter) {
			matched = append(matched, copyTicket(&ticket))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func matchesFilter(ticket *domain.Ticket, filter TicketFilter) bool {
	if !filter.AllProfiles &&
		!strings.EqualFold(ticket.DestinationProfile, filter.Profile) &&
		ticket.Creator.ID != filter.CreatorID {
		return false
	}
	if filter.ClientScopeID != nil && (ticket.ClientScopeID == nil || *ticket.ClientScopeID != *filter.ClientScopeID) {
		return false
	}
	if filter.AssigneeID != nil && (ticket.AssignedAgentID == nil || *ticket.AssignedAgentID != *filter.AssigneeID) {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsString(filter.Priorities, ticket.Priority) {
		return false
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(ticket.Subject), term) &&
			!strings.Contains(strings.ToLower(ticket.ID), term) {
			return false
		}
	}
	return true
}

func containsStatus(list []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

type memThreads struct{ p *memProvider }

func (t memThreads) Append(_ context.Context, entry *domain.ThreadEntry) error {
	if err := t.p.fault(FaultThreadAppend); err != nil {
		return err
	}
	if _, ok := t.p.state.tickets[entry.TicketID]; !ok {
		return ErrNotFound
	}
	existing := t.p.state.entries[entry.TicketID]
	if n := len(existing); n > 0 {
		last := existing[n-1].CreatedAt
		if !entry.CreatedAt.After(last) {
			entry.CreatedAt = last.Add(time.Microsecond)
		}
	}
	t.p.state.nextEntryID++
	entry.ID = t.p.state.nextEntryID
	stored := *entry
	if entry.Attachment != nil {
		ref := *entry.Attachment
		stored.Attachment = &ref
	}
	t.p.state.entries[entry.TicketID] = append(existing, stored)
	return nil
}

func (t memThreads) ListByTicket(_ context.Context, ticketID string) ([]domain.ThreadEntry, error) {
	return append([]domain.ThreadEntry(nil), t.p.state.entries[ticketID]...), nil
}

func (t memThreads) CountByTicket(_ context.Context, ticketID string) (int, error) {
	return len(t.p.state.entries[ticketID]), nil
}

type memSurveys struct{ p *memProvider }

func (s memSurveys) Create(_ context.Context, survey *domain.Survey) error {
	if err := s.p.fault(FaultSurveyCreate); err != nil {
		return err
	}
	if _, exists := s.p.state.surveys[survey.TicketID]; exists {
		return ErrDuplicate
	}
	s.p.state.nextSurveyID++
	survey.ID = s.p.state.nextSurveyID
	s.p.state.surveys[survey.TicketID] = *survey
	return nil
}

func (s memSurveys) GetByTicket(_ context.Context, ticketID string) (*domain.Survey, error) {
	survey, ok := s.p.state.surveys[ticketID]
	if !ok {
		return nil, ErrNotFound
	}
	return &survey, nil
}

// Locked wrappers used outside of WithTx.

type memLockedTickets struct{ store *MemoryStore }

func (l *memLockedTickets) NextSequence(ctx context.Context, prefix string) (next int, err error) {
	err = l.store.write(ctx, func(p *memProvider) error {
		next, err = p.Tickets().NextSequence(ctx, prefix)
		return err
	})
	return next, err
}

func (l *memLockedTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	return l.store.write(ctx, func(p *memProvider) error { return p.Tickets().Create(ctx, ticket) })
}

func (l *memLockedTickets) Update(ctx context.Context, ticket *domain.Ticket) error {
	return l.store.write(ctx, func(p *memProvider) error { return p.Tickets().Update(ctx, ticket) })
}

func (l *memLockedTickets) Delete(ctx context.Context, id string) error {
	return l.store.write(ctx, func(p *memProvider) error { return p.Tickets().Delete(ctx, id) })
}

func (l *memLockedTickets) GetByID(ctx context.Context, id string) (ticket *domain.Ticket, err error) {
	err = l.store.read(func(p *memProvider) error {
		ticket, err = p.Tickets().GetByID(ctx, id)
		return err
	})
	return ticket, err
}

func (l *memLockedTickets) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return l.GetByID(ctx, id)
}

func (l *memLockedTickets) GetBySurveyToken(ctx context.Context, token string) (ticket *domain.Ticket, err error) {
	err = l.store.read(func(p *memProvider) error {
		ticket, err = p.Tickets().GetBySurveyToken(ctx, token)
		return err
	})
	return ticket, err
}

func (l *memLockedTickets) GetBySurveyTokenForUpdate(ctx context.Context, token string) (*domain.Ticket, error) {
	return l.GetBySurveyToken(ctx, token)
}

func (l *memLockedTickets) List(ctx context.Context, filter TicketFilter) (tickets []domain.Ticket, err error) {
	err = l.store.read(func(p *memProvider) error {
		tickets, err = p.Tickets().List(ctx, filter)
		return err
	})
	return tickets, err
}

type memLockedThreads struct{ store *MemoryStore }

func (l *memLockedThreads) Append(ctx context.Context, entry *domain.ThreadEntry) error {
	return l.store.write(ctx, func(p *memProvider) error { return p.Threads().Append(ctx, entry) })
}

func (l *memLockedThreads) ListByTicket(ctx context.Context, ticketID string) (entries []domain.ThreadEntry, err error) {
	err = l.store.read(func(p *memProvider) error {
		entries, err = p.Threads().ListByTicket(ctx, ticketID)
		return err
	})
	return entries, err
}

func (l *memLockedThreads) CountByTicket(ctx context.Context, ticketID string) (count int, err error) {
	err = l.store.read(func(p *memProvider) error {
		count, err = p.Threads().CountByTicket(ctx, ticketID)
		return err
	})
	return count, err
}

type memLockedSurveys struct{ store *MemoryStore }

func (l *memLockedSurveys) Create(ctx context.Context, survey *domain.Survey) error {
	return l.store.write(ctx, func(p *memProvider) error { return p.Surveys().Create(ctx, survey) })
}

func (l *memLockedSurveys) GetByTicket(ctx context.Context, ticketID string) (survey *domain.Survey, err error) {
	err = l.store.read(func(p *memProvider) error {
		survey, err = p.Surveys().GetByTicket(ctx, ticketID)
		return err
	})
	return survey, err
}

func copyTicket(t *domain.Ticket) domain.Ticket {
	out := *t
	out.ClientScopeID = copyString(t.ClientScopeID)
	out.AssignedAgentID = copyString(t.AssignedAgentID)
	out.SurveyToken = copyString(t.SurveyToken)
	out.FirstResponseAt = copyTime(t.FirstResponseAt)
	out.ResolvedAt = copyTime(t.ResolvedAt)
	out.ClosedAt = copyTime(t.ClosedAt)
	out.SLAFirstResponseDeadline = copyTime(t.SLAFirstResponseDeadline)
	out.SLAResolutionDeadline = copyTime(t.SLAResolutionDeadline)
	out.SurveyCompletedAt = copyTime(t.SurveyCompletedAt)
	return out
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}
