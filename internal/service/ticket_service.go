package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	routing    *RoutingResolver
	sla        *SLAPolicyEngine
	tokens     TokenIssuer
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	idPrefix   string
	location   *time.Location
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Routing    *RoutingResolver
	SLA        *SLAPolicyEngine
	Tokens     TokenIssuer
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	IDPrefix   string
	Location   *time.Location
	Clock      func() time.Time
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Subject       string
	Type          *string
	Priority      *string
	Destination   *string
	CategoryID    string
	SubcategoryID string
	Message       string
	Attachment    *domain.AttachmentRef
}

// PostMessageInput is a reply on an existing ticket.
type PostMessageInput struct {
	Text       string
	Attachment *domain.AttachmentRef
}

// UpdateTicketInput holds the administrative fields to change. A nil field is
// left untouched; an empty AssignedAgentID clears the assignment.
type UpdateTicketInput struct {
	Status          *domain.TicketStatus
	Priority        *string
	AssignedAgentID *string
}

// ListTicketsInput describes listing filters.
type ListTicketsInput struct {
	Statuses    []domain.TicketStatus
	Priorities  []string
	AssigneeID  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketDetail is a ticket with its thread and derived SLA compliance.
type TicketDetail struct {
	Ticket  *domain.Ticket
	Entries []domain.ThreadEntry
	SLA     domain.SLAStatus
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		store:      deps.Store,
		routing:    deps.Routing,
		sla:        deps.SLA,
		tokens:     deps.Tokens,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		idPrefix:   deps.IDPrefix,
		location:   deps.Location,
		now:        deps.Clock,
	}
	if s.routing == nil {
		s.routing = NewRoutingResolver(nil, "")
	}
	if s.sla == nil {
		s.sla = NewSLAPolicyEngine(nil)
	}
	if s.tokens == nil {
		s.tokens = RandomTokenIssuer{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.idPrefix == "" {
		s.idPrefix = "CRM"
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateTicket routes, stamps and stores a ticket together with its first message.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.Actor, input CreateTicketInput) (*domain.Ticket, *domain.ThreadEntry, error) {
	if !actor.Valid() {
		return nil, nil, apperrors.NewUnauthorized("actor context required")
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, nil, apperrors.NewValidationError("subject is required", map[string]any{"field": "subject"})
	}
	text := strings.TrimSpace(input.Message)
	if text == "" && input.Attachment == nil {
		return nil, nil, apperrors.NewValidationError("message text or attachment is required", map[string]any{"field": "message"})
	}

	route := s.routing.Resolve(ctx, RoutingInput{
		Type:        input.Type,
		Priority:    input.Priority,
		Destination: input.Destination,
		CategoryID:  input.CategoryID,
	})
	now := s.clock()
	ticket := &domain.Ticket{
		Subject:            subject,
		Type:               route.Type,
		CategoryID:         strings.TrimSpace(input.CategoryID),
		SubcategoryID:      strings.TrimSpace(input.SubcategoryID),
		Priority:           route.Priority,
		Creator:            domain.Creator{ID: actor.ID, Name: actor.Name, Email: actor.Email},
		ClientScopeID:      actor.ClientScopeID,
		Status:             domain.TicketStatusOpen,
		DestinationProfile: route.DestinationProfile,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	tracked := s.sla.Stamp(ctx, ticket)
	entry := newEntry(actor.Sender(), text, input.Attachment, now)
	periodPrefix := domain.PeriodPrefix(s.idPrefix, now.In(s.location))

	err := s.store.WithTx(ctx, func(stores repository.StoreProvider) error {
		seq, err := stores.Tickets().NextSequence(ctx, periodPrefix)
		if err != nil {
			return err
		}
		ticket.ID = domain.FormatTicketID(periodPrefix, seq)
		if err := stores.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		entry.TicketID = ticket.ID
		return stores.Threads().Append(ctx, entry)
	})
	if err != nil {
		s.logger.Warn("ticket creation rolled back", zap.String("actor_id", actor.ID), zap.Error(err))
		return nil, nil, mapTxError(err)
	}

	s.metrics.TicketCreated(ticket.Priority, tracked)
	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("priority", ticket.Priority),
		zap.String("destination_profile", ticket.DestinationProfile),
		zap.Bool("sla_tracked", tracked))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorOf(actor),
		Audience: events.AudienceOf(ticket),
		Payload: events.TicketCreatedPayload{
			Subject:            ticket.Subject,
			Priority:           ticket.Priority,
			Status:             ticket.Status,
			DestinationProfile: ticket.DestinationProfile,
		},
	})
	s.publishMessage(ctx, actor, ticket, entry)
	return ticket, entry, nil
}

// PostMessage appends a reply and applies the message-driven transition.
func (s *TicketService) PostMessage(ctx context.Context, actor *domain.Actor, ticketID string, input PostMessageInput) (*domain.ThreadEntry, error) {
	if !actor.Valid() {
		return nil, apperrors.NewUnauthorized("actor context required")
	}
	text := strings.TrimSpace(input.Text)
	if text == "" && input.Attachment == nil {
		return nil, apperrors.NewValidationError("message text or attachment is required", map[string]any{"field": "text"})
	}
	current, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if current.Finalized() {
		return nil, apperrors.NewTicketFinalized(current.ID, string(current.Status))
	}

	event := domain.MessageEvent(actor.SenderRole())
	var (
		ticket        *domain.Ticket
		entry         *domain.ThreadEntry
		outcome       domain.Outcome
		firstResponse bool
	)
	err = s.store.WithTx(ctx, func(stores repository.StoreProvider) error {
		locked, err := stores.Tickets().GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		outcome, err = domain.Transition(locked.State(), event)
		if err != nil {
			return lifecycleError(locked, err)
		}
		entry = newEntry(actor.Sender(), text, input.Attachment, s.clock())
		entry.TicketID = locked.ID
		if err := stores.Threads().Append(ctx, entry); err != nil {
			return err
		}
		if outcome.Has(domain.EffectStampFirstResponse) {
			firstResponse = s.sla.StampFirstResponse(locked, entry.CreatedAt)
		}
		locked.Status = outcome.To
		locked.UpdatedAt = entry.CreatedAt
		if err := stores.Tickets().Update(ctx, locked); err != nil {
			return err
		}
		ticket = locked
		return nil
	})
	if err != nil {
		return nil, mapTxError(err)
	}

	s.publishMessage(ctx, actor, ticket, entry)
	if outcome.Changed() {
		s.publishStatusChange(ctx, actor, ticket, outcome)
	}
	if firstResponse && ticket.SLAFirstResponseDeadline != nil {
		s.metrics.SLAOutcome("first_response", string(domain.EvaluateSLA(ticket, entry.CreatedAt).FirstResponse))
	}
	return entry, nil
}

// UpdateTicket applies administrative status, priority and assignment changes
// in one transaction, appending one audit entry per changed field.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.Actor, ticketID string, input UpdateTicketInput) (*domain.Ticket, error) {
	if !actor.Valid() {
		return nil, apperrors.NewUnauthorized("actor context required")
	}
	if !actor.SupportAgent && !actor.Administrator {
		return nil, apperrors.NewForbidden("only support staff may update tickets")
	}
	if input.Status == nil && input.Priority == nil && input.AssignedAgentID == nil {
		return nil, apperrors.NewValidationError("no changes requested", nil)
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
	}
	if input.Priority != nil && strings.TrimSpace(*input.Priority) == "" {
		return nil, apperrors.NewValidationError("priority must not be empty", map[string]any{"field": "priority"})
	}
	if _, err := s.loadVisible(ctx, actor, ticketID); err != nil {
		return nil, err
	}

	var (
		ticket      *domain.Ticket
		outcome     domain.Outcome
		changed     []string
		resolved    bool
		surveyToken string
	)
	err := s.store.WithTx(ctx, func(stores repository.StoreProvider) error {
		locked, err := stores.Tickets().GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		now := s.clock()
		var audits []string

		if input.Status != nil {
			outcome, err = domain.Transition(locked.State(), domain.SetStatusEvent(*input.Status))
			if err != nil {
				return lifecycleError(locked, err)
			}
			if outcome.Has(domain.EffectStampResolvedAt) {
				locked.ResolvedAt = &now
				resolved = true
			}
			if outcome.Has(domain.EffectIssueSurvey) {
				token, err := s.tokens.Issue()
				if err != nil {
					return err
				}
				locked.SurveyToken = &token
				surveyToken = token
			}
			if outcome.Has(domain.EffectStampClosedAt) {
				locked.ClosedAt = &now
			}
			if outcome.Has(domain.EffectAppendAudit) {
				audits = append(audits, fmt.Sprintf("Status changed from %s to %s by %s",
					outcome.From.Label(), outcome.To.Label(), actorLabel(actor)))
				changed = append(changed, "status")
			}
			locked.Status = outcome.To
		}

		if input.Priority != nil {
			priority := strings.TrimSpace(*input.Priority)
			if priority != locked.Priority {
				audits = append(audits, fmt.Sprintf("Priority changed from %s to %s by %s",
					orNone(locked.Priority), priority, actorLabel(actor)))
				locked.Priority = priority
				s.sla.Restamp(ctx, locked)
				changed = append(changed, "priority")
			}
		}

		if input.AssignedAgentID != nil {
			var next *string
			if v := strings.TrimSpace(*input.AssignedAgentID); v != "" {
				next = &v
			}
			if deref(next) != deref(locked.AssignedAgentID) {
				audits = append(audits, fmt.Sprintf("Assignment changed from %s to %s by %s",
					orNone(deref(locked.AssignedAgentID)), orNone(deref(next)), actorLabel(actor)))
				locked.AssignedAgentID = next
				changed = append(changed, "assignee")
			}
		}

		ticket = locked
		if len(changed) == 0 {
			return nil
		}
		for _, text := range audits {
			audit := &domain.ThreadEntry{
				TicketID:  locked.ID,
				Sender:    domain.SystemSender(),
				Kind:      domain.EntryKindStatusEvent,
				Text:      text,
				CreatedAt: now,
			}
			if err := stores.Threads().Append(ctx, audit); err != nil {
				return err
			}
		}
		locked.UpdatedAt = now
		return stores.Tickets().Update(ctx, locked)
	})
	if err != nil {
		return nil, mapTxError(err)
	}
	if len(changed) == 0 {
		return ticket, nil
	}

	if outcome.Changed() {
		s.publishStatusChange(ctx, actor, ticket, outcome)
	}
	if resolved {
		if ticket.SLAResolutionDeadline != nil {
			s.metrics.SLAOutcome("resolution", string(domain.EvaluateSLA(ticket, *ticket.ResolvedAt).Resolution))
		}
		s.logger.Info("ticket resolved", zap.String("ticket_id", ticket.ID), zap.String("actor_id", actor.ID))
		publish(ctx, s.dispatcher, events.Event{
			Type:     events.EventSurveyIssued,
			TicketID: ticket.ID,
			Actor:    events.ActorOf(actor),
			Audience: events.AudienceOf(ticket),
			Payload: events.SurveyIssuedPayload{
				Token:          surveyToken,
				RecipientEmail: ticket.Creator.Email,
				RecipientName:  ticket.Creator.Name,
				Subject:        ticket.Subject,
			},
		})
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: ticket.ID,
		Actor:    events.ActorOf(actor),
		Audience: events.AudienceOf(ticket),
		Payload:  events.TicketUpdatedPayload{Changed: changed},
	})
	return ticket, nil
}

// GetTicket returns a visible ticket with its thread and SLA status.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.Actor, ticketID string) (*TicketDetail, error) {
	if !actor.Valid() {
		return nil, apperrors.NewUnauthorized("actor context required")
	}
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Threads().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &TicketDetail{
		Ticket:  ticket,
		Entries: entries,
		SLA:     domain.EvaluateSLA(ticket, s.clock()),
	}, nil
}

// ListMessages returns the ordered thread of a visible ticket.
func (s *TicketService) ListMessages(ctx context.Context, actor *domain.Actor, ticketID string) ([]domain.ThreadEntry, error) {
	if !actor.Valid() {
		return nil, apperrors.NewUnauthorized("actor context required")
	}
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Threads().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

// ListTickets returns the tickets visible to actor that match input.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.Actor, input ListTicketsInput) ([]domain.Ticket, error) {
	if !actor.Valid() {
		return nil, apperrors.NewUnauthorized("actor context required")
	}
	filter := repository.TicketFilter{
		Statuses:    input.Statuses,
		Priorities:  input.Priorities,
		AssigneeID:  input.AssigneeID,
		SearchTerm:  input.SearchTerm,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Limit:       input.Limit,
		Offset:      input.Offset,
	}
	applyVisibility(&filter, actor)
	tickets, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// DeleteTicket removes a ticket and its thread. Only administrators may use it.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.Actor, ticketID string) error {
	if !actor.Valid() {
		return apperrors.NewUnauthorized("actor context required")
	}
	if !actor.Administrator {
		return apperrors.NewForbidden("only administrators may delete tickets")
	}
	var deleted *domain.Ticket
	err := s.store.WithTx(ctx, func(stores repository.StoreProvider) error {
		ticket, err := stores.Tickets().GetForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		deleted = ticket
		return stores.Tickets().Delete(ctx, ticket.ID)
	})
	if err != nil {
		return mapTxError(err)
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", ticketID), zap.String("actor_id", actor.ID))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    events.ActorOf(actor),
		Audience: events.AudienceOf(deleted),
	})
	return nil
}

func (s *TicketService) loadVisible(ctx context.Context, actor *domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !actor.CanViewTicket(ticket) {
		return nil, apperrors.NewForbidden("ticket is not visible to this profile")
	}
	return ticket, nil
}

func applyVisibility(filter *repository.TicketFilter, actor *domain.Actor) {
	if actor.Administrator {
		filter.AllProfiles = true
		return
	}
	filter.Profile = actor.Profile
	filter.CreatorID = actor.ID
	filter.ClientScopeID = actor.ClientScopeID
}

func (s *TicketService) publishMessage(ctx context.Context, actor *domain.Actor, ticket *domain.Ticket, entry *domain.ThreadEntry) {
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventMessageCreated,
		TicketID: ticket.ID,
		Actor:    events.ActorOf(actor),
		Audience: events.AudienceOf(ticket),
		Payload: events.MessageCreatedPayload{
			EntryID:     entry.ID,
			Kind:        entry.Kind,
			SenderID:    entry.Sender.ID,
			SenderRole:  entry.Sender.Role,
			TextPreview: stringPreview(entry.Text, 120),
			HasFile:     entry.Attachment != nil,
		},
	})
}

func (s *TicketService) publishStatusChange(ctx context.Context, actor *domain.Actor, ticket *domain.Ticket, outcome domain.Outcome) {
	s.metrics.StatusTransition(string(outcome.From), string(outcome.To))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.ActorOf(actor),
		Audience: events.AudienceOf(ticket),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: outcome.From,
			NewStatus: outcome.To,
		},
	})
}

func (s *TicketService) clock() time.Time {
	return storedTime(s.now())
}

// storedTime converts t to UTC at the precision the database keeps, so both
// stores return identical timestamps.
func storedTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func newEntry(sender domain.Sender, text string, attachment *domain.AttachmentRef, at time.Time) *domain.ThreadEntry {
	kind := domain.EntryKindComment
	if attachment != nil {
		kind = domain.EntryKindAttachmentRef
	}
	return &domain.ThreadEntry{
		Sender:     sender,
		Kind:       kind,
		Text:       text,
		Attachment: attachment,
		CreatedAt:  at,
	}
}

func actorLabel(actor *domain.Actor) string {
	if name := strings.TrimSpace(actor.Name); name != "" {
		return name
	}
	return actor.ID
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
