package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/support-desk/internal/domain"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const ticketColumns = `id, subject, type, category_id, subcategory_id, priority,
       creator_id, creator_name, creator_email, client_scope_id, status, destination_profile,
       assigned_agent_id, created_at, updated_at, first_response_at, resolved_at, closed_at,
       sla_first_response_deadline, sla_resolution_deadline, survey_token, survey_completed_at`

type ticketRepository struct {
	db dbtx
}

// NewTicketRepository instantiates the Postgres ticket store over db.
func NewTicketRepository(db dbtx) TicketStore {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) NextSequence(ctx context.Context, prefix string) (int, error) {
	// The upsert takes a row lock on the prefix that is held until commit, so
	// concurrent creations in the same period serialize on it.
	const query = `
        INSERT INTO ticket_sequences (prefix, last_value) VALUES ($1, 1)
        ON CONFLICT (prefix) DO UPDATE SET last_value = ticket_sequences.last_value + 1
        RETURNING last_value`
	var next int
	if err := r.db.QueryRow(ctx, query, prefix).Scan(&next); err != nil {
		return 0, fmt.Errorf("allocate sequence %s: %w", prefix, err)
	}
	return next, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, subject, type, category_id, subcategory_id, priority,
            creator_id, creator_name, creator_email, client_scope_id, status, destination_profile,
            assigned_agent_id, created_at, updated_at, first_response_at, resolved_at, closed_at,
            sla_first_response_deadline, sla_resolution_deadline, survey_token, survey_completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Subject,
		ticket.Type,
		ticket.CategoryID,
		ticket.SubcategoryID,
		ticket.Priority,
		ticket.Creator.ID,
		ticket.Creator.Name,
		ticket.Creator.Email,
		ticket.ClientScopeID,
		ticket.Status,
		ticket.DestinationProfile,
		ticket.AssignedAgentID,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.SLAFirstResponseDeadline,
		ticket.SLAResolutionDeadline,
		ticket.SurveyToken,
		ticket.SurveyCompletedAt,
	)
	return translateError(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET priority=$1, status=$2, assigned_agent_id=$3, updated_at=$4,
            first_response_at=$5, resolved_at=$6, closed_at=$7, sla_first_response_deadline=$8,
            sla_resolution_deadline=$9, survey_token=$10, survey_completed_at=$11
        WHERE id=$12`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedAgentID,
		ticket.UpdatedAt,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.SLAFirstResponseDeadline,
		ticket.SLAResolutionDeadline,
		ticket.SurveyToken,
		ticket.SurveyCompletedAt,
		ticket.ID,
	)
	if err != nil {
		return translateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, id)
}

func (r *ticketRepository) GetBySurveyToken(ctx context.Context, token string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE survey_token=$1`, token)
}

func (r *ticketRepository) GetBySurveyTokenForUpdate(ctx context.Context, token string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE survey_token=$1 FOR UPDATE`, token)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.AllProfiles {
		args = append(args, filter.Profile, filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("(LOWER(destination_profile) = LOWER($%d) OR creator_id = $%d)", len(args)-1, len(args)))
	}
	if filter.ClientScopeID != nil {
		args = append(args, *filter.ClientScopeID)
		clauses = append(clauses, fmt.Sprintf("client_scope_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assigned_agent_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + escapeLike(strings.ToLower(strings.TrimSpace(*filter.SearchTerm))) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(`(LOWER(subject) LIKE %s ESCAPE '\' OR LOWER(id) LIKE %s ESCAPE '\')`, placeholder, placeholder))
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC, id DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

const uniqueViolation = "23505"

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

// likeEscaper makes a search term match literally, as the memory store does.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// MaxPageSize caps the number of tickets a single List call returns.
const MaxPageSize = 200

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Subject,
		&ticket.Type,
		&ticket.CategoryID,
		&ticket.SubcategoryID,
		&ticket.Priority,
		&ticket.Creator.ID,
		&ticket.Creator.Name,
		&ticket.Creator.Email,
		&ticket.ClientScopeID,
		&ticket.Status,
		&ticket.DestinationProfile,
		&ticket.AssignedAgentID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.SLAFirstResponseDeadline,
		&ticket.SLAResolutionDeadline,
		&ticket.SurveyToken,
		&ticket.SurveyCompletedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
