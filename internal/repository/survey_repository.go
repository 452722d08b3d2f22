package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
)

type surveyRepository struct {
	db dbtx
}

// NewSurveyRepository builds the Postgres survey store over db.
func NewSurveyRepository(db dbtx) SurveyStore {
	return &surveyRepository{db: db}
}

func (r *surveyRepository) Create(ctx context.Context, survey *domain.Survey) error {
	const query = `
        INSERT INTO surveys (ticket_id, rating, comment, created_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		survey.TicketID,
		survey.Rating,
		survey.Comment,
		survey.CreatedAt,
	).Scan(&survey.ID)
	return translateError(err)
}

func (r *surveyRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Survey, error) {
	const query = `SELECT id, ticket_id, rating, comment, created_at FROM surveys WHERE ticket_id=$1`
	var survey domain.Survey
	if err := r.db.QueryRow(ctx, query, ticketID).Scan(
		&survey.ID,
		&survey.TicketID,
		&survey.Rating,
		&survey.Comment,
		&survey.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &survey, nil
}
