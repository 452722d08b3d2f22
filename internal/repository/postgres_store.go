package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type pgProvider struct {
	db dbtx
}

func (p pgProvider) Tickets() TicketStore { return NewTicketRepository(p.db) }
func (p pgProvider) Threads() ThreadStore { return NewThreadRepository(p.db) }
func (p pgProvider) Surveys() SurveyStore { return NewSurveyRepository(p.db) }

type pgStore struct {
	pgProvider
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store whose transactions run on pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &pgStore{pgProvider: pgProvider{db: pool}, pool: pool}
}

// WithTx executes fn within a database transaction. If fn returns an error,
// or the context is cancelled before commit, every write is rolled back.
func (s *pgStore) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	// no-op once committed
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(pgProvider{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
