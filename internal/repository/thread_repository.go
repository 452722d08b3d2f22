package repository

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
)

type threadRepository struct {
	db dbtx
}

// NewThreadRepository builds the Postgres thread store over db.
func NewThreadRepository(db dbtx) ThreadStore {
	return &threadRepository{db: db}
}

func (r *threadRepository) Append(ctx context.Context, entry *domain.ThreadEntry) error {
	// created_at is pushed past the ticket's last entry so ordering by
	// created_at never ties; callers hold the ticket row lock.
	const query = `
        INSERT INTO thread_entries (ticket_id, sender_id, sender_name, sender_role, kind, body,
            attachment_url, attachment_name, attachment_mime, created_at)
        SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,
            GREATEST($10::timestamptz, COALESCE(MAX(created_at) + INTERVAL '1 microsecond', $10::timestamptz))
        FROM thread_entries WHERE ticket_id=$1
        RETURNING id, created_at`
	var url, name, mime *string
	if entry.Attachment != nil {
		url, name, mime = &entry.Attachment.URL, &entry.Attachment.Name, &entry.Attachment.MIME
	}
	return r.db.QueryRow(ctx, query,
		entry.TicketID,
		entry.Sender.ID,
		entry.Sender.Name,
		entry.Sender.Role,
		entry.Kind,
		entry.Text,
		url,
		name,
		mime,
		entry.CreatedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *threadRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.ThreadEntry, error) {
	const query = `
        SELECT id, ticket_id, sender_id, sender_name, sender_role, kind, body,
               attachment_url, attachment_name, attachment_mime, created_at
        FROM thread_entries WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ThreadEntry
	for rows.Next() {
		var (
			entry           domain.ThreadEntry
			url, name, mime *string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Sender.ID,
			&entry.Sender.Name,
			&entry.Sender.Role,
			&entry.Kind,
			&entry.Text,
			&url,
			&name,
			&mime,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if url != nil {
			entry.Attachment = &domain.AttachmentRef{URL: *url}
			if name != nil {
				entry.Attachment.Name = *name
			}
			if mime != nil {
				entry.Attachment.MIME = *mime
			}
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *threadRepository) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM thread_entries WHERE ticket_id=$1`, ticketID).Scan(&count)
	return count, err
}
