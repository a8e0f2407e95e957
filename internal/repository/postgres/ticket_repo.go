package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventadmission/internal/domain"
)

type ticketRepository struct {
	DB *sql.DB
}

func NewTicketRepository(db *sql.DB) domain.TicketRepository {
	return &ticketRepository{DB: db}
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `
		SELECT id, tier_id, event_id, user_id, status, created_at, updated_at
		FROM tickets
		WHERE id = $1
	`
	return scanTicket(r.DB.QueryRowContext(ctx, query, id))
}

func (r *ticketRepository) GetLiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Ticket, error) {
	query := `
		SELECT id, tier_id, event_id, user_id, status, created_at, updated_at
		FROM tickets
		WHERE event_id = $1 AND user_id = $2 AND status IN ` + liveTicketStatuses + `
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanTicket(r.DB.QueryRowContext(ctx, query, eventID, userID))
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	query := `
		UPDATE tickets SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, tier_id, event_id, user_id, status, created_at, updated_at
	`
	return scanTicket(r.DB.QueryRowContext(ctx, query, status, id))
}

func (r *ticketRepository) ActivatePending(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `
		UPDATE tickets SET status = 'ACTIVE', updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING_PAYMENT'
		RETURNING id, tier_id, event_id, user_id, status, created_at, updated_at
	`
	ticket, err := scanTicket(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, domain.ErrNotFound) {
		// No row matched: the ticket is not PENDING_PAYMENT anymore.
		return nil, domain.ErrConflict
	}
	return ticket, err
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	t := &domain.Ticket{}
	err := row.Scan(&t.ID, &t.TierID, &t.EventID, &t.UserID, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}
