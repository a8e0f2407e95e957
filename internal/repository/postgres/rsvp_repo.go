package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventadmission/internal/domain"
)

type eventRSVPRepository struct {
	DB *sql.DB
}

func NewEventRSVPRepository(db *sql.DB) domain.EventRSVPRepository {
	return &eventRSVPRepository{DB: db}
}

func (r *eventRSVPRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventRSVP, error) {
	query := `
		SELECT id, event_id, user_id, response, created_at, updated_at
		FROM event_rsvps
		WHERE event_id = $1 AND user_id = $2
	`
	rsvp := &domain.EventRSVP{}
	err := r.DB.QueryRowContext(ctx, query, eventID, userID).Scan(
		&rsvp.ID, &rsvp.EventID, &rsvp.UserID, &rsvp.Response, &rsvp.CreatedAt, &rsvp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rsvp, nil
}
