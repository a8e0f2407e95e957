package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventadmission/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (org_id, name, status, type, starts_at, ends_at, requires_ticket, rsvp_before, max_attendees, waitlist_enabled, potluck_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.OrgID, e.Name, e.Status, e.Type, e.StartsAt, e.EndsAt,
		e.RequiresTicket, e.RSVPBefore, e.MaxAttendees, e.WaitlistEnabled, e.PotluckEnabled,
		e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, org_id, name, status, type, starts_at, ends_at, requires_ticket, rsvp_before, max_attendees, waitlist_enabled, potluck_enabled, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	return scanEvent(r.DB.QueryRowContext(ctx, query, id))
}

func (r *eventRepository) ListByOrgID(ctx context.Context, orgID string) ([]*domain.Event, error) {
	query := `
		SELECT id, org_id, name, status, type, starts_at, ends_at, requires_ticket, rsvp_before, max_attendees, waitlist_enabled, potluck_enabled, created_at, updated_at
		FROM events
		WHERE org_id = $1
		ORDER BY starts_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	query := `
		UPDATE events SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, org_id, name, status, type, starts_at, ends_at, requires_ticket, rsvp_before, max_attendees, waitlist_enabled, potluck_enabled, created_at, updated_at
	`
	return scanEvent(r.DB.QueryRowContext(ctx, query, status, id))
}

func (r *eventRepository) ListQuestionnaireIDs(ctx context.Context, eventID string) ([]string, error) {
	query := `
		SELECT questionnaire_id
		FROM event_questionnaires
		WHERE event_id = $1
		ORDER BY position
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var rsvpBefore sql.NullTime
	var maxAttendees sql.NullInt64
	err := row.Scan(
		&e.ID, &e.OrgID, &e.Name, &e.Status, &e.Type, &e.StartsAt, &e.EndsAt,
		&e.RequiresTicket, &rsvpBefore, &maxAttendees, &e.WaitlistEnabled, &e.PotluckEnabled,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if rsvpBefore.Valid {
		e.RSVPBefore = &rsvpBefore.Time
	}
	if maxAttendees.Valid {
		n := int(maxAttendees.Int64)
		e.MaxAttendees = &n
	}
	return e, nil
}
