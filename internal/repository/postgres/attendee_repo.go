package postgres

import (
	"context"
	"database/sql"

	"eventadmission/internal/domain"
)

type attendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{DB: db}
}

// attendeeUnion merges YES RSVPs and live tickets into one attendee set.
const attendeeUnion = `
	SELECT r.user_id, 'rsvp' AS kind, r.created_at
	FROM event_rsvps r
	WHERE r.event_id = $1 AND r.response = 'YES'
	UNION ALL
	SELECT k.user_id, 'ticket' AS kind, k.created_at
	FROM tickets k
	WHERE k.event_id = $1 AND k.status IN ` + liveTicketStatuses + `
`

func (r *attendeeRepository) ListByEventID(ctx context.Context, eventID string, p domain.PaginationParams) ([]*domain.Attendee, int, error) {
	query := `
		SELECT a.user_id, u.name, u.email, a.kind, a.created_at
		FROM (` + attendeeUnion + `) a
		JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	attendees := make([]*domain.Attendee, 0)
	for rows.Next() {
		a := &domain.Attendee{}
		if err := rows.Scan(&a.UserID, &a.Name, &a.Email, &a.Kind, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM (` + attendeeUnion + `) a`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return attendees, total, nil
}

func (r *attendeeRepository) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COUNT(*) FROM (` + attendeeUnion + `) a`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
