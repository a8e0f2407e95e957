package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"eventadmission/internal/domain"
)

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{DB: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.EventInvitation) error {
	query := `
		INSERT INTO event_invitations (event_id, user_id, waives, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		inv.EventID, inv.UserID, pq.Array(waiverStrings(inv.Waives)), inv.ExpiresAt, inv.CreatedAt,
	).Scan(&inv.ID)
}

func (r *invitationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventInvitation, error) {
	query := `
		SELECT id, event_id, user_id, waives, expires_at, created_at
		FROM event_invitations
		WHERE event_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	inv := &domain.EventInvitation{}
	var waives []string
	var expiresAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, eventID, userID).Scan(
		&inv.ID, &inv.EventID, &inv.UserID, pq.Array(&waives), &expiresAt, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	inv.Waives = toWaivers(waives)
	if expiresAt.Valid {
		inv.ExpiresAt = &expiresAt.Time
	}
	return inv, nil
}

func (r *invitationRepository) CreatePending(ctx context.Context, inv *domain.PendingEventInvitation) error {
	query := `
		INSERT INTO pending_event_invitations (event_id, email, waives, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		inv.EventID, inv.Email, pq.Array(waiverStrings(inv.Waives)), inv.ExpiresAt, inv.CreatedAt,
	).Scan(&inv.ID)
}

func (r *invitationRepository) ListPendingByEmail(ctx context.Context, email string) ([]*domain.PendingEventInvitation, error) {
	query := `
		SELECT id, event_id, email, waives, expires_at, created_at
		FROM pending_event_invitations
		WHERE email = $1
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	pending := make([]*domain.PendingEventInvitation, 0)
	for rows.Next() {
		inv := &domain.PendingEventInvitation{}
		var waives []string
		var expiresAt sql.NullTime
		if err := rows.Scan(&inv.ID, &inv.EventID, &inv.Email, pq.Array(&waives), &expiresAt, &inv.CreatedAt); err != nil {
			return nil, err
		}
		inv.Waives = toWaivers(waives)
		if expiresAt.Valid {
			inv.ExpiresAt = &expiresAt.Time
		}
		pending = append(pending, inv)
	}
	return pending, rows.Err()
}

func (r *invitationRepository) DeletePending(ctx context.Context, id string) error {
	query := `DELETE FROM pending_event_invitations WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func waiverStrings(waives []domain.Waiver) []string {
	out := make([]string, len(waives))
	for i, w := range waives {
		out[i] = string(w)
	}
	return out
}

func toWaivers(values []string) []domain.Waiver {
	if len(values) == 0 {
		return nil
	}
	out := make([]domain.Waiver, len(values))
	for i, v := range values {
		out[i] = domain.Waiver(v)
	}
	return out
}
