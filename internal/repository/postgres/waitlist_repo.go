package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventadmission/internal/domain"
)

type waitlistRepository struct {
	DB *sql.DB
}

func NewWaitlistRepository(db *sql.DB) domain.WaitlistRepository {
	return &waitlistRepository{DB: db}
}

func (r *waitlistRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.WaitlistEntry, error) {
	query := `
		SELECT id, event_id, tier_id, user_id, claim_token, offered_at, offer_expires_at, consumed_at, created_at
		FROM waitlist_entries
		WHERE event_id = $1 AND user_id = $2 AND consumed_at IS NULL
		ORDER BY created_at
		LIMIT 1
	`
	return scanWaitlistEntry(r.DB.QueryRowContext(ctx, query, eventID, userID))
}

func (r *waitlistRepository) GetByClaimToken(ctx context.Context, token string) (*domain.WaitlistEntry, error) {
	query := `
		SELECT id, event_id, tier_id, user_id, claim_token, offered_at, offer_expires_at, consumed_at, created_at
		FROM waitlist_entries
		WHERE claim_token = $1
	`
	return scanWaitlistEntry(r.DB.QueryRowContext(ctx, query, token))
}

func (r *waitlistRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	query := `
		SELECT id, event_id, tier_id, user_id, claim_token, offered_at, offer_expires_at, consumed_at, created_at
		FROM waitlist_entries
		WHERE event_id = $1 AND consumed_at IS NULL
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanWaitlistEntry(row rowScanner) (*domain.WaitlistEntry, error) {
	e := &domain.WaitlistEntry{}
	var tierID, claimToken sql.NullString
	var offeredAt, offerExpiresAt, consumedAt sql.NullTime
	err := row.Scan(&e.ID, &e.EventID, &tierID, &e.UserID, &claimToken, &offeredAt, &offerExpiresAt, &consumedAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if tierID.Valid {
		e.TierID = &tierID.String
	}
	if claimToken.Valid {
		e.ClaimToken = &claimToken.String
	}
	if offeredAt.Valid {
		e.OfferedAt = &offeredAt.Time
	}
	if offerExpiresAt.Valid {
		e.OfferExpiresAt = &offerExpiresAt.Time
	}
	if consumedAt.Valid {
		e.ConsumedAt = &consumedAt.Time
	}
	return e, nil
}
