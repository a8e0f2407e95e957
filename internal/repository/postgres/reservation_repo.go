package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventadmission/internal/domain"
)

// reservationRepository serializes capacity changes with row locks: the event
// row for RSVPs and event-level waitlists, the tier row for tickets. Every
// read-check-write runs inside one transaction so concurrent attempts on the
// same resource queue up behind the lock.
type reservationRepository struct {
	DB *sql.DB
}

func NewReservationRepository(db *sql.DB) domain.ReservationRepository {
	return &reservationRepository{DB: db}
}

func (r *reservationRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func lockEvent(ctx context.Context, tx *sql.Tx, eventID string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func (r *reservationRepository) UpsertRSVP(ctx context.Context, event *domain.Event, userID string, response domain.RSVPResponse) (*domain.EventRSVP, error) {
	rsvp := &domain.EventRSVP{EventID: event.ID, UserID: userID, Response: response}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockEvent(ctx, tx, event.ID); err != nil {
			return err
		}

		if response == domain.RSVPYes && event.MaxAttendees != nil {
			// Confirmed count under the lock, excluding this user's own row so
			// a repeated YES never counts against itself.
			countQuery := `
				SELECT
					(SELECT COUNT(*) FROM event_rsvps WHERE event_id = $1 AND response = 'YES' AND user_id <> $2) +
					(SELECT COUNT(*) FROM tickets WHERE event_id = $1 AND status IN ` + liveTicketStatuses + `)
			`
			var confirmed int
			if err := tx.QueryRowContext(ctx, countQuery, event.ID, userID).Scan(&confirmed); err != nil {
				return err
			}
			if confirmed >= *event.MaxAttendees {
				return domain.ErrEventFull
			}
		}

		query := `
			INSERT INTO event_rsvps (event_id, user_id, response, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (event_id, user_id)
			DO UPDATE SET response = EXCLUDED.response, updated_at = NOW()
			RETURNING id, created_at, updated_at
		`
		return tx.QueryRowContext(ctx, query, event.ID, userID, response).Scan(&rsvp.ID, &rsvp.CreatedAt, &rsvp.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return rsvp, nil
}

func (r *reservationRepository) CreateTicket(ctx context.Context, tier *domain.TicketTier, ticket *domain.Ticket) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var quantity sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT quantity FROM ticket_tiers WHERE id = $1 FOR UPDATE`, tier.ID).Scan(&quantity)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if quantity.Valid {
			var sold int
			countQuery := `SELECT COUNT(*) FROM tickets WHERE tier_id = $1 AND status IN ` + liveTicketStatuses
			if err := tx.QueryRowContext(ctx, countQuery, tier.ID).Scan(&sold); err != nil {
				return err
			}
			if int64(sold) >= quantity.Int64 {
				return domain.ErrSoldOut
			}
		}

		query := `
			INSERT INTO tickets (tier_id, event_id, user_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		return tx.QueryRowContext(ctx, query,
			ticket.TierID, ticket.EventID, ticket.UserID, ticket.Status, ticket.CreatedAt, ticket.UpdatedAt,
		).Scan(&ticket.ID)
	})
}

func (r *reservationRepository) CancelTicket(ctx context.Context, ticketID string) (bool, *domain.Ticket, error) {
	var freed bool
	var ticket *domain.Ticket
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		t := &domain.Ticket{}
		query := `
			SELECT k.id, k.tier_id, k.event_id, k.user_id, k.status, k.created_at, k.updated_at
			FROM tickets k
			JOIN ticket_tiers t ON t.id = k.tier_id
			WHERE k.id = $1
			FOR UPDATE OF t
		`
		err := tx.QueryRowContext(ctx, query, ticketID).Scan(
			&t.ID, &t.TierID, &t.EventID, &t.UserID, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		if t.Status == domain.TicketCancelled {
			ticket = t
			return nil
		}
		freed = true

		update := `
			UPDATE tickets SET status = 'CANCELLED', updated_at = NOW()
			WHERE id = $1
			RETURNING status, updated_at
		`
		if err := tx.QueryRowContext(ctx, update, ticketID).Scan(&t.Status, &t.UpdatedAt); err != nil {
			return err
		}
		ticket = t
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return freed, ticket, nil
}

func (r *reservationRepository) CancelRSVP(ctx context.Context, eventID, userID string) (bool, error) {
	var freed bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockEvent(ctx, tx, eventID); err != nil {
			return err
		}

		var response domain.RSVPResponse
		query := `SELECT response FROM event_rsvps WHERE event_id = $1 AND user_id = $2`
		err := tx.QueryRowContext(ctx, query, eventID, userID).Scan(&response)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		freed = response == domain.RSVPYes

		update := `UPDATE event_rsvps SET response = 'NO', updated_at = NOW() WHERE event_id = $1 AND user_id = $2`
		_, err = tx.ExecContext(ctx, update, eventID, userID)
		return err
	})
	if err != nil {
		return false, err
	}
	return freed, nil
}

func (r *reservationRepository) JoinWaitlist(ctx context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockEvent(ctx, tx, entry.EventID); err != nil {
			return err
		}

		// Idempotent join: an existing unconsumed entry wins.
		existing := `
			SELECT id, created_at
			FROM waitlist_entries
			WHERE event_id = $1 AND user_id = $2 AND tier_id IS NOT DISTINCT FROM $3 AND consumed_at IS NULL
			LIMIT 1
		`
		err := tx.QueryRowContext(ctx, existing, entry.EventID, entry.UserID, entry.TierID).Scan(&entry.ID, &entry.CreatedAt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		insert := `
			INSERT INTO waitlist_entries (event_id, tier_id, user_id, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		return tx.QueryRowContext(ctx, insert, entry.EventID, entry.TierID, entry.UserID, entry.CreatedAt).Scan(&entry.ID)
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *reservationRepository) OfferNext(ctx context.Context, eventID string, tierID *string, claimToken string, claimWindow time.Duration) (*domain.WaitlistEntry, error) {
	var entry *domain.WaitlistEntry
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockEvent(ctx, tx, eventID); err != nil {
			return err
		}

		// Earliest entry with no live or consumed offer. Expired offers are
		// cleared by ExpireOffers, which returns the entry to this pool.
		query := `
			SELECT id, event_id, tier_id, user_id, created_at
			FROM waitlist_entries
			WHERE event_id = $1 AND tier_id IS NOT DISTINCT FROM $2
				AND consumed_at IS NULL AND offered_at IS NULL
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE
		`
		e := &domain.WaitlistEntry{}
		var entryTierID sql.NullString
		err := tx.QueryRowContext(ctx, query, eventID, tierID).Scan(&e.ID, &e.EventID, &entryTierID, &e.UserID, &e.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if entryTierID.Valid {
			e.TierID = &entryTierID.String
		}

		update := `
			UPDATE waitlist_entries
			SET claim_token = $1, offered_at = NOW(), offer_expires_at = NOW() + $2 * INTERVAL '1 second'
			WHERE id = $3
			RETURNING offered_at, offer_expires_at
		`
		var offeredAt, expiresAt time.Time
		if err := tx.QueryRowContext(ctx, update, claimToken, int64(claimWindow.Seconds()), e.ID).Scan(&offeredAt, &expiresAt); err != nil {
			return err
		}
		e.ClaimToken = &claimToken
		e.OfferedAt = &offeredAt
		e.OfferExpiresAt = &expiresAt
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *reservationRepository) ConsumeOffer(ctx context.Context, entryID string) error {
	query := `
		UPDATE waitlist_entries SET consumed_at = NOW()
		WHERE id = $1 AND consumed_at IS NULL AND offer_expires_at > NOW()
	`
	result, err := r.DB.ExecContext(ctx, query, entryID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *reservationRepository) ReleaseOffer(ctx context.Context, entryID string) error {
	query := `
		UPDATE waitlist_entries
		SET consumed_at = NULL, claim_token = NULL, offered_at = NULL, offer_expires_at = NULL
		WHERE id = $1
	`
	_, err := r.DB.ExecContext(ctx, query, entryID)
	return err
}

func (r *reservationRepository) ExpireOffers(ctx context.Context, now time.Time) ([]*domain.WaitlistEntry, error) {
	query := `
		UPDATE waitlist_entries
		SET claim_token = NULL, offered_at = NULL, offer_expires_at = NULL
		WHERE consumed_at IS NULL AND offer_expires_at IS NOT NULL AND offer_expires_at <= $1
		RETURNING id, event_id, tier_id, user_id, created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		e := &domain.WaitlistEntry{}
		var tierID sql.NullString
		if err := rows.Scan(&e.ID, &e.EventID, &tierID, &e.UserID, &e.CreatedAt); err != nil {
			return nil, err
		}
		if tierID.Valid {
			e.TierID = &tierID.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *reservationRepository) ExpirePendingPayments(ctx context.Context, olderThan time.Time) ([]*domain.Ticket, error) {
	query := `
		UPDATE tickets SET status = 'CANCELLED', updated_at = NOW()
		WHERE status = 'PENDING_PAYMENT' AND created_at < $1
		RETURNING id, tier_id, event_id, user_id, status, created_at, updated_at
	`
	rows, err := r.DB.QueryContext(ctx, query, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		t := &domain.Ticket{}
		if err := rows.Scan(&t.ID, &t.TierID, &t.EventID, &t.UserID, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
