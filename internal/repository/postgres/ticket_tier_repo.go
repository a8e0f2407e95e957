package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventadmission/internal/domain"
)

// liveTicketStatuses are the ticket states that hold tier inventory.
const liveTicketStatuses = `('PENDING_PAYMENT', 'ACTIVE', 'CHECKED_IN')`

type ticketTierRepository struct {
	DB *sql.DB
}

func NewTicketTierRepository(db *sql.DB) domain.TicketTierRepository {
	return &ticketTierRepository{DB: db}
}

func (r *ticketTierRepository) Create(ctx context.Context, t *domain.TicketTier) error {
	query := `
		INSERT INTO ticket_tiers (event_id, name, price_cents, pwyc_min_cents, pwyc_max_cents, payment_mode, sales_start_at, sales_end_at, quantity, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		t.EventID, t.Name, t.PriceCents, t.PWYCMinCents, t.PWYCMaxCents, t.PaymentMode,
		t.SalesStartAt, t.SalesEndAt, t.Quantity, t.Visibility, t.CreatedAt,
	).Scan(&t.ID)
}

func (r *ticketTierRepository) GetByID(ctx context.Context, id string) (*domain.TicketTier, error) {
	query := `
		SELECT t.id, t.event_id, t.name, t.price_cents, t.pwyc_min_cents, t.pwyc_max_cents, t.payment_mode, t.sales_start_at, t.sales_end_at, t.quantity, t.visibility, t.created_at,
			(SELECT COUNT(*) FROM tickets k WHERE k.tier_id = t.id AND k.status IN ` + liveTicketStatuses + `) AS sold_count
		FROM ticket_tiers t
		WHERE t.id = $1
	`
	return scanTier(r.DB.QueryRowContext(ctx, query, id))
}

func (r *ticketTierRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.TicketTier, error) {
	query := `
		SELECT t.id, t.event_id, t.name, t.price_cents, t.pwyc_min_cents, t.pwyc_max_cents, t.payment_mode, t.sales_start_at, t.sales_end_at, t.quantity, t.visibility, t.created_at,
			(SELECT COUNT(*) FROM tickets k WHERE k.tier_id = t.id AND k.status IN ` + liveTicketStatuses + `) AS sold_count
		FROM ticket_tiers t
		WHERE t.event_id = $1
		ORDER BY t.price_cents, t.created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tiers := make([]*domain.TicketTier, 0)
	for rows.Next() {
		t, err := scanTier(rows)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func scanTier(row rowScanner) (*domain.TicketTier, error) {
	t := &domain.TicketTier{}
	var pwycMin, pwycMax, quantity sql.NullInt64
	err := row.Scan(
		&t.ID, &t.EventID, &t.Name, &t.PriceCents, &pwycMin, &pwycMax, &t.PaymentMode,
		&t.SalesStartAt, &t.SalesEndAt, &quantity, &t.Visibility, &t.CreatedAt, &t.SoldCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if pwycMin.Valid {
		n := int(pwycMin.Int64)
		t.PWYCMinCents = &n
	}
	if pwycMax.Valid {
		n := int(pwycMax.Int64)
		t.PWYCMaxCents = &n
	}
	if quantity.Valid {
		n := int(quantity.Int64)
		t.Quantity = &n
	}
	return t, nil
}
