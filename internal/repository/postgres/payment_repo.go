package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventadmission/internal/domain"
)

type paymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(db *sql.DB) domain.PaymentRepository {
	return &paymentRepository{DB: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (ticket_id, amount_cents, status, checkout_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		p.TicketID, p.AmountCents, p.Status, p.CheckoutRef, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *paymentRepository) GetByCheckoutRef(ctx context.Context, checkoutRef string) (*domain.Payment, error) {
	query := `
		SELECT id, ticket_id, amount_cents, status, checkout_ref, created_at, updated_at
		FROM payments
		WHERE checkout_ref = $1
	`
	return scanPayment(r.DB.QueryRowContext(ctx, query, checkoutRef))
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	query := `
		UPDATE payments SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, ticket_id, amount_cents, status, checkout_ref, created_at, updated_at
	`
	return scanPayment(r.DB.QueryRowContext(ctx, query, status, id))
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	err := row.Scan(&p.ID, &p.TicketID, &p.AmountCents, &p.Status, &p.CheckoutRef, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}
