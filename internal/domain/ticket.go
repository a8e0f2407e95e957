package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for capacity outcomes. Both are expected denials surfaced
// as data at the API boundary, not faults.
var (
	ErrEventFull = errors.New("event is full")
	ErrSoldOut   = errors.New("sold out")
)

// PaymentMode is how a ticket tier is paid for.
type PaymentMode string

const (
	PaymentOnline  PaymentMode = "online"
	PaymentOffline PaymentMode = "offline"
	PaymentFree    PaymentMode = "free"
)

// TierVisibility controls who can see and buy a tier.
type TierVisibility string

const (
	TierPublic         TierVisibility = "public"
	TierMembersOnly    TierVisibility = "members-only"
	TierInvitationOnly TierVisibility = "invitation-only"
)

// TicketTier is a purchasable category for an event with its own price,
// inventory, and sales window.
// swagger:model TicketTier
type TicketTier struct {
	ID           string         `json:"id"`
	EventID      string         `json:"event_id"`
	Name         string         `json:"name"`
	PriceCents   int            `json:"price_cents"`
	PWYCMinCents *int           `json:"pwyc_min_cents,omitempty"`
	PWYCMaxCents *int           `json:"pwyc_max_cents,omitempty"`
	PaymentMode  PaymentMode    `json:"payment_mode"`
	SalesStartAt time.Time      `json:"sales_start_at"`
	SalesEndAt   time.Time      `json:"sales_end_at"`
	Quantity     *int           `json:"quantity,omitempty"`
	Visibility   TierVisibility `json:"visibility"`
	// SoldCount is the live count of tickets holding inventory
	// (PENDING_PAYMENT, ACTIVE, CHECKED_IN). Populated on read.
	SoldCount int       `json:"sold_count"`
	CreatedAt time.Time `json:"created_at"`
}

// OnSale reports whether the tier's sales window covers the given instant.
func (t *TicketTier) OnSale(now time.Time) bool {
	return !now.Before(t.SalesStartAt) && !now.After(t.SalesEndAt)
}

// SoldOut reports whether the tier has no inventory left. Unlimited tiers are never sold out.
func (t *TicketTier) SoldOut() bool {
	return t.Quantity != nil && t.SoldCount >= *t.Quantity
}

// VisibleTo reports whether the tier is purchasable given the user's
// membership and invitation standing.
func (t *TicketTier) VisibleTo(activeMember, invited bool) bool {
	switch t.Visibility {
	case TierMembersOnly:
		return activeMember
	case TierInvitationOnly:
		return invited
	default:
		return true
	}
}

// TicketStatus is the lifecycle state of a ticket. PENDING_PAYMENT, ACTIVE,
// and CHECKED_IN all hold tier inventory.
type TicketStatus string

const (
	TicketPendingPayment TicketStatus = "PENDING_PAYMENT"
	TicketActive         TicketStatus = "ACTIVE"
	TicketCheckedIn      TicketStatus = "CHECKED_IN"
	TicketCancelled      TicketStatus = "CANCELLED"
)

// Ticket is one admission to an event, bought from a tier.
// swagger:model Ticket
type Ticket struct {
	ID        string       `json:"id"`
	TierID    string       `json:"tier_id"`
	EventID   string       `json:"event_id"`
	UserID    string       `json:"user_id"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// PaymentStatus is the state of an online payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentSucceeded PaymentStatus = "SUCCEEDED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment is linked 1:1 to a ticket that requires online payment.
// swagger:model Payment
type Payment struct {
	ID          string        `json:"id"`
	TicketID    string        `json:"ticket_id"`
	AmountCents int           `json:"amount_cents"`
	Status      PaymentStatus `json:"status"`
	CheckoutRef string        `json:"checkout_ref"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TicketTierRepository defines storage operations for ticket tiers.
type TicketTierRepository interface {
	Create(ctx context.Context, tier *TicketTier) error
	GetByID(ctx context.Context, id string) (*TicketTier, error)
	// ListByEventID returns tiers with SoldCount populated.
	ListByEventID(ctx context.Context, eventID string) ([]*TicketTier, error)
}

// TicketRepository defines storage operations for tickets.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*Ticket, error)
	GetLiveByEventAndUser(ctx context.Context, eventID, userID string) (*Ticket, error)
	UpdateStatus(ctx context.Context, id string, status TicketStatus) (*Ticket, error)
	// ActivatePending flips a PENDING_PAYMENT ticket to ACTIVE. Returns
	// ErrConflict unless the ticket is currently PENDING_PAYMENT, so a late
	// payment cannot revive a ticket the expiry sweep already cancelled.
	ActivatePending(ctx context.Context, id string) (*Ticket, error)
}

// PaymentRepository defines storage operations for payments.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	GetByCheckoutRef(ctx context.Context, checkoutRef string) (*Payment, error)
	UpdateStatus(ctx context.Context, id string, status PaymentStatus) (*Payment, error)
}

// PaymentGateway is the outbound port to the payment provider. The gateway
// receives a pending payment and returns a checkout reference the client
// completes out of band; a webhook later settles the payment.
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, payment *Payment, ticket *Ticket) (checkoutRef string, err error)
}
