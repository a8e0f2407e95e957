package domain

import (
	"context"
	"time"
)

// ReservationRepository owns every state change that consumes or frees
// capacity. Each method runs its read-check-write inside one transaction
// holding a row lock on the contended resource (the event row for RSVPs and
// event-level waitlists, the tier row for tickets), so concurrent attempts on
// the same resource serialize instead of racing. Attempts on different
// resources do not block each other.
type ReservationRepository interface {
	// UpsertRSVP records the user's response, superseding any previous one.
	// When the response is YES and the event has max_attendees, the confirmed
	// count is re-checked under the event lock; ErrEventFull on overflow.
	UpsertRSVP(ctx context.Context, event *Event, userID string, response RSVPResponse) (*EventRSVP, error)

	// CreateTicket inserts a ticket after re-counting the tier's live tickets
	// under the tier lock; ErrSoldOut when the cap is reached.
	CreateTicket(ctx context.Context, tier *TicketTier, ticket *Ticket) error

	// CancelTicket marks the ticket CANCELLED under the tier lock and reports
	// whether a slot was freed (false when already cancelled).
	CancelTicket(ctx context.Context, ticketID string) (freed bool, ticket *Ticket, err error)

	// CancelRSVP flips a YES RSVP to NO under the event lock and reports
	// whether a confirmed slot was freed.
	CancelRSVP(ctx context.Context, eventID, userID string) (freed bool, err error)

	// JoinWaitlist appends the user to the FIFO waitlist for the event or
	// tier. Idempotent: an existing unconsumed entry is returned unchanged.
	JoinWaitlist(ctx context.Context, entry *WaitlistEntry) (*WaitlistEntry, error)

	// OfferNext offers a freed slot to the earliest unconsumed, unoffered
	// entry, stamping a claim token and a claim window. Runs under the
	// resource lock so one freed slot produces at most one live offer.
	// Returns ErrNotFound when the waitlist is empty.
	OfferNext(ctx context.Context, eventID string, tierID *string, claimToken string, claimWindow time.Duration) (*WaitlistEntry, error)

	// ConsumeOffer marks an offered entry consumed under the resource lock.
	// Returns ErrConflict if the offer already expired or was consumed.
	ConsumeOffer(ctx context.Context, entryID string) error

	// ReleaseOffer returns a consumed-but-unfulfilled entry to the offer pool
	// by clearing its offer and consumption marks, preserving its place in
	// line. Used when the slot vanished between consuming the offer and
	// committing the reservation.
	ReleaseOffer(ctx context.Context, entryID string) error

	// ExpireOffers clears offers whose claim window has passed and returns
	// the affected entries so the caller can cascade to the next in line.
	ExpireOffers(ctx context.Context, now time.Time) ([]*WaitlistEntry, error)

	// ExpirePendingPayments cancels PENDING_PAYMENT tickets older than the
	// window and returns them so freed slots can cascade to waitlists.
	ExpirePendingPayments(ctx context.Context, olderThan time.Time) ([]*Ticket, error)
}

// ReservationService converts an Allow verdict into durable records and keeps
// the waitlist moving. Every denial reuses the eligibility vocabulary so
// "can I?" and "did it work?" never disagree.
type ReservationService interface {
	RSVP(ctx context.Context, eventID, userID string, response RSVPResponse) (*EventRSVP, *EligibilityDecision, error)
	// GetRSVP returns the user's current RSVP for the event, or ErrNotFound
	// when the user never responded.
	GetRSVP(ctx context.Context, eventID, userID string) (*EventRSVP, error)
	PurchaseTicket(ctx context.Context, eventID, tierID, userID string) (*Ticket, *EligibilityDecision, error)
	JoinWaitlist(ctx context.Context, eventID string, tierID *string, userID string) (*WaitlistEntry, *EligibilityDecision, error)
	ClaimOffer(ctx context.Context, claimToken, userID string) (*Ticket, *EventRSVP, error)
	CancelRSVP(ctx context.Context, eventID, userID string) error
	CancelTicket(ctx context.Context, ticketID, userID string) error
	// SettlePayment applies a payment gateway callback to the payment and its ticket.
	SettlePayment(ctx context.Context, checkoutRef string, status PaymentStatus) error
	// SweepExpirations expires stale waitlist offers and pending payments,
	// cascading freed slots to the next entries. Run periodically.
	SweepExpirations(ctx context.Context) error
}
