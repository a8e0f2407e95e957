package domain

import (
	"context"
	"time"
)

// WaitlistEntry is a user's place in line for an event or tier. Entries are
// FIFO by creation time. When a slot frees, the earliest unconsumed entry is
// offered the slot via a time-boxed claim window; unclaimed offers expire and
// cascade to the next entry.
// swagger:model WaitlistEntry
type WaitlistEntry struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	TierID         *string    `json:"tier_id,omitempty"`
	UserID         string     `json:"user_id"`
	ClaimToken     *string    `json:"-"`
	OfferedAt      *time.Time `json:"offered_at,omitempty"`
	OfferExpiresAt *time.Time `json:"offer_expires_at,omitempty"`
	ConsumedAt     *time.Time `json:"consumed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Offered reports whether the entry currently holds a live offer.
func (w *WaitlistEntry) Offered(now time.Time) bool {
	return w.OfferedAt != nil && w.ConsumedAt == nil &&
		w.OfferExpiresAt != nil && now.Before(*w.OfferExpiresAt)
}

// WaitlistRepository defines read operations for waitlist entries. Joining,
// offering, claiming, and expiry go through the ReservationRepository because
// they race with reservations for the same slot.
type WaitlistRepository interface {
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*WaitlistEntry, error)
	GetByClaimToken(ctx context.Context, token string) (*WaitlistEntry, error)
	ListByEventID(ctx context.Context, eventID string) ([]*WaitlistEntry, error)
}
