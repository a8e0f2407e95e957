package domain

import (
	"context"
	"time"
)

// Waiver names a gate check an invitation can skip. Waivers are a capability
// set carried by the invitation, so a new waivable check only adds a value
// here, not a column.
type Waiver string

const (
	WaiveMembership    Waiver = "membership"
	WaiveAvailability  Waiver = "availability"
	WaiveRSVPDeadline  Waiver = "rsvp_deadline"
	WaiveQuestionnaire Waiver = "questionnaire"
)

// EventInvitation grants a registered user access to one event, optionally
// waiving a subset of admission checks.
// swagger:model EventInvitation
type EventInvitation struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	UserID    string     `json:"user_id"`
	Waives    []Waiver   `json:"waives"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Live reports whether the invitation is usable at the given instant.
func (i *EventInvitation) Live(now time.Time) bool {
	if i == nil {
		return false
	}
	return i.ExpiresAt == nil || now.Before(*i.ExpiresAt)
}

// WaivesCheck reports whether the invitation is live and waives the given check.
func (i *EventInvitation) WaivesCheck(w Waiver, now time.Time) bool {
	if !i.Live(now) {
		return false
	}
	for _, have := range i.Waives {
		if have == w {
			return true
		}
	}
	return false
}

// PendingEventInvitation is an invitation addressed to an email with no
// account yet. It converts to an EventInvitation when the user signs up.
// swagger:model PendingEventInvitation
type PendingEventInvitation struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	Email     string     `json:"email"`
	Waives    []Waiver   `json:"waives"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// InvitationRepository defines storage operations for event invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *EventInvitation) error
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*EventInvitation, error)
	CreatePending(ctx context.Context, inv *PendingEventInvitation) error
	ListPendingByEmail(ctx context.Context, email string) ([]*PendingEventInvitation, error)
	// DeletePending removes a pending invitation, typically after conversion.
	DeletePending(ctx context.Context, id string) error
}
