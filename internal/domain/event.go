package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft  EventStatus = "DRAFT"
	EventOpen   EventStatus = "OPEN"
	EventClosed EventStatus = "CLOSED"
)

// EventType controls which relational gate applies to an event.
type EventType string

const (
	EventPublic      EventType = "PUBLIC"
	EventMembersOnly EventType = "MEMBERS_ONLY"
	EventPrivate     EventType = "PRIVATE"
)

// Event represents a single event hosted by an organization.
// swagger:model Event
type Event struct {
	ID              string      `json:"id"`
	OrgID           string      `json:"org_id"`
	Name            string      `json:"name"`
	Status          EventStatus `json:"status"`
	Type            EventType   `json:"type"`
	StartsAt        time.Time   `json:"starts_at"`
	EndsAt          time.Time   `json:"ends_at"`
	RequiresTicket  bool        `json:"requires_ticket"`
	RSVPBefore      *time.Time  `json:"rsvp_before,omitempty"`
	MaxAttendees    *int        `json:"max_attendees,omitempty"`
	WaitlistEnabled bool        `json:"waitlist_enabled"`
	PotluckEnabled  bool        `json:"potluck_enabled"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// NewEvent returns a new draft Event. ID is set by the repository on create.
func NewEvent(orgID, name string, eventType EventType, startsAt, endsAt time.Time) *Event {
	now := time.Now()
	return &Event{
		OrgID:     orgID,
		Name:      name,
		Status:    EventDraft,
		Type:      eventType,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Finished reports whether the event is over at the given instant.
func (e *Event) Finished(now time.Time) bool {
	return e.Status == EventClosed || (!e.EndsAt.IsZero() && now.After(e.EndsAt))
}

// EventRepository defines storage operations for events.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOrgID(ctx context.Context, orgID string) ([]*Event, error)
	UpdateStatus(ctx context.Context, id string, status EventStatus) (*Event, error)
	// ListQuestionnaireIDs returns the IDs of questionnaires required for admission, in link order.
	ListQuestionnaireIDs(ctx context.Context, eventID string) ([]string, error)
}

// Attendee is a confirmed attendee row for organizer listings: either a YES
// RSVP or a live ticket holder.
// swagger:model Attendee
type Attendee struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Kind      string    `json:"kind"` // "rsvp" or "ticket"
	CreatedAt time.Time `json:"created_at"`
}

// AttendeeRepository lists confirmed attendees for an event.
type AttendeeRepository interface {
	ListByEventID(ctx context.Context, eventID string, p PaginationParams) ([]*Attendee, int, error)
	// CountConfirmed returns the number of confirmed attendees counted against
	// max_attendees: YES RSVPs plus PENDING_PAYMENT/ACTIVE/CHECKED_IN tickets.
	CountConfirmed(ctx context.Context, eventID string) (int, error)
}

// EventService defines organizer-facing event management.
type EventService interface {
	CreateEvent(ctx context.Context, actorID string, event *Event) error
	OpenEvent(ctx context.Context, actorID, eventID string) (*Event, error)
	CloseEvent(ctx context.Context, actorID, eventID string) (*Event, error)
	CreateTier(ctx context.Context, actorID string, tier *TicketTier) error
	// Invite invites a user by email. Registered users get an EventInvitation,
	// unknown emails get a PendingEventInvitation plus a notification email.
	Invite(ctx context.Context, actorID, eventID, email string, waives []Waiver, expiresAt *time.Time) error
	ListAttendees(ctx context.Context, actorID, eventID string, p PaginationParams) ([]*Attendee, int, error)
}
