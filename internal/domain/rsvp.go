package domain

import (
	"context"
	"time"
)

// RSVPResponse is the attendee's answer to a non-ticketed event.
type RSVPResponse string

const (
	RSVPYes   RSVPResponse = "YES"
	RSVPNo    RSVPResponse = "NO"
	RSVPMaybe RSVPResponse = "MAYBE"
)

// Valid reports whether the response is one of YES, NO, MAYBE.
func (r RSVPResponse) Valid() bool {
	return r == RSVPYes || r == RSVPNo || r == RSVPMaybe
}

// EventRSVP is a user's current answer for an event. There is at most one per
// (event, user); a repeat RSVP supersedes it.
// swagger:model EventRSVP
type EventRSVP struct {
	ID        string       `json:"id"`
	EventID   string       `json:"event_id"`
	UserID    string       `json:"user_id"`
	Response  RSVPResponse `json:"response"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// EventRSVPRepository defines read operations for RSVPs. Writes go through
// the ReservationRepository because a YES RSVP consumes capacity.
type EventRSVPRepository interface {
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*EventRSVP, error)
}
