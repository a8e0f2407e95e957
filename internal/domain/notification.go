package domain

import (
	"context"
	"time"
)

// NotificationKind names a terminal state change published on the bus.
type NotificationKind string

const (
	NotifyTicketCreated          NotificationKind = "ticket.created"
	NotifyTicketCancelled        NotificationKind = "ticket.cancelled"
	NotifyRSVPRecorded           NotificationKind = "rsvp.recorded"
	NotifyWaitlistOffer          NotificationKind = "waitlist.offer"
	NotifyQuestionnaireEvaluated NotificationKind = "questionnaire.evaluated"
	NotifyInvitationCreated      NotificationKind = "invitation.created"
)

// NotificationEvent is the stable payload shape published for every terminal
// state change. Delivery and formatting are downstream concerns.
type NotificationEvent struct {
	Kind       NotificationKind  `json:"kind"`
	EventID    string            `json:"event_id,omitempty"`
	UserID     string            `json:"user_id,omitempty"`
	Email      string            `json:"email,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Data       map[string]string `json:"data,omitempty"`
}

// Notifier is the outbound port to the notification bus.
type Notifier interface {
	Publish(ctx context.Context, event NotificationEvent) error
}

// Mailer sends a single email. Implementations may use SES or a no-op for development.
type Mailer interface {
	Send(to, subject, html, text string) error
}
