package notify

import (
	"context"
	"fmt"
	"log/slog"

	"eventadmission/internal/domain"
)

type logNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a Notifier that records events in the structured log.
// Used in development and as the fallback when no mailer is configured.
func NewLogNotifier(logger *slog.Logger) domain.Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Publish(ctx context.Context, event domain.NotificationEvent) error {
	n.logger.InfoContext(ctx, "notification",
		"kind", event.Kind,
		"event_id", event.EventID,
		"user_id", event.UserID,
	)
	return nil
}

type emailNotifier struct {
	mailer   domain.Mailer
	userRepo domain.UserRepository
	logger   *slog.Logger
	baseURL  string
}

// NewEmailNotifier returns a Notifier that turns notification events into
// emails. Events without a recipient are logged and dropped.
func NewEmailNotifier(mailer domain.Mailer, userRepo domain.UserRepository, logger *slog.Logger, baseURL string) domain.Notifier {
	return &emailNotifier{mailer: mailer, userRepo: userRepo, logger: logger, baseURL: baseURL}
}

func (n *emailNotifier) Publish(ctx context.Context, event domain.NotificationEvent) error {
	to := event.Email
	if to == "" && event.UserID != "" {
		user, err := n.userRepo.GetByID(ctx, event.UserID)
		if err != nil {
			return fmt.Errorf("resolve recipient: %w", err)
		}
		to = user.Email
	}
	if to == "" {
		n.logger.WarnContext(ctx, "notification has no recipient", "kind", event.Kind)
		return nil
	}

	subject, text := n.render(event)
	if err := n.mailer.Send(to, subject, "", text); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}
	return nil
}

func (n *emailNotifier) render(event domain.NotificationEvent) (subject, text string) {
	switch event.Kind {
	case domain.NotifyTicketCreated:
		return "Your ticket is confirmed", "Your ticket has been issued. See you there!"
	case domain.NotifyTicketCancelled:
		return "Your ticket was cancelled", "Your ticket has been cancelled."
	case domain.NotifyRSVPRecorded:
		return "RSVP recorded", fmt.Sprintf("Your RSVP (%s) has been recorded.", event.Data["response"])
	case domain.NotifyWaitlistOffer:
		claimURL := fmt.Sprintf("%s/waitlist/claim/%s", n.baseURL, event.Data["claim_token"])
		return "A spot opened up", fmt.Sprintf("A spot is being held for you. Claim it before it expires: %s", claimURL)
	case domain.NotifyQuestionnaireEvaluated:
		return "Questionnaire result", fmt.Sprintf("Your questionnaire was %s.", event.Data["status"])
	case domain.NotifyInvitationCreated:
		return "You're invited", "You have been invited to an event."
	default:
		return string(event.Kind), "You have a new notification."
	}
}
