package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"eventadmission/internal/domain"
)

var inviteEmailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type eventService struct {
	eventRepo      domain.EventRepository
	orgRepo        domain.OrganizationRepository
	tierRepo       domain.TicketTierRepository
	invitationRepo domain.InvitationRepository
	attendeeRepo   domain.AttendeeRepository
	userRepo       domain.UserRepository
	mailer         domain.Mailer
	notifier       domain.Notifier
}

// NewEventService creates the organizer-facing EventService.
func NewEventService(
	eventRepo domain.EventRepository,
	orgRepo domain.OrganizationRepository,
	tierRepo domain.TicketTierRepository,
	invitationRepo domain.InvitationRepository,
	attendeeRepo domain.AttendeeRepository,
	userRepo domain.UserRepository,
	mailer domain.Mailer,
	notifier domain.Notifier,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		orgRepo:        orgRepo,
		tierRepo:       tierRepo,
		invitationRepo: invitationRepo,
		attendeeRepo:   attendeeRepo,
		userRepo:       userRepo,
		mailer:         mailer,
		notifier:       notifier,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, actorID string, event *domain.Event) error {
	if err := s.requireStaff(ctx, event.OrgID, actorID); err != nil {
		return err
	}
	if event.Name == "" {
		return fmt.Errorf("%w: event name is required", domain.ErrInvalidInput)
	}
	if !event.EndsAt.After(event.StartsAt) {
		return fmt.Errorf("%w: event must end after it starts", domain.ErrInvalidInput)
	}
	switch event.Type {
	case domain.EventPublic, domain.EventMembersOnly, domain.EventPrivate:
	default:
		return fmt.Errorf("%w: unknown event type %q", domain.ErrInvalidInput, event.Type)
	}

	event.Status = domain.EventDraft
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) OpenEvent(ctx context.Context, actorID, eventID string) (*domain.Event, error) {
	return s.transition(ctx, actorID, eventID, domain.EventDraft, domain.EventOpen)
}

func (s *eventService) CloseEvent(ctx context.Context, actorID, eventID string) (*domain.Event, error) {
	return s.transition(ctx, actorID, eventID, domain.EventOpen, domain.EventClosed)
}

func (s *eventService) transition(ctx context.Context, actorID, eventID string, from, to domain.EventStatus) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := s.requireStaff(ctx, event.OrgID, actorID); err != nil {
		return nil, err
	}
	if event.Status != from {
		return nil, fmt.Errorf("%w: event is %s, not %s", domain.ErrConflict, event.Status, from)
	}
	event, err = s.eventRepo.UpdateStatus(ctx, eventID, to)
	if err != nil {
		return nil, fmt.Errorf("update event status: %w", err)
	}
	return event, nil
}

func (s *eventService) CreateTier(ctx context.Context, actorID string, tier *domain.TicketTier) error {
	event, err := s.eventRepo.GetByID(ctx, tier.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if err := s.requireStaff(ctx, event.OrgID, actorID); err != nil {
		return err
	}
	if !event.RequiresTicket {
		return fmt.Errorf("%w: event does not sell tickets", domain.ErrInvalidInput)
	}
	if !tier.SalesEndAt.After(tier.SalesStartAt) {
		return fmt.Errorf("%w: sales window must end after it starts", domain.ErrInvalidInput)
	}
	switch tier.PaymentMode {
	case domain.PaymentOnline, domain.PaymentOffline, domain.PaymentFree:
	default:
		return fmt.Errorf("%w: unknown payment mode %q", domain.ErrInvalidInput, tier.PaymentMode)
	}
	if tier.PaymentMode == domain.PaymentFree && tier.PriceCents != 0 {
		return fmt.Errorf("%w: free tiers cannot have a price", domain.ErrInvalidInput)
	}
	if tier.Visibility == "" {
		tier.Visibility = domain.TierPublic
	}

	tier.CreatedAt = time.Now()
	if err := s.tierRepo.Create(ctx, tier); err != nil {
		return fmt.Errorf("create tier: %w", err)
	}
	return nil
}

// Invite invites an email to the event. Registered users get an
// EventInvitation immediately; unknown emails get a pending invitation that
// converts on signup, plus an email so they know to sign up.
func (s *eventService) Invite(ctx context.Context, actorID, eventID, email string, waives []domain.Waiver, expiresAt *time.Time) error {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if err := s.requireStaff(ctx, event.OrgID, actorID); err != nil {
		return err
	}

	email = strings.TrimSpace(strings.ToLower(email))
	if !inviteEmailRegexp.MatchString(email) {
		return fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	for _, w := range waives {
		switch w {
		case domain.WaiveMembership, domain.WaiveAvailability, domain.WaiveRSVPDeadline, domain.WaiveQuestionnaire:
		default:
			return fmt.Errorf("%w: unknown waiver %q", domain.ErrInvalidInput, w)
		}
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get user: %w", err)
	}

	now := time.Now()
	if user != nil {
		inv := &domain.EventInvitation{
			EventID:   eventID,
			UserID:    user.ID,
			Waives:    waives,
			ExpiresAt: expiresAt,
			CreatedAt: now,
		}
		if err := s.invitationRepo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invitation: %w", err)
		}
		_ = s.notifier.Publish(ctx, domain.NotificationEvent{
			Kind:       domain.NotifyInvitationCreated,
			EventID:    eventID,
			UserID:     user.ID,
			OccurredAt: now,
		})
		return nil
	}

	pending := &domain.PendingEventInvitation{
		EventID:   eventID,
		Email:     email,
		Waives:    waives,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.invitationRepo.CreatePending(ctx, pending); err != nil {
		return fmt.Errorf("create pending invitation: %w", err)
	}
	subject := fmt.Sprintf("You're invited to %s", event.Name)
	text := fmt.Sprintf("You have been invited to %s. Sign up with this email address to accept.", event.Name)
	if err := s.mailer.Send(email, subject, "", text); err != nil {
		return fmt.Errorf("send invitation email: %w", err)
	}
	return nil
}

func (s *eventService) ListAttendees(ctx context.Context, actorID, eventID string, p domain.PaginationParams) ([]*domain.Attendee, int, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	if err := s.requireStaff(ctx, event.OrgID, actorID); err != nil {
		return nil, 0, err
	}
	attendees, total, err := s.attendeeRepo.ListByEventID(ctx, eventID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	if attendees == nil {
		attendees = []*domain.Attendee{}
	}
	return attendees, total, nil
}

func (s *eventService) requireStaff(ctx context.Context, orgID, userID string) error {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get organization: %w", err)
	}
	if org.OwnerID == userID {
		return nil
	}
	staff, err := s.orgRepo.IsStaff(ctx, orgID, userID)
	if err != nil {
		return fmt.Errorf("check staff: %w", err)
	}
	if !staff {
		return domain.ErrForbidden
	}
	return nil
}
