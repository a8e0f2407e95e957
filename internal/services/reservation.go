package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"eventadmission/internal/domain"
	"eventadmission/internal/eligibility"
)

type reservationService struct {
	eventRepo       domain.EventRepository
	tierRepo        domain.TicketTierRepository
	ticketRepo      domain.TicketRepository
	paymentRepo     domain.PaymentRepository
	rsvpRepo        domain.EventRSVPRepository
	waitlistRepo    domain.WaitlistRepository
	reservationRepo domain.ReservationRepository
	snapshots       domain.SnapshotReader
	pipeline        *eligibility.Pipeline
	gateway         domain.PaymentGateway
	notifier        domain.Notifier
	logger          *slog.Logger

	claimWindow          time.Duration
	pendingPaymentWindow time.Duration
}

// NewReservationService creates a ReservationService. claimWindow bounds how
// long a waitlist offer stays claimable; pendingPaymentWindow bounds how long
// an unpaid ticket holds inventory.
func NewReservationService(
	eventRepo domain.EventRepository,
	tierRepo domain.TicketTierRepository,
	ticketRepo domain.TicketRepository,
	paymentRepo domain.PaymentRepository,
	rsvpRepo domain.EventRSVPRepository,
	waitlistRepo domain.WaitlistRepository,
	reservationRepo domain.ReservationRepository,
	snapshots domain.SnapshotReader,
	pipeline *eligibility.Pipeline,
	gateway domain.PaymentGateway,
	notifier domain.Notifier,
	logger *slog.Logger,
	claimWindow, pendingPaymentWindow time.Duration,
) domain.ReservationService {
	return &reservationService{
		eventRepo:            eventRepo,
		tierRepo:             tierRepo,
		ticketRepo:           ticketRepo,
		paymentRepo:          paymentRepo,
		rsvpRepo:             rsvpRepo,
		waitlistRepo:         waitlistRepo,
		reservationRepo:      reservationRepo,
		snapshots:            snapshots,
		pipeline:             pipeline,
		gateway:              gateway,
		notifier:             notifier,
		logger:               logger,
		claimWindow:          claimWindow,
		pendingPaymentWindow: pendingPaymentWindow,
	}
}

func (s *reservationService) RSVP(ctx context.Context, eventID, userID string, response domain.RSVPResponse) (*domain.EventRSVP, *domain.EligibilityDecision, error) {
	if !response.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown rsvp response %q", domain.ErrInvalidInput, response)
	}

	snap, err := s.snapshots.Load(ctx, eventID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.Event.RequiresTicket {
		return nil, nil, fmt.Errorf("%w: event requires a ticket", domain.ErrInvalidInput)
	}

	verdict := s.pipeline.Evaluate(snap)
	if verdict.Kind != domain.VerdictAllow {
		return nil, decisionFromVerdict(snap.Event, verdict), nil
	}

	rsvp, err := s.reservationRepo.UpsertRSVP(ctx, snap.Event, userID, response)
	if err != nil {
		if errors.Is(err, domain.ErrEventFull) {
			// Capacity disappeared between gate check and commit.
			return nil, s.fullDenial(snap.Event), nil
		}
		return nil, nil, fmt.Errorf("upsert rsvp: %w", err)
	}

	s.publish(ctx, domain.NotificationEvent{
		Kind:       domain.NotifyRSVPRecorded,
		EventID:    eventID,
		UserID:     userID,
		OccurredAt: time.Now(),
		Data:       map[string]string{"response": string(response)},
	})
	return rsvp, nil, nil
}

func (s *reservationService) GetRSVP(ctx context.Context, eventID, userID string) (*domain.EventRSVP, error) {
	rsvp, err := s.rsvpRepo.GetByEventAndUser(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get rsvp: %w", err)
	}
	return rsvp, nil
}

func (s *reservationService) PurchaseTicket(ctx context.Context, eventID, tierID, userID string) (*domain.Ticket, *domain.EligibilityDecision, error) {
	snap, err := s.snapshots.Load(ctx, eventID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !snap.Event.RequiresTicket {
		return nil, nil, fmt.Errorf("%w: event does not sell tickets", domain.ErrInvalidInput)
	}

	verdict := s.pipeline.Evaluate(snap)
	if verdict.Kind != domain.VerdictAllow {
		return nil, decisionFromVerdict(snap.Event, verdict), nil
	}

	tier, err := s.tierRepo.GetByID(ctx, tierID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get tier: %w", err)
	}
	if tier.EventID != eventID {
		return nil, nil, fmt.Errorf("%w: tier does not belong to event", domain.ErrInvalidInput)
	}
	if !tier.OnSale(snap.Now) {
		return nil, denial(eligibility.ReasonNotOnSale, ""), nil
	}
	if !tier.VisibleTo(snap.ActiveMember() || snap.IsStaff || snap.IsOwner, snap.Invited()) {
		return nil, denial(eligibility.ReasonNotOnSale, ""), nil
	}

	ticket, decision, err := s.createTicket(ctx, snap.Event, tier, userID)
	if err != nil || decision != nil {
		return nil, decision, err
	}

	s.publish(ctx, domain.NotificationEvent{
		Kind:       domain.NotifyTicketCreated,
		EventID:    eventID,
		UserID:     userID,
		OccurredAt: time.Now(),
		Data:       map[string]string{"ticket_id": ticket.ID, "tier_id": tier.ID},
	})
	return ticket, nil, nil
}

// createTicket inserts the ticket under the tier lock and, for online tiers,
// opens a checkout. A gateway failure is propagated; the ticket stays
// PENDING_PAYMENT and is reclaimed by the expiry sweep if never settled.
func (s *reservationService) createTicket(ctx context.Context, event *domain.Event, tier *domain.TicketTier, userID string) (*domain.Ticket, *domain.EligibilityDecision, error) {
	now := time.Now()
	status := domain.TicketActive
	if tier.PaymentMode == domain.PaymentOnline {
		status = domain.TicketPendingPayment
	}
	ticket := &domain.Ticket{
		TierID:    tier.ID,
		EventID:   event.ID,
		UserID:    userID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reservationRepo.CreateTicket(ctx, tier, ticket); err != nil {
		if errors.Is(err, domain.ErrSoldOut) {
			return nil, s.soldOutDenial(event), nil
		}
		return nil, nil, fmt.Errorf("create ticket: %w", err)
	}

	if tier.PaymentMode == domain.PaymentOnline {
		payment := &domain.Payment{
			TicketID:    ticket.ID,
			AmountCents: tier.PriceCents,
			Status:      domain.PaymentPending,
			CheckoutRef: uuid.NewString(),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		ref, err := s.gateway.CreateCheckout(ctx, payment, ticket)
		if err != nil {
			return nil, nil, fmt.Errorf("create checkout: %w", err)
		}
		payment.CheckoutRef = ref
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return nil, nil, fmt.Errorf("create payment: %w", err)
		}
	}
	return ticket, nil, nil
}

func (s *reservationService) JoinWaitlist(ctx context.Context, eventID string, tierID *string, userID string) (*domain.WaitlistEntry, *domain.EligibilityDecision, error) {
	snap, err := s.snapshots.Load(ctx, eventID, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !snap.Event.WaitlistEnabled {
		return nil, nil, fmt.Errorf("%w: waitlist is not enabled", domain.ErrInvalidInput)
	}

	// Joining is open to anyone the pipeline would admit, and to anyone it
	// turns away only for capacity (the deny that points here).
	verdict := s.pipeline.Evaluate(snap)
	if verdict.Kind == domain.VerdictDeny && verdict.NextStep != domain.StepJoinWaitlist {
		return nil, decisionFromVerdict(snap.Event, verdict), nil
	}

	entry := &domain.WaitlistEntry{
		EventID:   eventID,
		TierID:    tierID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	entry, err = s.reservationRepo.JoinWaitlist(ctx, entry)
	if err != nil {
		return nil, nil, fmt.Errorf("join waitlist: %w", err)
	}
	return entry, nil, nil
}

func (s *reservationService) ClaimOffer(ctx context.Context, claimToken, userID string) (*domain.Ticket, *domain.EventRSVP, error) {
	entry, err := s.waitlistRepo.GetByClaimToken(ctx, claimToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get waitlist entry: %w", err)
	}
	if entry.UserID != userID {
		return nil, nil, domain.ErrForbidden
	}
	if !entry.Offered(time.Now()) {
		return nil, nil, fmt.Errorf("%w: offer expired", domain.ErrConflict)
	}

	if err := s.reservationRepo.ConsumeOffer(ctx, entry.ID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: offer expired", domain.ErrConflict)
		}
		return nil, nil, fmt.Errorf("consume offer: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, entry.EventID)
	if err != nil {
		s.releaseOffer(ctx, entry.ID)
		return nil, nil, fmt.Errorf("get event: %w", err)
	}

	if entry.TierID != nil {
		tier, err := s.tierRepo.GetByID(ctx, *entry.TierID)
		if err != nil {
			s.releaseOffer(ctx, entry.ID)
			return nil, nil, fmt.Errorf("get tier: %w", err)
		}
		ticket, decision, err := s.createTicket(ctx, event, tier, userID)
		if err != nil {
			s.releaseOffer(ctx, entry.ID)
			return nil, nil, err
		}
		if decision != nil {
			// The freed slot was taken before the claim committed. The entry
			// goes back in line instead of being silently dropped.
			s.releaseOffer(ctx, entry.ID)
			return nil, nil, fmt.Errorf("%w: slot no longer available", domain.ErrConflict)
		}
		s.publish(ctx, domain.NotificationEvent{
			Kind:       domain.NotifyTicketCreated,
			EventID:    event.ID,
			UserID:     userID,
			OccurredAt: time.Now(),
			Data:       map[string]string{"ticket_id": ticket.ID, "tier_id": tier.ID},
		})
		return ticket, nil, nil
	}

	rsvp, err := s.reservationRepo.UpsertRSVP(ctx, event, userID, domain.RSVPYes)
	if err != nil {
		s.releaseOffer(ctx, entry.ID)
		if errors.Is(err, domain.ErrEventFull) {
			return nil, nil, fmt.Errorf("%w: slot no longer available", domain.ErrConflict)
		}
		return nil, nil, fmt.Errorf("upsert rsvp: %w", err)
	}
	s.publish(ctx, domain.NotificationEvent{
		Kind:       domain.NotifyRSVPRecorded,
		EventID:    event.ID,
		UserID:     userID,
		OccurredAt: time.Now(),
		Data:       map[string]string{"response": string(domain.RSVPYes)},
	})
	return nil, rsvp, nil
}

func (s *reservationService) CancelRSVP(ctx context.Context, eventID, userID string) error {
	freed, err := s.reservationRepo.CancelRSVP(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("cancel rsvp: %w", err)
	}
	if freed {
		s.promoteNext(ctx, eventID, nil)
	}
	return nil
}

func (s *reservationService) CancelTicket(ctx context.Context, ticketID, userID string) error {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get ticket: %w", err)
	}
	if ticket.UserID != userID {
		return domain.ErrForbidden
	}

	freed, ticket, err := s.reservationRepo.CancelTicket(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("cancel ticket: %w", err)
	}
	s.publish(ctx, domain.NotificationEvent{
		Kind:       domain.NotifyTicketCancelled,
		EventID:    ticket.EventID,
		UserID:     userID,
		OccurredAt: time.Now(),
		Data:       map[string]string{"ticket_id": ticket.ID},
	})
	if freed {
		s.promoteNext(ctx, ticket.EventID, &ticket.TierID)
	}
	return nil
}

func (s *reservationService) SettlePayment(ctx context.Context, checkoutRef string, status domain.PaymentStatus) error {
	payment, err := s.paymentRepo.GetByCheckoutRef(ctx, checkoutRef)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get payment: %w", err)
	}
	// Gateways retry webhooks. A payment settles exactly once; later
	// callbacks for the same checkout are acknowledged and ignored.
	if payment.Status != domain.PaymentPending {
		return nil
	}

	switch status {
	case domain.PaymentSucceeded:
		if _, err := s.paymentRepo.UpdateStatus(ctx, payment.ID, domain.PaymentSucceeded); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if _, err := s.ticketRepo.ActivatePending(ctx, payment.TicketID); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// The expiry sweep reclaimed the ticket before the payment
				// landed, and the slot may already be re-sold. The payment is
				// refunded instead of the ticket revived.
				if _, err := s.paymentRepo.UpdateStatus(ctx, payment.ID, domain.PaymentRefunded); err != nil {
					return fmt.Errorf("refund late payment: %w", err)
				}
				return nil
			}
			return fmt.Errorf("activate ticket: %w", err)
		}
	case domain.PaymentFailed, domain.PaymentRefunded:
		if _, err := s.paymentRepo.UpdateStatus(ctx, payment.ID, status); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		freed, ticket, err := s.reservationRepo.CancelTicket(ctx, payment.TicketID)
		if err != nil {
			return fmt.Errorf("cancel ticket: %w", err)
		}
		if freed {
			s.promoteNext(ctx, ticket.EventID, &ticket.TierID)
		}
	}
	return nil
}

// SweepExpirations reclaims slots from lapsed waitlist offers and unpaid
// tickets, cascading each freed slot to the next entry in line.
func (s *reservationService) SweepExpirations(ctx context.Context) error {
	now := time.Now()

	lapsed, err := s.reservationRepo.ExpireOffers(ctx, now)
	if err != nil {
		return fmt.Errorf("expire offers: %w", err)
	}
	for _, entry := range lapsed {
		s.promoteNext(ctx, entry.EventID, entry.TierID)
	}

	stale, err := s.reservationRepo.ExpirePendingPayments(ctx, now.Add(-s.pendingPaymentWindow))
	if err != nil {
		return fmt.Errorf("expire pending payments: %w", err)
	}
	for _, ticket := range stale {
		s.promoteNext(ctx, ticket.EventID, &ticket.TierID)
	}
	return nil
}

// promoteNext offers a freed slot to the earliest waiting entry. Promotion
// failures are logged, not returned: the cancellation that freed the slot has
// already committed, and the next sweep retries the offer.
func (s *reservationService) promoteNext(ctx context.Context, eventID string, tierID *string) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil || !event.WaitlistEnabled {
		if err != nil {
			s.logger.ErrorContext(ctx, "waitlist promotion failed", "event_id", eventID, "err", err)
		}
		return
	}

	token := uuid.NewString()
	entry, err := s.reservationRepo.OfferNext(ctx, eventID, tierID, token, s.claimWindow)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.ErrorContext(ctx, "waitlist promotion failed", "event_id", eventID, "err", err)
		}
		return
	}

	s.publish(ctx, domain.NotificationEvent{
		Kind:       domain.NotifyWaitlistOffer,
		EventID:    eventID,
		UserID:     entry.UserID,
		OccurredAt: time.Now(),
		Data:       map[string]string{"claim_token": token},
	})
}

// releaseOffer puts the entry back in line when a claim could not be
// fulfilled. Failures are logged; the next sweep cannot recover a stuck
// consumed entry, so the error is surfaced loudly.
func (s *reservationService) releaseOffer(ctx context.Context, entryID string) {
	if err := s.reservationRepo.ReleaseOffer(ctx, entryID); err != nil {
		s.logger.ErrorContext(ctx, "release waitlist offer", "entry_id", entryID, "err", err)
	}
}

func (s *reservationService) fullDenial(event *domain.Event) *domain.EligibilityDecision {
	if event.WaitlistEnabled {
		return denial(eligibility.ReasonEventFull, domain.StepJoinWaitlist)
	}
	return denial(eligibility.ReasonEventFull, "")
}

func (s *reservationService) soldOutDenial(event *domain.Event) *domain.EligibilityDecision {
	if event.WaitlistEnabled {
		return denial(eligibility.ReasonSoldOut, domain.StepJoinWaitlist)
	}
	return denial(eligibility.ReasonSoldOut, "")
}

func (s *reservationService) publish(ctx context.Context, event domain.NotificationEvent) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "publish notification", "kind", event.Kind, "err", err)
	}
}
