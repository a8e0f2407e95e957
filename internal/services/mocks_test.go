package services

import (
	"context"
	"time"

	"eventadmission/internal/domain"
)

// Hand-rolled mocks for the domain interfaces the services depend on.

type mockSnapshots struct {
	snap *domain.Snapshot
	err  error
}

func (m *mockSnapshots) Load(ctx context.Context, eventID, userID string) (*domain.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.snap, nil
}

type mockEventRepo struct {
	events map[string]*domain.Event
	qlinks map[string][]string
	err    error
}

func (m *mockEventRepo) Create(ctx context.Context, event *domain.Event) error {
	event.ID = "e-new"
	return m.err
}

func (m *mockEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (m *mockEventRepo) ListByOrgID(ctx context.Context, orgID string) ([]*domain.Event, error) {
	return nil, nil
}

func (m *mockEventRepo) UpdateStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ev.Status = status
	return ev, nil
}

func (m *mockEventRepo) ListQuestionnaireIDs(ctx context.Context, eventID string) ([]string, error) {
	return m.qlinks[eventID], nil
}

type mockOrgRepo struct {
	orgs        map[string]*domain.Organization
	staff       map[string]bool // key "org:user"
	memberships map[string]*domain.Membership
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	org, ok := m.orgs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func (m *mockOrgRepo) GetMembership(ctx context.Context, orgID, userID string) (*domain.Membership, error) {
	mem, ok := m.memberships[orgID+":"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return mem, nil
}

func (m *mockOrgRepo) IsStaff(ctx context.Context, orgID, userID string) (bool, error) {
	return m.staff[orgID+":"+userID], nil
}

type mockInvitationRepo struct {
	byEventUser    map[string]*domain.EventInvitation
	pendingByEmail map[string][]*domain.PendingEventInvitation
	created        []*domain.EventInvitation
	createdPending []*domain.PendingEventInvitation
	deletedPending []string
}

func (m *mockInvitationRepo) Create(ctx context.Context, inv *domain.EventInvitation) error {
	inv.ID = "inv-new"
	m.created = append(m.created, inv)
	return nil
}

func (m *mockInvitationRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventInvitation, error) {
	inv, ok := m.byEventUser[eventID+":"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return inv, nil
}

func (m *mockInvitationRepo) CreatePending(ctx context.Context, inv *domain.PendingEventInvitation) error {
	inv.ID = "pinv-new"
	m.createdPending = append(m.createdPending, inv)
	return nil
}

func (m *mockInvitationRepo) ListPendingByEmail(ctx context.Context, email string) ([]*domain.PendingEventInvitation, error) {
	return m.pendingByEmail[email], nil
}

func (m *mockInvitationRepo) DeletePending(ctx context.Context, id string) error {
	m.deletedPending = append(m.deletedPending, id)
	return nil
}

type mockAttendeeRepo struct {
	counts map[string]int
}

func (m *mockAttendeeRepo) ListByEventID(ctx context.Context, eventID string, p domain.PaginationParams) ([]*domain.Attendee, int, error) {
	return nil, 0, nil
}

func (m *mockAttendeeRepo) CountConfirmed(ctx context.Context, eventID string) (int, error) {
	return m.counts[eventID], nil
}

type mockTierRepo struct {
	tiers   map[string]*domain.TicketTier
	byEvent map[string][]*domain.TicketTier
	created []*domain.TicketTier
}

func (m *mockTierRepo) Create(ctx context.Context, tier *domain.TicketTier) error {
	tier.ID = "tier-new"
	m.created = append(m.created, tier)
	return nil
}

func (m *mockTierRepo) GetByID(ctx context.Context, id string) (*domain.TicketTier, error) {
	tier, ok := m.tiers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tier, nil
}

func (m *mockTierRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.TicketTier, error) {
	return m.byEvent[eventID], nil
}

type mockTicketRepo struct {
	tickets map[string]*domain.Ticket
	updated []string
}

func (m *mockTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	tk, ok := m.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tk, nil
}

func (m *mockTicketRepo) GetLiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Ticket, error) {
	return nil, domain.ErrNotFound
}

func (m *mockTicketRepo) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, error) {
	tk, ok := m.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	tk.Status = status
	m.updated = append(m.updated, id)
	return tk, nil
}

func (m *mockTicketRepo) ActivatePending(ctx context.Context, id string) (*domain.Ticket, error) {
	tk, ok := m.tickets[id]
	if !ok || tk.Status != domain.TicketPendingPayment {
		return nil, domain.ErrConflict
	}
	tk.Status = domain.TicketActive
	m.updated = append(m.updated, id)
	return tk, nil
}

type mockPaymentRepo struct {
	byRef   map[string]*domain.Payment
	created []*domain.Payment
	updated []domain.PaymentStatus
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	payment.ID = "pay-new"
	m.created = append(m.created, payment)
	return nil
}

func (m *mockPaymentRepo) GetByCheckoutRef(ctx context.Context, checkoutRef string) (*domain.Payment, error) {
	p, ok := m.byRef[checkoutRef]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPaymentRepo) UpdateStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Payment, error) {
	m.updated = append(m.updated, status)
	return &domain.Payment{ID: id, Status: status}, nil
}

type mockRSVPRepo struct {
	byEventUser map[string]*domain.EventRSVP // key "event:user"
}

func (m *mockRSVPRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.EventRSVP, error) {
	r, ok := m.byEventUser[eventID+":"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

type mockWaitlistRepo struct {
	byToken map[string]*domain.WaitlistEntry
}

func (m *mockWaitlistRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.WaitlistEntry, error) {
	return nil, domain.ErrNotFound
}

func (m *mockWaitlistRepo) GetByClaimToken(ctx context.Context, token string) (*domain.WaitlistEntry, error) {
	e, ok := m.byToken[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (m *mockWaitlistRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.WaitlistEntry, error) {
	return nil, nil
}

type mockReservationRepo struct {
	rsvpErr      error
	ticketErr    error
	cancelFreed  bool
	cancelTicket *domain.Ticket

	offerQueue  []*domain.WaitlistEntry
	offerCalls  int
	joined      []*domain.WaitlistEntry
	consumed    []string
	consumeErr  error
	released    []string
	lapsed      []*domain.WaitlistEntry
	staleTicket []*domain.Ticket
}

func (m *mockReservationRepo) UpsertRSVP(ctx context.Context, event *domain.Event, userID string, response domain.RSVPResponse) (*domain.EventRSVP, error) {
	if m.rsvpErr != nil {
		return nil, m.rsvpErr
	}
	return &domain.EventRSVP{ID: "rsvp-1", EventID: event.ID, UserID: userID, Response: response}, nil
}

func (m *mockReservationRepo) CreateTicket(ctx context.Context, tier *domain.TicketTier, ticket *domain.Ticket) error {
	if m.ticketErr != nil {
		return m.ticketErr
	}
	ticket.ID = "tk-new"
	return nil
}

func (m *mockReservationRepo) CancelTicket(ctx context.Context, ticketID string) (bool, *domain.Ticket, error) {
	return m.cancelFreed, m.cancelTicket, nil
}

func (m *mockReservationRepo) CancelRSVP(ctx context.Context, eventID, userID string) (bool, error) {
	return m.cancelFreed, nil
}

func (m *mockReservationRepo) JoinWaitlist(ctx context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	entry.ID = "wl-new"
	m.joined = append(m.joined, entry)
	return entry, nil
}

func (m *mockReservationRepo) OfferNext(ctx context.Context, eventID string, tierID *string, claimToken string, claimWindow time.Duration) (*domain.WaitlistEntry, error) {
	m.offerCalls++
	if len(m.offerQueue) == 0 {
		return nil, domain.ErrNotFound
	}
	entry := m.offerQueue[0]
	m.offerQueue = m.offerQueue[1:]
	return entry, nil
}

func (m *mockReservationRepo) ConsumeOffer(ctx context.Context, entryID string) error {
	if m.consumeErr != nil {
		return m.consumeErr
	}
	m.consumed = append(m.consumed, entryID)
	return nil
}

func (m *mockReservationRepo) ReleaseOffer(ctx context.Context, entryID string) error {
	m.released = append(m.released, entryID)
	return nil
}

func (m *mockReservationRepo) ExpireOffers(ctx context.Context, now time.Time) ([]*domain.WaitlistEntry, error) {
	return m.lapsed, nil
}

func (m *mockReservationRepo) ExpirePendingPayments(ctx context.Context, olderThan time.Time) ([]*domain.Ticket, error) {
	return m.staleTicket, nil
}

type mockQuestionnaireRepo struct {
	questionnaires map[string]*domain.Questionnaire
	questions      map[string][]*domain.Question
	submissions    map[string]*domain.QuestionnaireSubmission
	counts         map[string]int // key "q:user"
	latestEvals    map[string]*domain.QuestionnaireEvaluation
	evalsByID      map[string]*domain.QuestionnaireEvaluation

	createdSubs  []*domain.QuestionnaireSubmission
	createdEvals []*domain.QuestionnaireEvaluation
}

func (m *mockQuestionnaireRepo) GetByID(ctx context.Context, id string) (*domain.Questionnaire, error) {
	q, ok := m.questionnaires[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return q, nil
}

func (m *mockQuestionnaireRepo) ListQuestions(ctx context.Context, questionnaireID string) ([]*domain.Question, error) {
	return m.questions[questionnaireID], nil
}

func (m *mockQuestionnaireRepo) CreateSubmission(ctx context.Context, sub *domain.QuestionnaireSubmission) error {
	sub.ID = "sub-new"
	m.createdSubs = append(m.createdSubs, sub)
	return nil
}

func (m *mockQuestionnaireRepo) GetSubmission(ctx context.Context, id string) (*domain.QuestionnaireSubmission, error) {
	sub, ok := m.submissions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

func (m *mockQuestionnaireRepo) CountSubmissions(ctx context.Context, questionnaireID, userID string) (int, error) {
	return m.counts[questionnaireID+":"+userID], nil
}

func (m *mockQuestionnaireRepo) CreateEvaluation(ctx context.Context, eval *domain.QuestionnaireEvaluation) error {
	eval.ID = "eval-new"
	m.createdEvals = append(m.createdEvals, eval)
	return nil
}

func (m *mockQuestionnaireRepo) GetEvaluation(ctx context.Context, id string) (*domain.QuestionnaireEvaluation, error) {
	eval, ok := m.evalsByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return eval, nil
}

func (m *mockQuestionnaireRepo) GetLatestEvaluation(ctx context.Context, questionnaireID, userID string) (*domain.QuestionnaireEvaluation, error) {
	eval, ok := m.latestEvals[questionnaireID+":"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return eval, nil
}

func (m *mockQuestionnaireRepo) UpdateEvaluationStatus(ctx context.Context, id string, status domain.EvaluationStatus) (*domain.QuestionnaireEvaluation, error) {
	eval, ok := m.evalsByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	eval.Status = status
	return eval, nil
}

type mockUserRepo struct {
	byEmail   map[string]*domain.User
	createErr error
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "u-new"
	return nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

type mockNotifier struct {
	events []domain.NotificationEvent
}

func (m *mockNotifier) Publish(ctx context.Context, event domain.NotificationEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockNotifier) kinds() []domain.NotificationKind {
	out := make([]domain.NotificationKind, len(m.events))
	for i, e := range m.events {
		out[i] = e.Kind
	}
	return out
}

type mockGateway struct {
	ref string
	err error
}

func (m *mockGateway) CreateCheckout(ctx context.Context, payment *domain.Payment, ticket *domain.Ticket) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.ref, nil
}

// mockTasks records enqueued tasks. Tests invoke run() to execute them
// synchronously where the async result matters.
type mockTasks struct {
	names []string
	fns   []func(ctx context.Context) error
}

func (m *mockTasks) Enqueue(name string, fn func(ctx context.Context) error) {
	m.names = append(m.names, name)
	m.fns = append(m.fns, fn)
}

func (m *mockTasks) run(ctx context.Context) error {
	for _, fn := range m.fns {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

type mockScorer struct {
	passed  bool
	comment string
	err     error
	calls   int
}

func (m *mockScorer) Evaluate(ctx context.Context, question *domain.Question, answer *domain.Answer) (bool, string, error) {
	m.calls++
	if m.err != nil {
		return false, "", m.err
	}
	return m.passed, m.comment, nil
}

type mockMailer struct {
	sent []string
}

func (m *mockMailer) Send(to, subject, html, text string) error {
	m.sent = append(m.sent, to)
	return nil
}

type mockHasher struct{}

func (mockHasher) GenerateSalt() (string, error) { return "salt", nil }
func (mockHasher) Hash(salt, password string) (string, error) {
	return "hash:" + salt + ":" + password, nil
}
func (mockHasher) Compare(hash, salt, password string) error {
	if hash != "hash:"+salt+":"+password {
		return domain.ErrForbidden
	}
	return nil
}

type mockTokenIssuer struct{}

func (mockTokenIssuer) Issue(userID, email string, expiry time.Duration) (string, error) {
	return "token-" + userID, nil
}
