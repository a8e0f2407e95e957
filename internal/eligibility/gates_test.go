package eligibility

import (
	"testing"
	"time"

	"eventadmission/internal/domain"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func openEvent() *domain.Event {
	return &domain.Event{
		ID:       "e1",
		OrgID:    "org1",
		Status:   domain.EventOpen,
		Type:     domain.EventPublic,
		StartsAt: testNow.Add(24 * time.Hour),
		EndsAt:   testNow.Add(30 * time.Hour),
	}
}

func snapshot(ev *domain.Event) *domain.Snapshot {
	return &domain.Snapshot{
		Now:               testNow,
		Event:             ev,
		UserID:            "u1",
		AttemptCounts:     map[string]int{},
		LatestEvaluations: map[string]*domain.QuestionnaireEvaluation{},
	}
}

func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func TestPrivilegedAccessGate(t *testing.T) {
	tests := []struct {
		name    string
		isOwner bool
		isStaff bool
		want    domain.VerdictKind
	}{
		{name: "owner allowed", isOwner: true, want: domain.VerdictAllow},
		{name: "staff allowed", isStaff: true, want: domain.VerdictAllow},
		{name: "regular user continues", want: domain.VerdictContinue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := snapshot(openEvent())
			s.IsOwner = tt.isOwner
			s.IsStaff = tt.isStaff
			v := PrivilegedAccessGate{}.Check(s)
			if v.Kind != tt.want {
				t.Fatalf("expected kind %v, got %v", tt.want, v.Kind)
			}
			if v.Kind == domain.VerdictAllow && v.Tier != domain.TierStaff {
				t.Fatalf("expected staff tier, got %q", v.Tier)
			}
		})
	}
}

func TestEventStatusGate(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.EventStatus
		endsAt     time.Time
		wantKind   domain.VerdictKind
		wantReason string
		wantStep   domain.NextStep
	}{
		{
			name:       "draft event",
			status:     domain.EventDraft,
			endsAt:     testNow.Add(time.Hour),
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonEventNotOpen,
			wantStep:   domain.StepWaitForEventToOpen,
		},
		{
			name:       "closed event",
			status:     domain.EventClosed,
			endsAt:     testNow.Add(time.Hour),
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonEventFinished,
		},
		{
			name:       "end time passed",
			status:     domain.EventOpen,
			endsAt:     testNow.Add(-time.Hour),
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonEventFinished,
		},
		{
			name:     "open and upcoming",
			status:   domain.EventOpen,
			endsAt:   testNow.Add(time.Hour),
			wantKind: domain.VerdictContinue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := openEvent()
			ev.Status = tt.status
			ev.EndsAt = tt.endsAt
			v := EventStatusGate{}.Check(snapshot(ev))
			if v.Kind != tt.wantKind {
				t.Fatalf("expected kind %v, got %v", tt.wantKind, v.Kind)
			}
			if v.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, v.Reason)
			}
			if v.NextStep != tt.wantStep {
				t.Fatalf("expected next step %q, got %q", tt.wantStep, v.NextStep)
			}
		})
	}
}

func TestRSVPDeadlineGate(t *testing.T) {
	tests := []struct {
		name           string
		requiresTicket bool
		rsvpBefore     *time.Time
		invitation     *domain.EventInvitation
		want           domain.VerdictKind
	}{
		{name: "no deadline", want: domain.VerdictContinue},
		{name: "deadline ahead", rsvpBefore: timePtr(testNow.Add(time.Hour)), want: domain.VerdictContinue},
		{name: "deadline passed", rsvpBefore: timePtr(testNow.Add(-time.Hour)), want: domain.VerdictDeny},
		{
			name:       "deadline passed but waived",
			rsvpBefore: timePtr(testNow.Add(-time.Hour)),
			invitation: &domain.EventInvitation{Waives: []domain.Waiver{domain.WaiveRSVPDeadline}},
			want:       domain.VerdictContinue,
		},
		{
			name:           "ticketed event not in scope",
			requiresTicket: true,
			rsvpBefore:     timePtr(testNow.Add(-time.Hour)),
			want:           domain.VerdictContinue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := openEvent()
			ev.RequiresTicket = tt.requiresTicket
			ev.RSVPBefore = tt.rsvpBefore
			s := snapshot(ev)
			s.Invitation = tt.invitation
			v := RSVPDeadlineGate{}.Check(s)
			if v.Kind != tt.want {
				t.Fatalf("expected kind %v, got %v", tt.want, v.Kind)
			}
			if v.Kind == domain.VerdictDeny && v.Reason != ReasonDeadlinePassed {
				t.Fatalf("expected reason %q, got %q", ReasonDeadlinePassed, v.Reason)
			}
		})
	}
}

func TestInvitationGate(t *testing.T) {
	expired := testNow.Add(-time.Minute)

	tests := []struct {
		name       string
		eventType  domain.EventType
		invitation *domain.EventInvitation
		wantKind   domain.VerdictKind
		wantStep   domain.NextStep
	}{
		{name: "public event not in scope", eventType: domain.EventPublic, wantKind: domain.VerdictContinue},
		{
			name:      "private without invitation",
			eventType: domain.EventPrivate,
			wantKind:  domain.VerdictDeny,
			wantStep:  domain.StepRequestInvitation,
		},
		{
			name:       "private with live invitation",
			eventType:  domain.EventPrivate,
			invitation: &domain.EventInvitation{},
			wantKind:   domain.VerdictContinue,
		},
		{
			name:       "private with expired invitation",
			eventType:  domain.EventPrivate,
			invitation: &domain.EventInvitation{ExpiresAt: &expired},
			wantKind:   domain.VerdictDeny,
			wantStep:   domain.StepRequestInvitation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := openEvent()
			ev.Type = tt.eventType
			s := snapshot(ev)
			s.Invitation = tt.invitation
			v := InvitationGate{}.Check(s)
			if v.Kind != tt.wantKind {
				t.Fatalf("expected kind %v, got %v", tt.wantKind, v.Kind)
			}
			if v.NextStep != tt.wantStep {
				t.Fatalf("expected next step %q, got %q", tt.wantStep, v.NextStep)
			}
		})
	}
}

func TestMembershipGate(t *testing.T) {
	tests := []struct {
		name       string
		eventType  domain.EventType
		membership *domain.Membership
		invitation *domain.EventInvitation
		wantKind   domain.VerdictKind
		wantStep   domain.NextStep
	}{
		{name: "public event not in scope", eventType: domain.EventPublic, wantKind: domain.VerdictContinue},
		{
			name:       "active member",
			eventType:  domain.EventMembersOnly,
			membership: &domain.Membership{Status: domain.MembershipActive},
			wantKind:   domain.VerdictContinue,
		},
		{
			name:       "pending member denied",
			eventType:  domain.EventMembersOnly,
			membership: &domain.Membership{Status: domain.MembershipPending},
			wantKind:   domain.VerdictDeny,
			wantStep:   domain.StepBecomeMember,
		},
		{
			name:      "non-member denied",
			eventType: domain.EventMembersOnly,
			wantKind:  domain.VerdictDeny,
			wantStep:  domain.StepBecomeMember,
		},
		{
			name:       "non-member with membership waiver",
			eventType:  domain.EventMembersOnly,
			invitation: &domain.EventInvitation{Waives: []domain.Waiver{domain.WaiveMembership}},
			wantKind:   domain.VerdictContinue,
		},
		{
			name:       "non-member with unrelated waiver denied",
			eventType:  domain.EventMembersOnly,
			invitation: &domain.EventInvitation{Waives: []domain.Waiver{domain.WaiveAvailability}},
			wantKind:   domain.VerdictDeny,
			wantStep:   domain.StepBecomeMember,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := openEvent()
			ev.Type = tt.eventType
			s := snapshot(ev)
			s.Membership = tt.membership
			s.Invitation = tt.invitation
			v := MembershipGate{}.Check(s)
			if v.Kind != tt.wantKind {
				t.Fatalf("expected kind %v, got %v", tt.wantKind, v.Kind)
			}
			if v.Kind == domain.VerdictDeny && v.Reason != ReasonMembersOnly {
				t.Fatalf("expected reason %q, got %q", ReasonMembersOnly, v.Reason)
			}
			if v.NextStep != tt.wantStep {
				t.Fatalf("expected next step %q, got %q", tt.wantStep, v.NextStep)
			}
		})
	}
}

func TestQuestionnaireGate(t *testing.T) {
	q := &domain.Questionnaire{ID: "q1", MaxAttempts: 2, RetakeAfter: time.Hour}

	tests := []struct {
		name        string
		attempts    int
		eval        *domain.QuestionnaireEvaluation
		invitation  *domain.EventInvitation
		wantKind    domain.VerdictKind
		wantReason  string
		wantStep    domain.NextStep
		wantPending []string
	}{
		{
			name:        "no submission",
			wantKind:    domain.VerdictDeny,
			wantReason:  ReasonNotFilled,
			wantStep:    domain.StepCompleteQuestionnaire,
			wantPending: []string{"q1"},
		},
		{
			name:       "submitted, evaluation not landed",
			attempts:   1,
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonPendingReview,
		},
		{
			name:       "pending review",
			attempts:   1,
			eval:       &domain.QuestionnaireEvaluation{Status: domain.EvalPendingReview},
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonPendingReview,
		},
		{
			name:     "approved",
			attempts: 1,
			eval:     &domain.QuestionnaireEvaluation{Status: domain.EvalApproved},
			wantKind: domain.VerdictContinue,
		},
		{
			name:        "rejected with retake available",
			attempts:    1,
			eval:        &domain.QuestionnaireEvaluation{Status: domain.EvalRejected, UpdatedAt: testNow.Add(-2 * time.Hour)},
			wantKind:    domain.VerdictDeny,
			wantReason:  ReasonRejected,
			wantStep:    domain.StepCompleteQuestionnaire,
			wantPending: []string{"q1"},
		},
		{
			name:       "rejected with attempts exhausted",
			attempts:   2,
			eval:       &domain.QuestionnaireEvaluation{Status: domain.EvalRejected, UpdatedAt: testNow.Add(-2 * time.Hour)},
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonRejected,
		},
		{
			name:       "rejected inside cooldown",
			attempts:   1,
			eval:       &domain.QuestionnaireEvaluation{Status: domain.EvalRejected, UpdatedAt: testNow.Add(-time.Minute)},
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonRejected,
		},
		{
			name:       "waived entirely",
			invitation: &domain.EventInvitation{Waives: []domain.Waiver{domain.WaiveQuestionnaire}},
			wantKind:   domain.VerdictContinue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := snapshot(openEvent())
			s.Questionnaires = []*domain.Questionnaire{q}
			s.AttemptCounts = map[string]int{"q1": tt.attempts}
			if tt.eval != nil {
				s.LatestEvaluations["q1"] = tt.eval
			}
			s.Invitation = tt.invitation
			v := QuestionnaireGate{}.Check(s)
			if v.Kind != tt.wantKind {
				t.Fatalf("expected kind %v, got %v", tt.wantKind, v.Kind)
			}
			if v.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, v.Reason)
			}
			if v.NextStep != tt.wantStep {
				t.Fatalf("expected next step %q, got %q", tt.wantStep, v.NextStep)
			}
			if len(v.PendingQuestionnaireIDs) != len(tt.wantPending) {
				t.Fatalf("expected pending %v, got %v", tt.wantPending, v.PendingQuestionnaireIDs)
			}
		})
	}
}

func TestQuestionnaireGate_MultipleQuestionnaires(t *testing.T) {
	s := snapshot(openEvent())
	s.Questionnaires = []*domain.Questionnaire{
		{ID: "q1"},
		{ID: "q2"},
		{ID: "q3"},
	}
	s.AttemptCounts = map[string]int{"q2": 1}
	s.LatestEvaluations = map[string]*domain.QuestionnaireEvaluation{
		"q2": {Status: domain.EvalApproved},
	}

	v := QuestionnaireGate{}.Check(s)
	if v.Kind != domain.VerdictDeny {
		t.Fatalf("expected deny, got %v", v.Kind)
	}
	if v.Reason != ReasonNotFilled {
		t.Fatalf("expected reason %q, got %q", ReasonNotFilled, v.Reason)
	}
	if len(v.PendingQuestionnaireIDs) != 2 {
		t.Fatalf("expected 2 pending questionnaires, got %v", v.PendingQuestionnaireIDs)
	}
}

func TestAvailabilityGate(t *testing.T) {
	tests := []struct {
		name         string
		maxAttendees *int
		confirmed    int
		waitlist     bool
		invitation   *domain.EventInvitation
		wantKind     domain.VerdictKind
		wantStep     domain.NextStep
	}{
		{name: "unlimited", confirmed: 1000, wantKind: domain.VerdictContinue},
		{name: "below cap", maxAttendees: intPtr(10), confirmed: 9, wantKind: domain.VerdictContinue},
		{
			name:         "full with waitlist",
			maxAttendees: intPtr(10),
			confirmed:    10,
			waitlist:     true,
			wantKind:     domain.VerdictDeny,
			wantStep:     domain.StepJoinWaitlist,
		},
		{
			name:         "full without waitlist",
			maxAttendees: intPtr(10),
			confirmed:    10,
			wantKind:     domain.VerdictDeny,
		},
		{
			name:         "full but waived",
			maxAttendees: intPtr(10),
			confirmed:    10,
			invitation:   &domain.EventInvitation{Waives: []domain.Waiver{domain.WaiveAvailability}},
			wantKind:     domain.VerdictContinue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := openEvent()
			ev.MaxAttendees = tt.maxAttendees
			ev.WaitlistEnabled = tt.waitlist
			s := snapshot(ev)
			s.ConfirmedCount = tt.confirmed
			s.Invitation = tt.invitation
			v := AvailabilityGate{}.Check(s)
			if v.Kind != tt.wantKind {
				t.Fatalf("expected kind %v, got %v", tt.wantKind, v.Kind)
			}
			if v.Kind == domain.VerdictDeny && v.Reason != ReasonEventFull {
				t.Fatalf("expected reason %q, got %q", ReasonEventFull, v.Reason)
			}
			if v.NextStep != tt.wantStep {
				t.Fatalf("expected next step %q, got %q", tt.wantStep, v.NextStep)
			}
		})
	}
}

func TestTicketSalesGate(t *testing.T) {
	onSaleTier := func(qty *int, sold int) *domain.TicketTier {
		return &domain.TicketTier{
			ID:           "t1",
			SalesStartAt: testNow.Add(-time.Hour),
			SalesEndAt:   testNow.Add(time.Hour),
			Quantity:     qty,
			SoldCount:    sold,
			Visibility:   domain.TierPublic,
		}
	}

	tests := []struct {
		name       string
		tiers      []*domain.TicketTier
		membership *domain.Membership
		waitlist   bool
		wantKind   domain.VerdictKind
		wantReason string
		wantStep   domain.NextStep
		wantTier   domain.AllowTier
	}{
		{
			name:       "no tiers",
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonNotOnSale,
		},
		{
			name: "sales not started",
			tiers: []*domain.TicketTier{{
				SalesStartAt: testNow.Add(30 * 24 * time.Hour),
				SalesEndAt:   testNow.Add(31 * 24 * time.Hour),
				Visibility:   domain.TierPublic,
			}},
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonNotOnSale,
		},
		{
			name:       "on sale with inventory",
			tiers:      []*domain.TicketTier{onSaleTier(intPtr(100), 10)},
			wantKind:   domain.VerdictAllow,
			wantTier:   domain.TierGeneral,
		},
		{
			name:       "member buying gets member tier",
			tiers:      []*domain.TicketTier{onSaleTier(nil, 0)},
			membership: &domain.Membership{Status: domain.MembershipActive},
			wantKind:   domain.VerdictAllow,
			wantTier:   domain.TierMember,
		},
		{
			name:       "sold out with waitlist",
			tiers:      []*domain.TicketTier{onSaleTier(intPtr(10), 10)},
			waitlist:   true,
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonSoldOut,
			wantStep:   domain.StepJoinWaitlist,
		},
		{
			name:       "sold out without waitlist",
			tiers:      []*domain.TicketTier{onSaleTier(intPtr(10), 10)},
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonSoldOut,
		},
		{
			name: "members-only tier hidden from non-member",
			tiers: []*domain.TicketTier{{
				SalesStartAt: testNow.Add(-time.Hour),
				SalesEndAt:   testNow.Add(time.Hour),
				Visibility:   domain.TierMembersOnly,
			}},
			wantKind:   domain.VerdictDeny,
			wantReason: ReasonNotOnSale,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := openEvent()
			ev.RequiresTicket = true
			ev.WaitlistEnabled = tt.waitlist
			s := snapshot(ev)
			s.Tiers = tt.tiers
			s.Membership = tt.membership
			v := TicketSalesGate{}.Check(s)
			if v.Kind != tt.wantKind {
				t.Fatalf("expected kind %v, got %v", tt.wantKind, v.Kind)
			}
			if v.Reason != tt.wantReason {
				t.Fatalf("expected reason %q, got %q", tt.wantReason, v.Reason)
			}
			if v.NextStep != tt.wantStep {
				t.Fatalf("expected next step %q, got %q", tt.wantStep, v.NextStep)
			}
			if v.Kind == domain.VerdictAllow && v.Tier != tt.wantTier {
				t.Fatalf("expected tier %q, got %q", tt.wantTier, v.Tier)
			}
		})
	}
}
