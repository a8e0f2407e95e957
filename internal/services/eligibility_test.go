package services

import (
	"context"
	"testing"
	"time"

	"eventadmission/internal/domain"
	"eventadmission/internal/eligibility"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func baseSnapshot(ev *domain.Event) *domain.Snapshot {
	return &domain.Snapshot{
		Now:               testNow,
		Event:             ev,
		UserID:            "u1",
		AttemptCounts:     map[string]int{},
		LatestEvaluations: map[string]*domain.QuestionnaireEvaluation{},
	}
}

func openPublicEvent() *domain.Event {
	return &domain.Event{
		ID:       "e1",
		OrgID:    "org1",
		Status:   domain.EventOpen,
		Type:     domain.EventPublic,
		StartsAt: testNow.Add(24 * time.Hour),
		EndsAt:   testNow.Add(30 * time.Hour),
	}
}

func TestEligibilityService_Check(t *testing.T) {
	tests := []struct {
		name        string
		snap        *domain.Snapshot
		wantAllowed bool
		wantReason  string
		wantStep    domain.NextStep
		wantPending int
	}{
		{
			name:        "public open event allows with rsvp step",
			snap:        baseSnapshot(openPublicEvent()),
			wantAllowed: true,
			wantStep:    domain.StepRSVP,
		},
		{
			name: "members only non-member",
			snap: func() *domain.Snapshot {
				ev := openPublicEvent()
				ev.Type = domain.EventMembersOnly
				return baseSnapshot(ev)
			}(),
			wantReason: eligibility.ReasonMembersOnly,
			wantStep:   domain.StepBecomeMember,
		},
		{
			name: "full event with waitlist",
			snap: func() *domain.Snapshot {
				ev := openPublicEvent()
				ev.MaxAttendees = intPtr(10)
				ev.WaitlistEnabled = true
				s := baseSnapshot(ev)
				s.ConfirmedCount = 10
				return s
			}(),
			wantReason: eligibility.ReasonEventFull,
			wantStep:   domain.StepJoinWaitlist,
		},
		{
			name: "ticket sales not started",
			snap: func() *domain.Snapshot {
				ev := openPublicEvent()
				ev.RequiresTicket = true
				s := baseSnapshot(ev)
				s.Tiers = []*domain.TicketTier{{
					SalesStartAt: testNow.Add(30 * 24 * time.Hour),
					SalesEndAt:   testNow.Add(40 * 24 * time.Hour),
					Visibility:   domain.TierPublic,
				}}
				return s
			}(),
			wantReason: eligibility.ReasonNotOnSale,
		},
		{
			name: "questionnaire not filled",
			snap: func() *domain.Snapshot {
				s := baseSnapshot(openPublicEvent())
				s.Questionnaires = []*domain.Questionnaire{{ID: "q1"}}
				return s
			}(),
			wantReason:  eligibility.ReasonNotFilled,
			wantStep:    domain.StepCompleteQuestionnaire,
			wantPending: 1,
		},
		{
			name: "ticketed event allows with purchase step",
			snap: func() *domain.Snapshot {
				ev := openPublicEvent()
				ev.RequiresTicket = true
				s := baseSnapshot(ev)
				s.Tiers = []*domain.TicketTier{{
					SalesStartAt: testNow.Add(-time.Hour),
					SalesEndAt:   testNow.Add(time.Hour),
					Visibility:   domain.TierPublic,
				}}
				return s
			}(),
			wantAllowed: true,
			wantStep:    domain.StepPurchaseTicket,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewEligibilityService(&mockSnapshots{snap: tt.snap}, eligibility.NewPipeline())
			got, err := svc.Check(context.Background(), tt.snap.Event.ID, "u1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Allowed != tt.wantAllowed {
				t.Fatalf("expected allowed=%v, got %v (reason %v)", tt.wantAllowed, got.Allowed, got.Reason)
			}
			if tt.wantReason != "" {
				if got.Reason == nil || *got.Reason != tt.wantReason {
					t.Fatalf("expected reason %q, got %v", tt.wantReason, got.Reason)
				}
			} else if got.Reason != nil {
				t.Fatalf("expected no reason, got %q", *got.Reason)
			}
			if tt.wantStep != "" {
				if got.NextStep == nil || *got.NextStep != tt.wantStep {
					t.Fatalf("expected next step %q, got %v", tt.wantStep, got.NextStep)
				}
			} else if got.NextStep != nil {
				t.Fatalf("expected no next step, got %q", *got.NextStep)
			}
			if len(got.QuestionnaireIDsPending) != tt.wantPending {
				t.Fatalf("expected %d pending questionnaires, got %v", tt.wantPending, got.QuestionnaireIDsPending)
			}
		})
	}
}

func TestEligibilityService_StaffAlwaysAllowed(t *testing.T) {
	ev := openPublicEvent()
	ev.Status = domain.EventDraft
	ev.Type = domain.EventPrivate
	ev.MaxAttendees = intPtr(0)
	snap := baseSnapshot(ev)
	snap.IsStaff = true

	svc := NewEligibilityService(&mockSnapshots{snap: snap}, eligibility.NewPipeline())
	got, err := svc.Check(context.Background(), "e1", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Allowed {
		t.Fatalf("expected staff to be allowed, got reason %v", got.Reason)
	}
	if got.Tier == nil || *got.Tier != domain.TierStaff {
		t.Fatalf("expected staff tier, got %v", got.Tier)
	}
}

func TestEligibilityService_NotFound(t *testing.T) {
	svc := NewEligibilityService(&mockSnapshots{err: domain.ErrNotFound}, eligibility.NewPipeline())
	if _, err := svc.Check(context.Background(), "missing", "u1"); err == nil {
		t.Fatal("expected error for missing event")
	}
}
