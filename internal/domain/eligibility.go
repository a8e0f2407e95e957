package domain

import (
	"context"
	"time"
)

// NextStep is an actionable hint returned with an eligibility decision,
// telling the caller what would change (or complete) the outcome.
type NextStep string

const (
	StepRSVP                  NextStep = "RSVP"
	StepPurchaseTicket        NextStep = "PURCHASE_TICKET"
	StepJoinWaitlist          NextStep = "JOIN_WAITLIST"
	StepCompleteQuestionnaire NextStep = "COMPLETE_QUESTIONNAIRE"
	StepBecomeMember          NextStep = "BECOME_MEMBER"
	StepRequestInvitation     NextStep = "REQUEST_INVITATION"
	StepWaitForEventToOpen    NextStep = "WAIT_FOR_EVENT_TO_OPEN"
)

// AllowTier records which rule admitted the user.
type AllowTier string

const (
	TierStaff   AllowTier = "staff"
	TierInvited AllowTier = "invited"
	TierMember  AllowTier = "member"
	TierGeneral AllowTier = "public"
)

// VerdictKind is the outcome class of a gate check.
type VerdictKind int

const (
	// VerdictContinue passes control to the next gate.
	VerdictContinue VerdictKind = iota
	// VerdictAllow terminally admits the user.
	VerdictAllow
	// VerdictDeny terminally refuses the user.
	VerdictDeny
)

// Verdict is the outcome of a gate or of the whole pipeline. Terminal
// verdicts stop the pipeline; Continue yields to the next gate.
type Verdict struct {
	Kind     VerdictKind
	Tier     AllowTier // set on Allow
	Reason   string    // set on Deny
	NextStep NextStep  // optionally set on Deny
	// PendingQuestionnaireIDs lists questionnaires the user still has to
	// complete; set by the questionnaire gate on Deny.
	PendingQuestionnaireIDs []string
}

// Allow returns a terminal admit verdict for the given tier.
func Allow(tier AllowTier) Verdict {
	return Verdict{Kind: VerdictAllow, Tier: tier}
}

// Deny returns a terminal refusal with a human-readable reason and an
// optional next step ("" for none).
func Deny(reason string, next NextStep) Verdict {
	return Verdict{Kind: VerdictDeny, Reason: reason, NextStep: next}
}

// Continue returns a non-terminal verdict that yields to the next gate.
func Continue() Verdict {
	return Verdict{Kind: VerdictContinue}
}

// Snapshot is the read-only view of everything the gates need: the event, the
// requesting user's relationships, and advisory capacity counts. It is loaded
// once per eligibility check so gates stay pure and independently testable.
type Snapshot struct {
	Now   time.Time
	Event *Event

	UserID  string
	IsOwner bool
	IsStaff bool

	Membership *Membership      // nil if no membership record
	Invitation *EventInvitation // nil if no invitation

	// ConfirmedCount is the advisory confirmed-attendee count. The
	// authoritative count is re-taken under lock at reservation commit.
	ConfirmedCount int

	// Tiers holds the event's ticket tiers with sold counts populated.
	Tiers []*TicketTier

	// Questionnaires are the forms required for admission, with the user's
	// attempt counts and latest evaluations keyed by questionnaire ID.
	Questionnaires    []*Questionnaire
	AttemptCounts     map[string]int
	LatestEvaluations map[string]*QuestionnaireEvaluation
}

// ActiveMember reports whether the snapshot user is an active member of the host organization.
func (s *Snapshot) ActiveMember() bool {
	return s.Membership.IsActive()
}

// Invited reports whether the snapshot user holds a live invitation.
func (s *Snapshot) Invited() bool {
	return s.Invitation.Live(s.Now)
}

// Gate is a single pure decision unit in the admission pipeline.
type Gate interface {
	Check(s *Snapshot) Verdict
}

// SnapshotReader loads the consistent view of an event and a user needed to
// run the admission pipeline.
type SnapshotReader interface {
	Load(ctx context.Context, eventID, userID string) (*Snapshot, error)
}

// EligibilityDecision is the answer to "may this user act on this event now".
// swagger:model EligibilityDecision
type EligibilityDecision struct {
	Allowed                 bool       `json:"allowed"`
	Reason                  *string    `json:"reason"`
	NextStep                *NextStep  `json:"next_step"`
	Tier                    *AllowTier `json:"tier"`
	QuestionnaireIDsPending []string   `json:"questionnaire_ids_pending"`
}

// EligibilityService runs the admission pipeline for one event and user.
type EligibilityService interface {
	Check(ctx context.Context, eventID, userID string) (*EligibilityDecision, error)
}
