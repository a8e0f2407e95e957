// Package eligibility implements the admission pipeline: a fixed, ordered
// sequence of pure gates evaluated against a pre-loaded domain snapshot.
package eligibility

import (
	"eventadmission/internal/domain"
)

// Denial reasons returned by the gates. These strings are part of the API
// contract; reservation denials reuse them verbatim.
const (
	ReasonEventNotOpen    = "Event is not open"
	ReasonEventFinished   = "Event has finished"
	ReasonDeadlinePassed  = "The RSVP deadline has passed"
	ReasonNeedsInvitation = "Requires invitation"
	ReasonMembersOnly     = "Only members are allowed"
	ReasonNotFilled       = "Questionnaire has not been filled"
	ReasonPendingReview   = "Questionnaire pending review"
	ReasonRejected        = "Questionnaire rejected"
	ReasonEventFull       = "Event is full"
	ReasonNotOnSale       = "Tickets are not currently on sale"
	ReasonSoldOut         = "Sold out"
)

// PrivilegedAccessGate admits organization owners and staff outright.
type PrivilegedAccessGate struct{}

func (PrivilegedAccessGate) Check(s *domain.Snapshot) domain.Verdict {
	if s.IsOwner || s.IsStaff {
		return domain.Allow(domain.TierStaff)
	}
	return domain.Continue()
}

// EventStatusGate refuses events that are not open yet or already over.
type EventStatusGate struct{}

func (EventStatusGate) Check(s *domain.Snapshot) domain.Verdict {
	if s.Event.Status == domain.EventDraft {
		return domain.Deny(ReasonEventNotOpen, domain.StepWaitForEventToOpen)
	}
	if s.Event.Finished(s.Now) {
		return domain.Deny(ReasonEventFinished, "")
	}
	return domain.Continue()
}

// RSVPDeadlineGate enforces rsvp_before on non-ticketed events. An invitation
// waiving the deadline check passes through.
type RSVPDeadlineGate struct{}

func (RSVPDeadlineGate) Check(s *domain.Snapshot) domain.Verdict {
	if s.Event.RequiresTicket {
		return domain.Continue()
	}
	if s.Event.RSVPBefore == nil || s.Now.Before(*s.Event.RSVPBefore) {
		return domain.Continue()
	}
	if s.Invitation.WaivesCheck(domain.WaiveRSVPDeadline, s.Now) {
		return domain.Continue()
	}
	return domain.Deny(ReasonDeadlinePassed, "")
}

// InvitationGate requires a live invitation for private events.
type InvitationGate struct{}

func (InvitationGate) Check(s *domain.Snapshot) domain.Verdict {
	if s.Event.Type != domain.EventPrivate {
		return domain.Continue()
	}
	if s.Invited() {
		return domain.Continue()
	}
	return domain.Deny(ReasonNeedsInvitation, domain.StepRequestInvitation)
}

// MembershipGate requires an active membership for members-only events,
// unless the user holds an invitation waiving the membership check.
type MembershipGate struct{}

func (MembershipGate) Check(s *domain.Snapshot) domain.Verdict {
	if s.Event.Type != domain.EventMembersOnly {
		return domain.Continue()
	}
	if s.ActiveMember() {
		return domain.Continue()
	}
	if s.Invitation.WaivesCheck(domain.WaiveMembership, s.Now) {
		return domain.Continue()
	}
	return domain.Deny(ReasonMembersOnly, domain.StepBecomeMember)
}

// QuestionnaireGate requires every linked questionnaire to be APPROVED. The
// deny carries the IDs of all questionnaires the user can still act on.
type QuestionnaireGate struct{}

func (QuestionnaireGate) Check(s *domain.Snapshot) domain.Verdict {
	if len(s.Questionnaires) == 0 {
		return domain.Continue()
	}
	if s.Invitation.WaivesCheck(domain.WaiveQuestionnaire, s.Now) {
		return domain.Continue()
	}

	var first *domain.Verdict
	var pending []string
	for _, q := range s.Questionnaires {
		v, actionable := checkQuestionnaire(s, q)
		if v == nil {
			continue
		}
		if actionable {
			pending = append(pending, q.ID)
		}
		if first == nil {
			first = v
		}
	}
	if first == nil {
		return domain.Continue()
	}
	first.PendingQuestionnaireIDs = pending
	return *first
}

// checkQuestionnaire returns the deny verdict for one questionnaire (nil when
// approved) and whether the user can still act on it.
func checkQuestionnaire(s *domain.Snapshot, q *domain.Questionnaire) (*domain.Verdict, bool) {
	attempts := s.AttemptCounts[q.ID]
	if attempts == 0 {
		v := domain.Deny(ReasonNotFilled, domain.StepCompleteQuestionnaire)
		return &v, true
	}
	eval, ok := s.LatestEvaluations[q.ID]
	if !ok || eval.Status == domain.EvalPendingReview {
		// A submission whose evaluation has not landed yet reads as pending.
		v := domain.Deny(ReasonPendingReview, "")
		return &v, false
	}
	if eval.Status == domain.EvalApproved {
		return nil, false
	}
	if retakeAllowed(s, q, eval, attempts) {
		v := domain.Deny(ReasonRejected, domain.StepCompleteQuestionnaire)
		return &v, true
	}
	v := domain.Deny(ReasonRejected, "")
	return &v, false
}

func retakeAllowed(s *domain.Snapshot, q *domain.Questionnaire, eval *domain.QuestionnaireEvaluation, attempts int) bool {
	if q.MaxAttempts > 0 && attempts >= q.MaxAttempts {
		return false
	}
	if q.RetakeAfter > 0 && s.Now.Before(eval.UpdatedAt.Add(q.RetakeAfter)) {
		return false
	}
	return true
}

// AvailabilityGate refuses full events. The check is advisory; the
// authoritative count is re-taken under lock at reservation commit.
type AvailabilityGate struct{}

func (AvailabilityGate) Check(s *domain.Snapshot) domain.Verdict {
	if s.Event.MaxAttendees == nil {
		return domain.Continue()
	}
	if s.ConfirmedCount < *s.Event.MaxAttendees {
		return domain.Continue()
	}
	if s.Invitation.WaivesCheck(domain.WaiveAvailability, s.Now) {
		return domain.Continue()
	}
	if s.Event.WaitlistEnabled {
		return domain.Deny(ReasonEventFull, domain.StepJoinWaitlist)
	}
	return domain.Deny(ReasonEventFull, "")
}

// TicketSalesGate is the terminal gate for ticketed events: it requires at
// least one visible tier inside its sales window with inventory left.
type TicketSalesGate struct{}

func (TicketSalesGate) Check(s *domain.Snapshot) domain.Verdict {
	if !s.Event.RequiresTicket {
		return domain.Continue()
	}

	member := s.ActiveMember()
	invited := s.Invited()

	onSale := 0
	available := 0
	for _, tier := range s.Tiers {
		if !tier.VisibleTo(member, invited) || !tier.OnSale(s.Now) {
			continue
		}
		onSale++
		if !tier.SoldOut() {
			available++
		}
	}
	if onSale == 0 {
		return domain.Deny(ReasonNotOnSale, "")
	}
	if available == 0 {
		if s.Event.WaitlistEnabled {
			return domain.Deny(ReasonSoldOut, domain.StepJoinWaitlist)
		}
		return domain.Deny(ReasonSoldOut, "")
	}
	if member {
		return domain.Allow(domain.TierMember)
	}
	return domain.Allow(domain.TierGeneral)
}
