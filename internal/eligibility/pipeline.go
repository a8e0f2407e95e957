package eligibility

import (
	"eventadmission/internal/domain"
)

// Pipeline holds the fixed gate order and produces exactly one terminal
// verdict per evaluation. First non-Continue result wins.
type Pipeline struct {
	gates []domain.Gate
}

// NewPipeline returns the admission pipeline in its fixed order: status and
// time-bound gates first, relational gates next, capacity and inventory gates
// last (the most volatile, checked last to minimize wasted evaluation).
func NewPipeline() *Pipeline {
	return &Pipeline{
		gates: []domain.Gate{
			PrivilegedAccessGate{},
			EventStatusGate{},
			RSVPDeadlineGate{},
			InvitationGate{},
			MembershipGate{},
			QuestionnaireGate{},
			AvailabilityGate{},
			TicketSalesGate{},
		},
	}
}

// Evaluate runs the gates in order and returns the first terminal verdict.
// If every gate yields, the user is admitted at the strongest tier their
// standing supports.
func (p *Pipeline) Evaluate(s *domain.Snapshot) domain.Verdict {
	for _, gate := range p.gates {
		if v := gate.Check(s); v.Kind != domain.VerdictContinue {
			return v
		}
	}
	return domain.Allow(fallthroughTier(s))
}

func fallthroughTier(s *domain.Snapshot) domain.AllowTier {
	switch {
	case s.Invited():
		return domain.TierInvited
	case s.ActiveMember():
		return domain.TierMember
	default:
		return domain.TierGeneral
	}
}
