package services

import (
	"context"
	"fmt"

	"eventadmission/internal/domain"
	"eventadmission/internal/eligibility"
)

type eligibilityService struct {
	snapshots domain.SnapshotReader
	pipeline  *eligibility.Pipeline
}

// NewEligibilityService creates an EligibilityService over the given snapshot
// reader and the fixed admission pipeline.
func NewEligibilityService(snapshots domain.SnapshotReader, pipeline *eligibility.Pipeline) domain.EligibilityService {
	return &eligibilityService{snapshots: snapshots, pipeline: pipeline}
}

func (s *eligibilityService) Check(ctx context.Context, eventID, userID string) (*domain.EligibilityDecision, error) {
	snap, err := s.snapshots.Load(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	verdict := s.pipeline.Evaluate(snap)
	return decisionFromVerdict(snap.Event, verdict), nil
}

// decisionFromVerdict maps a terminal pipeline verdict to the API decision
// shape. An Allow carries the action the caller can now take.
func decisionFromVerdict(event *domain.Event, v domain.Verdict) *domain.EligibilityDecision {
	d := &domain.EligibilityDecision{
		QuestionnaireIDsPending: v.PendingQuestionnaireIDs,
	}
	if d.QuestionnaireIDsPending == nil {
		d.QuestionnaireIDsPending = []string{}
	}
	switch v.Kind {
	case domain.VerdictAllow:
		d.Allowed = true
		tier := v.Tier
		d.Tier = &tier
		step := domain.StepRSVP
		if event.RequiresTicket {
			step = domain.StepPurchaseTicket
		}
		d.NextStep = &step
	case domain.VerdictDeny:
		reason := v.Reason
		d.Reason = &reason
		if v.NextStep != "" {
			step := v.NextStep
			d.NextStep = &step
		}
	}
	return d
}

// denial builds the decision returned when capacity re-validation fails at
// commit time, reusing the gate vocabulary.
func denial(reason string, step domain.NextStep) *domain.EligibilityDecision {
	d := &domain.EligibilityDecision{
		Reason:                  &reason,
		QuestionnaireIDsPending: []string{},
	}
	if step != "" {
		d.NextStep = &step
	}
	return d
}
