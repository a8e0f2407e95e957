package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventadmission/internal/domain"
)

type snapshotReader struct {
	eventRepo         domain.EventRepository
	orgRepo           domain.OrganizationRepository
	invitationRepo    domain.InvitationRepository
	attendeeRepo      domain.AttendeeRepository
	tierRepo          domain.TicketTierRepository
	questionnaireRepo domain.QuestionnaireRepository
}

// NewSnapshotReader creates a SnapshotReader over the given repositories.
func NewSnapshotReader(
	eventRepo domain.EventRepository,
	orgRepo domain.OrganizationRepository,
	invitationRepo domain.InvitationRepository,
	attendeeRepo domain.AttendeeRepository,
	tierRepo domain.TicketTierRepository,
	questionnaireRepo domain.QuestionnaireRepository,
) domain.SnapshotReader {
	return &snapshotReader{
		eventRepo:         eventRepo,
		orgRepo:           orgRepo,
		invitationRepo:    invitationRepo,
		attendeeRepo:      attendeeRepo,
		tierRepo:          tierRepo,
		questionnaireRepo: questionnaireRepo,
	}
}

// Load assembles the read-only view the admission gates run against. userID
// may be empty for anonymous checks; relational lookups are skipped then.
func (r *snapshotReader) Load(ctx context.Context, eventID, userID string) (*domain.Snapshot, error) {
	event, err := r.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	s := &domain.Snapshot{
		Now:               time.Now(),
		Event:             event,
		UserID:            userID,
		AttemptCounts:     map[string]int{},
		LatestEvaluations: map[string]*domain.QuestionnaireEvaluation{},
	}

	if userID != "" {
		org, err := r.orgRepo.GetByID(ctx, event.OrgID)
		if err != nil {
			return nil, fmt.Errorf("get organization: %w", err)
		}
		s.IsOwner = org.OwnerID == userID

		s.IsStaff, err = r.orgRepo.IsStaff(ctx, event.OrgID, userID)
		if err != nil {
			return nil, fmt.Errorf("check staff: %w", err)
		}

		membership, err := r.orgRepo.GetMembership(ctx, event.OrgID, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get membership: %w", err)
		}
		s.Membership = membership

		invitation, err := r.invitationRepo.GetByEventAndUser(ctx, eventID, userID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get invitation: %w", err)
		}
		s.Invitation = invitation
	}

	if event.MaxAttendees != nil {
		s.ConfirmedCount, err = r.attendeeRepo.CountConfirmed(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("count confirmed attendees: %w", err)
		}
	}

	if event.RequiresTicket {
		s.Tiers, err = r.tierRepo.ListByEventID(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("list tiers: %w", err)
		}
	}

	questionnaireIDs, err := r.eventRepo.ListQuestionnaireIDs(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list questionnaire links: %w", err)
	}
	for _, qid := range questionnaireIDs {
		q, err := r.questionnaireRepo.GetByID(ctx, qid)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Stale link; the gate cannot require a questionnaire that no longer exists.
				continue
			}
			return nil, fmt.Errorf("get questionnaire: %w", err)
		}
		s.Questionnaires = append(s.Questionnaires, q)

		if userID == "" {
			continue
		}
		count, err := r.questionnaireRepo.CountSubmissions(ctx, qid, userID)
		if err != nil {
			return nil, fmt.Errorf("count submissions: %w", err)
		}
		s.AttemptCounts[qid] = count

		eval, err := r.questionnaireRepo.GetLatestEvaluation(ctx, qid, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get latest evaluation: %w", err)
		}
		s.LatestEvaluations[qid] = eval
	}

	return s, nil
}
