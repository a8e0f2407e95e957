package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventadmission/internal/domain"
)

type questionnaireService struct {
	questionnaireRepo domain.QuestionnaireRepository
	orgRepo           domain.OrganizationRepository
	evaluator         domain.Evaluator
	tasks             domain.TaskQueue
	notifier          domain.Notifier
	logger            *slog.Logger
}

// NewQuestionnaireService creates a QuestionnaireService. Submissions are
// accepted synchronously; evaluation is handed to the task queue.
func NewQuestionnaireService(
	questionnaireRepo domain.QuestionnaireRepository,
	orgRepo domain.OrganizationRepository,
	evaluator domain.Evaluator,
	tasks domain.TaskQueue,
	notifier domain.Notifier,
	logger *slog.Logger,
) domain.QuestionnaireService {
	return &questionnaireService{
		questionnaireRepo: questionnaireRepo,
		orgRepo:           orgRepo,
		evaluator:         evaluator,
		tasks:             tasks,
		notifier:          notifier,
		logger:            logger,
	}
}

// Submit enforces max_attempts and retake_after at the submission boundary,
// stores the attempt, and schedules evaluation. It never waits for the
// evaluation to run.
func (s *questionnaireService) Submit(ctx context.Context, sub *domain.QuestionnaireSubmission) (*domain.QuestionnaireSubmission, error) {
	q, err := s.questionnaireRepo.GetByID(ctx, sub.QuestionnaireID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get questionnaire: %w", err)
	}
	if len(sub.Answers) == 0 {
		return nil, fmt.Errorf("%w: submission has no answers", domain.ErrInvalidInput)
	}

	attempts, err := s.questionnaireRepo.CountSubmissions(ctx, q.ID, sub.UserID)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	if q.MaxAttempts > 0 && attempts >= q.MaxAttempts {
		return nil, domain.ErrAttemptsExhausted
	}

	if attempts > 0 {
		latest, err := s.questionnaireRepo.GetLatestEvaluation(ctx, q.ID, sub.UserID)
		switch {
		case err == nil:
			if latest.Status == domain.EvalPendingReview {
				return nil, domain.ErrAlreadyPending
			}
			if latest.Status == domain.EvalRejected && q.RetakeAfter > 0 &&
				time.Now().Before(latest.UpdatedAt.Add(q.RetakeAfter)) {
				return nil, domain.ErrRetakeCooldown
			}
		case errors.Is(err, domain.ErrNotFound):
			// Previous attempt still unevaluated; treat as under review.
			return nil, domain.ErrAlreadyPending
		default:
			return nil, fmt.Errorf("get latest evaluation: %w", err)
		}
	}

	sub.CreatedAt = time.Now()
	if err := s.questionnaireRepo.CreateSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}

	submissionID := sub.ID
	s.tasks.Enqueue("evaluate submission "+submissionID, func(ctx context.Context) error {
		_, err := s.evaluator.Evaluate(ctx, submissionID)
		return err
	})
	return sub, nil
}

// Decide resolves a PENDING_REVIEW evaluation with a human verdict. Only the
// owning organization's staff may decide.
func (s *questionnaireService) Decide(ctx context.Context, actorID, evaluationID string, approved bool) (*domain.QuestionnaireEvaluation, error) {
	eval, err := s.questionnaireRepo.GetEvaluation(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	if eval.Status != domain.EvalPendingReview {
		return nil, fmt.Errorf("%w: evaluation already decided", domain.ErrConflict)
	}

	sub, err := s.questionnaireRepo.GetSubmission(ctx, eval.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	q, err := s.questionnaireRepo.GetByID(ctx, sub.QuestionnaireID)
	if err != nil {
		return nil, fmt.Errorf("get questionnaire: %w", err)
	}
	if err := s.requireStaff(ctx, q.OrgID, actorID); err != nil {
		return nil, err
	}

	status := domain.EvalRejected
	if approved {
		status = domain.EvalApproved
	}
	eval, err = s.questionnaireRepo.UpdateEvaluationStatus(ctx, evaluationID, status)
	if err != nil {
		return nil, fmt.Errorf("update evaluation: %w", err)
	}

	event := domain.NotificationEvent{
		Kind:       domain.NotifyQuestionnaireEvaluated,
		UserID:     sub.UserID,
		OccurredAt: time.Now(),
		Data: map[string]string{
			"questionnaire_id": q.ID,
			"evaluation_id":    eval.ID,
			"status":           string(eval.Status),
		},
	}
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "publish notification", "kind", event.Kind, "err", err)
	}
	return eval, nil
}

func (s *questionnaireService) requireStaff(ctx context.Context, orgID, userID string) error {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
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
