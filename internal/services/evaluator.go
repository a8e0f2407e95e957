package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventadmission/internal/domain"
)

// hybridMargin is the score band around min_score (in points) inside which a
// HYBRID evaluation is considered inconclusive and parked for human review.
const hybridMargin = 10

type evaluatorService struct {
	questionnaireRepo domain.QuestionnaireRepository
	scorer            domain.FreeTextScorer
	notifier          domain.Notifier
	logger            *slog.Logger
}

// NewEvaluator creates the questionnaire evaluator. Free-text answers are
// delegated to the scorer; its internals (human queue or classifier) are opaque.
func NewEvaluator(questionnaireRepo domain.QuestionnaireRepository, scorer domain.FreeTextScorer, notifier domain.Notifier, logger *slog.Logger) domain.Evaluator {
	return &evaluatorService{
		questionnaireRepo: questionnaireRepo,
		scorer:            scorer,
		notifier:          notifier,
		logger:            logger,
	}
}

// Evaluate scores one stored submission and persists the evaluation. A scorer
// failure is returned unwrapped-by-policy: the task queue retries it and no
// partial evaluation is written.
func (e *evaluatorService) Evaluate(ctx context.Context, submissionID string) (*domain.QuestionnaireEvaluation, error) {
	sub, err := e.questionnaireRepo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	q, err := e.questionnaireRepo.GetByID(ctx, sub.QuestionnaireID)
	if err != nil {
		return nil, fmt.Errorf("get questionnaire: %w", err)
	}
	questions, err := e.questionnaireRepo.ListQuestions(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	answers := make(map[string]*domain.Answer, len(sub.Answers))
	for _, a := range sub.Answers {
		answers[a.QuestionID] = a
	}

	var totalWeight, earned int
	fatalTriggered := false
	results := make([]*domain.QuestionResult, 0, len(questions))

	for _, question := range questions {
		weight := question.Weight
		if weight <= 0 {
			weight = 1
		}
		totalWeight += weight

		passed, comment, err := e.scoreQuestion(ctx, question, answers[question.ID])
		if err != nil {
			return nil, fmt.Errorf("score question %s: %w", question.ID, err)
		}
		if passed {
			earned += weight
		}
		if question.Fatal && !passed {
			fatalTriggered = true
		}
		results = append(results, &domain.QuestionResult{
			QuestionID: question.ID,
			Passed:     passed,
			Comment:    comment,
		})
	}

	score := 100
	if totalWeight > 0 {
		score = earned * 100 / totalWeight
	}

	now := time.Now()
	eval := &domain.QuestionnaireEvaluation{
		SubmissionID:   sub.ID,
		Score:          score,
		FatalTriggered: fatalTriggered,
		Status:         resolveStatus(q, score, fatalTriggered),
		Results:        results,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.questionnaireRepo.CreateEvaluation(ctx, eval); err != nil {
		return nil, fmt.Errorf("create evaluation: %w", err)
	}

	if eval.Status != domain.EvalPendingReview {
		event := domain.NotificationEvent{
			Kind:       domain.NotifyQuestionnaireEvaluated,
			UserID:     sub.UserID,
			OccurredAt: now,
			Data: map[string]string{
				"questionnaire_id": q.ID,
				"evaluation_id":    eval.ID,
				"status":           string(eval.Status),
			},
		}
		if err := e.notifier.Publish(ctx, event); err != nil {
			e.logger.ErrorContext(ctx, "publish notification", "kind", event.Kind, "err", err)
		}
	}
	return eval, nil
}

// scoreQuestion decides one question. Multiple choice passes when the
// selected set matches the correct set exactly; free text is delegated.
func (e *evaluatorService) scoreQuestion(ctx context.Context, question *domain.Question, answer *domain.Answer) (bool, string, error) {
	if answer == nil {
		return false, "not answered", nil
	}
	switch question.Kind {
	case domain.QuestionMultipleChoice:
		return matchesCorrectOptions(question, answer), "", nil
	case domain.QuestionFreeText:
		passed, comment, err := e.scorer.Evaluate(ctx, question, answer)
		if err != nil {
			return false, "", err
		}
		return passed, comment, nil
	default:
		return false, "", fmt.Errorf("%w: unknown question kind %q", errors.ErrUnsupported, question.Kind)
	}
}

func matchesCorrectOptions(question *domain.Question, answer *domain.Answer) bool {
	correct := make(map[string]bool)
	for _, opt := range question.Options {
		if opt.Correct {
			correct[opt.ID] = true
		}
	}
	if len(answer.ChoiceIDs) != len(correct) {
		return false
	}
	for _, id := range answer.ChoiceIDs {
		if !correct[id] {
			return false
		}
	}
	return true
}

// resolveStatus applies the questionnaire's evaluation mode policy.
func resolveStatus(q *domain.Questionnaire, score int, fatalTriggered bool) domain.EvaluationStatus {
	switch q.Mode {
	case domain.EvalManual:
		return domain.EvalPendingReview
	case domain.EvalHybrid:
		if fatalTriggered {
			return domain.EvalRejected
		}
		if score >= q.MinScore-hybridMargin && score < q.MinScore+hybridMargin {
			return domain.EvalPendingReview
		}
		if score >= q.MinScore {
			return domain.EvalApproved
		}
		return domain.EvalRejected
	default: // AUTOMATIC
		if fatalTriggered || score < q.MinScore {
			return domain.EvalRejected
		}
		return domain.EvalApproved
	}
}
