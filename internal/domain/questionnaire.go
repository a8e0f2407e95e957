package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors enforced at the submission boundary.
var (
	ErrAttemptsExhausted = errors.New("no attempts remaining")
	ErrRetakeCooldown    = errors.New("retake cooldown has not elapsed")
	ErrAlreadyPending    = errors.New("previous submission is still under review")
)

// EvaluationMode is the policy for resolving a questionnaire result.
type EvaluationMode string

const (
	// EvalAutomatic decides APPROVED/REJECTED immediately from the score.
	EvalAutomatic EvaluationMode = "AUTOMATIC"
	// EvalManual always parks the submission in PENDING_REVIEW for a human.
	EvalManual EvaluationMode = "MANUAL"
	// EvalHybrid decides automatically when the score is conclusive and falls
	// back to PENDING_REVIEW otherwise.
	EvalHybrid EvaluationMode = "HYBRID"
)

// QuestionKind distinguishes scored multiple-choice from delegated free text.
type QuestionKind string

const (
	QuestionMultipleChoice QuestionKind = "multiple_choice"
	QuestionFreeText       QuestionKind = "free_text"
)

// Questionnaire is a form required for admission to an event (or reused
// across an organization's events).
// swagger:model Questionnaire
type Questionnaire struct {
	ID          string         `json:"id"`
	OrgID       string         `json:"org_id"`
	EventID     *string        `json:"event_id,omitempty"`
	Name        string         `json:"name"`
	Mode        EvaluationMode `json:"evaluation_mode"`
	MaxAttempts int            `json:"max_attempts"`
	MinScore    int            `json:"min_score"`
	// RetakeAfter is the cooldown before a rejected user may submit again.
	RetakeAfter time.Duration `json:"retake_after"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Question is one entry in a questionnaire section. Multiple-choice questions
// carry options and a weight; a fatal question fails the whole submission
// when its required options are not all selected, regardless of score.
// swagger:model Question
type Question struct {
	ID              string            `json:"id"`
	QuestionnaireID string            `json:"questionnaire_id"`
	Section         string            `json:"section"`
	Position        int               `json:"position"`
	Kind            QuestionKind      `json:"kind"`
	Prompt          string            `json:"prompt"`
	Weight          int               `json:"weight"`
	Fatal           bool              `json:"fatal"`
	Options         []*QuestionOption `json:"options,omitempty"`
}

// QuestionOption is one selectable choice of a multiple-choice question.
// swagger:model QuestionOption
type QuestionOption struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Correct  bool   `json:"-"`
	Position int    `json:"position"`
}

// Answer is one user answer inside a submission: selected option IDs for
// multiple choice, free text otherwise.
// swagger:model Answer
type Answer struct {
	QuestionID string   `json:"question_id"`
	ChoiceIDs  []string `json:"choice_ids,omitempty"`
	Text       string   `json:"text,omitempty"`
}

// QuestionnaireSubmission is one attempt by one user. Immutable once created.
// swagger:model QuestionnaireSubmission
type QuestionnaireSubmission struct {
	ID              string    `json:"id"`
	QuestionnaireID string    `json:"questionnaire_id"`
	UserID          string    `json:"user_id"`
	Answers         []*Answer `json:"answers"`
	CreatedAt       time.Time `json:"created_at"`
}

// EvaluationStatus is the terminal state of an evaluation.
type EvaluationStatus string

const (
	EvalApproved      EvaluationStatus = "APPROVED"
	EvalRejected      EvaluationStatus = "REJECTED"
	EvalPendingReview EvaluationStatus = "PENDING_REVIEW"
)

// QuestionResult is the per-question outcome recorded with an evaluation.
// swagger:model QuestionResult
type QuestionResult struct {
	QuestionID string `json:"question_id"`
	Passed     bool   `json:"passed"`
	Comment    string `json:"comment,omitempty"`
}

// QuestionnaireEvaluation is the stored outcome of one submission.
// swagger:model QuestionnaireEvaluation
type QuestionnaireEvaluation struct {
	ID             string            `json:"id"`
	SubmissionID   string            `json:"submission_id"`
	Score          int               `json:"score"`
	FatalTriggered bool              `json:"fatal_triggered"`
	Status         EvaluationStatus  `json:"status"`
	Results        []*QuestionResult `json:"results"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// FreeTextScorer is the outbound port for scoring free-text answers: a human
// reviewer queue or an automated classifier. Implementations are opaque to
// the evaluator.
type FreeTextScorer interface {
	Evaluate(ctx context.Context, question *Question, answer *Answer) (passed bool, comment string, err error)
}

// QuestionnaireRepository defines storage operations for questionnaires,
// submissions, and evaluations.
type QuestionnaireRepository interface {
	GetByID(ctx context.Context, id string) (*Questionnaire, error)
	ListQuestions(ctx context.Context, questionnaireID string) ([]*Question, error)

	CreateSubmission(ctx context.Context, sub *QuestionnaireSubmission) error
	GetSubmission(ctx context.Context, id string) (*QuestionnaireSubmission, error)
	CountSubmissions(ctx context.Context, questionnaireID, userID string) (int, error)

	CreateEvaluation(ctx context.Context, eval *QuestionnaireEvaluation) error
	GetEvaluation(ctx context.Context, id string) (*QuestionnaireEvaluation, error)
	// GetLatestEvaluation returns the evaluation of the user's most recent
	// submission for the questionnaire, or ErrNotFound if never submitted.
	GetLatestEvaluation(ctx context.Context, questionnaireID, userID string) (*QuestionnaireEvaluation, error)
	UpdateEvaluationStatus(ctx context.Context, id string, status EvaluationStatus) (*QuestionnaireEvaluation, error)
}

// QuestionnaireService accepts submissions and exposes review decisions.
// Evaluation runs out of band; Submit never waits for it.
type QuestionnaireService interface {
	// Submit validates the attempt against max_attempts and retake_after,
	// stores the submission, and schedules its evaluation.
	Submit(ctx context.Context, sub *QuestionnaireSubmission) (*QuestionnaireSubmission, error)
	// Decide resolves a PENDING_REVIEW evaluation. Only organization staff may decide.
	Decide(ctx context.Context, actorID, evaluationID string, approved bool) (*QuestionnaireEvaluation, error)
}

// Evaluator scores one stored submission and persists its evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, submissionID string) (*QuestionnaireEvaluation, error)
}
