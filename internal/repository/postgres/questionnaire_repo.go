package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"eventadmission/internal/domain"
)

// Retake cooldowns are stored as whole seconds.
func secondsToDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}

type questionnaireRepository struct {
	DB *sql.DB
}

func NewQuestionnaireRepository(db *sql.DB) domain.QuestionnaireRepository {
	return &questionnaireRepository{DB: db}
}

func (r *questionnaireRepository) GetByID(ctx context.Context, id string) (*domain.Questionnaire, error) {
	query := `
		SELECT id, org_id, event_id, name, evaluation_mode, max_attempts, min_score, retake_after_seconds, created_at
		FROM questionnaires
		WHERE id = $1
	`
	q := &domain.Questionnaire{}
	var eventID sql.NullString
	var retakeAfterSeconds int64
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&q.ID, &q.OrgID, &eventID, &q.Name, &q.Mode, &q.MaxAttempts, &q.MinScore, &retakeAfterSeconds, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if eventID.Valid {
		q.EventID = &eventID.String
	}
	q.RetakeAfter = secondsToDuration(retakeAfterSeconds)
	return q, nil
}

func (r *questionnaireRepository) ListQuestions(ctx context.Context, questionnaireID string) ([]*domain.Question, error) {
	query := `
		SELECT id, questionnaire_id, section, position, kind, prompt, weight, fatal
		FROM questions
		WHERE questionnaire_id = $1
		ORDER BY section, position
	`
	rows, err := r.DB.QueryContext(ctx, query, questionnaireID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	questions := make([]*domain.Question, 0)
	byID := make(map[string]*domain.Question)
	for rows.Next() {
		q := &domain.Question{}
		if err := rows.Scan(&q.ID, &q.QuestionnaireID, &q.Section, &q.Position, &q.Kind, &q.Prompt, &q.Weight, &q.Fatal); err != nil {
			return nil, err
		}
		questions = append(questions, q)
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return questions, nil
	}

	optQuery := `
		SELECT o.id, o.question_id, o.label, o.correct, o.position
		FROM question_options o
		JOIN questions q ON q.id = o.question_id
		WHERE q.questionnaire_id = $1
		ORDER BY o.question_id, o.position
	`
	optRows, err := r.DB.QueryContext(ctx, optQuery, questionnaireID)
	if err != nil {
		return nil, err
	}
	defer optRows.Close()
	for optRows.Next() {
		opt := &domain.QuestionOption{}
		var questionID string
		if err := optRows.Scan(&opt.ID, &questionID, &opt.Label, &opt.Correct, &opt.Position); err != nil {
			return nil, err
		}
		if q, ok := byID[questionID]; ok {
			q.Options = append(q.Options, opt)
		}
	}
	return questions, optRows.Err()
}

func (r *questionnaireRepository) CreateSubmission(ctx context.Context, sub *domain.QuestionnaireSubmission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO questionnaire_submissions (questionnaire_id, user_id, answers, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, sub.QuestionnaireID, sub.UserID, answers, sub.CreatedAt).Scan(&sub.ID)
}

func (r *questionnaireRepository) GetSubmission(ctx context.Context, id string) (*domain.QuestionnaireSubmission, error) {
	query := `
		SELECT id, questionnaire_id, user_id, answers, created_at
		FROM questionnaire_submissions
		WHERE id = $1
	`
	sub := &domain.QuestionnaireSubmission{}
	var answers []byte
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&sub.ID, &sub.QuestionnaireID, &sub.UserID, &answers, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(answers, &sub.Answers); err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *questionnaireRepository) CountSubmissions(ctx context.Context, questionnaireID, userID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM questionnaire_submissions
		WHERE questionnaire_id = $1 AND user_id = $2
	`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, questionnaireID, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *questionnaireRepository) CreateEvaluation(ctx context.Context, eval *domain.QuestionnaireEvaluation) error {
	results, err := json.Marshal(eval.Results)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO questionnaire_evaluations (submission_id, score, fatal_triggered, status, results, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		eval.SubmissionID, eval.Score, eval.FatalTriggered, eval.Status, results, eval.CreatedAt, eval.UpdatedAt,
	).Scan(&eval.ID)
}

func (r *questionnaireRepository) GetEvaluation(ctx context.Context, id string) (*domain.QuestionnaireEvaluation, error) {
	query := `
		SELECT id, submission_id, score, fatal_triggered, status, results, created_at, updated_at
		FROM questionnaire_evaluations
		WHERE id = $1
	`
	return scanEvaluation(r.DB.QueryRowContext(ctx, query, id))
}

func (r *questionnaireRepository) GetLatestEvaluation(ctx context.Context, questionnaireID, userID string) (*domain.QuestionnaireEvaluation, error) {
	query := `
		SELECT e.id, e.submission_id, e.score, e.fatal_triggered, e.status, e.results, e.created_at, e.updated_at
		FROM questionnaire_evaluations e
		JOIN questionnaire_submissions s ON s.id = e.submission_id
		WHERE s.questionnaire_id = $1 AND s.user_id = $2
		ORDER BY s.created_at DESC
		LIMIT 1
	`
	return scanEvaluation(r.DB.QueryRowContext(ctx, query, questionnaireID, userID))
}

func (r *questionnaireRepository) UpdateEvaluationStatus(ctx context.Context, id string, status domain.EvaluationStatus) (*domain.QuestionnaireEvaluation, error) {
	query := `
		UPDATE questionnaire_evaluations SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, submission_id, score, fatal_triggered, status, results, created_at, updated_at
	`
	return scanEvaluation(r.DB.QueryRowContext(ctx, query, status, id))
}

func scanEvaluation(row rowScanner) (*domain.QuestionnaireEvaluation, error) {
	eval := &domain.QuestionnaireEvaluation{}
	var results []byte
	err := row.Scan(&eval.ID, &eval.SubmissionID, &eval.Score, &eval.FatalTriggered, &eval.Status, &results, &eval.CreatedAt, &eval.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &eval.Results); err != nil {
			return nil, err
		}
	}
	return eval, nil
}
