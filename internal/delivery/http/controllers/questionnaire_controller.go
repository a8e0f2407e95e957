package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "eventadmission/internal/delivery/http/helpers"
	"eventadmission/internal/delivery/http/middleware"
	"eventadmission/internal/domain"
)

type QuestionnaireController struct {
	Logger  *slog.Logger
	Service domain.QuestionnaireService
}

func NewQuestionnaireController(logger *slog.Logger, svc domain.QuestionnaireService) *QuestionnaireController {
	return &QuestionnaireController{
		Logger:  logger,
		Service: svc,
	}
}

// SubmissionAnswer is one answer in a SubmitQuestionnaireRequest.
type SubmissionAnswer struct {
	QuestionID string   `json:"question_id"`
	ChoiceIDs  []string `json:"choice_ids"`
	Text       string   `json:"text"`
}

// SubmitQuestionnaireRequest is the request body for POST /questionnaires/{questionnaireID}/submissions.
type SubmitQuestionnaireRequest struct {
	Answers []SubmissionAnswer `json:"answers"`
}

// Validate implements Validator.
func (s SubmitQuestionnaireRequest) Validate() []string {
	var errs []string
	if len(s.Answers) == 0 {
		errs = append(errs, "answers are required")
	}
	for _, a := range s.Answers {
		if strings.TrimSpace(a.QuestionID) == "" {
			errs = append(errs, "every answer needs a question_id")
			break
		}
	}
	return errs
}

// SubmitQuestionnaireSuccessResponse is the success response envelope for POST /questionnaires/{questionnaireID}/submissions (201).
type SubmitQuestionnaireSuccessResponse struct {
	Data  *domain.QuestionnaireSubmission `json:"data"`
	Error *h.APIError                     `json:"error"`
}

// Submit godoc
// @Summary Submit questionnaire answers
// @Description Stores one attempt for the authenticated user and schedules its evaluation. Evaluation runs out of band; poll the eligibility check for the outcome. Returns 409 when attempts are exhausted, the retake cooldown has not elapsed, or a previous attempt is still under review.
// @Tags questionnaires
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionnaireID path string true "Questionnaire ID (UUID)"
// @Param body body SubmitQuestionnaireRequest true "Answers"
// @Success 201 {object} controllers.SubmitQuestionnaireSuccessResponse "data contains the stored submission"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (attempts exhausted, cooldown, or pending review)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /questionnaires/{questionnaireID}/submissions [post]
func (c *QuestionnaireController) Submit(w http.ResponseWriter, r *http.Request) {
	questionnaireID := r.PathValue("questionnaireID")
	if questionnaireID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing questionnaireID")
		return
	}
	var req SubmitQuestionnaireRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	answers := make([]*domain.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, &domain.Answer{
			QuestionID: a.QuestionID,
			ChoiceIDs:  a.ChoiceIDs,
			Text:       a.Text,
		})
	}
	sub, err := c.Service.Submit(r.Context(), &domain.QuestionnaireSubmission{
		QuestionnaireID: questionnaireID,
		UserID:          userID,
		Answers:         answers,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "questionnaire not found")
		case errors.Is(err, domain.ErrAttemptsExhausted),
			errors.Is(err, domain.ErrRetakeCooldown),
			errors.Is(err, domain.ErrAlreadyPending):
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, err.Error())
		case errors.Is(err, domain.ErrInvalidInput):
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		}
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, sub)
}

// DecideRequest is the request body for POST /evaluations/{evaluationID}/decision.
type DecideRequest struct {
	Approved *bool `json:"approved"`
}

// Validate implements Validator.
func (d DecideRequest) Validate() []string {
	if d.Approved == nil {
		return []string{"approved is required"}
	}
	return nil
}

// DecideSuccessResponse is the success response envelope for POST /evaluations/{evaluationID}/decision (200).
type DecideSuccessResponse struct {
	Data  *domain.QuestionnaireEvaluation `json:"data"`
	Error *h.APIError                     `json:"error"`
}

// Decide godoc
// @Summary Decide a pending evaluation
// @Description Resolves a PENDING_REVIEW evaluation to APPROVED or REJECTED. Only staff of the questionnaire's organization can decide. Returns 409 if the evaluation was already decided.
// @Tags questionnaires
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param evaluationID path string true "Evaluation ID (UUID)"
// @Param body body DecideRequest true "Decision"
// @Success 200 {object} controllers.DecideSuccessResponse "data contains the decided evaluation"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not staff)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already decided)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /evaluations/{evaluationID}/decision [post]
func (c *QuestionnaireController) Decide(w http.ResponseWriter, r *http.Request) {
	evaluationID := r.PathValue("evaluationID")
	if evaluationID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing evaluationID")
		return
	}
	var req DecideRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eval, err := c.Service.Decide(r.Context(), userID, evaluationID, *req.Approved)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "evaluation not found")
		case errors.Is(err, domain.ErrForbidden):
			h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "forbidden")
		case errors.Is(err, domain.ErrConflict):
			h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "evaluation already decided")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		}
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, eval)
}
