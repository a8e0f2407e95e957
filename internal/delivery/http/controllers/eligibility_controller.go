package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "eventadmission/internal/delivery/http/helpers"
	"eventadmission/internal/delivery/http/middleware"
	"eventadmission/internal/domain"
)

type EligibilityController struct {
	Logger  *slog.Logger
	Service domain.EligibilityService
}

func NewEligibilityController(logger *slog.Logger, svc domain.EligibilityService) *EligibilityController {
	return &EligibilityController{
		Logger:  logger,
		Service: svc,
	}
}

// CheckEligibilitySuccessResponse is the success response envelope for GET /events/{eventID}/eligibility (200).
type CheckEligibilitySuccessResponse struct {
	Data  *domain.EligibilityDecision `json:"data"`
	Error *h.APIError                 `json:"error"`
}

// Check godoc
// @Summary Check admission eligibility
// @Description Runs the admission pipeline for the authenticated user against the event and returns the decision: allowed with the admitting tier, or denied with a reason and a suggested next step. A denial is a 200 with allowed=false, not an error. Requires authentication.
// @Tags eligibility
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.CheckEligibilitySuccessResponse "data contains the eligibility decision"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/eligibility [get]
func (c *EligibilityController) Check(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	decision, err := c.Service.Check(r.Context(), eventID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, decision)
}
