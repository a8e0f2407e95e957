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

type ReservationController struct {
	Logger  *slog.Logger
	Service domain.ReservationService
}

func NewReservationController(logger *slog.Logger, svc domain.ReservationService) *ReservationController {
	return &ReservationController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *ReservationController) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrForbidden):
		h.WriteJSONError(w, http.StatusForbidden, h.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrConflict):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}

// RSVPRequest is the request body for POST /events/{eventID}/rsvp.
type RSVPRequest struct {
	Response string `json:"response"`
}

// Validate implements Validator.
func (q RSVPRequest) Validate() []string {
	if !domain.RSVPResponse(q.Response).Valid() {
		return []string{"response must be YES, NO, or MAYBE"}
	}
	return nil
}

// RSVPResult is the data payload for POST /events/{eventID}/rsvp (200).
// Exactly one of rsvp and decision is set: a denied request carries the
// decision with allowed=false and is not an HTTP error.
type RSVPResult struct {
	RSVP     *domain.EventRSVP           `json:"rsvp"`
	Decision *domain.EligibilityDecision `json:"decision"`
}

// RSVPSuccessResponse is the success response envelope for POST /events/{eventID}/rsvp (200).
type RSVPSuccessResponse struct {
	Data  RSVPResult  `json:"data"`
	Error *h.APIError `json:"error"`
}

// RSVP godoc
// @Summary RSVP to an event
// @Description Records the authenticated user's RSVP (YES, NO, MAYBE) for a non-ticketed event. A repeat RSVP supersedes the previous one. When admission is denied the response is 200 with decision.allowed=false and the denial reason; no RSVP is recorded.
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body RSVPRequest true "RSVP response"
// @Success 200 {object} controllers.RSVPSuccessResponse "data contains the rsvp or the denial decision"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (ticketed event or invalid response)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvp [post]
func (c *ReservationController) RSVP(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req RSVPRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rsvp, decision, err := c.Service.RSVP(r.Context(), eventID, userID, domain.RSVPResponse(req.Response))
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, RSVPResult{RSVP: rsvp, Decision: decision})
}

// GetRSVPSuccessResponse is the success response envelope for GET /events/{eventID}/rsvp (200).
type GetRSVPSuccessResponse struct {
	Data  domain.EventRSVP `json:"data"`
	Error *h.APIError      `json:"error"`
}

// GetRSVP godoc
// @Summary Get the current RSVP
// @Description Returns the authenticated user's current RSVP for the event. 404 when the user never responded.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.GetRSVPSuccessResponse "data contains the rsvp"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no RSVP)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvp [get]
func (c *ReservationController) GetRSVP(w http.ResponseWriter, r *http.Request) {
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
	rsvp, err := c.Service.GetRSVP(r.Context(), eventID, userID)
	if err != nil {
		c.writeServiceError(w, r, err, "rsvp not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, rsvp)
}

// CancelRSVPResponse is the data payload for DELETE /events/{eventID}/rsvp (200).
type CancelRSVPResponse struct {
	Status string `json:"status"`
}

// CancelRSVPSuccessResponse is the success response envelope for DELETE /events/{eventID}/rsvp (200).
type CancelRSVPSuccessResponse struct {
	Data  CancelRSVPResponse `json:"data"`
	Error *h.APIError        `json:"error"`
}

// CancelRSVP godoc
// @Summary Cancel an RSVP
// @Description Sets the authenticated user's RSVP to NO. A freed YES slot cascades to the event waitlist.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.CancelRSVPSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no RSVP)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvp [delete]
func (c *ReservationController) CancelRSVP(w http.ResponseWriter, r *http.Request) {
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
	if err := c.Service.CancelRSVP(r.Context(), eventID, userID); err != nil {
		c.writeServiceError(w, r, err, "rsvp not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, CancelRSVPResponse{Status: "cancelled"})
}

// PurchaseResult is the data payload for POST /events/{eventID}/tiers/{tierID}/tickets (200).
// Exactly one of ticket and decision is set.
type PurchaseResult struct {
	Ticket   *domain.Ticket              `json:"ticket"`
	Decision *domain.EligibilityDecision `json:"decision"`
}

// PurchaseSuccessResponse is the success response envelope for POST /events/{eventID}/tiers/{tierID}/tickets (200).
type PurchaseSuccessResponse struct {
	Data  PurchaseResult `json:"data"`
	Error *h.APIError    `json:"error"`
}

// PurchaseTicket godoc
// @Summary Purchase a ticket
// @Description Buys one ticket from the tier for the authenticated user. Free and offline tiers issue an ACTIVE ticket immediately; online tiers issue a PENDING_PAYMENT ticket with a checkout reference. Denials (sold out, not on sale, gate refusals) come back as 200 with decision.allowed=false.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param tierID path string true "Ticket tier ID (UUID)"
// @Success 200 {object} controllers.PurchaseSuccessResponse "data contains the ticket or the denial decision"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (non-ticketed event)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/tiers/{tierID}/tickets [post]
func (c *ReservationController) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	tierID := r.PathValue("tierID")
	if eventID == "" || tierID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID or tierID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	ticket, decision, err := c.Service.PurchaseTicket(r.Context(), eventID, tierID, userID)
	if err != nil {
		c.writeServiceError(w, r, err, "event or tier not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, PurchaseResult{Ticket: ticket, Decision: decision})
}

// CancelTicketResponse is the data payload for DELETE /tickets/{ticketID} (200).
type CancelTicketResponse struct {
	Status string `json:"status"`
}

// CancelTicketSuccessResponse is the success response envelope for DELETE /tickets/{ticketID} (200).
type CancelTicketSuccessResponse struct {
	Data  CancelTicketResponse `json:"data"`
	Error *h.APIError          `json:"error"`
}

// CancelTicket godoc
// @Summary Cancel a ticket
// @Description Cancels the authenticated user's ticket. The freed slot cascades to the tier's waitlist. Only the ticket holder can cancel.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param ticketID path string true "Ticket ID (UUID)"
// @Success 200 {object} controllers.CancelTicketSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the holder)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /tickets/{ticketID} [delete]
func (c *ReservationController) CancelTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := r.PathValue("ticketID")
	if ticketID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing ticketID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.CancelTicket(r.Context(), ticketID, userID); err != nil {
		c.writeServiceError(w, r, err, "ticket not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, CancelTicketResponse{Status: "cancelled"})
}

// JoinWaitlistRequest is the request body for POST /events/{eventID}/waitlist.
// tier_id is set when waiting for a specific ticket tier.
type JoinWaitlistRequest struct {
	TierID *string `json:"tier_id"`
}

// Validate implements Validator.
func (q JoinWaitlistRequest) Validate() []string {
	if q.TierID != nil && strings.TrimSpace(*q.TierID) == "" {
		return []string{"tier_id cannot be empty"}
	}
	return nil
}

// JoinWaitlistResult is the data payload for POST /events/{eventID}/waitlist (200).
// Exactly one of entry and decision is set.
type JoinWaitlistResult struct {
	Entry    *domain.WaitlistEntry       `json:"entry"`
	Decision *domain.EligibilityDecision `json:"decision"`
}

// JoinWaitlistSuccessResponse is the success response envelope for POST /events/{eventID}/waitlist (200).
type JoinWaitlistSuccessResponse struct {
	Data  JoinWaitlistResult `json:"data"`
	Error *h.APIError        `json:"error"`
}

// JoinWaitlist godoc
// @Summary Join a waitlist
// @Description Adds the authenticated user to the event waitlist (or a tier waitlist when tier_id is given). Joining is idempotent; an existing unconsumed entry is returned. Gate refusals come back as 200 with decision.allowed=false.
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body JoinWaitlistRequest true "Optional tier to wait for"
// @Success 200 {object} controllers.JoinWaitlistSuccessResponse "data contains the entry or the denial decision"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (waitlist disabled)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/waitlist [post]
func (c *ReservationController) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req JoinWaitlistRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	entry, decision, err := c.Service.JoinWaitlist(r.Context(), eventID, req.TierID, userID)
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, JoinWaitlistResult{Entry: entry, Decision: decision})
}

// ClaimOfferResult is the data payload for POST /waitlist/claim/{claimToken} (200).
// Ticket is set for tier waitlists, rsvp for event waitlists.
type ClaimOfferResult struct {
	Ticket *domain.Ticket    `json:"ticket"`
	RSVP   *domain.EventRSVP `json:"rsvp"`
}

// ClaimOfferSuccessResponse is the success response envelope for POST /waitlist/claim/{claimToken} (200).
type ClaimOfferSuccessResponse struct {
	Data  ClaimOfferResult `json:"data"`
	Error *h.APIError      `json:"error"`
}

// ClaimOffer godoc
// @Summary Claim a waitlist offer
// @Description Converts a live waitlist offer into a ticket (tier waitlist) or a YES RSVP (event waitlist). Only the entry's owner can claim. Returns 409 when the offer expired or was already consumed.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param claimToken path string true "Claim token from the offer notification"
// @Success 200 {object} controllers.ClaimOfferSuccessResponse "data contains the ticket or rsvp"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the entry owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (offer expired or consumed)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /waitlist/claim/{claimToken} [post]
func (c *ReservationController) ClaimOffer(w http.ResponseWriter, r *http.Request) {
	claimToken := r.PathValue("claimToken")
	if claimToken == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing claimToken")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	ticket, rsvp, err := c.Service.ClaimOffer(r.Context(), claimToken, userID)
	if err != nil {
		c.writeServiceError(w, r, err, "offer not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, ClaimOfferResult{Ticket: ticket, RSVP: rsvp})
}

// PaymentWebhookRequest is the request body for POST /payments/webhook.
type PaymentWebhookRequest struct {
	CheckoutRef string `json:"checkout_ref"`
	Status      string `json:"status"`
}

// Validate implements Validator.
func (p PaymentWebhookRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(p.CheckoutRef) == "" {
		errs = append(errs, "checkout_ref is required")
	}
	switch domain.PaymentStatus(p.Status) {
	case domain.PaymentSucceeded, domain.PaymentFailed:
	default:
		errs = append(errs, "status must be SUCCEEDED or FAILED")
	}
	return errs
}

// PaymentWebhookResponse is the data payload for POST /payments/webhook (200).
type PaymentWebhookResponse struct {
	Status string `json:"status"`
}

// PaymentWebhookSuccessResponse is the success response envelope for POST /payments/webhook (200).
type PaymentWebhookSuccessResponse struct {
	Data  PaymentWebhookResponse `json:"data"`
	Error *h.APIError            `json:"error"`
}

// PaymentWebhook godoc
// @Summary Settle a payment
// @Description Payment provider callback. A SUCCEEDED payment activates its PENDING_PAYMENT ticket; a FAILED payment cancels the ticket and cascades the freed slot to the waitlist.
// @Tags reservations
// @Accept json
// @Produce json
// @Param body body PaymentWebhookRequest true "Settlement data"
// @Success 200 {object} controllers.PaymentWebhookSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown checkout_ref)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /payments/webhook [post]
func (c *ReservationController) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req PaymentWebhookRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.SettlePayment(r.Context(), req.CheckoutRef, domain.PaymentStatus(req.Status)); err != nil {
		c.writeServiceError(w, r, err, "payment not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, PaymentWebhookResponse{Status: "settled"})
}
