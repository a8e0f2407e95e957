package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	h "eventadmission/internal/delivery/http/helpers"
	"eventadmission/internal/delivery/http/middleware"
	"eventadmission/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	OrgID           string     `json:"org_id"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          time.Time  `json:"ends_at"`
	RequiresTicket  bool       `json:"requires_ticket"`
	RSVPBefore      *time.Time `json:"rsvp_before"`
	MaxAttendees    *int       `json:"max_attendees"`
	WaitlistEnabled bool       `json:"waitlist_enabled"`
	PotluckEnabled  bool       `json:"potluck_enabled"`
}

// Validate implements Validator.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.OrgID) == "" {
		errs = append(errs, "org_id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	switch domain.EventType(c.Type) {
	case domain.EventPublic, domain.EventMembersOnly, domain.EventPrivate:
	default:
		errs = append(errs, "type must be PUBLIC, MEMBERS_ONLY, or PRIVATE")
	}
	if c.StartsAt.IsZero() || c.EndsAt.IsZero() {
		errs = append(errs, "starts_at and ends_at are required")
	}
	if c.MaxAttendees != nil && *c.MaxAttendees < 1 {
		errs = append(errs, "max_attendees must be at least 1")
	}
	return errs
}

// CreateEventSuccessResponse is the success response envelope for POST /events (201).
type CreateEventSuccessResponse struct {
	Data  *domain.Event `json:"data"`
	Error *h.APIError   `json:"error"`
}

// EventStatusSuccessResponse is the success response envelope for the open and close transitions (200).
type EventStatusSuccessResponse struct {
	Data  *domain.Event `json:"data"`
	Error *h.APIError   `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// writeServiceError maps the shared sentinel errors to HTTP statuses and logs
// anything unexpected. Controllers call it after their operation-specific cases.
func (c *EventController) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
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

// CreateEvent godoc
// @Summary Create a new event
// @Description Create a draft event for an organization. Only organization staff can create events. Events always start in DRAFT regardless of request content.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.CreateEventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not staff)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event := domain.NewEvent(req.OrgID, req.Name, domain.EventType(req.Type), req.StartsAt, req.EndsAt)
	event.RequiresTicket = req.RequiresTicket
	event.RSVPBefore = req.RSVPBefore
	event.MaxAttendees = req.MaxAttendees
	event.WaitlistEnabled = req.WaitlistEnabled
	event.PotluckEnabled = req.PotluckEnabled
	if err := c.Service.CreateEvent(r.Context(), userID, event); err != nil {
		c.writeServiceError(w, r, err, "organization not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, event)
}

// OpenEvent godoc
// @Summary Open an event
// @Description Transitions a DRAFT event to OPEN so attendees can register. Only organization staff can open. Returns 409 if the event is not in DRAFT.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventStatusSuccessResponse "data contains the updated event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not staff)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not in DRAFT)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/open [post]
func (c *EventController) OpenEvent(w http.ResponseWriter, r *http.Request) {
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
	event, err := c.Service.OpenEvent(r.Context(), userID, eventID)
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// CloseEvent godoc
// @Summary Close an event
// @Description Transitions an OPEN event to CLOSED. Only organization staff can close. Returns 409 if the event is not OPEN.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventStatusSuccessResponse "data contains the updated event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not staff)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not OPEN)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/close [post]
func (c *EventController) CloseEvent(w http.ResponseWriter, r *http.Request) {
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
	event, err := c.Service.CloseEvent(r.Context(), userID, eventID)
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateTierRequest is the request body for POST /events/{eventID}/tiers.
type CreateTierRequest struct {
	Name         string    `json:"name"`
	PriceCents   int       `json:"price_cents"`
	PWYCMinCents *int      `json:"pwyc_min_cents"`
	PWYCMaxCents *int      `json:"pwyc_max_cents"`
	PaymentMode  string    `json:"payment_mode"`
	SalesStartAt time.Time `json:"sales_start_at"`
	SalesEndAt   time.Time `json:"sales_end_at"`
	Quantity     *int      `json:"quantity"`
	Visibility   string    `json:"visibility"`
}

// Validate implements Validator.
func (c CreateTierRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if c.PriceCents < 0 {
		errs = append(errs, "price_cents must be non-negative")
	}
	switch domain.PaymentMode(c.PaymentMode) {
	case domain.PaymentOnline, domain.PaymentOffline, domain.PaymentFree:
	default:
		errs = append(errs, "payment_mode must be online, offline, or free")
	}
	if c.Visibility != "" {
		switch domain.TierVisibility(c.Visibility) {
		case domain.TierPublic, domain.TierMembersOnly, domain.TierInvitationOnly:
		default:
			errs = append(errs, "visibility must be public, members-only, or invitation-only")
		}
	}
	if c.SalesStartAt.IsZero() || c.SalesEndAt.IsZero() {
		errs = append(errs, "sales_start_at and sales_end_at are required")
	} else if !c.SalesEndAt.After(c.SalesStartAt) {
		errs = append(errs, "sales_end_at must be after sales_start_at")
	}
	if c.Quantity != nil && *c.Quantity < 1 {
		errs = append(errs, "quantity must be at least 1")
	}
	return errs
}

// CreateTierSuccessResponse is the success response envelope for POST /events/{eventID}/tiers (201).
type CreateTierSuccessResponse struct {
	Data  *domain.TicketTier `json:"data"`
	Error *h.APIError        `json:"error"`
}

// CreateTier godoc
// @Summary Create a ticket tier
// @Description Adds a ticket tier to a ticketed event. Only organization staff can create tiers. RSVP-only events reject tiers with 400.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body CreateTierRequest true "Tier data"
// @Success 201 {object} controllers.CreateTierSuccessResponse "data contains the created tier"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not staff)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/tiers [post]
func (c *EventController) CreateTier(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req CreateTierRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	tier := &domain.TicketTier{
		EventID:      eventID,
		Name:         req.Name,
		PriceCents:   req.PriceCents,
		PWYCMinCents: req.PWYCMinCents,
		PWYCMaxCents: req.PWYCMaxCents,
		PaymentMode:  domain.PaymentMode(req.PaymentMode),
		SalesStartAt: req.SalesStartAt,
		SalesEndAt:   req.SalesEndAt,
		Quantity:     req.Quantity,
		Visibility:   domain.TierVisibility(req.Visibility),
	}
	if err := c.Service.CreateTier(r.Context(), userID, tier); err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, tier)
}

// InviteRequest is the request body for POST /events/{eventID}/invitations.
type InviteRequest struct {
	Email     string     `json:"email"`
	Waives    []string   `json:"waives"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Validate implements Validator.
func (i InviteRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(i.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	for _, w := range i.Waives {
		switch domain.Waiver(w) {
		case domain.WaiveMembership, domain.WaiveAvailability, domain.WaiveRSVPDeadline, domain.WaiveQuestionnaire:
		default:
			errs = append(errs, "unknown waiver: "+w)
		}
	}
	return errs
}

// InviteResponse is the data payload for POST /events/{eventID}/invitations (201).
type InviteResponse struct {
	Status string `json:"status"`
}

// InviteSuccessResponse is the success response envelope for POST /events/{eventID}/invitations (201).
type InviteSuccessResponse struct {
	Data  InviteResponse `json:"data"`
	Error *h.APIError    `json:"error"`
}

// Invite godoc
// @Summary Invite a user to an event
// @Description Invite an email to a private event, optionally waiving admission checks. Registered users get an invitation record; unknown emails get a pending invitation that converts at sign-up. Only organization staff can invite.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body InviteRequest true "Invitation data"
// @Success 201 {object} controllers.InviteSuccessResponse "data contains status"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not staff)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations [post]
func (c *EventController) Invite(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req InviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	waives := make([]domain.Waiver, 0, len(req.Waives))
	for _, wv := range req.Waives {
		waives = append(waives, domain.Waiver(wv))
	}
	if err := c.Service.Invite(r.Context(), userID, eventID, req.Email, waives, req.ExpiresAt); err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, InviteResponse{Status: "invited"})
}

// ListAttendeesResponse is the data payload for GET /events/{eventID}/attendees (200).
type ListAttendeesResponse struct {
	Items      []*domain.Attendee `json:"items"`
	Pagination h.PaginationMeta   `json:"pagination"`
}

// ListAttendeesSuccessResponse is the success response envelope for GET /events/{eventID}/attendees (200).
type ListAttendeesSuccessResponse struct {
	Data  ListAttendeesResponse `json:"data"`
	Error *h.APIError           `json:"error"`
}

// ListAttendees godoc
// @Summary List confirmed attendees
// @Description Returns a paginated list of confirmed attendees (YES RSVPs and live ticket holders). Only organization staff can list. Use page and page_size query params.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListAttendeesSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not staff)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees [get]
func (c *EventController) ListAttendees(w http.ResponseWriter, r *http.Request) {
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
	params := h.ParsePagination(r)
	list, total, err := c.Service.ListAttendees(r.Context(), userID, eventID, params)
	if err != nil {
		c.writeServiceError(w, r, err, "event not found")
		return
	}
	if list == nil {
		list = []*domain.Attendee{}
	}
	meta := h.NewPaginationMeta(params.Page, params.PageSize, total)
	h.WriteJSONSuccess(w, http.StatusOK, ListAttendeesResponse{Items: list, Pagination: meta})
}
