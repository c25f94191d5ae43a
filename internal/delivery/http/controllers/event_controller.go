package controllers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"eventtickets/internal/delivery/http/helpers"
	"eventtickets/internal/delivery/http/middleware"
	"eventtickets/internal/domain"
)

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{Logger: logger, Service: svc}
}

// CreateEventRequest is the request body for POST /orgs/{orgID}/events.
type CreateEventRequest struct {
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      time.Time  `json:"ends_at"`
	Timezone    string     `json:"timezone"`
	Capacity    *int       `json:"capacity"`
	RegOpensAt  *time.Time `json:"registration_opens_at"`
	RegClosesAt *time.Time `json:"registration_closes_at"`
	Private     bool       `json:"private"`
	GroupID     string     `json:"group_id"`
}

// UpdateEventRequest is the request body for PATCH /orgs/{orgID}/events/{eventID}.
// Absent fields are left unchanged.
type UpdateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Timezone    *string    `json:"timezone"`
	Capacity    *int       `json:"capacity"`
	RegOpensAt  *time.Time `json:"registration_opens_at"`
	RegClosesAt *time.Time `json:"registration_closes_at"`
	Private     *bool      `json:"private"`
	GroupID     *string    `json:"group_id"`
}

// CancelEventRequest is the request body for POST /orgs/{orgID}/events/{eventID}/cancel.
type CancelEventRequest struct {
	Reason string `json:"reason"`
}

// EventListResponse is the success payload for GET /orgs/{orgID}/events.
type EventListResponse struct {
	Events     []*domain.Event        `json:"events"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

func actorID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// Create godoc
// @Summary Create a draft event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param request body controllers.CreateEventRequest true "Event details"
// @Success 201 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: slug_taken"
// @Router /orgs/{orgID}/events [post]
func (c *EventController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid JSON body")
		return
	}
	event := &domain.Event{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Timezone:    req.Timezone,
		Capacity:    req.Capacity,
		RegOpensAt:  req.RegOpensAt,
		RegClosesAt: req.RegClosesAt,
		Private:     req.Private,
		GroupID:     req.GroupID,
	}
	created, err := c.Service.Create(r.Context(), r.PathValue("orgID"), userID, event)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, created)
}

// Get godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /orgs/{orgID}/events/{eventID} [get]
func (c *EventController) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.Get(r.Context(), r.PathValue("orgID"), userID, r.PathValue("eventID"))
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// List godoc
// @Summary List the organization's events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} helpers.APIResponse
// @Router /orgs/{orgID}/events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	p := helpers.ParsePagination(r)
	events, total, err := c.Service.List(r.Context(), r.PathValue("orgID"), userID, p)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, EventListResponse{
		Events:     events,
		Pagination: helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// Update godoc
// @Summary Update event fields
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Param request body controllers.UpdateEventRequest true "Field edits"
// @Success 200 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: not_editable"
// @Router /orgs/{orgID}/events/{eventID} [patch]
func (c *EventController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req UpdateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid JSON body")
		return
	}
	update := domain.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Timezone:    req.Timezone,
		Capacity:    req.Capacity,
		RegOpensAt:  req.RegOpensAt,
		RegClosesAt: req.RegClosesAt,
		Private:     req.Private,
		GroupID:     req.GroupID,
	}
	event, err := c.Service.Update(r.Context(), r.PathValue("orgID"), userID, r.PathValue("eventID"), update)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// Delete godoc
// @Summary Soft-delete an event
// @Tags events
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Success 204 "deleted"
// @Router /orgs/{orgID}/events/{eventID} [delete]
func (c *EventController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), r.PathValue("orgID"), userID, r.PathValue("eventID")); err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Publish godoc
// @Summary Publish a draft event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition, event_in_past, no_ticket_types"
// @Router /orgs/{orgID}/events/{eventID}/publish [post]
func (c *EventController) Publish(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.Service.Publish)
}

// Unpublish godoc
// @Summary Return a published event to draft
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Router /orgs/{orgID}/events/{eventID}/unpublish [post]
func (c *EventController) Unpublish(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.Service.Unpublish)
}

// Complete godoc
// @Summary Complete a published event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Router /orgs/{orgID}/events/{eventID}/complete [post]
func (c *EventController) Complete(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.Service.Complete)
}

// Cancel godoc
// @Summary Cancel an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Param request body controllers.CancelEventRequest false "Optional reason"
// @Success 200 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: invalid_transition"
// @Router /orgs/{orgID}/events/{eventID}/cancel [post]
func (c *EventController) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req CancelEventRequest
	if r.Body != nil {
		// Body is optional; a decode failure on an empty body is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	event, err := c.Service.Cancel(r.Context(), r.PathValue("orgID"), userID, r.PathValue("eventID"), req.Reason)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

func (c *EventController) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, orgID, actorID, eventID string) (*domain.Event, error)) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	event, err := op(r.Context(), r.PathValue("orgID"), userID, r.PathValue("eventID"))
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
