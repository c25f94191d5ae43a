package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"eventtickets/internal/delivery/http/helpers"
	"eventtickets/internal/domain"
)

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{Logger: logger, Service: svc}
}

// CreateRegistrationRequest is the request body for POST /orgs/{orgID}/events/{eventID}/registrations.
type CreateRegistrationRequest struct {
	TicketTypeID string            `json:"ticket_type_id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	CustomFields map[string]string `json:"custom_fields"`
}

// CancelRegistrationRequest is the request body for organizer cancellation.
type CancelRegistrationRequest struct {
	Reason string `json:"reason"`
}

// RegistrationListResponse is the success payload for GET /orgs/{orgID}/events/{eventID}/registrations.
type RegistrationListResponse struct {
	Registrations []*domain.Registration `json:"registrations"`
	Pagination    helpers.PaginationMeta `json:"pagination"`
}

// Create godoc
// @Summary Register for an event
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Param request body controllers.CreateRegistrationRequest true "Registration details"
// @Success 201 {object} helpers.APIResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (private event)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_registered, sold_out, sales_not_open, registration_closed"
// @Router /orgs/{orgID}/events/{eventID}/registrations [post]
func (c *RegistrationController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req CreateRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.TicketTypeID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing ticket_type_id")
		return
	}
	reg, err := c.Service.Create(r.Context(), r.PathValue("orgID"), r.PathValue("eventID"), req.TicketTypeID, domain.Participant{
		UserID:       userID,
		Name:         req.Name,
		Email:        req.Email,
		CustomFields: req.CustomFields,
	})
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reg)
}

// Cancel godoc
// @Summary Cancel your own registration
// @Tags registrations
// @Security BearerAuth
// @Param registrationID path string true "Registration ID"
// @Success 204 "cancelled"
// @Failure 409 {object} helpers.APIResponse "error.code: not_cancellable"
// @Router /registrations/{registrationID} [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	if _, err := c.Service.Cancel(r.Context(), r.PathValue("registrationID"), userID); err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelAsOrganizer godoc
// @Summary Cancel a registration on the organization's event
// @Tags registrations
// @Accept json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param registrationID path string true "Registration ID"
// @Param request body controllers.CancelRegistrationRequest false "Reason"
// @Success 204 "cancelled"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: not_cancellable"
// @Router /orgs/{orgID}/registrations/{registrationID} [delete]
func (c *RegistrationController) CancelAsOrganizer(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req CancelRegistrationRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	_, err := c.Service.CancelAsOrganizer(r.Context(), r.PathValue("orgID"), userID, r.PathValue("registrationID"), req.Reason)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List godoc
// @Summary List an event's registrations
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} helpers.APIResponse
// @Router /orgs/{orgID}/events/{eventID}/registrations [get]
func (c *RegistrationController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	p := helpers.ParsePagination(r)
	regs, total, err := c.Service.ListByEvent(r.Context(), r.PathValue("orgID"), userID, r.PathValue("eventID"), p)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RegistrationListResponse{
		Registrations: regs,
		Pagination:    helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// CheckIn godoc
// @Summary Check in by confirmation code
// @Description Unauthenticated: possession of the code is the security boundary.
// @Tags registrations
// @Produce json
// @Param code path string true "Confirmation code"
// @Success 200 {object} helpers.APIResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_checked_in, not_allowed"
// @Router /checkin/{code} [post]
func (c *RegistrationController) CheckIn(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing code")
		return
	}
	reg, err := c.Service.CheckIn(r.Context(), code)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}
