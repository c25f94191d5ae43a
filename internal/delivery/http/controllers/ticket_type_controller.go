package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"eventtickets/internal/delivery/http/helpers"
	"eventtickets/internal/domain"
)

type TicketTypeController struct {
	Logger  *slog.Logger
	Service domain.TicketTypeService
}

func NewTicketTypeController(logger *slog.Logger, svc domain.TicketTypeService) *TicketTypeController {
	return &TicketTypeController{Logger: logger, Service: svc}
}

// CreateTicketTypeRequest is the request body for POST /orgs/{orgID}/events/{eventID}/ticket-types.
type CreateTicketTypeRequest struct {
	Name         string     `json:"name"`
	Quantity     *int       `json:"quantity"`
	SalesOpenAt  *time.Time `json:"sales_open_at"`
	SalesCloseAt *time.Time `json:"sales_close_at"`
	Active       *bool      `json:"active"`
	SortOrder    int        `json:"sort_order"`
}

// UpdateTicketTypeRequest is the request body for PATCH .../ticket-types/{ticketTypeID}.
// Absent fields are left unchanged. "quantity": null sets unlimited capacity,
// which is why the field is decoded separately from its presence.
type UpdateTicketTypeRequest struct {
	Name         *string         `json:"name"`
	Quantity     json.RawMessage `json:"quantity"`
	SalesOpenAt  *time.Time      `json:"sales_open_at"`
	SalesCloseAt *time.Time      `json:"sales_close_at"`
	Active       *bool           `json:"active"`
	SortOrder    *int            `json:"sort_order"`
}

// Create godoc
// @Summary Add a ticket type to an event
// @Tags ticket-types
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Param request body controllers.CreateTicketTypeRequest true "Ticket type"
// @Success 201 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: not_editable"
// @Router /orgs/{orgID}/events/{eventID}/ticket-types [post]
func (c *TicketTypeController) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req CreateTicketTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid JSON body")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	tt := &domain.TicketType{
		Name:         req.Name,
		Quantity:     req.Quantity,
		SalesOpenAt:  req.SalesOpenAt,
		SalesCloseAt: req.SalesCloseAt,
		Active:       active,
		SortOrder:    req.SortOrder,
	}
	created, err := c.Service.Create(r.Context(), r.PathValue("orgID"), userID, r.PathValue("eventID"), tt)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, created)
}

// List godoc
// @Summary List an event's ticket types
// @Tags ticket-types
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse
// @Router /orgs/{orgID}/events/{eventID}/ticket-types [get]
func (c *TicketTypeController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	types, err := c.Service.List(r.Context(), r.PathValue("orgID"), userID, r.PathValue("eventID"))
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, types)
}

// Update godoc
// @Summary Update a ticket type
// @Description Quantity reductions below the number of already-claimed tickets fail with has_registrations.
// @Tags ticket-types
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Param ticketTypeID path string true "Ticket type ID"
// @Param request body controllers.UpdateTicketTypeRequest true "Field edits"
// @Success 200 {object} helpers.APIResponse
// @Failure 409 {object} helpers.APIResponse "error.code: has_registrations, not_editable"
// @Router /orgs/{orgID}/events/{eventID}/ticket-types/{ticketTypeID} [patch]
func (c *TicketTypeController) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	var req UpdateTicketTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid JSON body")
		return
	}
	update := domain.TicketTypeUpdate{
		Name:         req.Name,
		SalesOpenAt:  req.SalesOpenAt,
		SalesCloseAt: req.SalesCloseAt,
		Active:       req.Active,
		SortOrder:    req.SortOrder,
	}
	if len(req.Quantity) > 0 {
		var quantity *int
		if err := json.Unmarshal(req.Quantity, &quantity); err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid quantity")
			return
		}
		update.Quantity = &quantity
	}
	tt, err := c.Service.Update(r.Context(), r.PathValue("orgID"), userID, r.PathValue("eventID"), r.PathValue("ticketTypeID"), update)
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, tt)
}

// Delete godoc
// @Summary Delete a ticket type with no registrations
// @Description Ticket types with sold or reserved tickets cannot be deleted; deactivate them instead.
// @Tags ticket-types
// @Security BearerAuth
// @Param orgID path string true "Organization ID"
// @Param eventID path string true "Event ID"
// @Param ticketTypeID path string true "Ticket type ID"
// @Success 204 "deleted"
// @Failure 409 {object} helpers.APIResponse "error.code: has_registrations"
// @Router /orgs/{orgID}/events/{eventID}/ticket-types/{ticketTypeID} [delete]
func (c *TicketTypeController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}
	err := c.Service.Delete(r.Context(), r.PathValue("orgID"), userID, r.PathValue("eventID"), r.PathValue("ticketTypeID"))
	if err != nil {
		helpers.WriteDomainError(r.Context(), w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
