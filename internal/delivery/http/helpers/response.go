package helpers

import (
	"encoding/json"
	"net/http"
)

// Error codes for API error responses. Use these with WriteJSONError.
// Conflict responses additionally carry a specific code so clients can react
// to the exact state conflict.
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeForbidden     = "forbidden"
	ErrCodeNotFound      = "not_found"
	ErrCodeInternalError = "internal_error"

	ErrCodeSlugTaken          = "slug_taken"
	ErrCodeInvalidTransition  = "invalid_transition"
	ErrCodeEventInPast        = "event_in_past"
	ErrCodeNoTicketTypes      = "no_ticket_types"
	ErrCodeNotEditable        = "not_editable"
	ErrCodeSalesNotOpen       = "sales_not_open"
	ErrCodeSoldOut            = "sold_out"
	ErrCodeHasRegistrations   = "has_registrations"
	ErrCodeRegistrationClosed = "registration_closed"
	ErrCodeAlreadyRegistered  = "already_registered"
	ErrCodeNotCancellable     = "not_cancellable"
	ErrCodeAlreadyCheckedIn   = "already_checked_in"
	ErrCodeNotAllowed         = "not_allowed"
	ErrCodeDuplicateEmail     = "duplicate_email"
)

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: nil})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Data:  nil,
		Error: &APIError{Code: code, Message: message},
	})
}
