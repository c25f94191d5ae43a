package helpers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"eventtickets/internal/domain"
)

// conflictCodes maps the client-correctable state conflicts to their
// machine-readable codes. All of them surface as 409.
var conflictCodes = map[error]string{
	domain.ErrSlugTaken:          ErrCodeSlugTaken,
	domain.ErrInvalidTransition:  ErrCodeInvalidTransition,
	domain.ErrEventInPast:        ErrCodeEventInPast,
	domain.ErrNoTicketTypes:      ErrCodeNoTicketTypes,
	domain.ErrNotEditable:        ErrCodeNotEditable,
	domain.ErrSalesNotOpen:       ErrCodeSalesNotOpen,
	domain.ErrSoldOut:            ErrCodeSoldOut,
	domain.ErrHasRegistrations:   ErrCodeHasRegistrations,
	domain.ErrRegistrationClosed: ErrCodeRegistrationClosed,
	domain.ErrAlreadyRegistered:  ErrCodeAlreadyRegistered,
	domain.ErrNotCancellable:     ErrCodeNotCancellable,
	domain.ErrAlreadyCheckedIn:   ErrCodeAlreadyCheckedIn,
	domain.ErrNotCheckedInable:   ErrCodeNotAllowed,
	domain.ErrDuplicateEmail:     ErrCodeDuplicateEmail,
}

// WriteDomainError maps a service error to the client-visible response.
// Unrecognized errors are logged and surfaced as 500.
func WriteDomainError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
		return
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, domain.ErrAccessDenied), errors.Is(err, domain.ErrNotAuthorized):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "access denied")
		return
	}
	for sentinel, code := range conflictCodes {
		if errors.Is(err, sentinel) {
			WriteJSONError(w, http.StatusConflict, code, sentinel.Error())
			return
		}
	}
	logger.ErrorContext(ctx, "request failed", "err", err)
	WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
}
