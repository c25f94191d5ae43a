package domain

import "errors"

// Sentinel errors shared across services. Repositories and services return
// these directly; the delivery layer maps them to HTTP statuses.
var (
	// ErrNotFound covers every lookup miss, including rows that exist under
	// a different organization. Callers must not be able to tell those apart.
	ErrNotFound = errors.New("not found")

	ErrSlugTaken      = errors.New("slug already in use for this organization")
	ErrInvalidInput   = errors.New("invalid input")
	ErrAccessDenied   = errors.New("access denied")
	ErrNotAuthorized  = errors.New("not authorized for this organization")
	ErrDuplicateEmail = errors.New("email already in use")

	// Event lifecycle.
	ErrInvalidTransition = errors.New("invalid event status transition")
	ErrEventInPast       = errors.New("event start time is in the past")
	ErrNoTicketTypes     = errors.New("event has no active ticket types")
	ErrNotEditable       = errors.New("event is not editable in its current status")

	// Ticket inventory.
	ErrSalesNotOpen     = errors.New("ticket sales are not open")
	ErrSoldOut          = errors.New("ticket type is sold out")
	ErrHasRegistrations = errors.New("ticket type has registrations")

	// Registration workflow.
	ErrRegistrationClosed = errors.New("registration is closed for this event")
	ErrAlreadyRegistered  = errors.New("user already has an active registration for this event")
	ErrNotCancellable     = errors.New("registration is already cancelled")
	ErrAlreadyCheckedIn   = errors.New("registration is already checked in")
	ErrNotCheckedInable   = errors.New("registration cannot be checked in")
)
