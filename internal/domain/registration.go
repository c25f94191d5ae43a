package domain

import (
	"context"
	"time"
)

// RegistrationStatus is the lifecycle status of a Registration.
type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCheckedIn RegistrationStatus = "checked_in"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Active reports whether the registration still holds a ticket.
func (s RegistrationStatus) Active() bool {
	return s != RegistrationCancelled
}

// Registration is a participant's claim on one ticket of a ticket type.
// The confirmation code is globally unique, immutable, and the only public
// lookup key for check-in.
// swagger:model Registration
type Registration struct {
	ID                   string             `json:"id"`
	EventID              string             `json:"event_id"`
	TicketTypeID         string             `json:"ticket_type_id"`
	OrgID                string             `json:"org_id"`
	UserID               string             `json:"user_id"`
	ConfirmationCode     string             `json:"confirmation_code"`
	Status               RegistrationStatus `json:"status"`
	Name                 string             `json:"name"`
	Email                string             `json:"email"`
	CustomFields         map[string]string  `json:"custom_fields,omitempty"`
	CheckedInAt          *time.Time         `json:"checked_in_at,omitempty"`
	CancelledAt          *time.Time         `json:"cancelled_at,omitempty"`
	CancelReason         string             `json:"cancel_reason,omitempty"`
	CancelledByOrganizer bool               `json:"cancelled_by_organizer,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// Participant carries the personal fields captured at registration time.
type Participant struct {
	UserID       string
	Name         string
	Email        string
	CustomFields map[string]string
}

// RegistrationRepository defines storage for registrations.
//
// CreateWithReservation and CancelWithRelease are the two transactional
// entry points of the ticket inventory: each runs the counter mutation and
// the registration row change as one atomic unit while holding the exclusive
// lock on the ticket type row.
type RegistrationRepository interface {
	// CreateWithReservation locks the ticket type row, re-validates its
	// sales window and capacity at now, increments sold_count, and inserts
	// reg, all in one transaction. Returns ErrNotFound, ErrSalesNotOpen,
	// ErrSoldOut, or ErrAlreadyRegistered.
	CreateWithReservation(ctx context.Context, reg *Registration, now time.Time) error
	// CancelWithRelease marks reg cancelled and decrements the ticket type's
	// sold_count (never below zero) in one transaction. Returns
	// ErrNotCancellable if the row is already cancelled.
	CancelWithRelease(ctx context.Context, reg *Registration) error

	GetByID(ctx context.Context, orgID, id string) (*Registration, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*Registration, error)
	GetByCode(ctx context.Context, code string) (*Registration, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*Registration, error)
	ListByEvent(ctx context.Context, orgID, eventID string, p PaginationParams) ([]*Registration, int, error)
	MarkCheckedIn(ctx context.Context, id string, at time.Time) error
}

// RegistrationService orchestrates the registration workflow: event
// validity, membership, duplicate prevention, inventory reservation,
// confirmation code issue, and domain fact publication.
type RegistrationService interface {
	Create(ctx context.Context, orgID, eventID, ticketTypeID string, participant Participant) (*Registration, error)
	// Cancel cancels the actor's own registration.
	Cancel(ctx context.Context, registrationID, actorID string) (*Registration, error)
	// CancelAsOrganizer cancels any registration on the organization's
	// events; requires a management role and records the reason.
	CancelAsOrganizer(ctx context.Context, orgID, actorID, registrationID, reason string) (*Registration, error)
	// CheckIn looks up a registration by confirmation code and marks it
	// checked in. No authentication: code secrecy is the security boundary.
	CheckIn(ctx context.Context, code string) (*Registration, error)
	ListByEvent(ctx context.Context, orgID, actorID, eventID string, p PaginationParams) ([]*Registration, int, error)
}
