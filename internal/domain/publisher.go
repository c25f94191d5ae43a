package domain

import (
	"context"
	"time"
)

// Fact kinds published to downstream consumers (notifications, audit).
const (
	FactEventPublished        = "event.published"
	FactEventCancelled        = "event.cancelled"
	FactEventCompleted        = "event.completed"
	FactRegistrationCreated   = "registration.created"
	FactRegistrationCancelled = "registration.cancelled"
)

// Fact is a domain event emitted after a committed state change. Delivery is
// fire-and-forget and at-least-once; consumers must tolerate duplicates.
type Fact struct {
	Kind           string    `json:"kind"`
	OrgID          string    `json:"org_id"`
	EventID        string    `json:"event_id"`
	EventTitle     string    `json:"event_title,omitempty"`
	RegistrationID string    `json:"registration_id,omitempty"`
	TicketTypeID   string    `json:"ticket_type_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	// Payload for the registration notification consumer.
	ParticipantName      string `json:"participant_name,omitempty"`
	ParticipantEmail     string `json:"participant_email,omitempty"`
	ConfirmationCode     string `json:"confirmation_code,omitempty"`
	CancelReason         string `json:"cancel_reason,omitempty"`
	CancelledByOrganizer bool   `json:"cancelled_by_organizer,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// FactPublisher delivers domain facts to the message broker. Publish
// failures must not abort the workflow that produced the fact; callers log
// and continue.
type FactPublisher interface {
	Publish(ctx context.Context, fact Fact) error
}
