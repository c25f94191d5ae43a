package domain

import (
	"context"
	"time"
)

// EventStatus is the lifecycle status of an Event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// legalTransitions lists the allowed status edges. Cancelled and completed
// are terminal.
var legalTransitions = map[EventStatus][]EventStatus{
	EventDraft:     {EventPublished, EventCancelled},
	EventPublished: {EventDraft, EventCancelled, EventCompleted},
}

// CanTransitionTo reports whether the status machine allows moving from s to target.
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	for _, t := range legalTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Event is an organization-owned event aggregate.
// swagger:model Event
type Event struct {
	ID           string      `json:"id"`
	OrgID        string      `json:"org_id"`
	Title        string      `json:"title"`
	Slug         string      `json:"slug"`
	Description  string      `json:"description,omitempty"`
	Status       EventStatus `json:"status"`
	StartsAt     time.Time   `json:"starts_at"`
	EndsAt       time.Time   `json:"ends_at"`
	Timezone     string      `json:"timezone"`
	Capacity     *int        `json:"capacity,omitempty"`
	RegOpensAt   *time.Time  `json:"registration_opens_at,omitempty"`
	RegClosesAt  *time.Time  `json:"registration_closes_at,omitempty"`
	Private      bool        `json:"private"`
	GroupID      string      `json:"group_id,omitempty"`
	CancelReason string      `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time  `json:"cancelled_at,omitempty"`
	DeletedAt    *time.Time  `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Editable reports whether the event accepts field edits and ticket type
// mutations. Cancelled and completed events are frozen.
func (e *Event) Editable() bool {
	return e.Status == EventDraft || e.Status == EventPublished
}

// RegistrationOpen reports whether participants may register at the given
// instant: the event must be published and now must fall inside the optional
// registration window.
func (e *Event) RegistrationOpen(now time.Time) bool {
	if e.Status != EventPublished {
		return false
	}
	if e.RegOpensAt != nil && now.Before(*e.RegOpensAt) {
		return false
	}
	if e.RegClosesAt != nil && !now.Before(*e.RegClosesAt) {
		return false
	}
	return true
}

// EventUpdate carries optional field edits for an event. Nil fields are left unchanged.
type EventUpdate struct {
	Title       *string
	Description *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	Timezone    *string
	Capacity    *int
	RegOpensAt  *time.Time
	RegClosesAt *time.Time
	Private     *bool
	GroupID     *string
}

// EventRepository defines organization-scoped storage for events. Every
// lookup takes the caller's organization ID; a row owned by another
// organization behaves exactly like a missing row (ErrNotFound). Soft-deleted
// events are excluded from all reads.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, orgID, id string) (*Event, error)
	GetBySlug(ctx context.Context, orgID, slug string) (*Event, error)
	ListByOrg(ctx context.Context, orgID string, p PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, event *Event) error
	SoftDelete(ctx context.Context, orgID, id string, at time.Time) error
}

// EventService defines organizer-facing event operations, including the
// lifecycle transitions.
type EventService interface {
	Create(ctx context.Context, orgID, actorID string, event *Event) (*Event, error)
	Get(ctx context.Context, orgID, actorID, eventID string) (*Event, error)
	List(ctx context.Context, orgID, actorID string, p PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, orgID, actorID, eventID string, update EventUpdate) (*Event, error)
	Delete(ctx context.Context, orgID, actorID, eventID string) error

	Publish(ctx context.Context, orgID, actorID, eventID string) (*Event, error)
	Unpublish(ctx context.Context, orgID, actorID, eventID string) (*Event, error)
	Cancel(ctx context.Context, orgID, actorID, eventID, reason string) (*Event, error)
	Complete(ctx context.Context, orgID, actorID, eventID string) (*Event, error)
}
