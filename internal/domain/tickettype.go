package domain

import (
	"context"
	"time"
)

// TicketType is a named admission category for an event with its own
// capacity and sales window. Quantity nil means unlimited.
//
// SoldCount and ReservedCount are authoritative counters stored on the row
// itself, not derived from registrations. The invariant
// SoldCount+ReservedCount <= Quantity is enforced under an exclusive row
// lock; see the postgres inventory implementation.
// swagger:model TicketType
type TicketType struct {
	ID            string     `json:"id"`
	EventID       string     `json:"event_id"`
	Name          string     `json:"name"`
	Quantity      *int       `json:"quantity,omitempty"`
	SoldCount     int        `json:"sold_count"`
	ReservedCount int        `json:"reserved_count"`
	SalesOpenAt   *time.Time `json:"sales_open_at,omitempty"`
	SalesCloseAt  *time.Time `json:"sales_close_at,omitempty"`
	Active        bool       `json:"active"`
	SortOrder     int        `json:"sort_order"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SalesOpen reports whether the sales window includes the given instant.
// A ticket type with no window is always open while active.
func (t *TicketType) SalesOpen(now time.Time) bool {
	if !t.Active {
		return false
	}
	if t.SalesOpenAt != nil && now.Before(*t.SalesOpenAt) {
		return false
	}
	if t.SalesCloseAt != nil && !now.Before(*t.SalesCloseAt) {
		return false
	}
	return true
}

// CanReserve decides whether one more ticket may be sold at the given
// instant. Returns ErrSalesNotOpen or ErrSoldOut. The caller must hold the
// exclusive lock on the row for the result to be trustworthy.
func (t *TicketType) CanReserve(now time.Time) error {
	if !t.SalesOpen(now) {
		return ErrSalesNotOpen
	}
	if t.Quantity != nil && t.SoldCount+t.ReservedCount >= *t.Quantity {
		return ErrSoldOut
	}
	return nil
}

// Claimed returns the number of tickets currently held against capacity.
func (t *TicketType) Claimed() int {
	return t.SoldCount + t.ReservedCount
}

// TicketTypeUpdate carries optional field edits. Nil fields are left
// unchanged. Quantity uses a double pointer so "set to unlimited" (non-nil
// pointing at nil) is distinguishable from "leave alone" (nil).
type TicketTypeUpdate struct {
	Name         *string
	Quantity     **int
	SalesOpenAt  *time.Time
	SalesCloseAt *time.Time
	Active       *bool
	SortOrder    *int
}

// TicketTypeRepository defines storage for ticket types. All lookups are
// scoped to the organization through the owning event. Update applies every
// edit in one transaction; with setQuantity the capacity change rides along
// under the row lock, so a reduction below the claimed count fails with
// ErrHasRegistrations and none of the edit is applied. Delete enforces the
// same history guard.
type TicketTypeRepository interface {
	Create(ctx context.Context, tt *TicketType) error
	GetByID(ctx context.Context, orgID, id string) (*TicketType, error)
	ListByEvent(ctx context.Context, orgID, eventID string) ([]*TicketType, error)
	CountActiveByEvent(ctx context.Context, orgID, eventID string) (int, error)
	Update(ctx context.Context, orgID string, tt *TicketType, setQuantity bool) error
	Delete(ctx context.Context, orgID, id string) error
}

// TicketTypeService defines organizer-facing ticket type operations.
type TicketTypeService interface {
	Create(ctx context.Context, orgID, actorID, eventID string, tt *TicketType) (*TicketType, error)
	List(ctx context.Context, orgID, actorID, eventID string) ([]*TicketType, error)
	Update(ctx context.Context, orgID, actorID, eventID, ticketTypeID string, update TicketTypeUpdate) (*TicketType, error)
	Delete(ctx context.Context, orgID, actorID, eventID, ticketTypeID string) error
}
