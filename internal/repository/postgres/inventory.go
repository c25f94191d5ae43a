package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eventtickets/internal/domain"
)

// Ticket inventory primitives. Both run on an open transaction so the
// capacity decision and the statements that depend on it commit together.
//
// reserveOne is the single enforcement point of the oversell invariant:
// SELECT ... FOR UPDATE takes an exclusive lock on the ticket type row, so
// concurrent reservations for the same ticket type are strictly serialized
// and the second caller observes the first caller's committed counter.
// The org predicate rides along via the events join, so a ticket type in
// another organization is indistinguishable from a missing one.

// reserveOne locks the ticket type row, re-checks the sales window and
// capacity at now, and increments sold_count. Returns domain.ErrNotFound,
// domain.ErrSalesNotOpen, or domain.ErrSoldOut.
func reserveOne(ctx context.Context, tx *sql.Tx, orgID, ticketTypeID string, now time.Time) (*domain.TicketType, error) {
	query := `
		SELECT tt.id, tt.event_id, tt.name, tt.quantity, tt.sold_count, tt.reserved_count,
			tt.sales_open_at, tt.sales_close_at, tt.active, tt.sort_order, tt.created_at, tt.updated_at
		FROM ticket_types tt
		JOIN events e ON e.id = tt.event_id AND e.org_id = $2 AND e.deleted_at IS NULL
		WHERE tt.id = $1
		FOR UPDATE OF tt
	`
	tt := &domain.TicketType{}
	err := tx.QueryRowContext(ctx, query, ticketTypeID, orgID).Scan(
		&tt.ID, &tt.EventID, &tt.Name, &tt.Quantity, &tt.SoldCount, &tt.ReservedCount,
		&tt.SalesOpenAt, &tt.SalesCloseAt, &tt.Active, &tt.SortOrder, &tt.CreatedAt, &tt.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if err := tt.CanReserve(now); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE ticket_types SET sold_count = sold_count + 1, updated_at = $2 WHERE id = $1`,
		tt.ID, now,
	); err != nil {
		return nil, err
	}
	tt.SoldCount++
	return tt, nil
}

// releaseOne decrements sold_count for the ticket type, never below zero.
// Used on cancellation; the row lock from the UPDATE itself is sufficient
// since no check-then-write gap exists.
func releaseOne(ctx context.Context, tx *sql.Tx, ticketTypeID string, now time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE ticket_types SET sold_count = GREATEST(sold_count - 1, 0), updated_at = $2 WHERE id = $1`,
		ticketTypeID, now,
	)
	return err
}

// lockClaimed locks the ticket type row and returns sold_count+reserved_count.
// Used by the quantity-reduction and deletion guards so the history check and
// the mutation that depends on it are serialized against reservations.
func lockClaimed(ctx context.Context, tx *sql.Tx, orgID, ticketTypeID string) (claimed int, quantity *int, err error) {
	query := `
		SELECT tt.sold_count + tt.reserved_count, tt.quantity
		FROM ticket_types tt
		JOIN events e ON e.id = tt.event_id AND e.org_id = $2 AND e.deleted_at IS NULL
		WHERE tt.id = $1
		FOR UPDATE OF tt
	`
	err = tx.QueryRowContext(ctx, query, ticketTypeID, orgID).Scan(&claimed, &quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, domain.ErrNotFound
		}
		return 0, nil, err
	}
	return claimed, quantity, nil
}
