package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventtickets/internal/domain"
)

type ticketTypeRepository struct {
	DB *sql.DB
}

func NewTicketTypeRepository(db *sql.DB) domain.TicketTypeRepository {
	return &ticketTypeRepository{DB: db}
}

const ticketTypeColumns = `tt.id, tt.event_id, tt.name, tt.quantity, tt.sold_count, tt.reserved_count,
	tt.sales_open_at, tt.sales_close_at, tt.active, tt.sort_order, tt.created_at, tt.updated_at`

func scanTicketType(row interface{ Scan(...any) error }) (*domain.TicketType, error) {
	tt := &domain.TicketType{}
	err := row.Scan(
		&tt.ID, &tt.EventID, &tt.Name, &tt.Quantity, &tt.SoldCount, &tt.ReservedCount,
		&tt.SalesOpenAt, &tt.SalesCloseAt, &tt.Active, &tt.SortOrder, &tt.CreatedAt, &tt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tt, nil
}

func (r *ticketTypeRepository) Create(ctx context.Context, tt *domain.TicketType) error {
	query := `
		INSERT INTO ticket_types (event_id, name, quantity, sold_count, reserved_count,
			sales_open_at, sales_close_at, active, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		tt.EventID, tt.Name, tt.Quantity, tt.SalesOpenAt, tt.SalesCloseAt,
		tt.Active, tt.SortOrder, tt.CreatedAt, tt.UpdatedAt,
	).Scan(&tt.ID)
}

func (r *ticketTypeRepository) GetByID(ctx context.Context, orgID, id string) (*domain.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types tt
		JOIN events e ON e.id = tt.event_id AND e.org_id = $2 AND e.deleted_at IS NULL
		WHERE tt.id = $1
	`
	tt, err := scanTicketType(r.DB.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return tt, nil
}

func (r *ticketTypeRepository) ListByEvent(ctx context.Context, orgID, eventID string) ([]*domain.TicketType, error) {
	query := `
		SELECT ` + ticketTypeColumns + `
		FROM ticket_types tt
		JOIN events e ON e.id = tt.event_id AND e.org_id = $2 AND e.deleted_at IS NULL
		WHERE tt.event_id = $1
		ORDER BY tt.sort_order, tt.created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*domain.TicketType
	for rows.Next() {
		tt, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, tt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if types == nil {
		types = []*domain.TicketType{}
	}
	return types, nil
}

func (r *ticketTypeRepository) CountActiveByEvent(ctx context.Context, orgID, eventID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM ticket_types tt
		JOIN events e ON e.id = tt.event_id AND e.org_id = $2 AND e.deleted_at IS NULL
		WHERE tt.event_id = $1 AND tt.active
	`, eventID, orgID).Scan(&n)
	return n, err
}

// Update persists field edits in one transaction. With setQuantity the new
// capacity is written in the same statement after the history check runs
// under the row lock reservations take, so a quantity reduction below the
// claimed count fails with ErrHasRegistrations and no part of the edit lands.
func (r *ticketTypeRepository) Update(ctx context.Context, orgID string, tt *domain.TicketType, setQuantity bool) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	claimed, _, err := lockClaimed(ctx, tx, orgID, tt.ID)
	if err != nil {
		return err
	}
	if setQuantity && tt.Quantity != nil && claimed > 0 && *tt.Quantity < claimed {
		err = domain.ErrHasRegistrations
		return err
	}

	if setQuantity {
		_, err = tx.ExecContext(ctx, `
			UPDATE ticket_types SET name = $1, sales_open_at = $2, sales_close_at = $3,
				active = $4, sort_order = $5, quantity = $6, updated_at = $7
			WHERE id = $8
		`, tt.Name, tt.SalesOpenAt, tt.SalesCloseAt, tt.Active, tt.SortOrder, tt.Quantity, tt.UpdatedAt, tt.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE ticket_types SET name = $1, sales_open_at = $2, sales_close_at = $3,
				active = $4, sort_order = $5, updated_at = $6
			WHERE id = $7
		`, tt.Name, tt.SalesOpenAt, tt.SalesCloseAt, tt.Active, tt.SortOrder, tt.UpdatedAt, tt.ID)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a ticket type that has never sold. With any sold or
// reserved history it fails with ErrHasRegistrations; deactivate instead.
func (r *ticketTypeRepository) Delete(ctx context.Context, orgID, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	claimed, _, err := lockClaimed(ctx, tx, orgID, id)
	if err != nil {
		return err
	}
	if claimed > 0 {
		err = domain.ErrHasRegistrations
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM ticket_types WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}
