package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eventtickets/internal/domain"
)

type registrationRepository struct {
	DB *sql.DB
}

func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{DB: db}
}

const registrationColumns = `id, event_id, ticket_type_id, org_id, user_id, confirmation_code,
	status, name, email, custom_fields, checked_in_at, cancelled_at, cancel_reason,
	cancelled_by_organizer, created_at, updated_at`

func scanRegistration(row interface{ Scan(...any) error }) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var customFields []byte
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.TicketTypeID, &reg.OrgID, &reg.UserID, &reg.ConfirmationCode,
		&reg.Status, &reg.Name, &reg.Email, &customFields, &reg.CheckedInAt, &reg.CancelledAt,
		&reg.CancelReason, &reg.CancelledByOrganizer, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(customFields) > 0 {
		if err := json.Unmarshal(customFields, &reg.CustomFields); err != nil {
			return nil, fmt.Errorf("decode custom fields: %w", err)
		}
	}
	return reg, nil
}

// CreateWithReservation is the atomic unit of the registration workflow: the
// FOR UPDATE capacity check, the counter increment, and the registration
// insert commit together or not at all. The partial unique index on
// (event_id, user_id) over non-cancelled rows backs the duplicate check the
// service already ran without the lock.
func (r *registrationRepository) CreateWithReservation(ctx context.Context, reg *domain.Registration, now time.Time) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var tt *domain.TicketType
	if tt, err = reserveOne(ctx, tx, reg.OrgID, reg.TicketTypeID, now); err != nil {
		return err
	}
	if tt.EventID != reg.EventID {
		err = domain.ErrNotFound
		return err
	}

	var customFields []byte
	if len(reg.CustomFields) > 0 {
		customFields, err = json.Marshal(reg.CustomFields)
		if err != nil {
			return fmt.Errorf("encode custom fields: %w", err)
		}
	}

	query := `
		INSERT INTO registrations (id, event_id, ticket_type_id, org_id, user_id, confirmation_code,
			status, name, email, custom_fields, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.ExecContext(ctx, query,
		reg.ID, reg.EventID, reg.TicketTypeID, reg.OrgID, reg.UserID, reg.ConfirmationCode,
		reg.Status, reg.Name, reg.Email, customFields, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "registrations_active_event_user_idx") {
			err = domain.ErrAlreadyRegistered
		}
		return err
	}
	return tx.Commit()
}

// CancelWithRelease marks the registration cancelled and returns its ticket
// to inventory in one transaction. The guarded UPDATE (status <> 'cancelled')
// makes concurrent cancellations of the same registration release at most
// one ticket.
func (r *registrationRepository) CancelWithRelease(ctx context.Context, reg *domain.Registration) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE registrations
		SET status = $1, cancelled_at = $2, cancel_reason = $3, cancelled_by_organizer = $4, updated_at = $5
		WHERE id = $6 AND status <> $1
	`, domain.RegistrationCancelled, reg.CancelledAt, reg.CancelReason, reg.CancelledByOrganizer, reg.UpdatedAt, reg.ID)
	if err != nil {
		return err
	}
	var n int64
	n, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = domain.ErrNotCancellable
		return err
	}

	if err = releaseOne(ctx, tx, reg.TicketTypeID, reg.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *registrationRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1 AND org_id = $2
	`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) GetByIDForUser(ctx context.Context, id, userID string) (*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1 AND user_id = $2
	`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) GetByCode(ctx context.Context, code string) (*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE confirmation_code = $1
	`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE confirmation_code = $1)`, code,
	).Scan(&exists)
	return exists, err
}

func (r *registrationRepository) GetActiveByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Registration, error) {
	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND status <> $3
	`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, eventID, userID, domain.RegistrationCancelled))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) ListByEvent(ctx context.Context, orgID, eventID string, p domain.PaginationParams) ([]*domain.Registration, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND org_id = $2`, eventID, orgID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1 AND org_id = $2
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, orgID, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var regs []*domain.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, 0, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	return regs, total, nil
}

func (r *registrationRepository) MarkCheckedIn(ctx context.Context, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE registrations
		SET status = $1, checked_in_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`, domain.RegistrationCheckedIn, at, id, domain.RegistrationConfirmed)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotCheckedInable
	}
	return nil
}
