package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"eventtickets/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var registrationColumnNames = []string{
	"id", "event_id", "ticket_type_id", "org_id", "user_id", "confirmation_code",
	"status", "name", "email", "custom_fields", "checked_in_at", "cancelled_at", "cancel_reason",
	"cancelled_by_organizer", "created_at", "updated_at",
}

func addRegistrationRow(rows *sqlmock.Rows, id string, status domain.RegistrationStatus, at time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, "ev-1", "tt-1", "org-1", "user-1", "ABCD2345",
		status, "Ada Lovelace", "ada@example.com", nil, nil, nil, "",
		false, at, at,
	)
}

var ticketTypeLockColumns = []string{
	"id", "event_id", "name", "quantity", "sold_count", "reserved_count",
	"sales_open_at", "sales_close_at", "active", "sort_order", "created_at", "updated_at",
}

func addTicketTypeLockRow(rows *sqlmock.Rows, quantity, sold int, at time.Time) *sqlmock.Rows {
	return rows.AddRow("tt-1", "ev-1", "GA", quantity, sold, 0, nil, nil, true, 0, at, at)
}

func testRegistration(at time.Time) *domain.Registration {
	return &domain.Registration{
		ID: "reg-uuid-1", EventID: "ev-1", TicketTypeID: "tt-1", OrgID: "org-1", UserID: "user-1",
		ConfirmationCode: "ABCD2345", Status: domain.RegistrationConfirmed,
		Name: "Ada Lovelace", Email: "ada@example.com", CreatedAt: at, UpdatedAt: at,
	}
}

func TestRegistrationRepository_CreateWithReservation(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success locks row increments and inserts",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows(ticketTypeLockColumns)
				addTicketTypeLockRow(rows, 100, 40, at)
				mock.ExpectQuery(`SELECT (.+) FOR UPDATE OF tt`).
					WithArgs("tt-1", "org-1").
					WillReturnRows(rows)
				mock.ExpectExec(`UPDATE ticket_types SET sold_count = sold_count \+ 1`).
					WithArgs("tt-1", at).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO registrations`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "sold out rolls back before insert",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows(ticketTypeLockColumns)
				addTicketTypeLockRow(rows, 100, 100, at)
				mock.ExpectQuery(`SELECT (.+) FOR UPDATE OF tt`).
					WithArgs("tt-1", "org-1").
					WillReturnRows(rows)
				mock.ExpectRollback()
			},
			wantErr: domain.ErrSoldOut,
		},
		{
			name: "unknown ticket type",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT (.+) FOR UPDATE OF tt`).
					WithArgs("tt-1", "org-1").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "duplicate active registration rolls back the reservation",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				rows := sqlmock.NewRows(ticketTypeLockColumns)
				addTicketTypeLockRow(rows, 100, 40, at)
				mock.ExpectQuery(`SELECT (.+) FOR UPDATE OF tt`).
					WithArgs("tt-1", "org-1").
					WillReturnRows(rows)
				mock.ExpectExec(`UPDATE ticket_types SET sold_count = sold_count \+ 1`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`INSERT INTO registrations`).
					WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "registrations_active_event_user_idx"})
				mock.ExpectRollback()
			},
			wantErr: domain.ErrAlreadyRegistered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewRegistrationRepository(db)
			err = repo.CreateWithReservation(ctx, testRegistration(at), at)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRegistrationRepository_CreateWithReservation_SalesClosed(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	closed := at.Add(-time.Hour)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	rows := sqlmock.NewRows(ticketTypeLockColumns).
		AddRow("tt-1", "ev-1", "GA", 100, 0, 0, nil, closed, true, 0, at, at)
	mock.ExpectQuery(`SELECT (.+) FOR UPDATE OF tt`).
		WithArgs("tt-1", "org-1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	repo := NewRegistrationRepository(db)
	err = repo.CreateWithReservation(ctx, testRegistration(at), at)
	require.True(t, errors.Is(err, domain.ErrSalesNotOpen))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepository_CreateWithReservation_ForeignTicketType(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// Ticket type exists but hangs off a different event.
	mock.ExpectBegin()
	rows := sqlmock.NewRows(ticketTypeLockColumns).
		AddRow("tt-1", "ev-other", "GA", 100, 0, 0, nil, nil, true, 0, at, at)
	mock.ExpectQuery(`SELECT (.+) FOR UPDATE OF tt`).
		WithArgs("tt-1", "org-1").
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE ticket_types SET sold_count = sold_count \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	repo := NewRegistrationRepository(db)
	err = repo.CreateWithReservation(ctx, testRegistration(at), at)
	require.True(t, errors.Is(err, domain.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepository_CancelWithRelease(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cancelled := func() *domain.Registration {
		reg := testRegistration(at)
		reg.Status = domain.RegistrationCancelled
		reg.CancelledAt = &at
		return reg
	}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success releases the seat",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE registrations`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(`UPDATE ticket_types SET sold_count = GREATEST`).
					WithArgs("tt-1", at).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "already cancelled releases nothing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(`UPDATE registrations`).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			wantErr: domain.ErrNotCancellable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewRegistrationRepository(db)
			err = repo.CancelWithRelease(ctx, cancelled())
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRegistrationRepository_GetByCode(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(registrationColumnNames)
		addRegistrationRow(rows, "reg-1", domain.RegistrationConfirmed, at)
		mock.ExpectQuery(`SELECT (.+) FROM registrations`).
			WithArgs("ABCD2345").
			WillReturnRows(rows)

		repo := NewRegistrationRepository(db)
		got, err := repo.GetByCode(ctx, "ABCD2345")
		require.NoError(t, err)
		require.Equal(t, "reg-1", got.ID)
		require.Equal(t, "ABCD2345", got.ConfirmationCode)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM registrations`).
			WithArgs("ZZZZZZZZ").
			WillReturnError(sql.ErrNoRows)

		repo := NewRegistrationRepository(db)
		_, err = repo.GetByCode(ctx, "ZZZZZZZZ")
		require.True(t, errors.Is(err, domain.ErrNotFound))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegistrationRepository_CodeExists(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("ABCD2345").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewRegistrationRepository(db)
	exists, err := repo.CodeExists(ctx, "ABCD2345")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationRepository_MarkCheckedIn(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE registrations`).
					WithArgs(domain.RegistrationCheckedIn, at, "reg-1", domain.RegistrationConfirmed).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "not confirmed",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE registrations`).
					WithArgs(domain.RegistrationCheckedIn, at, "reg-1", domain.RegistrationConfirmed).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrNotCheckedInable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewRegistrationRepository(db)
			err = repo.MarkCheckedIn(ctx, "reg-1", at)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRegistrationRepository_ListByEvent(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM registrations`).
		WithArgs("ev-1", "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	rows := sqlmock.NewRows(registrationColumnNames)
	addRegistrationRow(rows, "reg-1", domain.RegistrationConfirmed, at)
	mock.ExpectQuery(`SELECT (.+) FROM registrations`).
		WithArgs("ev-1", "org-1", 20, 0).
		WillReturnRows(rows)

	repo := NewRegistrationRepository(db)
	regs, total, err := repo.ListByEvent(ctx, "org-1", "ev-1", domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, regs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
