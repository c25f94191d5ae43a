package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"eventtickets/internal/domain"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
}

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

const eventColumns = `id, org_id, title, slug, description, status, starts_at, ends_at, timezone,
	capacity, reg_opens_at, reg_closes_at, private, group_id, cancel_reason, cancelled_at,
	created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID, &e.OrgID, &e.Title, &e.Slug, &e.Description, &e.Status, &e.StartsAt, &e.EndsAt,
		&e.Timezone, &e.Capacity, &e.RegOpensAt, &e.RegClosesAt, &e.Private, &e.GroupID,
		&e.CancelReason, &e.CancelledAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (org_id, title, slug, description, status, starts_at, ends_at, timezone,
			capacity, reg_opens_at, reg_closes_at, private, group_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.OrgID, e.Title, e.Slug, e.Description, e.Status, e.StartsAt, e.EndsAt, e.Timezone,
		e.Capacity, e.RegOpensAt, e.RegClosesAt, e.Private, e.GroupID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		if isUniqueViolation(err, "events_org_slug_idx") {
			return domain.ErrSlugTaken
		}
		return err
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND org_id = $2 AND deleted_at IS NULL
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) GetBySlug(ctx context.Context, orgID, slug string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE slug = $1 AND org_id = $2 AND deleted_at IS NULL
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, slug, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOrg(ctx context.Context, orgID string, p domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE org_id = $1 AND deleted_at IS NULL`, orgID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE org_id = $1 AND deleted_at IS NULL
		ORDER BY starts_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, orgID, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $1, slug = $2, description = $3, status = $4, starts_at = $5, ends_at = $6,
			timezone = $7, capacity = $8, reg_opens_at = $9, reg_closes_at = $10, private = $11,
			group_id = $12, cancel_reason = $13, cancelled_at = $14, updated_at = $15
		WHERE id = $16 AND org_id = $17 AND deleted_at IS NULL
	`
	res, err := r.DB.ExecContext(ctx, query,
		e.Title, e.Slug, e.Description, e.Status, e.StartsAt, e.EndsAt, e.Timezone,
		e.Capacity, e.RegOpensAt, e.RegClosesAt, e.Private, e.GroupID,
		e.CancelReason, e.CancelledAt, e.UpdatedAt, e.ID, e.OrgID,
	)
	if err != nil {
		if isUniqueViolation(err, "events_org_slug_idx") {
			return domain.ErrSlugTaken
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) SoftDelete(ctx context.Context, orgID, id string, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE events SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND org_id = $3 AND deleted_at IS NULL`,
		at, id, orgID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
