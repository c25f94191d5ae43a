package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventtickets/internal/domain"
)

type ticketTypeService struct {
	eventRepo      domain.EventRepository
	ticketTypeRepo domain.TicketTypeRepository
	membership     domain.MembershipVerifier
	now            func() time.Time
}

// NewTicketTypeService creates a TicketTypeService with the given repositories.
func NewTicketTypeService(
	eventRepo domain.EventRepository,
	ticketTypeRepo domain.TicketTypeRepository,
	membership domain.MembershipVerifier,
) domain.TicketTypeService {
	return &ticketTypeService{
		eventRepo:      eventRepo,
		ticketTypeRepo: ticketTypeRepo,
		membership:     membership,
		now:            time.Now,
	}
}

func (s *ticketTypeService) requireManager(ctx context.Context, orgID, actorID string) error {
	m, err := s.membership.MembershipRole(ctx, orgID, actorID)
	if err != nil {
		return fmt.Errorf("membership role: %w", err)
	}
	if !m.CanManage() {
		return domain.ErrNotAuthorized
	}
	return nil
}

// editableEvent loads the event and rejects ticket type mutations on
// cancelled or completed events.
func (s *ticketTypeService) editableEvent(ctx context.Context, orgID, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, orgID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.Editable() {
		return nil, domain.ErrNotEditable
	}
	return event, nil
}

func (s *ticketTypeService) Create(ctx context.Context, orgID, actorID, eventID string, tt *domain.TicketType) (*domain.TicketType, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	if _, err := s.editableEvent(ctx, orgID, eventID); err != nil {
		return nil, err
	}

	tt.Name = strings.TrimSpace(tt.Name)
	if tt.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	if tt.Quantity != nil && *tt.Quantity < 0 {
		return nil, domain.ErrInvalidInput
	}
	if tt.SalesOpenAt != nil && tt.SalesCloseAt != nil && !tt.SalesCloseAt.After(*tt.SalesOpenAt) {
		return nil, domain.ErrInvalidInput
	}

	now := s.now()
	tt.EventID = eventID
	tt.SoldCount = 0
	tt.ReservedCount = 0
	tt.CreatedAt = now
	tt.UpdatedAt = now
	if err := s.ticketTypeRepo.Create(ctx, tt); err != nil {
		return nil, fmt.Errorf("create ticket type: %w", err)
	}
	return tt, nil
}

func (s *ticketTypeService) List(ctx context.Context, orgID, actorID, eventID string) ([]*domain.TicketType, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	if _, err := s.eventRepo.GetByID(ctx, orgID, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	types, err := s.ticketTypeRepo.ListByEvent(ctx, orgID, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ticket types: %w", err)
	}
	return types, nil
}

func (s *ticketTypeService) Update(ctx context.Context, orgID, actorID, eventID, ticketTypeID string, update domain.TicketTypeUpdate) (*domain.TicketType, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	if _, err := s.editableEvent(ctx, orgID, eventID); err != nil {
		return nil, err
	}
	tt, err := s.ticketTypeRepo.GetByID(ctx, orgID, ticketTypeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get ticket type: %w", err)
	}
	if tt.EventID != eventID {
		return nil, domain.ErrNotFound
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.ErrInvalidInput
		}
		tt.Name = name
	}
	if update.SalesOpenAt != nil {
		tt.SalesOpenAt = update.SalesOpenAt
	}
	if update.SalesCloseAt != nil {
		tt.SalesCloseAt = update.SalesCloseAt
	}
	if update.Active != nil {
		tt.Active = *update.Active
	}
	if update.SortOrder != nil {
		tt.SortOrder = *update.SortOrder
	}

	setQuantity := false
	if update.Quantity != nil {
		quantity := *update.Quantity
		if quantity != nil && *quantity < 0 {
			return nil, domain.ErrInvalidInput
		}
		tt.Quantity = quantity
		setQuantity = true
	}

	// One repository call commits the whole edit. The quantity guard runs
	// inside it under the lock reservations take, so a rejected shrink
	// leaves every field untouched.
	tt.UpdatedAt = s.now()
	if err := s.ticketTypeRepo.Update(ctx, orgID, tt, setQuantity); err != nil {
		if errors.Is(err, domain.ErrHasRegistrations) {
			return nil, domain.ErrHasRegistrations
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update ticket type: %w", err)
	}
	return tt, nil
}

func (s *ticketTypeService) Delete(ctx context.Context, orgID, actorID, eventID, ticketTypeID string) error {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return err
	}
	if _, err := s.editableEvent(ctx, orgID, eventID); err != nil {
		return err
	}
	tt, err := s.ticketTypeRepo.GetByID(ctx, orgID, ticketTypeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get ticket type: %w", err)
	}
	if tt.EventID != eventID {
		return domain.ErrNotFound
	}

	if err := s.ticketTypeRepo.Delete(ctx, orgID, ticketTypeID); err != nil {
		if errors.Is(err, domain.ErrHasRegistrations) {
			return domain.ErrHasRegistrations
		}
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete ticket type: %w", err)
	}
	return nil
}
