package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"eventtickets/internal/domain"
)

var slugRegexp = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// EventPolicy holds configurable lifecycle rules.
type EventPolicy struct {
	// RequireTicketTypesToPublish blocks publishing events that have no
	// active ticket type.
	RequireTicketTypesToPublish bool
}

type eventService struct {
	eventRepo      domain.EventRepository
	ticketTypeRepo domain.TicketTypeRepository
	membership     domain.MembershipVerifier
	publisher      domain.FactPublisher
	policy         EventPolicy
	logger         *slog.Logger
	now            func() time.Time
}

// NewEventService creates an EventService with the given repositories and collaborators.
func NewEventService(
	eventRepo domain.EventRepository,
	ticketTypeRepo domain.TicketTypeRepository,
	membership domain.MembershipVerifier,
	publisher domain.FactPublisher,
	policy EventPolicy,
	logger *slog.Logger,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		ticketTypeRepo: ticketTypeRepo,
		membership:     membership,
		publisher:      publisher,
		policy:         policy,
		logger:         logger,
		now:            time.Now,
	}
}

// requireManager checks the actor's role in the organization through the
// external membership service.
func (s *eventService) requireManager(ctx context.Context, orgID, actorID string) error {
	m, err := s.membership.MembershipRole(ctx, orgID, actorID)
	if err != nil {
		return fmt.Errorf("membership role: %w", err)
	}
	if !m.CanManage() {
		return domain.ErrNotAuthorized
	}
	return nil
}

func (s *eventService) Create(ctx context.Context, orgID, actorID string, event *domain.Event) (*domain.Event, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}

	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return nil, domain.ErrInvalidInput
	}
	event.Slug = strings.ToLower(strings.TrimSpace(event.Slug))
	if event.Slug == "" {
		event.Slug = slugify(event.Title)
	}
	if !slugRegexp.MatchString(event.Slug) {
		return nil, domain.ErrInvalidInput
	}
	if !event.EndsAt.After(event.StartsAt) {
		return nil, domain.ErrInvalidInput
	}
	if event.Timezone == "" {
		event.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(event.Timezone); err != nil {
		return nil, domain.ErrInvalidInput
	}
	if event.Private && event.GroupID == "" {
		return nil, domain.ErrInvalidInput
	}

	now := s.now()
	event.OrgID = orgID
	event.Status = domain.EventDraft
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			return nil, domain.ErrSlugTaken
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func slugify(title string) string {
	var b strings.Builder
	prevDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (s *eventService) Get(ctx context.Context, orgID, actorID, eventID string) (*domain.Event, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, orgID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, orgID, actorID string, p domain.PaginationParams) ([]*domain.Event, int, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, 0, err
	}
	events, total, err := s.eventRepo.ListByOrg(ctx, orgID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) Update(ctx context.Context, orgID, actorID, eventID string, update domain.EventUpdate) (*domain.Event, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}
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

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, domain.ErrInvalidInput
		}
		event.Title = title
	}
	if update.Description != nil {
		event.Description = *update.Description
	}
	if update.StartsAt != nil {
		event.StartsAt = *update.StartsAt
	}
	if update.EndsAt != nil {
		event.EndsAt = *update.EndsAt
	}
	if !event.EndsAt.After(event.StartsAt) {
		return nil, domain.ErrInvalidInput
	}
	if update.Timezone != nil {
		if _, err := time.LoadLocation(*update.Timezone); err != nil {
			return nil, domain.ErrInvalidInput
		}
		event.Timezone = *update.Timezone
	}
	if update.Capacity != nil {
		event.Capacity = update.Capacity
	}
	if update.RegOpensAt != nil {
		event.RegOpensAt = update.RegOpensAt
	}
	if update.RegClosesAt != nil {
		event.RegClosesAt = update.RegClosesAt
	}
	if update.Private != nil {
		event.Private = *update.Private
	}
	if update.GroupID != nil {
		event.GroupID = *update.GroupID
	}
	if event.Private && event.GroupID == "" {
		return nil, domain.ErrInvalidInput
	}

	event.UpdatedAt = s.now()
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, orgID, actorID, eventID string) error {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return err
	}
	if err := s.eventRepo.SoftDelete(ctx, orgID, eventID, s.now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// transition loads the event, validates the status edge, applies mutate, and
// persists. The extra per-transition rules (future start, ticket type
// policy) run in the callers.
func (s *eventService) transition(ctx context.Context, orgID, actorID, eventID string, target domain.EventStatus, mutate func(*domain.Event)) (*domain.Event, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, orgID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.Status.CanTransitionTo(target) {
		return nil, domain.ErrInvalidTransition
	}

	event.Status = target
	event.UpdatedAt = s.now()
	if mutate != nil {
		mutate(event)
	}
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *eventService) Publish(ctx context.Context, orgID, actorID, eventID string) (*domain.Event, error) {
	if err := s.requireManager(ctx, orgID, actorID); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, orgID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.Status.CanTransitionTo(domain.EventPublished) {
		return nil, domain.ErrInvalidTransition
	}
	now := s.now()
	if !event.StartsAt.After(now) {
		return nil, domain.ErrEventInPast
	}
	if s.policy.RequireTicketTypesToPublish {
		n, err := s.ticketTypeRepo.CountActiveByEvent(ctx, orgID, eventID)
		if err != nil {
			return nil, fmt.Errorf("count ticket types: %w", err)
		}
		if n == 0 {
			return nil, domain.ErrNoTicketTypes
		}
	}

	event.Status = domain.EventPublished
	event.UpdatedAt = now
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}

	s.publish(ctx, domain.Fact{
		Kind:       domain.FactEventPublished,
		OrgID:      orgID,
		EventID:    event.ID,
		EventTitle: event.Title,
		OccurredAt: now,
	})
	return event, nil
}

func (s *eventService) Unpublish(ctx context.Context, orgID, actorID, eventID string) (*domain.Event, error) {
	return s.transition(ctx, orgID, actorID, eventID, domain.EventDraft, nil)
}

func (s *eventService) Cancel(ctx context.Context, orgID, actorID, eventID, reason string) (*domain.Event, error) {
	now := s.now()
	event, err := s.transition(ctx, orgID, actorID, eventID, domain.EventCancelled, func(e *domain.Event) {
		e.CancelReason = strings.TrimSpace(reason)
		e.CancelledAt = &now
	})
	if err != nil {
		return nil, err
	}
	// Consumed downstream to cancel and notify active registrations.
	s.publish(ctx, domain.Fact{
		Kind:         domain.FactEventCancelled,
		OrgID:        orgID,
		EventID:      event.ID,
		EventTitle:   event.Title,
		CancelReason: event.CancelReason,
		OccurredAt:   now,
	})
	return event, nil
}

func (s *eventService) Complete(ctx context.Context, orgID, actorID, eventID string) (*domain.Event, error) {
	event, err := s.transition(ctx, orgID, actorID, eventID, domain.EventCompleted, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.Fact{
		Kind:       domain.FactEventCompleted,
		OrgID:      orgID,
		EventID:    event.ID,
		EventTitle: event.Title,
		OccurredAt: s.now(),
	})
	return event, nil
}

// publish is fire-and-forget: delivery failures are logged, never surfaced
// to the caller whose transaction already committed.
func (s *eventService) publish(ctx context.Context, fact domain.Fact) {
	if err := s.publisher.Publish(ctx, fact); err != nil {
		s.logger.ErrorContext(ctx, "publish fact", "kind", fact.Kind, "event_id", fact.EventID, "err", err)
	}
}
