package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"eventtickets/internal/domain"
)

// Confirmation codes: 8 symbols from a 31-symbol alphabet that drops the
// visually ambiguous 0/O and 1/I/L. The space is ~2^39.6, so a collision
// within the bounded retry budget means the uniqueness index is broken, not
// that we got unlucky.
const (
	confirmationCodeLength = 8
	maxCodeAttempts        = 10
)

var confirmationAlphabet = []rune("23456789ABCDEFGHJKMNPQRSTUVWXYZ")

type registrationService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	membership       domain.MembershipVerifier
	publisher        domain.FactPublisher
	logger           *slog.Logger
	now              func() time.Time
}

// NewRegistrationService creates a RegistrationService with the given
// repositories and collaborators.
func NewRegistrationService(
	eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	membership domain.MembershipVerifier,
	publisher domain.FactPublisher,
	logger *slog.Logger,
) domain.RegistrationService {
	return &registrationService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		membership:       membership,
		publisher:        publisher,
		logger:           logger,
		now:              time.Now,
	}
}

// Create runs the registration workflow. Cheap checks (event validity,
// membership, duplicate) run before the inventory lock to keep lock hold
// time minimal; the unique active-registration index re-verifies the
// duplicate check inside the transaction.
func (s *registrationService) Create(ctx context.Context, orgID, eventID, ticketTypeID string, participant domain.Participant) (*domain.Registration, error) {
	event, err := s.eventRepo.GetByID(ctx, orgID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	now := s.now()
	if !event.RegistrationOpen(now) {
		return nil, domain.ErrRegistrationClosed
	}

	if event.Private {
		member, err := s.membership.IsGroupMember(ctx, event.GroupID, participant.UserID)
		if err != nil {
			return nil, fmt.Errorf("group membership: %w", err)
		}
		if !member {
			return nil, domain.ErrAccessDenied
		}
	}

	if _, err := s.registrationRepo.GetActiveByEventAndUser(ctx, eventID, participant.UserID); err == nil {
		return nil, domain.ErrAlreadyRegistered
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get registration: %w", err)
	}

	code, err := s.generateConfirmationCode(ctx)
	if err != nil {
		return nil, err
	}

	reg := &domain.Registration{
		ID:               uuid.NewString(),
		EventID:          eventID,
		TicketTypeID:     ticketTypeID,
		OrgID:            orgID,
		UserID:           participant.UserID,
		ConfirmationCode: code,
		Status:           domain.RegistrationConfirmed,
		Name:             strings.TrimSpace(participant.Name),
		Email:            strings.TrimSpace(strings.ToLower(participant.Email)),
		CustomFields:     participant.CustomFields,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.registrationRepo.CreateWithReservation(ctx, reg, now); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrSalesNotOpen),
			errors.Is(err, domain.ErrSoldOut),
			errors.Is(err, domain.ErrAlreadyRegistered):
			return nil, err
		}
		return nil, fmt.Errorf("create registration: %w", err)
	}

	s.publish(ctx, domain.Fact{
		Kind:             domain.FactRegistrationCreated,
		OrgID:            orgID,
		EventID:          eventID,
		EventTitle:       event.Title,
		RegistrationID:   reg.ID,
		TicketTypeID:     ticketTypeID,
		UserID:           participant.UserID,
		ParticipantName:  reg.Name,
		ParticipantEmail: reg.Email,
		ConfirmationCode: reg.ConfirmationCode,
		OccurredAt:       now,
	})
	return reg, nil
}

func (s *registrationService) Cancel(ctx context.Context, registrationID, actorID string) (*domain.Registration, error) {
	reg, err := s.registrationRepo.GetByIDForUser(ctx, registrationID, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return s.cancel(ctx, reg, "", false)
}

func (s *registrationService) CancelAsOrganizer(ctx context.Context, orgID, actorID, registrationID, reason string) (*domain.Registration, error) {
	m, err := s.membership.MembershipRole(ctx, orgID, actorID)
	if err != nil {
		return nil, fmt.Errorf("membership role: %w", err)
	}
	if !m.CanManage() {
		return nil, domain.ErrNotAuthorized
	}
	reg, err := s.registrationRepo.GetByID(ctx, orgID, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return s.cancel(ctx, reg, strings.TrimSpace(reason), true)
}

func (s *registrationService) cancel(ctx context.Context, reg *domain.Registration, reason string, byOrganizer bool) (*domain.Registration, error) {
	if reg.Status == domain.RegistrationCancelled {
		return nil, domain.ErrNotCancellable
	}

	now := s.now()
	reg.Status = domain.RegistrationCancelled
	reg.CancelledAt = &now
	reg.CancelReason = reason
	reg.CancelledByOrganizer = byOrganizer
	reg.UpdatedAt = now
	if err := s.registrationRepo.CancelWithRelease(ctx, reg); err != nil {
		if errors.Is(err, domain.ErrNotCancellable) {
			return nil, domain.ErrNotCancellable
		}
		return nil, fmt.Errorf("cancel registration: %w", err)
	}

	// Best-effort event title for the downstream notification.
	var eventTitle string
	if event, err := s.eventRepo.GetByID(ctx, reg.OrgID, reg.EventID); err == nil {
		eventTitle = event.Title
	}

	s.publish(ctx, domain.Fact{
		Kind:                 domain.FactRegistrationCancelled,
		EventTitle:           eventTitle,
		OrgID:                reg.OrgID,
		EventID:              reg.EventID,
		RegistrationID:       reg.ID,
		TicketTypeID:         reg.TicketTypeID,
		UserID:               reg.UserID,
		ParticipantName:      reg.Name,
		ParticipantEmail:     reg.Email,
		CancelReason:         reason,
		CancelledByOrganizer: byOrganizer,
		OccurredAt:           now,
	})
	return reg, nil
}

func (s *registrationService) CheckIn(ctx context.Context, code string) (*domain.Registration, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	reg, err := s.registrationRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration by code: %w", err)
	}
	switch reg.Status {
	case domain.RegistrationCheckedIn:
		return nil, domain.ErrAlreadyCheckedIn
	case domain.RegistrationConfirmed:
	default:
		return nil, domain.ErrNotCheckedInable
	}

	now := s.now()
	if err := s.registrationRepo.MarkCheckedIn(ctx, reg.ID, now); err != nil {
		if errors.Is(err, domain.ErrNotCheckedInable) {
			// Raced with another check-in or a cancellation. Re-read so
			// the caller sees the conflict that actually won.
			current, rerr := s.registrationRepo.GetByCode(ctx, code)
			if rerr == nil && current.Status == domain.RegistrationCheckedIn {
				return nil, domain.ErrAlreadyCheckedIn
			}
			return nil, domain.ErrNotCheckedInable
		}
		return nil, fmt.Errorf("mark checked in: %w", err)
	}
	reg.Status = domain.RegistrationCheckedIn
	reg.CheckedInAt = &now
	reg.UpdatedAt = now
	return reg, nil
}

func (s *registrationService) ListByEvent(ctx context.Context, orgID, actorID, eventID string, p domain.PaginationParams) ([]*domain.Registration, int, error) {
	m, err := s.membership.MembershipRole(ctx, orgID, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("membership role: %w", err)
	}
	if !m.CanManage() {
		return nil, 0, domain.ErrNotAuthorized
	}
	if _, err := s.eventRepo.GetByID(ctx, orgID, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	regs, total, err := s.registrationRepo.ListByEvent(ctx, orgID, eventID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	return regs, total, nil
}

// generateConfirmationCode draws random codes until one is unused.
// Exhausting the attempt budget is a configuration-level failure.
func (s *registrationService) generateConfirmationCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("generate confirmation code: %w", err)
		}
		exists, err := s.registrationRepo.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check confirmation code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("confirmation code space exhausted after %d attempts", maxCodeAttempts)
}

func randomCode() (string, error) {
	b := make([]rune, confirmationCodeLength)
	max := big.NewInt(int64(len(confirmationAlphabet)))
	for i := 0; i < confirmationCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = confirmationAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (s *registrationService) publish(ctx context.Context, fact domain.Fact) {
	if err := s.publisher.Publish(ctx, fact); err != nil {
		s.logger.ErrorContext(ctx, "publish fact", "kind", fact.Kind, "registration_id", fact.RegistrationID, "err", err)
	}
}
