package services

import (
	"context"
	"fmt"

	"eventtickets/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendRegistrationConfirmed sends the confirmation email carrying the
// check-in code, using the "registration_confirmed" template.
func (s *emailService) SendRegistrationConfirmed(ctx context.Context, data *domain.RegistrationConfirmedEmailData) error {
	if data == nil {
		return fmt.Errorf("registration confirmed data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("registration_confirmed", data)
	if err != nil {
		return fmt.Errorf("failed to render registration_confirmed template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}

// SendRegistrationCancelled sends the cancellation notice using the
// "registration_cancelled" template.
func (s *emailService) SendRegistrationCancelled(ctx context.Context, data *domain.RegistrationCancelledEmailData) error {
	if data == nil {
		return fmt.Errorf("registration cancelled data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("registration_cancelled", data)
	if err != nil {
		return fmt.Errorf("failed to render registration_cancelled template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send cancellation email: %w", err)
	}
	return nil
}
