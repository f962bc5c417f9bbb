package services

import (
	"context"
	"fmt"
	"log/slog"

	"confcentral/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and
// template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendConferenceConfirmation sends the conference creation confirmation using
// the "conference_created" template.
func (s *emailService) SendConferenceConfirmation(ctx context.Context, data *domain.ConferenceConfirmationEmailData) error {
	if data == nil {
		return fmt.Errorf("conference confirmation data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("conference_created", data)
	if err != nil {
		return fmt.Errorf("failed to render conference_created template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	s.logger.InfoContext(ctx, "confirmation email sent", "to", data.Email, "conference", data.ConferenceName)
	return nil
}

// SendLoginCode sends the passwordless login code email using the
// "login_code" template.
func (s *emailService) SendLoginCode(ctx context.Context, data *domain.LoginCodeEmailData) error {
	if data == nil {
		return fmt.Errorf("login code email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("login_code", data)
	if err != nil {
		return fmt.Errorf("failed to render login_code template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send login code email: %w", err)
	}
	s.logger.InfoContext(ctx, "login code sent", "to", data.Email)
	return nil
}
