// Package email sends operational alert emails over SMTP.
package email

import (
	"context"
	"fmt"

	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"

	"github.com/wneessen/go-mail"
)

type Sender struct {
	client      *mail.Client
	fromName    string
	fromAddress string
	log         *logger.Logger
}

// NewSender builds the SMTP sender. Returns nil when SMTP is not configured;
// alert subscribers skip delivery on a nil sender.
func NewSender(cfg config.EmailConfig, log *logger.Logger) *Sender {
	if !cfg.IsEmailEnabled() {
		return nil
	}

	opts := []mail.Option{
		mail.WithPort(cfg.GetSMTPPort()),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.GetSMTPUsername() != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.GetSMTPUsername()),
			mail.WithPassword(cfg.GetSMTPPassword()),
		)
	}

	client, err := mail.NewClient(cfg.GetSMTPHost(), opts...)
	if err != nil {
		log.Error("smtp client setup failed", "error", err)
		return nil
	}

	return &Sender{
		client:      client,
		fromName:    cfg.GetEmailFromName(),
		fromAddress: cfg.GetEmailFromAddress(),
		log:         log,
	}
}

// SendAlert delivers a plain-text alert email.
func (s *Sender) SendAlert(ctx context.Context, to, subject, body string) error {
	if s == nil {
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromAddress); err != nil {
		return fmt.Errorf("set email sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set email recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}

	s.log.Info("alert email sent", "to", to, "subject", subject)
	return nil
}
