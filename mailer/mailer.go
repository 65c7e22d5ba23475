// Package mailer sends the operator notification for new design requests.
// Delivery is best-effort and never affects the intake outcome.
package mailer

import (
	"fmt"
	"log/slog"

	"dixon3d-backend/config"
	"dixon3d-backend/models"

	"gopkg.in/gomail.v2"
)

// Mailer sends ticket notifications over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	to     string
	logger *slog.Logger
}

// New creates a mailer from configuration. Returns nil when SMTP is not
// configured; callers treat a nil mailer as notifications disabled.
func New(cfg *config.Config, logger *slog.Logger) *Mailer {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
		return nil
	}

	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUser
	}
	to := cfg.SMTPTo
	if to == "" {
		to = cfg.SMTPUser
	}

	return &Mailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		from:   from,
		to:     to,
		logger: logger,
	}
}

// NotifyNewTicket sends the new-request email for a persisted ticket.
// Intended to be called in a goroutine; errors are logged, not returned.
func (m *Mailer) NotifyNewTicket(ticket *models.Ticket) {
	if m == nil {
		return
	}

	qty := "-"
	if ticket.Qty != nil {
		qty = fmt.Sprintf("%d", *ticket.Qty)
	}

	body := fmt.Sprintf(
		"Ref: %s\nName: %s\nEmail: %s\nPhone: %s\nQuantity: %s\nFiles: %d\n\nDescription:\n%s\n",
		ticket.Ref,
		orDash(ticket.Name),
		orDash(ticket.Email),
		orDash(ticket.Phone),
		qty,
		len(ticket.Files),
		orDash(ticket.Description),
	)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", "Dixon3D – New Design Request "+ticket.Ref)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("failed to send notification email", "ref", ticket.Ref, "error", err)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
