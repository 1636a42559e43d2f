package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/go-reviser/reviser-api/pkg/config"
)

// Message describes a plain-text outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends mail through the configured SMTP relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New builds a Mailer from SMTP configuration.
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers a single message.
func (m *Mailer) Send(msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail requires a recipient")
	}

	email := gomail.NewMessage()
	email.SetHeader("From", m.from)
	email.SetHeader("To", msg.To)
	email.SetHeader("Subject", msg.Subject)
	email.SetBody("text/plain", msg.Body)

	if err := m.dialer.DialAndSend(email); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
