// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"

	"codeberg.org/oliverandrich/accountd/internal/config"
	"github.com/wneessen/go-mail"
)

// Message is a single outgoing email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string // optional alternative part
}

// Mailer delivers messages to a mail provider.
type Mailer interface {
	Deliver(ctx context.Context, msg Message) error
	Healthy(ctx context.Context) error
}

// SMTPMailer delivers messages through an SMTP server using go-mail.
type SMTPMailer struct {
	cfg *config.SMTPConfig
}

// NewSMTPMailer creates a new SMTP mailer.
func NewSMTPMailer(cfg *config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

// Deliver sends msg via SMTP.
func (m *SMTPMailer) Deliver(ctx context.Context, msg Message) error {
	mm, err := m.build(msg)
	if err != nil {
		return err
	}

	client, err := m.client()
	if err != nil {
		return err
	}

	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// Healthy dials the SMTP server and closes the connection again.
func (m *SMTPMailer) Healthy(ctx context.Context) error {
	client, err := m.client()
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("dialing SMTP server: %w", err)
	}
	return client.Close()
}

func (m *SMTPMailer) build(msg Message) (*mail.Msg, error) {
	mm := mail.NewMsg()

	if m.cfg.FromName != "" {
		if err := mm.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := mm.From(m.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := mm.To(msg.To); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		mm.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return mm, nil
}

// client builds a go-mail client from the SMTP configuration.
func (m *SMTPMailer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.cfg.Timeout))
	}

	// Configure TLS based on config and port
	if m.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if m.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	// Add authentication if credentials are provided
	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating mail client: %w", err)
	}
	return client, nil
}
