// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"codeberg.org/oliverandrich/accountd/internal/config"
	"codeberg.org/oliverandrich/accountd/internal/failure"
	"codeberg.org/oliverandrich/accountd/internal/i18n"
	"codeberg.org/oliverandrich/accountd/internal/models"
	"codeberg.org/oliverandrich/accountd/internal/templates"
)

// DefaultTimeout bounds a single delivery when none is configured.
const DefaultTimeout = 10 * time.Second

// Gateway sends verification emails. The disabled variant fails every send
// with failure.NotConfigured.
type Gateway interface {
	Send(ctx context.Context, user *models.User, token string) error
	Healthy(ctx context.Context) error
	Enabled() bool
}

// Option configures the active gateway.
type Option func(*activeGateway)

// WithDeliveryObserver registers fn to be called after every delivery attempt.
func WithDeliveryObserver(fn func(err error)) Option {
	return func(g *activeGateway) {
		g.observe = fn
	}
}

// NewGateway returns the active gateway when cfg.Enabled is set and the
// disabled one otherwise. mailer is ignored for the disabled variant.
func NewGateway(cfg *config.SMTPConfig, mailer Mailer, baseURL string, opts ...Option) Gateway {
	if !cfg.Enabled {
		return disabledGateway{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	g := &activeGateway{
		mailer:  mailer,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type activeGateway struct {
	mailer  Mailer
	observe func(error)
	baseURL string
	timeout time.Duration
}

func (g *activeGateway) Enabled() bool { return true }

// Send delivers the verification email for token to user.Email.
func (g *activeGateway) Send(ctx context.Context, user *models.User, token string) error {
	msg, err := g.compose(ctx, user, token)
	if err != nil {
		return failure.Wrap(failure.DeliveryFailed, failure.DeliveryFailed.Message(user.Email), err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	err = g.mailer.Deliver(ctx, msg)
	if g.observe != nil {
		g.observe(err)
	}
	if err != nil {
		slog.Warn("verification email failed", "email", user.Email, "error", err)
		return failure.Wrap(failure.DeliveryFailed, failure.DeliveryFailed.Message(user.Email), err)
	}

	slog.Info("verification_sent", "email", user.Email)
	return nil
}

func (g *activeGateway) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.mailer.Healthy(ctx)
}

// VerifyURL builds the link a user opens to verify email with token.
func (g *activeGateway) VerifyURL(email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	q.Set("response_type", "html")
	return g.baseURL + "/verify?" + q.Encode()
}

func (g *activeGateway) compose(ctx context.Context, user *models.User, token string) (Message, error) {
	var expiresAt string
	if pending := user.PendingToken(); pending != nil {
		expiresAt = pending.ExpiresAt.UTC().Format("2006-01-02 15:04 MST")
	}
	link := g.VerifyURL(user.Email, token)

	var html strings.Builder
	err := templates.VerificationEmailHTML(templates.VerificationEmail{
		Email:     user.Email,
		VerifyURL: link,
		ExpiresAt: expiresAt,
	}).Render(ctx, &html)
	if err != nil {
		return Message{}, fmt.Errorf("rendering email: %w", err)
	}

	return Message{
		To:      user.Email,
		Subject: i18n.T(ctx, "email_verification_subject"),
		Text: i18n.TData(ctx, "email_verification_body", map[string]any{
			"Email":     user.Email,
			"VerifyURL": link,
			"ExpiresAt": expiresAt,
		}),
		HTML: html.String(),
	}, nil
}

type disabledGateway struct{}

func (disabledGateway) Enabled() bool { return false }

func (disabledGateway) Send(_ context.Context, _ *models.User, _ string) error {
	return failure.New(failure.NotConfigured, failure.NotConfigured.Message(""))
}

func (disabledGateway) Healthy(_ context.Context) error { return nil }
