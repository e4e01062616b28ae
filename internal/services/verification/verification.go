// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package verification implements the email verification token lifecycle.
//
// An account moves from unverified to pending when a token is issued and to
// verified when the token is presented before it expires. Every transition
// is a version-guarded update, so a concurrent change fails with
// failure.Conflict instead of being overwritten.
package verification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/accountd/internal/config"
	"codeberg.org/oliverandrich/accountd/internal/failure"
	"codeberg.org/oliverandrich/accountd/internal/models"
	"codeberg.org/oliverandrich/accountd/internal/repository"
	"codeberg.org/oliverandrich/accountd/internal/services/email"
)

// DefaultTTL is how long verification tokens are valid.
const DefaultTTL = 24 * time.Hour

// Manager issues and checks verification tokens.
type Manager struct {
	repo        *repository.Repository
	gateway     email.Gateway
	now         func() time.Time
	generate    func() (string, error)
	ttl         time.Duration
	exposeToken bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithTokenGenerator replaces GenerateToken.
func WithTokenGenerator(generate func() (string, error)) Option {
	return func(m *Manager) {
		m.generate = generate
	}
}

// NewManager creates a new Manager.
func NewManager(repo *repository.Repository, gateway email.Gateway, cfg *config.VerificationConfig, opts ...Option) *Manager {
	m := &Manager{
		repo:        repo,
		gateway:     gateway,
		ttl:         cfg.TTL,
		exposeToken: cfg.ExposeToken,
		now:         time.Now,
		generate:    GenerateToken,
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Issue stores a fresh token for email, superseding any earlier one, and
// hands it to the gateway. The plaintext is returned only when token
// exposure is configured. A delivery failure is returned after the token
// has been stored; the caller may resend. A failing token generator is an
// internal error and carries no failure kind.
func (m *Manager) Issue(ctx context.Context, emailAddr string) (*models.User, string, error) {
	if !m.gateway.Enabled() {
		return nil, "", failure.New(failure.NotConfigured, failure.NotConfigured.Message(""))
	}

	user, err := m.repo.GetUser(ctx, emailAddr)
	if err != nil {
		return nil, "", err
	}
	return m.issue(ctx, user)
}

// Resend issues a new token unless the account is already verified. The new
// token gets the full TTL.
func (m *Manager) Resend(ctx context.Context, emailAddr string) (*models.User, string, error) {
	if !m.gateway.Enabled() {
		return nil, "", failure.New(failure.NotConfigured, failure.NotConfigured.Message(""))
	}

	user, err := m.repo.GetUser(ctx, emailAddr)
	if err != nil {
		return nil, "", err
	}
	if user.Verified {
		return nil, "", failure.New(failure.AlreadyVerified, failure.AlreadyVerified.Message(emailAddr))
	}
	return m.issue(ctx, user)
}

func (m *Manager) issue(ctx context.Context, user *models.User) (*models.User, string, error) {
	token, err := m.generate()
	if err != nil {
		return nil, "", fmt.Errorf("generating verification token: %w", err)
	}
	expiresAt := m.now().UTC().Add(m.ttl)

	updated, err := m.repo.UpdateUser(ctx, user.Email, user.Version, func(u *models.User) error {
		u.Verification = &models.VerificationToken{
			TokenHash: HashToken(token),
			ExpiresAt: expiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	if err := m.gateway.Send(ctx, updated, token); err != nil {
		return updated, m.expose(token), err
	}
	return updated, m.expose(token), nil
}

func (m *Manager) expose(token string) string {
	if m.exposeToken {
		return token
	}
	return ""
}

// Verify marks the account verified when token matches its pending token.
//
// Presenting a token that was already consumed fails with
// failure.InvalidToken. Any other attempt on a verified account fails with
// failure.AlreadyVerified. Expired tokens fail with failure.TokenExpired and
// leave the account untouched.
func (m *Manager) Verify(ctx context.Context, emailAddr, token string) (*models.User, error) {
	user, err := m.repo.GetUser(ctx, emailAddr)
	if err != nil {
		return nil, err
	}

	if v := user.Verification; v != nil && v.Consumed && matches(token, v.TokenHash) {
		slog.Info("verify_failed", "email", emailAddr, "reason", "token_consumed")
		return nil, failure.New(failure.InvalidToken, failure.InvalidToken.Message(emailAddr))
	}
	if user.Verified {
		return nil, failure.New(failure.AlreadyVerified, failure.AlreadyVerified.Message(emailAddr))
	}

	pending := user.PendingToken()
	if pending == nil || !matches(token, pending.TokenHash) {
		slog.Info("verify_failed", "email", emailAddr, "reason", "token_mismatch")
		return nil, failure.New(failure.InvalidToken, failure.InvalidToken.Message(emailAddr))
	}
	if pending.Expired(m.now()) {
		slog.Info("verify_failed", "email", emailAddr, "reason", "token_expired")
		return nil, failure.New(failure.TokenExpired, failure.TokenExpired.Message(emailAddr))
	}

	verified, err := m.repo.UpdateUser(ctx, emailAddr, user.Version, func(u *models.User) error {
		u.Verified = true
		// Keep the hash so a replayed token is still recognized.
		u.Verification = &models.VerificationToken{TokenHash: pending.TokenHash, Consumed: true}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user_verified", "email", emailAddr, "version", verified.Version)
	return verified, nil
}
