// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"net/http"

	"codeberg.org/oliverandrich/accountd/internal/repository"
	"codeberg.org/oliverandrich/accountd/internal/services/auth"
	"codeberg.org/oliverandrich/accountd/internal/services/email"
	"codeberg.org/oliverandrich/accountd/internal/services/verification"
	"github.com/labstack/echo/v4"
)

// PasswordHeader carries the user's password on user-scoped requests.
const PasswordHeader = "password"

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo     *repository.Repository
	auth     *auth.Service
	verifier *verification.Manager
	gateway  email.Gateway
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, authSvc *auth.Service, verifier *verification.Manager, gateway email.Gateway) *Handlers {
	return &Handlers{
		repo:     repo,
		auth:     authSvc,
		verifier: verifier,
		gateway:  gateway,
	}
}

// Health reports the state of the database and, when enabled, the email provider.
func (h *Handlers) Health(c echo.Context) error {
	ctx := c.Request().Context()
	status := http.StatusOK
	checks := map[string]string{}

	probe := func(name string, check func(context.Context) error) {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			return
		}
		checks[name] = "ok"
	}

	probe("database", h.repo.Healthy)
	if h.gateway.Enabled() {
		probe("email", h.gateway.Healthy)
	}

	return c.JSON(status, checks)
}
