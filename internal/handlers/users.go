// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	authctx "codeberg.org/oliverandrich/accountd/internal/auth"
	"codeberg.org/oliverandrich/accountd/internal/failure"
	"codeberg.org/oliverandrich/accountd/internal/models"
	"github.com/labstack/echo/v4"
)

// CreateUserRequest is the request body for signup.
type CreateUserRequest struct {
	Properties map[string]any `json:"properties"`
	Email      string         `json:"email"`
	Password   string         `json:"password"`
}

// UpdateUserRequest is the request body for updating a user. Omitted fields
// are left unchanged. Version defaults to the version read while
// authenticating.
type UpdateUserRequest struct {
	Properties map[string]any `json:"properties"`
	Email      *string        `json:"email"`
	Password   *string        `json:"password"`
	Version    *int64         `json:"version"`
}

// CreateUserResponse is the created user. Token is only set when token
// exposure is configured.
type CreateUserResponse struct {
	*models.User
	Token string `json:"token,omitempty"`
}

// CreateUser stores a new user and, with email enabled, sends the first
// verification token.
func (h *Handlers) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, "", failure.Wrap(failure.RequestRejected, "invalid request body", err))
	}
	if req.Email == "" {
		return Fail(c, "", failure.New(failure.RequestRejected, "email is required"))
	}

	hash, err := h.auth.Hash(req.Password)
	if err != nil {
		return Fail(c, req.Email, err)
	}

	ctx := c.Request().Context()
	user, err := h.repo.CreateUser(ctx, &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Properties:   req.Properties,
	})
	if err != nil {
		return Fail(c, req.Email, err)
	}
	slog.Info("user_created", "email", user.Email, "application", authctx.Application(ctx))

	resp := CreateUserResponse{User: user}
	if h.gateway.Enabled() {
		issued, token, err := h.verifier.Issue(ctx, user.Email)
		switch {
		case err == nil:
			resp = CreateUserResponse{User: issued, Token: token}
		case issued != nil:
			// token stored, delivery failed; the client can resend
			resp = CreateUserResponse{User: issued, Token: token}
			slog.Warn("verification email not delivered", "email", user.Email, "error", err)
		default:
			slog.Warn("verification token not issued", "email", user.Email, "error", err)
		}
	}

	return c.JSON(http.StatusCreated, resp)
}

// authenticate checks the password header against the user named by the
// email query parameter.
func (h *Handlers) authenticate(c echo.Context) (*models.User, error) {
	email := c.QueryParam("email")
	if email == "" {
		return nil, failure.New(failure.RequestRejected, "email is required")
	}
	user, err := h.auth.Authenticate(c.Request().Context(), email, c.Request().Header.Get(PasswordHeader))
	if err != nil {
		return nil, err
	}
	c.SetRequest(c.Request().WithContext(authctx.WithUser(c.Request().Context(), user)))
	return user, nil
}

// GetUser returns the authenticated user.
func (h *Handlers) GetUser(c echo.Context) error {
	user, err := h.authenticate(c)
	if err != nil {
		return Fail(c, c.QueryParam("email"), err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser applies a partial update guarded by the expected version.
func (h *Handlers) UpdateUser(c echo.Context) error {
	email := c.QueryParam("email")
	user, err := h.authenticate(c)
	if err != nil {
		return Fail(c, email, err)
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return Fail(c, email, failure.Wrap(failure.RequestRejected, "invalid request body", err))
	}

	expected := user.Version
	if req.Version != nil {
		expected = *req.Version
	}

	var newHash string
	if req.Password != nil {
		if newHash, err = h.auth.Hash(*req.Password); err != nil {
			return Fail(c, email, err)
		}
	}

	updated, err := h.repo.UpdateUser(c.Request().Context(), email, expected, func(u *models.User) error {
		if req.Email != nil {
			u.Email = *req.Email
		}
		if newHash != "" {
			u.PasswordHash = newHash
		}
		if req.Properties != nil {
			u.Properties = req.Properties
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, failure.RequestRejected) && req.Email != nil {
			slog.Info("update_rejected", "email", email, "reason", "email_change")
		}
		return Fail(c, email, err)
	}

	slog.Info("user_updated", "email", email, "version", updated.Version)
	return c.JSON(http.StatusOK, updated)
}

// DeleteUser removes the authenticated user and returns the deleted record.
func (h *Handlers) DeleteUser(c echo.Context) error {
	email := c.QueryParam("email")
	if _, err := h.authenticate(c); err != nil {
		return Fail(c, email, err)
	}

	deleted, err := h.repo.DeleteUser(c.Request().Context(), email)
	if err != nil {
		return Fail(c, email, err)
	}

	slog.Info("user_deleted", "email", email)
	return c.JSON(http.StatusOK, deleted)
}
