// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/accountd/internal/failure"
	"codeberg.org/oliverandrich/accountd/internal/models"
	"codeberg.org/oliverandrich/accountd/internal/templates"
	"github.com/labstack/echo/v4"
)

// SuccessPath is where browser verifications are redirected.
const SuccessPath = "/verify/success"

// ResendResponse is returned by a resend. Token is only set when token
// exposure is configured.
type ResendResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

// ResendVerification issues a new token to the authenticated user.
func (h *Handlers) ResendVerification(c echo.Context) error {
	email := c.QueryParam("email")
	if _, err := h.authenticate(c); err != nil {
		return Fail(c, email, err)
	}

	user, token, err := h.verifier.Resend(c.Request().Context(), email)
	if err != nil {
		return Fail(c, email, err)
	}
	return c.JSON(http.StatusOK, ResendResponse{User: user, Token: token})
}

// Verify consumes a verification token. With response_type=html the client
// is redirected to the success page instead of receiving the user as JSON.
func (h *Handlers) Verify(c echo.Context) error {
	email := c.QueryParam("email")
	token := c.QueryParam("token")
	if email == "" || token == "" {
		return Fail(c, email, failure.New(failure.RequestRejected, "email and token are required"))
	}

	mode, err := responseType(c)
	if err != nil {
		return Fail(c, email, err)
	}

	user, err := h.verifier.Verify(c.Request().Context(), email, token)
	if err != nil {
		return Fail(c, email, err)
	}

	if mode == "html" {
		return c.Redirect(http.StatusSeeOther, SuccessPath)
	}
	return c.JSON(http.StatusOK, user)
}

// VerifySuccess renders the page shown after a browser verification.
func (h *Handlers) VerifySuccess(c echo.Context) error {
	return Render(c, http.StatusOK, templates.VerifySuccess())
}
