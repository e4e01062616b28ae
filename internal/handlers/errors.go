// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/accountd/internal/failure"
	"github.com/labstack/echo/v4"
)

var statusByKind = map[failure.Kind]int{
	failure.UserNotFound:    http.StatusNotFound,
	failure.Conflict:        http.StatusConflict,
	failure.DatabaseDown:    http.StatusServiceUnavailable,
	failure.RequestRejected: http.StatusBadRequest,
	failure.InvalidToken:    http.StatusBadRequest,
	failure.TokenExpired:    http.StatusBadRequest,
	failure.AlreadyVerified: http.StatusConflict,
	failure.Unauthorized:    http.StatusUnauthorized,
	failure.Forbidden:       http.StatusForbidden,
	failure.NotConfigured:   http.StatusServiceUnavailable,
	failure.DeliveryFailed:  http.StatusServiceUnavailable,
}

// StatusFor maps a failure kind to its HTTP status code.
func StatusFor(kind failure.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Fail writes err as a JSON error response. ident names the affected user in
// the message where the kind's template takes one.
func Fail(c echo.Context, ident string, err error) error {
	kind, ok := failure.KindOf(err)
	if !ok {
		slog.Error("unexpected error", "error", err, "path", c.Path())
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "An unexpected error occurred."})
	}

	status := StatusFor(kind)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "kind", kind, "error", err, "path", c.Path())
	}
	return c.JSON(status, ErrorResponse{Error: kind.Message(ident), Kind: string(kind)})
}

// ErrorHandler renders errors returned by middleware and the router in the
// same JSON shape as handler failures.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if _, ok := failure.KindOf(err); ok {
		if failErr := Fail(c, c.QueryParam("email"), err); failErr != nil {
			slog.Error("failed to write error response", "error", failErr)
		}
		return
	}

	status := http.StatusInternalServerError
	msg := "An unexpected error occurred."
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		slog.Error("unhandled error", "error", err, "path", c.Path())
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, ErrorResponse{Error: msg})
	}
	if writeErr != nil {
		slog.Error("failed to write error response", "error", writeErr)
	}
}
