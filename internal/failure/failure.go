// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package failure defines the closed set of error kinds returned by the
// account core. Kinds are transport-agnostic; the HTTP layer owns the mapping
// to status codes.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a named category of failure.
type Kind string

const (
	UserNotFound    Kind = "USER_NOT_FOUND"
	Conflict        Kind = "CONFLICT"
	DatabaseDown    Kind = "DATABASE_DOWN"
	RequestRejected Kind = "REQUEST_REJECTED"
	InvalidToken    Kind = "INVALID_TOKEN"
	TokenExpired    Kind = "TOKEN_EXPIRED"
	AlreadyVerified Kind = "ALREADY_VERIFIED"
	Unauthorized    Kind = "UNAUTHORIZED"
	Forbidden       Kind = "FORBIDDEN"
	NotConfigured   Kind = "NOT_CONFIGURED"
	DeliveryFailed  Kind = "DELIVERY_FAILED"
)

// unknownIdent fills parameterized templates when no identifier is available.
const unknownIdent = "unknown"

var templates = map[Kind]string{
	UserNotFound:    "User %s not found in the database.",
	Conflict:        "User %s has been modified concurrently or already exists.",
	DatabaseDown:    "Database is currently unavailable. Please try again later.",
	RequestRejected: "The database rejected the request. Check your data and try again.",
	InvalidToken:    "Incorrect verification token.",
	TokenExpired:    "The verification token has expired. Request a new one.",
	AlreadyVerified: "User %s has already been verified.",
	Unauthorized:    "Unable to validate user with provided credentials.",
	Forbidden:       "The calling application is not authorized.",
	NotConfigured:   "Email verification is not configured.",
	DeliveryFailed:  "The verification email could not be delivered.",
}

// Kinds returns every known kind.
func Kinds() []Kind {
	return []Kind{
		UserNotFound, Conflict, DatabaseDown, RequestRejected, InvalidToken,
		TokenExpired, AlreadyVerified, Unauthorized, Forbidden, NotConfigured,
		DeliveryFailed,
	}
}

// Message renders the kind's template. ident is substituted into
// parameterized templates; an empty ident renders as "unknown".
func (k Kind) Message(ident string) string {
	tpl, ok := templates[k]
	if !ok {
		return "An unexpected error occurred."
	}
	if !strings.Contains(tpl, "%s") {
		return tpl
	}
	if ident == "" {
		ident = unknownIdent
	}
	return fmt.Sprintf(tpl, ident)
}

// Error implements error so a bare Kind can be used as a sentinel with errors.Is.
func (k Kind) Error() string {
	return string(k)
}

// Error is a core failure carrying its kind and an optional cause.
type Error struct {
	Err  error
	Kind Kind
	Msg  string
}

// New returns an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap returns an Error of the given kind wrapping err.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "An error occurred in the database interaction."
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against a bare Kind, so errors.Is(err, failure.Conflict) works.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf extracts the kind from err. The second result is false when err
// carries no kind.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	var k Kind
	if errors.As(err, &k) {
		return k, true
	}
	return "", false
}
