// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth provides authentication context helpers.
package auth

import (
	"context"

	"codeberg.org/oliverandrich/accountd/internal/ctxkeys"
	"codeberg.org/oliverandrich/accountd/internal/models"
)

// WithApplication stores the name of the authenticated calling application.
func WithApplication(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxkeys.Application{}, name)
}

// Application returns the calling application's key name, or "" if none was authenticated.
func Application(ctx context.Context) string {
	if name, ok := ctx.Value(ctxkeys.Application{}).(string); ok {
		return name
	}
	return ""
}

// WithUser stores the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxkeys.User{}, user)
}

// GetUser returns the authenticated user from the context, or nil if not authenticated.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(ctxkeys.User{}).(*models.User); ok {
		return user
	}
	return nil
}

// IsAuthenticated returns true if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return GetUser(ctx) != nil
}
