// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ctxkeys defines typed context keys used across packages.
package ctxkeys

// Application is the context key for the name of the calling application.
type Application struct{}

// User is the context key for the authenticated user.
type User struct{}
