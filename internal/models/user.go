// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// User is an account record keyed by its email address.
// Version starts at 1 and is bumped by exactly one on every accepted update.
type User struct { //nolint:govet // fieldalignment not critical for models
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Properties   map[string]any     `json:"properties"`
	Verification *VerificationToken `json:"-"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"-"`
	Version      int64              `json:"version"`
	Verified     bool               `json:"verified"`
}

// PendingToken returns the stored verification token if one is unconsumed.
// Expiry is not checked.
func (u *User) PendingToken() *VerificationToken {
	if u.Verification == nil || u.Verification.Consumed {
		return nil
	}
	return u.Verification
}
