// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// VerificationToken is the single outstanding email verification token of a user.
type VerificationToken struct { //nolint:govet // fieldalignment: readability over optimization
	ExpiresAt time.Time `json:"expires_at"`
	TokenHash string    `json:"token_hash"` // SHA256 hash
	Consumed  bool      `json:"consumed"`
}

// Expired reports whether the token is past its expiry at now.
func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
