// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"codeberg.org/oliverandrich/accountd/internal/failure"
	"codeberg.org/oliverandrich/accountd/internal/models"
	"codeberg.org/oliverandrich/accountd/internal/store"
)

// DefaultTimeout bounds every store call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Repository persists users through a store.Client. Uniqueness and lost-update
// protection come from the client's conditional writes; nothing is locked here.
type Repository struct {
	store   store.Client
	timeout time.Duration
}

// New creates a new Repository instance
func New(client store.Client, timeout time.Duration) *Repository {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Repository{store: client, timeout: timeout}
}

// Healthy probes the backing store.
func (r *Repository) Healthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.store.Healthy(ctx)
}

// document is the persisted form of a user. Version and timestamps live on
// the store item itself.
type document struct {
	Properties   map[string]any            `json:"properties"`
	Verification *models.VerificationToken `json:"verification,omitempty"`
	Email        string                    `json:"email"`
	PasswordHash string                    `json:"password_hash"`
	Verified     bool                      `json:"verified"`
}

func encode(user *models.User) (store.Item, error) {
	data, err := json.Marshal(document{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Verified:     user.Verified,
		Properties:   user.Properties,
		Verification: user.Verification,
	})
	if err != nil {
		return store.Item{}, failure.Wrap(failure.RequestRejected, "user is not serializable", err)
	}

	return store.Item{
		Key:       user.Email,
		Version:   user.Version,
		Document:  data,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}, nil
}

func decode(item store.Item) (*models.User, error) {
	var doc document
	if err := json.Unmarshal(item.Document, &doc); err != nil {
		return nil, failure.Wrap(failure.DatabaseDown, "stored user is corrupt", err)
	}
	if doc.Properties == nil {
		doc.Properties = map[string]any{}
	}

	return &models.User{
		Email:        item.Key,
		PasswordHash: doc.PasswordHash,
		Verified:     doc.Verified,
		Properties:   doc.Properties,
		Verification: doc.Verification,
		Version:      item.Version,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}, nil
}

// wrapError converts store errors to failure kinds
func wrapError(err error, email string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return failure.Wrap(failure.UserNotFound, "user "+email+" does not exist", err)
	case errors.Is(err, store.ErrExists):
		return failure.Wrap(failure.Conflict, "user "+email+" already exists", err)
	case errors.Is(err, store.ErrVersionMismatch):
		return failure.Wrap(failure.Conflict, "user "+email+" was modified concurrently", err)
	case errors.Is(err, store.ErrRejected):
		return failure.Wrap(failure.RequestRejected, "store rejected the request", err)
	default:
		return failure.Wrap(failure.DatabaseDown, "store is unavailable", err)
	}
}
