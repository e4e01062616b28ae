// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/accountd/internal/failure"
	"codeberg.org/oliverandrich/accountd/internal/models"
)

// CreateUser inserts a new user. The stored record starts at version 1.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now().UTC()

	stored := *user
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Properties == nil {
		stored.Properties = map[string]any{}
	}

	item, err := encode(&stored)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.PutIfAbsent(ctx, item); err != nil {
		return nil, wrapError(err, user.Email)
	}
	return &stored, nil
}

// GetUser retrieves a user by email address.
func (r *Repository) GetUser(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	item, err := r.store.Get(ctx, email)
	if err != nil {
		return nil, wrapError(err, email)
	}
	return decode(item)
}

// Mutation changes a user in place. Returning an error aborts the update.
type Mutation func(user *models.User) error

// UpdateUser applies mutate to the user stored under email, provided the
// stored version still equals expectedVersion. The result is written with
// version expectedVersion+1 in a single conditional write. A stale version
// fails with failure.Conflict and is not retried.
func (r *Repository) UpdateUser(ctx context.Context, email string, expectedVersion int64, mutate Mutation) (*models.User, error) {
	user, err := r.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Version != expectedVersion {
		return nil, failure.New(failure.Conflict, "user "+email+" was modified concurrently")
	}

	if err := mutate(user); err != nil {
		return nil, err
	}
	if user.Email != email {
		return nil, failure.New(failure.RequestRejected, "email address cannot be changed")
	}
	if user.Properties == nil {
		user.Properties = map[string]any{}
	}

	user.Version = expectedVersion + 1
	user.UpdatedAt = time.Now().UTC()

	item, err := encode(user)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.PutIfVersion(ctx, expectedVersion, item); err != nil {
		return nil, wrapError(err, email)
	}
	return user, nil
}

// DeleteUser removes the user stored under email and returns what was deleted.
func (r *Repository) DeleteUser(ctx context.Context, email string) (*models.User, error) {
	user, err := r.GetUser(ctx, email)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.store.DeleteIfExists(ctx, email); err != nil {
		return nil, wrapError(err, email)
	}
	return user, nil
}
