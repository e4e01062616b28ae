// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package store provides key/value clients with atomic conditional writes.
// Every client guarantees that PutIfAbsent and PutIfVersion either apply
// completely or not at all, which is what the account repository relies on
// for uniqueness and optimistic concurrency.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultMaxItemSize mirrors the 400 KiB item limit of common key/value stores.
const DefaultMaxItemSize = 400 * 1024

var (
	ErrNotFound        = errors.New("item not found")
	ErrExists          = errors.New("item already exists")
	ErrVersionMismatch = errors.New("item version mismatch")
	ErrUnavailable     = errors.New("store unavailable")
	ErrRejected        = errors.New("request rejected by store")
)

// Item is a stored record. Document holds the serialized payload.
type Item struct { //nolint:govet // fieldalignment: readability over optimization
	CreatedAt time.Time
	UpdatedAt time.Time
	Key       string
	Document  []byte
	Version   int64
}

// Client is the contract a backing store has to fulfil.
type Client interface {
	// PutIfAbsent inserts item unless its key exists (ErrExists).
	PutIfAbsent(ctx context.Context, item Item) error
	// Get returns the item stored under key (ErrNotFound).
	Get(ctx context.Context, key string) (Item, error)
	// PutIfVersion replaces the item only if the stored version equals
	// expected (ErrVersionMismatch, ErrNotFound).
	PutIfVersion(ctx context.Context, expected int64, item Item) error
	// DeleteIfExists removes the item under key (ErrNotFound).
	DeleteIfExists(ctx context.Context, key string) error
	// Healthy returns nil when the store is reachable.
	Healthy(ctx context.Context) error
}

func checkSize(item Item, limit int) error {
	if limit > 0 && len(item.Document) > limit {
		return fmt.Errorf("%w: document of %d bytes exceeds limit of %d", ErrRejected, len(item.Document), limit)
	}
	return nil
}
