// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package store

import (
	"context"
	"errors"
)

// ObserveFunc receives the name and outcome of every store operation.
type ObserveFunc func(op string, err error)

type observed struct {
	next    Client
	observe ObserveFunc
}

// WithObserver wraps c so that every operation is reported to observe.
func WithObserver(c Client, observe ObserveFunc) Client {
	if observe == nil {
		return c
	}
	return &observed{next: c, observe: observe}
}

func (o *observed) PutIfAbsent(ctx context.Context, item Item) error {
	err := o.next.PutIfAbsent(ctx, item)
	o.observe("put_if_absent", err)
	return err
}

func (o *observed) Get(ctx context.Context, key string) (Item, error) {
	item, err := o.next.Get(ctx, key)
	o.observe("get", err)
	return item, err
}

func (o *observed) PutIfVersion(ctx context.Context, expected int64, item Item) error {
	err := o.next.PutIfVersion(ctx, expected, item)
	o.observe("put_if_version", err)
	return err
}

func (o *observed) DeleteIfExists(ctx context.Context, key string) error {
	err := o.next.DeleteIfExists(ctx, key)
	o.observe("delete_if_exists", err)
	return err
}

func (o *observed) Healthy(ctx context.Context) error {
	return o.next.Healthy(ctx)
}

// Outcome names the result of an operation for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExists):
		return "exists"
	case errors.Is(err, ErrVersionMismatch):
		return "version_mismatch"
	case errors.Is(err, ErrRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}
