// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package store

import (
	"bytes"
	"context"
	"sync"
)

// Memory is an in-process Client. The mutex stands in for the atomic
// conditional write of a real backing store.
type Memory struct {
	items       map[string]Item
	maxItemSize int
	mu          sync.Mutex
}

// NewMemory creates an empty in-memory store.
func NewMemory(maxItemSize int) *Memory {
	return &Memory{
		items:       make(map[string]Item),
		maxItemSize: maxItemSize,
	}
}

func (m *Memory) PutIfAbsent(ctx context.Context, item Item) error {
	if err := ctx.Err(); err != nil {
		return classify(err)
	}
	if err := checkSize(item, m.maxItemSize); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.Key]; ok {
		return ErrExists
	}
	m.items[item.Key] = clone(item)
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) (Item, error) {
	if err := ctx.Err(); err != nil {
		return Item{}, classify(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return Item{}, ErrNotFound
	}
	return clone(item), nil
}

func (m *Memory) PutIfVersion(ctx context.Context, expected int64, item Item) error {
	if err := ctx.Err(); err != nil {
		return classify(err)
	}
	if err := checkSize(item, m.maxItemSize); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[item.Key]
	if !ok {
		return ErrNotFound
	}
	if current.Version != expected {
		return ErrVersionMismatch
	}
	m.items[item.Key] = clone(item)
	return nil
}

func (m *Memory) DeleteIfExists(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return classify(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[key]; !ok {
		return ErrNotFound
	}
	delete(m.items, key)
	return nil
}

func (m *Memory) Healthy(_ context.Context) error {
	return nil
}

func clone(item Item) Item {
	item.Document = bytes.Clone(item.Document)
	return item
}
