// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vinovest/sqlx"
)

// SQL is a Client backed by the users table of a SQLite or PostgreSQL database.
// Conditional writes are single statements whose affected-row count decides
// the outcome.
type SQL struct {
	db          *sqlx.DB
	maxItemSize int
}

// NewSQL creates a SQL store on an open, migrated database.
func NewSQL(db *sqlx.DB, maxItemSize int) *SQL {
	return &SQL{db: db, maxItemSize: maxItemSize}
}

type itemRow struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Email     string    `db:"email"`
	Document  string    `db:"document"`
	Version   int64     `db:"version"`
}

func (s *SQL) PutIfAbsent(ctx context.Context, item Item) error {
	if err := checkSize(item, s.maxItemSize); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO users (email, version, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (email) DO NOTHING`),
		item.Key, item.Version, string(item.Document), item.CreatedAt.UTC(), item.UpdatedAt.UTC())
	if err != nil {
		return classify(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return ErrExists
	}
	return nil
}

func (s *SQL) Get(ctx context.Context, key string) (Item, error) {
	var row itemRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(
		`SELECT email, version, document, created_at, updated_at FROM users WHERE email = ?`), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, classify(err)
	}

	return Item{
		Key:       row.Email,
		Version:   row.Version,
		Document:  []byte(row.Document),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

func (s *SQL) PutIfVersion(ctx context.Context, expected int64, item Item) error {
	if err := checkSize(item, s.maxItemSize); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE users SET version = ?, document = ?, updated_at = ?
		 WHERE email = ? AND version = ?`),
		item.Version, string(item.Document), item.UpdatedAt.UTC(), item.Key, expected)
	if err != nil {
		return classify(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n > 0 {
		return nil
	}

	// Nothing matched: tell a missing row apart from a stale version.
	var count int64
	if err := s.db.GetContext(ctx, &count, s.db.Rebind(`SELECT count(*) FROM users WHERE email = ?`), item.Key); err != nil {
		return classify(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrVersionMismatch
}

func (s *SQL) DeleteIfExists(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM users WHERE email = ?`), key)
	if err != nil {
		return classify(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) Healthy(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// classify maps driver errors onto ErrUnavailable or ErrRejected, keeping the
// cause wrapped. Anything unrecognized counts as the store being unavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "22"), // data exception
			strings.HasPrefix(pgErr.Code, "23"), // integrity constraint violation
			strings.HasPrefix(pgErr.Code, "54"): // program limit exceeded
			return fmt.Errorf("%w: %w", ErrRejected, err)
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	msg := err.Error()
	if strings.Contains(msg, "too big") || strings.Contains(msg, "constraint failed") {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
