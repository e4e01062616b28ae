// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"codeberg.org/oliverandrich/accountd/internal/database"
	"codeberg.org/oliverandrich/accountd/internal/models"
	"codeberg.org/oliverandrich/accountd/internal/repository"
	"codeberg.org/oliverandrich/accountd/internal/services/email"
	"codeberg.org/oliverandrich/accountd/internal/store"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password of users created by NewTestUser.
const TestPassword = "correct horse battery staple"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(store.NewSQL(db, store.DefaultMaxItemSize), 0)
	return db, repo
}

// NewMemoryRepo creates a repository on the in-memory store client.
func NewMemoryRepo(t *testing.T) *repository.Repository {
	t.Helper()
	return repository.New(store.NewMemory(store.DefaultMaxItemSize), 0)
}

// NewTestUser creates a test user with TestPassword in the database.
func NewTestUser(t *testing.T, repo *repository.Repository, emailAddr string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := repo.CreateUser(context.Background(), &models.User{
		Email:        emailAddr,
		PasswordHash: string(hash),
	})
	require.NoError(t, err)
	return user
}

// Mailer records delivered messages instead of sending them.
type Mailer struct {
	Err       error
	HealthErr error
	messages  []email.Message
	mu        sync.Mutex
}

// Deliver records msg, or fails with m.Err when set.
func (m *Mailer) Deliver(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Healthy returns m.HealthErr.
func (m *Mailer) Healthy(_ context.Context) error {
	return m.HealthErr
}

// Messages returns a copy of all delivered messages.
func (m *Mailer) Messages() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Message(nil), m.messages...)
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
