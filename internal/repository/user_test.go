// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"codeberg.org/oliverandrich/accountd/internal/failure"
	"codeberg.org/oliverandrich/accountd/internal/models"
	"codeberg.org/oliverandrich/accountd/internal/repository"
	"codeberg.org/oliverandrich/accountd/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()

		user, err := repo.CreateUser(ctx, &models.User{Email: "a@x.com", PasswordHash: "H"})

		require.NoError(t, err)
		assert.Equal(t, "a@x.com", user.Email)
		assert.Equal(t, int64(1), user.Version)
		assert.False(t, user.Verified)
		assert.NotZero(t, user.CreatedAt)
		assert.Equal(t, user.CreatedAt, user.UpdatedAt)
		assert.NotNil(t, user.Properties)
	})
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()

		_, err := repo.CreateUser(ctx, &models.User{Email: "a@x.com"})
		require.NoError(t, err)

		_, err = repo.CreateUser(ctx, &models.User{Email: "a@x.com"})

		assert.ErrorIs(t, err, failure.Conflict)
	})
}

func TestCreateUser_TooLarge(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		_, err := repo.CreateUser(context.Background(), &models.User{
			Email:      "a@x.com",
			Properties: map[string]any{"blob": strings.Repeat("x", 500*1024)},
		})

		assert.ErrorIs(t, err, failure.RequestRejected)
	})
}

func TestGetUser(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()
		created, err := repo.CreateUser(ctx, &models.User{
			Email:        "a@x.com",
			PasswordHash: "H",
			Properties:   map[string]any{"plan": "free", "seats": 3.0},
		})
		require.NoError(t, err)

		retrieved, err := repo.GetUser(ctx, "a@x.com")

		require.NoError(t, err)
		assert.Equal(t, created.Email, retrieved.Email)
		assert.Equal(t, "H", retrieved.PasswordHash)
		assert.Equal(t, created.Version, retrieved.Version)
		assert.Equal(t, "free", retrieved.Properties["plan"])
		assert.InDelta(t, 3.0, retrieved.Properties["seats"], 0)
	})
}

func TestGetUser_NotFound(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		_, err := repo.GetUser(context.Background(), "nonexistent@x.com")

		assert.ErrorIs(t, err, failure.UserNotFound)
	})
}

func TestUpdateUser(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()
		created := testutil.NewTestUser(t, repo, "a@x.com")

		updated, err := repo.UpdateUser(ctx, "a@x.com", created.Version, func(u *models.User) error {
			u.Properties = map[string]any{"plan": "pro"}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, int64(2), updated.Version)
		assert.Equal(t, "pro", updated.Properties["plan"])
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		stored, err := repo.GetUser(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.Version)
		assert.Equal(t, "pro", stored.Properties["plan"])
	})
}

func TestUpdateUser_VersionMonotonic(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()
		user := testutil.NewTestUser(t, repo, "a@x.com")

		const updates = 5
		for i := range updates {
			var err error
			user, err = repo.UpdateUser(ctx, "a@x.com", user.Version, func(u *models.User) error {
				u.Properties["counter"] = float64(i)
				return nil
			})
			require.NoError(t, err)
		}

		stored, err := repo.GetUser(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(updates+1), stored.Version)
	})
}

func TestUpdateUser_StaleVersion(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()
		testutil.NewTestUser(t, repo, "a@x.com")

		_, err := repo.UpdateUser(ctx, "a@x.com", 7, func(*models.User) error { return nil })

		assert.ErrorIs(t, err, failure.Conflict)
	})
}

func TestUpdateUser_NotFound(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		_, err := repo.UpdateUser(context.Background(), "missing@x.com", 1, func(*models.User) error { return nil })

		assert.ErrorIs(t, err, failure.UserNotFound)
	})
}

func TestUpdateUser_EmailImmutable(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()
		testutil.NewTestUser(t, repo, "a@x.com")

		_, err := repo.UpdateUser(ctx, "a@x.com", 1, func(u *models.User) error {
			u.Email = "b@x.com"
			return nil
		})

		require.ErrorIs(t, err, failure.RequestRejected)

		stored, err := repo.GetUser(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.Version)
	})
}

func TestUpdateUser_MutationError(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()
		testutil.NewTestUser(t, repo, "a@x.com")
		boom := errors.New("boom")

		_, err := repo.UpdateUser(ctx, "a@x.com", 1, func(*models.User) error { return boom })

		require.ErrorIs(t, err, boom)
		stored, err := repo.GetUser(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.Version)
	})
}

func TestUpdateUser_ConcurrentWriters(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()
		testutil.NewTestUser(t, repo, "a@x.com")

		// Both callers hold version 1.
		results := make([]error, 2)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, results[i] = repo.UpdateUser(ctx, "a@x.com", 1, func(u *models.User) error {
					u.Properties = map[string]any{"plan": "pro"}
					return nil
				})
			}()
		}
		wg.Wait()

		var ok, conflicts int
		for _, err := range results {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, failure.Conflict):
				conflicts++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, conflicts)

		stored, err := repo.GetUser(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.Version)
	})
}

func TestUpdateUser_KeepsVerificationToken(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()
		testutil.NewTestUser(t, repo, "a@x.com")

		_, err := repo.UpdateUser(ctx, "a@x.com", 1, func(u *models.User) error {
			u.Verification = &models.VerificationToken{TokenHash: "hash"}
			return nil
		})
		require.NoError(t, err)

		stored, err := repo.GetUser(ctx, "a@x.com")
		require.NoError(t, err)
		require.NotNil(t, stored.PendingToken())
		assert.Equal(t, "hash", stored.PendingToken().TokenHash)
	})
}

func TestDeleteUser(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		ctx := context.Background()
		testutil.NewTestUser(t, repo, "a@x.com")

		deleted, err := repo.DeleteUser(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", deleted.Email)

		_, err = repo.GetUser(ctx, "a@x.com")
		assert.ErrorIs(t, err, failure.UserNotFound)
	})
}

func TestDeleteUser_NotFound(t *testing.T) {
	forEachRepo(t, func(t *testing.T, repo *repository.Repository) {
		_, err := repo.DeleteUser(context.Background(), "missing@x.com")

		assert.ErrorIs(t, err, failure.UserNotFound)
	})
}
