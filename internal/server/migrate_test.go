// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"path/filepath"
	"testing"

	"codeberg.org/oliverandrich/accountd/internal/config"
	"codeberg.org/oliverandrich/accountd/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func countUsersTable(t *testing.T, dsn string) int64 {
	t.Helper()
	db, err := database.Connect(database.DriverSQLite, dsn)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var count int64
	require.NoError(t, db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name='users'"))
	return count
}

func TestMigrateDown(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "accounts.db")
	db, err := database.Open(database.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Equal(t, int64(1), countUsersTable(t, dsn))

	cmd := &cli.Command{
		Name:  "accountd",
		Flags: config.Flags(),
		Commands: []*cli.Command{
			{Name: "migrate-down", Action: MigrateDown},
		},
	}
	err = cmd.Run(context.Background(), []string{
		"accountd", "--database-driver", "sqlite", "--database-dsn", dsn, "migrate-down",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), countUsersTable(t, dsn))
}

func TestRollback_MemoryDriver(t *testing.T) {
	err := rollback(config.DatabaseConfig{Driver: "memory"})

	assert.Error(t, err)
}

func TestRollback_UnknownDriver(t *testing.T) {
	err := rollback(config.DatabaseConfig{Driver: "oracle"})

	assert.Error(t, err)
}
