// Package dbtest opens throwaway migrated stores for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"cityhr/internal/platform/config"
	"cityhr/internal/platform/db"
)

// New returns a migrated SQLite store in a temporary directory.
func New(t testing.TB) *sqlx.DB {
	t.Helper()
	conn, _ := NewWithPath(t)
	return conn
}

// NewWithPath is New plus the database file path.
func NewWithPath(t testing.TB) (*sqlx.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hr_management.db")
	conn, err := db.OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return conn, path
}

// Seeded is New with the default administrator and leave types.
func Seeded(t testing.TB) *sqlx.DB {
	t.Helper()
	conn := New(t)
	require.NoError(t, db.Seed(context.Background(), conn, config.Config{
		SeedAdminUsername: "admin",
		SeedAdminPassword: "admin123",
	}))
	return conn
}
