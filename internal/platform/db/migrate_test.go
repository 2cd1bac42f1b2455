package db_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityhr/internal/platform/config"
	"cityhr/internal/platform/db"
	"cityhr/internal/platform/db/dbtest"
)

func TestMigrateIsIdempotent(t *testing.T) {
	conn := dbtest.New(t)
	require.NoError(t, db.Migrate(context.Background(), conn))

	var tables []string
	require.NoError(t, conn.Select(&tables, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"))
	for _, want := range []string{"career_acts", "documents", "employees", "job_runs", "leave_types", "leaves", "mail_entries", "users"} {
		assert.Contains(t, tables, want)
	}
}

func TestEnsureColumnsAddsMissingColumnsOnLegacyStore(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, t.TempDir()+"/legacy.db")
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(`CREATE TABLE employees (id TEXT PRIMARY KEY, matricule TEXT NOT NULL, first_name TEXT NOT NULL, last_name TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = conn.Exec(`CREATE TABLE mail_entries (id TEXT PRIMARY KEY, order_number TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO employees (id, matricule, first_name, last_name) VALUES ('e1', 'M1', 'Jean', 'Dupont')`)
	require.NoError(t, err)

	require.NoError(t, db.EnsureColumns(ctx, conn))
	require.NoError(t, db.EnsureColumns(ctx, conn))

	var nationality string
	require.NoError(t, conn.Get(&nationality, "SELECT nationality FROM employees WHERE id = 'e1'"))
	assert.Equal(t, "", nationality)

	var count int
	require.NoError(t, conn.Get(&count, "SELECT COUNT(1) FROM pragma_table_info('mail_entries') WHERE name = 'file_path'"))
	assert.Equal(t, 1, count)
}

func TestEnsureColumnsPostgresQueries(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mockDB.Close()
	conn := sqlx.NewDb(mockDB, db.DriverPostgres)

	lookup := regexp.QuoteMeta("SELECT COUNT(1) FROM information_schema.columns WHERE table_name = $1 AND column_name = $2")
	mock.ExpectQuery(lookup).WithArgs("employees", "national_id").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(lookup).WithArgs("employees", "nationality").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE employees ADD COLUMN nationality TEXT NOT NULL DEFAULT ''")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(lookup).WithArgs("employees", "decision_number").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(lookup).WithArgs("mail_entries", "file_path").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	require.NoError(t, db.EnsureColumns(context.Background(), conn))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedCreatesDefaults(t *testing.T) {
	conn := dbtest.New(t)
	cfg := config.Config{SeedAdminUsername: "admin", SeedAdminPassword: "admin123"}
	require.NoError(t, db.Seed(context.Background(), conn, cfg))
	require.NoError(t, db.Seed(context.Background(), conn, cfg))

	var users int
	require.NoError(t, conn.Get(&users, "SELECT COUNT(1) FROM users"))
	assert.Equal(t, 1, users)

	var annual int
	require.NoError(t, conn.Get(&annual, "SELECT days_per_year FROM leave_types WHERE name = 'Congé Annuel'"))
	assert.Equal(t, 30, annual)

	var types int
	require.NoError(t, conn.Get(&types, "SELECT COUNT(1) FROM leave_types"))
	assert.Equal(t, 5, types)
}
