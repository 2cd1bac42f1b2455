package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type columnGuard struct {
	Table      string
	Column     string
	Definition string
}

// additiveColumns are columns introduced after the first release. Stores
// restored from older backups get them added in place; nothing is ever
// dropped or renamed.
var additiveColumns = []columnGuard{
	{Table: "employees", Column: "national_id", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "employees", Column: "nationality", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "employees", Column: "decision_number", Definition: "TEXT NOT NULL DEFAULT ''"},
	{Table: "mail_entries", Column: "file_path", Definition: "TEXT NOT NULL DEFAULT ''"},
}

func gooseDialect(conn *sqlx.DB) goose.Dialect {
	if conn.DriverName() == DriverPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

// Migrate applies the embedded schema migrations and then the additive
// column guards.
func Migrate(ctx context.Context, conn *sqlx.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(gooseDialect(conn), conn.DB, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "durationMs", res.Duration.Milliseconds())
	}
	return EnsureColumns(ctx, conn)
}

// EnsureColumns adds every missing additive column. It is idempotent.
func EnsureColumns(ctx context.Context, conn *sqlx.DB) error {
	for _, guard := range additiveColumns {
		exists, err := columnExists(ctx, conn, guard.Table, guard.Column)
		if err != nil {
			return fmt.Errorf("inspect %s.%s: %w", guard.Table, guard.Column, err)
		}
		if exists {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", guard.Table, guard.Column, guard.Definition)
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", guard.Table, guard.Column, err)
		}
		slog.Info("schema column added", "table", guard.Table, "column", guard.Column)
	}
	return nil
}

func columnExists(ctx context.Context, conn *sqlx.DB, table, column string) (bool, error) {
	query := "SELECT COUNT(1) FROM pragma_table_info(?) WHERE name = ?"
	if conn.DriverName() == DriverPostgres {
		query = "SELECT COUNT(1) FROM information_schema.columns WHERE table_name = ? AND column_name = ?"
	}
	var count int
	if err := conn.GetContext(ctx, &count, conn.Rebind(query), table, column); err != nil {
		return false, err
	}
	return count > 0, nil
}
