package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"cityhr/internal/domain/auth"
	"cityhr/internal/platform/config"
)

type seedLeaveType struct {
	Name        string
	DaysPerYear int
	Description string
}

var defaultLeaveTypes = []seedLeaveType{
	{Name: "Congé Annuel", DaysPerYear: 30, Description: "Congé annuel réglementaire"},
	{Name: "Congé Maladie", DaysPerYear: 0, Description: "Sur présentation d'un certificat médical"},
	{Name: "Congé Maternité", DaysPerYear: 0, Description: "Congé de maternité"},
	{Name: "Congé Paternité", DaysPerYear: 0, Description: "Congé de paternité"},
	{Name: "Permission Exceptionnelle", DaysPerYear: 0, Description: "Événements familiaux"},
}

// Seed creates the default administrator and leave types when absent.
func Seed(ctx context.Context, conn *sqlx.DB, cfg config.Config) error {
	if err := ensureAdminUser(ctx, conn, cfg.SeedAdminUsername, cfg.SeedAdminPassword); err != nil {
		return err
	}
	return ensureLeaveTypes(ctx, conn)
}

func ensureAdminUser(ctx context.Context, conn *sqlx.DB, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}
	var count int
	if err := conn.GetContext(ctx, &count, conn.Rebind("SELECT COUNT(1) FROM users WHERE username = ?"), username); err != nil {
		return fmt.Errorf("seed admin lookup: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, conn.Rebind(`
    INSERT INTO users (id, username, password_hash, role, created_at)
    VALUES (?,?,?,?,?)
  `), uuid.NewString(), username, hash, auth.RoleAdmin, time.Now().UTC()); err != nil {
		return fmt.Errorf("seed admin insert: %w", err)
	}
	slog.Info("seeded administrator account", "username", username)
	return nil
}

func ensureLeaveTypes(ctx context.Context, conn *sqlx.DB) error {
	for _, lt := range defaultLeaveTypes {
		var count int
		if err := conn.GetContext(ctx, &count, conn.Rebind("SELECT COUNT(1) FROM leave_types WHERE name = ?"), lt.Name); err != nil {
			return fmt.Errorf("seed leave type lookup: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := conn.ExecContext(ctx, conn.Rebind(`
      INSERT INTO leave_types (id, name, days_per_year, description, created_at)
      VALUES (?,?,?,?,?)
    `), uuid.NewString(), lt.Name, lt.DaysPerYear, lt.Description, time.Now().UTC()); err != nil {
			return fmt.Errorf("seed leave type insert: %w", err)
		}
	}
	return nil
}
