package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"cityhr/internal/apperr"
)

type Store struct {
	DB *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{DB: db}
}

const userColumns = "id, username, password_hash, role, created_at"

func (s *Store) FindByUsername(ctx context.Context, username string) (User, error) {
	var out User
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind("SELECT "+userColumns+" FROM users WHERE username = ?"), username)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, username)
	}
	return out, err
}

func (s *Store) Get(ctx context.Context, id string) (User, error) {
	var out User
	err := s.DB.GetContext(ctx, &out, s.DB.Rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return out, err
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	out := []User{}
	err := s.DB.SelectContext(ctx, &out, "SELECT "+userColumns+" FROM users ORDER BY username")
	return out, err
}

func (s *Store) Create(ctx context.Context, u User) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind(`
    INSERT INTO users (id, username, password_hash, role, created_at)
    VALUES (?,?,?,?,?)
  `), u.ID, u.Username, u.PasswordHash, u.Role, u.CreatedAt)
	return err
}

func (s *Store) UpdatePassword(ctx context.Context, id, hash string) error {
	_, err := s.DB.ExecContext(ctx, s.DB.Rebind("UPDATE users SET password_hash = ? WHERE id = ?"), hash, id)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, s.DB.Rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind("SELECT COUNT(1) FROM users WHERE username = ?"), username)
	return count > 0, err
}

func (s *Store) CountByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, s.DB.Rebind("SELECT COUNT(1) FROM users WHERE role = ?"), role)
	return count, err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.DB.GetContext(ctx, &count, "SELECT COUNT(1) FROM users")
	return count, err
}
