package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cityhr/internal/apperr"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	Store    *Store
	Secret   string
	TokenTTL time.Duration
}

func NewService(store *Store, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Service{Store: store, Secret: secret, TokenTTL: ttl}
}

type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.Store.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Username: user.Username, Role: user.Role}, s.TokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID string, change PasswordChange) error {
	var issues apperr.Fields
	if change.CurrentPassword == "" {
		issues.Add("currentPassword", "is required")
	}
	if len(change.NewPassword) < MinPasswordLength {
		issues.Add("newPassword", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if change.NewPassword != change.Confirmation {
		issues.Add("confirmation", "does not match the new password")
	}
	if err := issues.Err(); err != nil {
		return err
	}
	user, err := s.Store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(user.PasswordHash, change.CurrentPassword); err != nil {
		return apperr.Invalid("currentPassword", "is incorrect")
	}
	hash, err := HashPassword(change.NewPassword)
	if err != nil {
		return err
	}
	return s.Store.UpdatePassword(ctx, userID, hash)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.Store.List(ctx)
}

func (s *Service) CreateUser(ctx context.Context, payload NewUser) (User, error) {
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Role == "" {
		payload.Role = RoleUser
	}
	var issues apperr.Fields
	if payload.Username == "" {
		issues.Add("username", "is required")
	}
	if len(payload.Password) < MinPasswordLength {
		issues.Add("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if !ValidRole(payload.Role) {
		issues.Add("role", "must be admin or user")
	}
	if err := issues.Err(); err != nil {
		return User{}, err
	}
	exists, err := s.Store.UsernameExists(ctx, payload.Username)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, fmt.Errorf("%w: username %s already exists", apperr.ErrConflict, payload.Username)
	}
	hash, err := HashPassword(payload.Password)
	if err != nil {
		return User{}, err
	}
	user := User{
		ID:           uuid.NewString(),
		Username:     payload.Username,
		PasswordHash: hash,
		Role:         payload.Role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Store.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// DeleteUser removes an account. Callers cannot delete themselves and the
// last administrator is kept.
func (s *Service) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return apperr.Invalid("id", "cannot delete the current account")
	}
	user, err := s.Store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == RoleAdmin {
		admins, err := s.Store.CountByRole(ctx, RoleAdmin)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return apperr.Invalid("id", "cannot delete the last administrator")
		}
	}
	return s.Store.Delete(ctx, userID)
}
