// Package account implements registration, login and per-user settings.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/repository"
)

// PushScheduler keeps the in-memory trigger registry in step with
// users.push_time. schedule.Scheduler implements it.
type PushScheduler interface {
	Upsert(ctx context.Context, userID int64, pushTime string) error
	Remove(ctx context.Context, userID int64) error
	Forget(userID int64)
}

// TokenIssuer signs a bearer token for a user.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Settings is the user-visible account state.
type Settings struct {
	ID              int64   `json:"id"`
	Email           string  `json:"email"`
	FetchPeriodDays int     `json:"fetchPeriodDays"`
	PushTime        *string `json:"pushTime"`
}

// Service provides account use cases.
type Service struct {
	Users         repository.UserRepository
	Subscriptions repository.SubscriptionRepository
	Ledger        repository.SummaryRepository
	Scheduler     PushScheduler
	Tokens        TokenIssuer
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Register creates an account with the default lookback window.
func (s *Service) Register(ctx context.Context, email, password string) (*Settings, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := entity.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := entity.ValidatePassword(password); err != nil {
		return nil, err
	}

	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Email:           email,
		PasswordHash:    string(hash),
		FetchPeriodDays: entity.DefaultFetchPeriodDays,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	slog.InfoContext(ctx, "user registered", slog.Int64("user_id", user.ID))
	return toSettings(user), nil
}

// Login checks credentials and returns a signed token. Unknown email and
// wrong password both return entity.ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("login: %w", entity.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("login: %w", entity.ErrUnauthorized)
	}
	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Settings returns the account state of userID.
func (s *Service) Settings(ctx context.Context, userID int64) (*Settings, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toSettings(user), nil
}

// UpdateFetchPeriod sets the default lookback window (1..30 days).
func (s *Service) UpdateFetchPeriod(ctx context.Context, userID int64, days int) error {
	if err := entity.ValidateFetchPeriodDays(days); err != nil {
		return err
	}
	if err := s.Users.UpdateFetchPeriod(ctx, userID, days); err != nil {
		return fmt.Errorf("update fetch period: %w", err)
	}
	return nil
}

// UpdatePushTime schedules the daily digest at pushTime, or cancels it
// when pushTime is nil.
func (s *Service) UpdatePushTime(ctx context.Context, userID int64, pushTime *string) error {
	if pushTime == nil {
		return s.Scheduler.Remove(ctx, userID)
	}
	return s.Scheduler.Upsert(ctx, userID, *pushTime)
}

// Delete removes the user's ledger entries, subscriptions and account, then
// drops the trigger.
func (s *Service) Delete(ctx context.Context, userID int64) error {
	if _, err := s.get(ctx, userID); err != nil {
		return err
	}
	if err := s.Ledger.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete ledger entries: %w", err)
	}
	if err := s.Subscriptions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("delete subscriptions: %w", err)
	}
	if err := s.Users.Delete(ctx, userID); err != nil && !errors.Is(err, entity.ErrNotFound) {
		return fmt.Errorf("delete user: %w", err)
	}
	s.Scheduler.Forget(userID)
	slog.InfoContext(ctx, "user deleted", slog.Int64("user_id", userID))
	return nil
}

func (s *Service) get(ctx context.Context, userID int64) (*entity.User, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, entity.ErrNotFound)
	}
	return user, nil
}

func toSettings(u *entity.User) *Settings {
	return &Settings{
		ID:              u.ID,
		Email:           u.Email,
		FetchPeriodDays: u.FetchPeriodDays,
		PushTime:        u.PushTime,
	}
}
