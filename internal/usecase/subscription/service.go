// Package subscription manages a user's feed subscriptions and their slice
// of the dedup ledger.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/repository"
)

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 50

// maxHistoryLimit bounds a single History page.
const maxHistoryLimit = 500

// CreateInput holds the fields of a new subscription.
type CreateInput struct {
	URL   string
	Title string
	// FetchPeriodDays overrides the user's lookback window when set.
	FetchPeriodDays *int
}

// Service provides subscription use cases. Every operation is scoped to
// the calling user; another user's subscription reads as not found.
type Service struct {
	Repo   repository.SubscriptionRepository
	Ledger repository.SummaryRepository
}

// List returns the user's subscriptions.
func (s *Service) List(ctx context.Context, userID int64) ([]*entity.Subscription, error) {
	subs, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// Create validates and stores a subscription. The title defaults to the
// feed host.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*entity.Subscription, error) {
	rawURL := strings.TrimSpace(in.URL)
	if rawURL == "" {
		return nil, &entity.ValidationError{Field: "url", Message: "is required"}
	}
	if err := entity.ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("validate feed URL: %w", err)
	}
	if in.FetchPeriodDays != nil {
		if err := entity.ValidateFetchPeriodDays(*in.FetchPeriodDays); err != nil {
			return nil, err
		}
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		if u, err := url.Parse(rawURL); err == nil {
			title = u.Hostname()
		}
	}

	sub := &entity.Subscription{
		UserID:          userID,
		URL:             rawURL,
		Title:           title,
		FetchPeriodDays: in.FetchPeriodDays,
	}
	if err := s.Repo.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

// UpdateLookback sets or, with nil, clears the per-subscription override.
func (s *Service) UpdateLookback(ctx context.Context, userID, id int64, days *int) error {
	if days != nil {
		if err := entity.ValidateFetchPeriodDays(*days); err != nil {
			return err
		}
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.Repo.UpdateFetchPeriod(ctx, id, days); err != nil {
		return fmt.Errorf("update lookback: %w", err)
	}
	return nil
}

// Delete removes the subscription's ledger entries, then the subscription.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.Ledger.DeleteBySubscription(ctx, id); err != nil {
		return fmt.Errorf("delete ledger entries: %w", err)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// ClearHistory forgets which articles were already summarized so the next
// run treats everything in the window as new. It returns the number of
// ledger entries removed.
func (s *Service) ClearHistory(ctx context.Context, userID, id int64) (int64, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return 0, err
	}
	n, err := s.Ledger.Clear(ctx, id, userID)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	slog.InfoContext(ctx, "history cleared",
		slog.Int64("user_id", userID),
		slog.Int64("subscription_id", id),
		slog.Int64("removed", n))
	return n, nil
}

// History lists the subscription's ledger entries, newest first.
func (s *Service) History(ctx context.Context, userID, id int64, limit int) ([]*entity.Summary, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	entries, err := s.Ledger.ListBySubscription(ctx, id, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

func (s *Service) owned(ctx context.Context, userID, id int64) (*entity.Subscription, error) {
	if id <= 0 {
		return nil, &entity.ValidationError{Field: "id", Message: "must be positive"}
	}
	sub, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if sub == nil || sub.UserID != userID {
		return nil, fmt.Errorf("subscription %d: %w", id, entity.ErrNotFound)
	}
	return sub, nil
}
