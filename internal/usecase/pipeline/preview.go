package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feed-digest/internal/domain/entity"
)

// Candidate is an article a run would summarize.
type Candidate struct {
	SubscriptionID int64     `json:"subscriptionId"`
	GUID           string    `json:"guid"`
	Title          string    `json:"title"`
	Link           string    `json:"link"`
	PublishedAt    time.Time `json:"publishedAt"`
}

// PreviewResult lists what Run would pick up right now.
type PreviewResult struct {
	UserID     int64       `json:"userId"`
	Candidates []Candidate `json:"candidates"`
	Stats      Stats       `json:"stats"`
}

// Preview fetches and filters every subscription of userID and reports the
// articles the ledger has not seen. Nothing is summarized, recorded or sent,
// so consecutive previews return the same candidates.
func (s *Service) Preview(ctx context.Context, userID int64) (*PreviewResult, error) {
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, entity.ErrNotFound)
	}
	subs, err := s.Subscriptions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	result := &PreviewResult{UserID: userID, Candidates: make([]Candidate, 0)}
	for _, sub := range subs {
		fresh, err := s.candidates(ctx, user, sub, &result.Stats)
		if err != nil {
			result.Stats.FailedSubscriptions++
			slog.Default().Warn("subscription skipped in preview",
				slog.Int64("user_id", userID),
				slog.Int64("subscription_id", sub.ID),
				slog.Any("error", err))
			continue
		}
		for _, a := range fresh {
			result.Candidates = append(result.Candidates, Candidate{
				SubscriptionID: sub.ID,
				GUID:           a.GUID,
				Title:          a.Title,
				Link:           a.Link,
				PublishedAt:    a.PublishedAt,
			})
		}
	}
	return result, nil
}
