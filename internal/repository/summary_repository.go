package repository

import (
	"context"

	"feed-digest/internal/domain/entity"
)

// SummaryRepository is the dedup ledger.
//
// ExistingGUIDs answers "which of these article identities are already
// recorded" in a single query. Record inserts one entry and reports
// inserted=false, with a nil error, when the (article, user, subscription)
// key already exists.
type SummaryRepository interface {
	ExistingGUIDs(ctx context.Context, subscriptionID, userID int64, guids []string) (map[string]bool, error)
	Record(ctx context.Context, summary *entity.Summary) (inserted bool, err error)
	Clear(ctx context.Context, subscriptionID, userID int64) (int64, error)
	ListBySubscription(ctx context.Context, subscriptionID, userID int64, limit int) ([]*entity.Summary, error)
	DeleteBySubscription(ctx context.Context, subscriptionID int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}
