package repository

import (
	"context"

	"feed-digest/internal/domain/entity"
)

type SubscriptionRepository interface {
	Get(ctx context.Context, id int64) (*entity.Subscription, error)
	ListByUser(ctx context.Context, userID int64) ([]*entity.Subscription, error)
	Create(ctx context.Context, sub *entity.Subscription) error
	UpdateFetchPeriod(ctx context.Context, id int64, days *int) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
}
