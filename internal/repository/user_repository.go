package repository

import (
	"context"

	"feed-digest/internal/domain/entity"
)

// UserRepository persists accounts and their push settings.
// users.push_time is the durable store of scheduled triggers.
type UserRepository interface {
	Get(ctx context.Context, id int64) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	ListWithPushTime(ctx context.Context) ([]*entity.User, error)
	Create(ctx context.Context, user *entity.User) error
	UpdatePushTime(ctx context.Context, id int64, pushTime *string) error
	UpdateFetchPeriod(ctx context.Context, id int64, days int) error
	Delete(ctx context.Context, id int64) error
}
