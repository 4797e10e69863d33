package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/repository"
)

type SubscriptionRepo struct{ db *sql.DB }

func NewSubscriptionRepo(db *sql.DB) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

const subscriptionColumns = `id, user_id, url, title, fetch_period_days, created_at`

func scanSubscription(row interface{ Scan(...any) error }) (*entity.Subscription, error) {
	var (
		s    entity.Subscription
		days sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.URL, &s.Title, &days, &s.CreatedAt); err != nil {
		return nil, err
	}
	if days.Valid {
		d := int(days.Int64)
		s.FetchPeriodDays = &d
	}
	return &s, nil
}

func (repo *SubscriptionRepo) Get(ctx context.Context, id int64) (*entity.Subscription, error) {
	const query = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1 LIMIT 1`
	s, err := scanSubscription(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return s, nil
}

// ListByUser returns subscriptions in creation order, which is also digest order.
func (repo *SubscriptionRepo) ListByUser(ctx context.Context, userID int64) ([]*entity.Subscription, error) {
	const query = `
SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE user_id = $1
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := make([]*entity.Subscription, 0, 16)
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByUser: Scan: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: rows.Err: %w", err)
	}
	return subs, nil
}

func (repo *SubscriptionRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	const query = `
INSERT INTO subscriptions (user_id, url, title, fetch_period_days)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`
	if err := repo.db.QueryRowContext(ctx, query,
		sub.UserID, sub.URL, sub.Title, sub.FetchPeriodDays,
	).Scan(&sub.ID, &sub.CreatedAt); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SubscriptionRepo) UpdateFetchPeriod(ctx context.Context, id int64, days *int) error {
	const query = `UPDATE subscriptions SET fetch_period_days = $1 WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, days, id)
	if err != nil {
		return fmt.Errorf("UpdateFetchPeriod: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateFetchPeriod: subscription %d: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (repo *SubscriptionRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM subscriptions WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: subscription %d: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (repo *SubscriptionRepo) DeleteByUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM subscriptions WHERE user_id = $1`
	if _, err := repo.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("DeleteByUser: %w", err)
	}
	return nil
}
