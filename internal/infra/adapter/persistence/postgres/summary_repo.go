package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/repository"
)

// SummaryRepo is the postgres dedup ledger.
type SummaryRepo struct {
	db   *sql.DB
	psql sq.StatementBuilderType
}

func NewSummaryRepo(db *sql.DB) repository.SummaryRepository {
	return &SummaryRepo{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ExistingGUIDs issues one IN query for the whole batch.
func (repo *SummaryRepo) ExistingGUIDs(ctx context.Context, subscriptionID, userID int64, guids []string) (map[string]bool, error) {
	result := make(map[string]bool, len(guids))
	if len(guids) == 0 {
		return result, nil
	}

	query, args, err := repo.psql.
		Select("article_guid").
		From("summaries").
		Where(sq.And{
			sq.Eq{"subscription_id": subscriptionID},
			sq.Eq{"user_id": userID},
			sq.Eq{"article_guid": guids},
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ExistingGUIDs: build: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ExistingGUIDs: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var guid string
		if err := rows.Scan(&guid); err != nil {
			return nil, fmt.Errorf("ExistingGUIDs: Scan: %w", err)
		}
		result[guid] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ExistingGUIDs: rows.Err: %w", err)
	}
	return result, nil
}

// Record inserts s unless its key is already present. A conflicting key
// yields inserted=false and a nil error.
func (repo *SummaryRepo) Record(ctx context.Context, s *entity.Summary) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, err
	}
	const query = `
INSERT INTO summaries (article_guid, user_id, subscription_id, title, link, content)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (article_guid, user_id, subscription_id) DO NOTHING
RETURNING id, created_at`
	err := repo.db.QueryRowContext(ctx, query,
		s.ArticleGUID, s.UserID, s.SubscriptionID, s.Title, s.Link, s.Content,
	).Scan(&s.ID, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Record: %w", err)
	}
	return true, nil
}

func (repo *SummaryRepo) Clear(ctx context.Context, subscriptionID, userID int64) (int64, error) {
	const query = `DELETE FROM summaries WHERE subscription_id = $1 AND user_id = $2`
	res, err := repo.db.ExecContext(ctx, query, subscriptionID, userID)
	if err != nil {
		return 0, fmt.Errorf("Clear: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (repo *SummaryRepo) ListBySubscription(ctx context.Context, subscriptionID, userID int64, limit int) ([]*entity.Summary, error) {
	builder := repo.psql.
		Select("id", "article_guid", "user_id", "subscription_id", "title", "link", "content", "created_at").
		From("summaries").
		Where(sq.Eq{"subscription_id": subscriptionID, "user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ListBySubscription: build: %w", err)
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListBySubscription: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := make([]*entity.Summary, 0, 32)
	for rows.Next() {
		var s entity.Summary
		if err := rows.Scan(&s.ID, &s.ArticleGUID, &s.UserID, &s.SubscriptionID,
			&s.Title, &s.Link, &s.Content, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListBySubscription: Scan: %w", err)
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

func (repo *SummaryRepo) DeleteBySubscription(ctx context.Context, subscriptionID int64) error {
	const query = `DELETE FROM summaries WHERE subscription_id = $1`
	if _, err := repo.db.ExecContext(ctx, query, subscriptionID); err != nil {
		return fmt.Errorf("DeleteBySubscription: %w", err)
	}
	return nil
}

func (repo *SummaryRepo) DeleteByUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM summaries WHERE user_id = $1`
	if _, err := repo.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("DeleteByUser: %w", err)
	}
	return nil
}
