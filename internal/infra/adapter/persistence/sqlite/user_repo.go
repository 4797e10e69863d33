package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/repository"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) repository.UserRepository {
	return &UserRepo{db: db}
}

const userColumns = `id, email, password_hash, fetch_period_days, push_time, created_at`

func scanUser(row interface{ Scan(...any) error }) (*entity.User, error) {
	var (
		u        entity.User
		pushTime sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FetchPeriodDays, &pushTime, &u.CreatedAt); err != nil {
		return nil, err
	}
	if pushTime.Valid {
		u.PushTime = &pushTime.String
	}
	return &u, nil
}

func (repo *UserRepo) Get(ctx context.Context, id int64) (*entity.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`
	u, err := scanUser(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: QueryRowContext: %w", err)
	}
	return u, nil
}

func (repo *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`
	u, err := scanUser(repo.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByEmail: QueryRowContext: %w", err)
	}
	return u, nil
}

func (repo *UserRepo) ListWithPushTime(ctx context.Context) ([]*entity.User, error) {
	const query = `
SELECT ` + userColumns + `
FROM users
WHERE push_time IS NOT NULL
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListWithPushTime: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]*entity.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ListWithPushTime: Scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListWithPushTime: rows.Err: %w", err)
	}
	return users, nil
}

func (repo *UserRepo) Create(ctx context.Context, user *entity.User) error {
	const query = `
INSERT INTO users (email, password_hash, fetch_period_days, push_time, created_at)
VALUES (?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	res, err := repo.db.ExecContext(ctx, query,
		user.Email, user.PasswordHash, user.FetchPeriodDays, nullString(user.PushTime), now)
	if isUniqueViolation(err) {
		return fmt.Errorf("Create: email %q: %w", user.Email, entity.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("Create: LastInsertId: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	return nil
}

func (repo *UserRepo) UpdatePushTime(ctx context.Context, id int64, pushTime *string) error {
	const query = `UPDATE users SET push_time = ? WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query, nullString(pushTime), id)
	if err != nil {
		return fmt.Errorf("UpdatePushTime: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdatePushTime: user %d: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (repo *UserRepo) UpdateFetchPeriod(ctx context.Context, id int64, days int) error {
	const query = `UPDATE users SET fetch_period_days = ? WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query, days, id)
	if err != nil {
		return fmt.Errorf("UpdateFetchPeriod: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateFetchPeriod: user %d: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (repo *UserRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM users WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: user %d: %w", id, entity.ErrNotFound)
	}
	return nil
}
