package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"feed-digest/internal/domain/entity"
	"feed-digest/internal/infra/adapter/persistence/postgres"
)

func subRows(subs ...*entity.Subscription) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "user_id", "url", "title", "fetch_period_days", "created_at"})
	for _, s := range subs {
		var days any
		if s.FetchPeriodDays != nil {
			days = int64(*s.FetchPeriodDays)
		}
		rows.AddRow(s.ID, s.UserID, s.URL, s.Title, days, s.CreatedAt)
	}
	return rows
}

func TestSubscriptionRepo_ListByUser(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	two := 2
	want := []*entity.Subscription{
		{ID: 1, UserID: 7, URL: "https://a.example.com/feed", Title: "A", CreatedAt: now},
		{ID: 2, UserID: 7, URL: "https://b.example.com/feed", Title: "B", FetchPeriodDays: &two, CreatedAt: now},
	}
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(subRows(want...))

	got, err := postgres.NewSubscriptionRepo(db).ListByUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListByUser err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscriptionRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM subscriptions WHERE id = $1`)).
		WithArgs(int64(3)).
		WillReturnRows(subRows())

	got, err := postgres.NewSubscriptionRepo(db).Get(context.Background(), 3)
	if err != nil || got != nil {
		t.Fatalf("Get got=%v err=%v", got, err)
	}
}

func TestSubscriptionRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO subscriptions`)).
		WithArgs(int64(7), "https://a.example.com/feed", "A", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), time.Now()))

	s := &entity.Subscription{UserID: 7, URL: "https://a.example.com/feed", Title: "A"}
	if err := postgres.NewSubscriptionRepo(db).Create(context.Background(), s); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if s.ID != 11 {
		t.Errorf("Create id=%d", s.ID)
	}
}

func TestSubscriptionRepo_UpdateAndDelete(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE subscriptions SET fetch_period_days = $1 WHERE id = $2`)).
		WithArgs(5, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM subscriptions WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM subscriptions WHERE user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	repo := postgres.NewSubscriptionRepo(db)
	five := 5
	if err := repo.UpdateFetchPeriod(context.Background(), 1, &five); err != nil {
		t.Fatalf("UpdateFetchPeriod err=%v", err)
	}
	if err := repo.Delete(context.Background(), 1); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("Delete err=%v, want ErrNotFound", err)
	}
	if err := repo.DeleteByUser(context.Background(), 7); err != nil {
		t.Fatalf("DeleteByUser err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
