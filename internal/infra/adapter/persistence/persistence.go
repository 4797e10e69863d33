// Package persistence picks the repository implementations for a dialect.
package persistence

import (
	"database/sql"

	"feed-digest/internal/infra/adapter/persistence/postgres"
	"feed-digest/internal/infra/adapter/persistence/sqlite"
	"feed-digest/internal/infra/db"
	"feed-digest/internal/repository"
)

// Repositories groups the three stores.
type Repositories struct {
	Users         repository.UserRepository
	Subscriptions repository.SubscriptionRepository
	Summaries     repository.SummaryRepository
}

// New returns the repositories for dialect over conn.
func New(conn *sql.DB, dialect db.Dialect) Repositories {
	if dialect == db.SQLite {
		return Repositories{
			Users:         sqlite.NewUserRepo(conn),
			Subscriptions: sqlite.NewSubscriptionRepo(conn),
			Summaries:     sqlite.NewSummaryRepo(conn),
		}
	}
	return Repositories{
		Users:         postgres.NewUserRepo(conn),
		Subscriptions: postgres.NewSubscriptionRepo(conn),
		Summaries:     postgres.NewSummaryRepo(conn),
	}
}
