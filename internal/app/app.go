// Package app builds the object graph shared by the server and digestctl.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"feed-digest/internal/config"
	hhttp "feed-digest/internal/handler/http"
	"feed-digest/internal/handler/http/middleware"
	"feed-digest/internal/infra/adapter/persistence"
	"feed-digest/internal/infra/db"
	"feed-digest/internal/infra/feed"
	"feed-digest/internal/infra/fetcher"
	"feed-digest/internal/infra/notifier"
	"feed-digest/internal/infra/summarizer"
	authservice "feed-digest/internal/service/auth"
	accountUC "feed-digest/internal/usecase/account"
	"feed-digest/internal/usecase/pipeline"
	"feed-digest/internal/usecase/schedule"
	subUC "feed-digest/internal/usecase/subscription"
)

// App holds the wired services.
type App struct {
	Config        *config.Config
	DB            *sql.DB
	Dialect       db.Dialect
	Repos         persistence.Repositories
	Pipeline      *pipeline.Service
	Scheduler     *schedule.Scheduler
	Tokens        *authservice.TokenService
	Accounts      *accountUC.Service
	Subscriptions *subUC.Service
}

// New wires every component over an open connection. The scheduler is
// created but not started.
func New(cfg *config.Config, conn *sql.DB, dialect db.Dialect, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	repos := persistence.New(conn, dialect)

	feeds, err := feed.New(cfg.Feed)
	if err != nil {
		return nil, err
	}
	sum, err := summarizer.New(cfg.Summarizer)
	if err != nil {
		return nil, err
	}
	notify, err := notifier.New(cfg.Notifier)
	if err != nil {
		return nil, err
	}

	// nil interface, not a typed nil, when enhancement is off
	var content pipeline.ContentFetcher
	if cfg.Fetcher.Enabled {
		if err := cfg.Fetcher.Validate(); err != nil {
			return nil, fmt.Errorf("fetcher config: %w", err)
		}
		content = fetcher.NewReadabilityFetcher(cfg.Fetcher)
		logger.Info("content fetching enabled",
			slog.Int("threshold", cfg.Worker.ContentFetchThreshold),
			slog.Duration("timeout", cfg.Fetcher.Timeout))
	} else {
		logger.Info("content fetching disabled")
	}

	tokens, err := authservice.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}

	pipe := pipeline.NewService(
		repos.Users, repos.Subscriptions, repos.Summaries,
		feeds, sum, notify, content,
		cfg.Worker.Pipeline(),
	)
	sched := schedule.New(repos.Users, pipe, cfg.Worker.Schedule())

	logger.Info("components wired",
		slog.String("dialect", string(dialect)),
		slog.String("feed_provider", cfg.Feed.Provider),
		slog.String("summarizer_provider", cfg.Summarizer.Provider),
		slog.String("notifier", notify.Name()),
		slog.String("timezone", cfg.Worker.Timezone))

	return &App{
		Config:    cfg,
		DB:        conn,
		Dialect:   dialect,
		Repos:     repos,
		Pipeline:  pipe,
		Scheduler: sched,
		Tokens:    tokens,
		Accounts: &accountUC.Service{
			Users:         repos.Users,
			Subscriptions: repos.Subscriptions,
			Ledger:        repos.Summaries,
			Scheduler:     sched,
			Tokens:        tokens,
			BcryptCost:    cfg.Auth.BcryptCost,
		},
		Subscriptions: &subUC.Service{Repo: repos.Subscriptions, Ledger: repos.Summaries},
	}, nil
}

// Router returns the public HTTP handler.
func (a *App) Router(logger *slog.Logger, version string) http.Handler {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = a.Config.Server.CORSOrigins
	cors.Logger = logger
	return hhttp.NewRouter(hhttp.RouterConfig{
		Logger:                logger,
		DB:                    a.DB,
		Version:               version,
		Accounts:              a.Accounts,
		Subscriptions:         a.Subscriptions,
		Runner:                a.Pipeline,
		Scheduler:             a.Scheduler,
		Tokens:                a.Tokens,
		CORS:                  cors,
		MaxBodyBytes:          a.Config.Server.MaxBodyBytes,
		AuthRequestsPerMinute: a.Config.Server.AuthRequestsPerMinute,
	})
}
