package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feed-digest/internal/app"
	"feed-digest/internal/config"
	"feed-digest/internal/infra/db"
	"feed-digest/internal/infra/worker"
	"feed-digest/internal/observability/logging"
	"feed-digest/internal/observability/tracing"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Setup(cfg.Tracing.SampleRatio)

	database, dialect := initDatabase(ctx, logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	a, err := app.New(cfg, database, dialect, logger)
	if err != nil {
		logger.Error("failed to wire application", slog.Any("error", err))
		os.Exit(1)
	}

	// 起動時に失敗しても /ready が degraded を返し、次の呼び出しで再試行する
	if err := a.Scheduler.EnsureStarted(ctx); err != nil {
		logger.Error("scheduler failed to start", slog.Any("error", err))
	}

	startHealthServer(ctx, logger, cfg.Worker.HealthPort, a.Scheduler.Started)

	runServer(ctx, logger, cfg, a.Router(logger, getVersion()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Scheduler.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler stop timed out", slog.Any("error", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracer shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(ctx context.Context, logger *slog.Logger) (*sql.DB, db.Dialect) {
	database, dialect, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(ctx, database, dialect); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database, dialect
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// startHealthServer serves the admin probes on a separate port. Port 0
// disables it.
func startHealthServer(ctx context.Context, logger *slog.Logger, port int, ready func() bool) {
	if port == 0 {
		logger.Info("admin health server disabled")
		return
	}
	addr := fmt.Sprintf(":%d", port)
	hs := worker.NewHealthServer(addr, ready, logger)
	go func() {
		if err := hs.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("admin health server started", slog.String("addr", addr))
}

// runServer blocks until ctx is cancelled, then drains in-flight requests.
func runServer(ctx context.Context, logger *slog.Logger, cfg *config.Config, handler http.Handler) {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Slowloris対策
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Server.Addr),
			slog.String("version", getVersion()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
}
