package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"feed-digest/internal/app"
	"feed-digest/internal/config"
	"feed-digest/internal/infra/db"
	"feed-digest/internal/observability/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "digestctl",
		Short: "Feed digest maintenance CLI",
		Long: `digestctl operates on the database named by DB_DRIVER and DATABASE_URL
and reads the same configuration sources as the server.

Example usage:
  digestctl migrate                # Apply pending schema migrations
  digestctl run --user 42          # Run one digest for user 42 now
  digestctl run --user 42 --dry-run  # List what the next run would summarize
  digestctl triggers               # Show the stored daily push triggers`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// stdoutはコマンドの出力専用
			slog.SetDefault(logging.NewLoggerTo(cmd.ErrOrStderr()))
		},
	}
	root.AddCommand(newMigrateCmd(), newRunCmd(), newTriggersCmd())
	return root
}

// openDatabase opens the configured database and applies migrations.
func openDatabase(ctx context.Context) (*sql.DB, db.Dialect, error) {
	conn, dialect, err := db.Open(ctx)
	if err != nil {
		return nil, "", err
	}
	if err := db.MigrateUp(ctx, conn, dialect); err != nil {
		_ = conn.Close()
		return nil, "", fmt.Errorf("migrate: %w", err)
	}
	return conn, dialect, nil
}

// withApp loads configuration, wires the application and runs fn. The
// scheduler is never started.
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, err := config.Load(slog.Default())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	conn, dialect, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	a, err := app.New(cfg, conn, dialect, slog.Default())
	if err != nil {
		return err
	}
	return fn(a)
}
