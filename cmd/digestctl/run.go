package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"feed-digest/internal/app"
	"feed-digest/internal/domain/entity"
	"feed-digest/internal/handler/http/digest"
	"feed-digest/internal/observability/metrics"
)

func newRunCmd() *cobra.Command {
	var (
		userID int64
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one digest for a user now",
		Long: `Run executes the digest pipeline for one user, exactly as a scheduled
trigger would, and prints the result as JSON.

With --dry-run the feeds are fetched and filtered against the ledger but
nothing is summarized, recorded or sent. The output lists the articles a
real run would pick up.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user must be a positive id")
			}
			ctx := cmd.Context()
			return withApp(ctx, func(a *app.App) error {
				if dryRun {
					res, err := a.Pipeline.Preview(ctx, userID)
					if err != nil {
						return userError(userID, err)
					}
					return writeJSON(cmd.OutOrStdout(), res)
				}
				start := time.Now()
				res, err := a.Pipeline.Run(ctx, userID)
				metrics.RecordRun(metrics.TriggerManual, err == nil, time.Since(start))
				if err != nil {
					return userError(userID, err)
				}
				return writeJSON(cmd.OutOrStdout(), digest.NewRunResponse(res))
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id to run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list candidate articles without summarizing, recording or sending")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func userError(userID int64, err error) error {
	if errors.Is(err, entity.ErrNotFound) {
		return fmt.Errorf("user %d not found", userID)
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
