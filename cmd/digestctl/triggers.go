package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"feed-digest/internal/app"
)

func newTriggersCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "Show the stored daily push triggers",
		Long: `Triggers loads every stored push time the way the server does at
startup and prints the resulting triggers with their next fire time.
Malformed stored values are skipped and logged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				if _, err := a.Scheduler.LoadAll(cmd.Context()); err != nil {
					return err
				}
				triggers := a.Scheduler.Triggers()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), triggers)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "KEY\tUSER\tPUSH TIME\tNEXT")
				for _, t := range triggers {
					_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", t.Key, t.UserID, t.PushTime, t.Next.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}
