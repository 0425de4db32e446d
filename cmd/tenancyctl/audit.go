package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/audit"
)

func auditCmd() *cobra.Command {
	var (
		filter models.AuditFilter
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := openPostgres(cmd)
			if err != nil {
				return err
			}
			defer pg.Close()

			if since > 0 {
				filter.From = time.Now().Add(-since)
			}
			events, err := audit.NewPostgresStore(pg.DB).Find(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to query audit log: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-20s  %-28s  %-12s  %-24s  %s\n", "When", "Action", "Role", "Actor", "Description")
			for _, ev := range events {
				fmt.Fprintf(out, "%-20s  %-28s  %-12s  %-24s  %s\n",
					ev.OccurredAt.Format("2006-01-02 15:04:05"), ev.Action, ev.ActorRole, ev.ActorID, ev.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.TargetID, "application", "", "Only events for this application")
	cmd.Flags().StringVar(&filter.ActorID, "actor", "", "Only events by this actor")
	cmd.Flags().StringVar(&filter.Action, "action", "", "Only events with this action")
	cmd.Flags().DurationVar(&since, "since", 0, "Only events newer than this (e.g. 24h)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "Maximum number of events")

	return cmd
}
