package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tenancy-workflow/internal/tenancy/projection"
	"tenancy-workflow/internal/tenancy/store"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <application-id>",
		Short: "Show the projected status of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := openPostgres(cmd)
			if err != nil {
				return err
			}
			defer pg.Close()

			app, err := store.NewPostgresStore(pg.DB).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			status := projection.Project(app)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-12s  %s\n", "Application", app.ID)
			fmt.Fprintf(out, "%-12s  %s\n", "Property", app.PropertyID)
			fmt.Fprintf(out, "%-12s  %s (%s)\n", "Applicant", app.ApplicantName, app.ApplicantID)
			fmt.Fprintf(out, "%-12s  %s\n", "Status", app.Status)
			if app.StatusReason != "" {
				fmt.Fprintf(out, "%-12s  %s\n", "Reason", app.StatusReason)
			}
			fmt.Fprintf(out, "%-12s  %d (effective %d)\n", "Stage", app.CurrentStage, projection.EffectiveStage(app))
			fmt.Fprintf(out, "%-12s  %s\n", "Progress", status.Label)
			if status.Detail != "" {
				fmt.Fprintf(out, "%-12s  %s\n", "Detail", status.Detail)
			}
			fmt.Fprintf(out, "%-12s  %s\n", "Updated", app.UpdatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}
