package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tenancy-workflow/internal/workers"
	"tenancy-workflow/pkg/registry"
)

func registryCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the activity registry that gates which workers start",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "configs/activity-registry.json", "Path to registry file")

	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write a registry listing every built-in worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, _ := cmd.Flags().GetString("version")
			reg, err := workers.Registry(version, time.Now())
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			if err := registry.SaveRegistry(reg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d activities to %s\n", len(reg.Activities), path)
			return nil
		},
	}
	generate.Flags().String("version", "1.0.0", "Registry version")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check the registry for missing fields and duplicates",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registry is valid: %d activities\n", len(reg.Activities))
			return nil
		},
	}

	setStatus := &cobra.Command{
		Use:   "set-status <task-type> <status>",
		Short: "Change an activity's implementation status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			switch args[1] {
			case registry.StatusPlanned, registry.StatusInProgress, registry.StatusCompleted,
				registry.StatusVerified, registry.StatusDisabled:
			default:
				return fmt.Errorf("unknown status %q", args[1])
			}

			found := false
			for i := range reg.Activities {
				if reg.Activities[i].TaskType == args[0] {
					reg.Activities[i].ImplementationStatus = args[1]
					found = true
				}
			}
			if !found {
				return fmt.Errorf("activity %q not found", args[0])
			}
			reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
			if err := registry.SaveRegistry(reg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], args[1])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List activities and whether the worker process will start them",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-32s  %-12s  %-12s  %s\n", "Task type", "Category", "Status", "Starts")
			for _, a := range reg.Activities {
				fmt.Fprintf(out, "%-32s  %-12s  %-12s  %t\n", a.TaskType, a.Category, a.ImplementationStatus, reg.IsEnabled(a.TaskType))
			}
			return nil
		},
	}

	cmd.AddCommand(generate, validate, setStatus, list)
	return cmd
}
