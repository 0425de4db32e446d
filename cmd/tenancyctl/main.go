package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tenancy-workflow/internal/common/config"
	"tenancy-workflow/internal/common/database"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "tenancyctl",
		Short:         "Operator tool for the tenancy workflow workers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (defaults to configs/config.yaml)")

	rootCmd.AddCommand(
		migrateCmd(),
		statusCmd(),
		auditCmd(),
		criteriaCmd(),
		registryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func openPostgres(cmd *cobra.Command) (*database.PostgresClient, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(cmd.Context()); err != nil {
		pg.Close()
		return nil, fmt.Errorf("postgres unreachable: %w", err)
	}
	return pg, nil
}
