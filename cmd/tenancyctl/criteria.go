package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tenancy-workflow/internal/common/database"
	"tenancy-workflow/internal/common/logger"
	"tenancy-workflow/internal/models"
	"tenancy-workflow/internal/tenancy/criteria"
)

func criteriaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "criteria",
		Short: "Read or change a landlord's credit check criteria",
	}
	cmd.AddCommand(criteriaGetCmd(), criteriaSetCmd())
	return cmd
}

func criteriaGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <landlord-id>",
		Short: "Print the criteria applied to a landlord's applicants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openCriteria(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			c, err := svc.GetCriteria(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(c)
		},
	}
}

func criteriaSetCmd() *cobra.Command {
	var c models.Criteria

	cmd := &cobra.Command{
		Use:   "set <landlord-id>",
		Short: "Store criteria for a landlord",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openCriteria(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			c.LandlordID = args[0]
			if err := svc.SetCriteria(cmd.Context(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "criteria saved for %s\n", c.LandlordID)
			return nil
		},
	}

	cmd.Flags().IntVar(&c.MinExperianScore, "min-score", 0, "Minimum Experian score")
	cmd.Flags().IntVar(&c.MaxCCJs, "max-ccjs", 0, "Maximum number of CCJs")
	_ = cmd.MarkFlagRequired("min-score")

	return cmd
}

func openCriteria(cmd *cobra.Command) (*criteria.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	dynamo, err := database.NewDynamoDB(cmd.Context(), cfg.Database.DynamoDB)
	if err != nil {
		return nil, nil, err
	}
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return nil, nil, err
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	svc := criteria.NewService(
		criteria.NewDynamoStore(dynamo.Client, dynamo.Table),
		rdb.Client,
		cfg.Tenancy.Criteria.CacheTTL,
		criteria.Defaults{
			MinExperianScore: cfg.Tenancy.Criteria.MinExperianScore,
			MaxCCJs:          cfg.Tenancy.Criteria.MaxCCJs,
		},
		log,
	)
	return svc, func() { rdb.Close() }, nil
}
