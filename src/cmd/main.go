package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	cfg "imaginify/src/configuration"
	"imaginify/src/logging"
	db "imaginify/src/repository"
	server "imaginify/src/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "imaginify",
		Short:         "Image transformation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand(), migrateCommand(), plansCommand())
	return root
}

func setup() (*cfg.Properties, *zap.Logger, error) {
	config := cfg.ReadProperties()
	logger, err := logging.New(config.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("can not build logger: %w", err)
	}
	return config, logger, nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			return server.RunServer(config, logger)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the document store indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			ctx, cancel := context.WithTimeout(cmd.Context(), config.Mongo.ConnectTimeout*3)
			defer cancel()
			database, err := db.NewDataBase(config, logger)
			if err != nil {
				return err
			}
			defer database.Close(context.Background())
			if err := database.Connect(ctx); err != nil {
				return err
			}
			return database.EnsureIndexes(ctx)
		},
	}
}

func plansCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "Print the credit plan catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := cfg.LoadPlans()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plans)
		},
	}
}
