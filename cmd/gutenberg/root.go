package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeancds29/gutenberg-back/internal/config"
	"github.com/jeancds29/gutenberg-back/internal/logging"
)

// appKeyType is the key for storing the app in the command context.
type appKeyType string

const appKey appKeyType = "app"

// app carries what every subcommand needs once config is loaded.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func appFrom(cmd *cobra.Command) (*app, error) {
	a, ok := cmd.Context().Value(appKey).(*app)
	if !ok || a == nil {
		return nil, errors.New("application not initialized")
	}
	return a, nil
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "gutenberg",
		Short: "REST API for Project Gutenberg books and LLM analyses.",
		Long: `gutenberg serves books scraped from Project Gutenberg and analyses of them
produced by a language model. Books are stored in Postgres on first request;
each (book, analysis kind) pair is sent to the model at most once.`,
		SilenceUsage: true,

		// Runs before every subcommand: load config, build the logger and
		// hand both to the subcommand through the context.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadDotEnv()
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("logger init: %w", err)
			}
			zap.ReplaceGlobals(logger)

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, appKey, &app{cfg: cfg, logger: logger}))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, err := appFrom(cmd); err == nil {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")

	cmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newBooksCmd(),
		newDoctorCmd(&cfgFile),
	)
	return cmd
}
