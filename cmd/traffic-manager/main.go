package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/tom2tomtomtom/traffic-manager/config"
	"github.com/tom2tomtomtom/traffic-manager/internal/app"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "traffic-manager",
		Short:        "Staff capacity tracking for agency teams",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newRecalculateCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run loads config, starts the app's dependencies and hands the running app to fn.
func run(fn func(ctx context.Context, a *app.App, logger ectologger.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, sync, err := app.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := app.New(cfg, logger)
	if err := a.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start dependencies")
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer stopCancel()
		if err := a.Stop(stopCtx); err != nil {
			logger.WithError(err).Error("Failed to stop dependencies")
		}
	}()

	return fn(ctx, a, logger)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App, _ ectologger.Logger) error {
				return a.Serve(ctx)
			})
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(_ context.Context, _ *app.App, logger ectologger.Logger) error {
				logger.Info("Migrations applied")
				return nil
			})
		},
	}
}

func newRecalculateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recalculate",
		Short: "Recompute this week's snapshot for every active team member",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App, _ ectologger.Logger) error {
				result, err := a.Capacity.Recalculate(ctx)
				if err != nil {
					return err
				}

				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(result)
			})
		},
	}
}
