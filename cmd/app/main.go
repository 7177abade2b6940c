package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shipping/cmd"
	"shipping/internal/adapters/out/postgres"
	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/domain/model/delivery"
	"shipping/internal/core/domain/model/kernel"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "shipping",
		Short:         "Shipment delivery lifecycle service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newReconcileCommand(),
		newUpdateStatusCommand(),
	)
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the reconciliation jobs",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, func(app *cmd.CompositionRoot, config cmd.Config, logger *slog.Logger) error {
				if err := app.Ping(ctx); err != nil {
					return fmt.Errorf("connect to redis: %w", err)
				}

				e, err := app.CreateHTTPServer(ctx)
				if err != nil {
					return err
				}

				jm := app.CreateJobManager()
				if err := jm.StartAll(); err != nil {
					return err
				}
				defer jm.StopAll()

				serveErr := make(chan error, 1)
				go func() {
					serveErr <- e.Start(fmt.Sprintf("0.0.0.0:%s", config.HTTPPort))
				}()
				logger.Info("Shipping service started", "port", config.HTTPPort, "jobs", len(jm.Jobs()))

				select {
				case err := <-serveErr:
					if !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				case <-ctx.Done():
				}

				logger.Info("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				return e.Shutdown(shutdownCtx)
			})
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(c *cobra.Command, _ []string) error {
			config, logger, err := setup()
			if err != nil {
				return err
			}

			conn, db, err := openDatabase(c.Context(), config)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := postgres.Migrate(db); err != nil {
				return err
			}
			logger.Info("Schema migrated", "driver", config.DBDriver)
			return nil
		},
	}
}

func newReconcileCommand() *cobra.Command {
	var providerName string

	command := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass for a provider and print the report",
		RunE: func(c *cobra.Command, _ []string) error {
			provider, err := delivery.ParseProvider(providerName)
			if err != nil {
				return err
			}

			return withApp(c.Context(), func(app *cmd.CompositionRoot, _ cmd.Config, _ *slog.Logger) error {
				for _, job := range app.CreateJobManager().Jobs() {
					if job.Provider() != provider {
						continue
					}
					report, err := job.RunOnce(c.Context())
					if err != nil {
						return err
					}
					printReport(c, report)
					return nil
				}
				fmt.Fprintf(c.OutOrStdout(), "%s does not support status polling\n", provider)
				return nil
			})
		},
	}
	command.Flags().StringVar(&providerName, "provider", "", "provider to reconcile (NRW, TLS)")
	_ = command.MarkFlagRequired("provider")
	return command
}

func newUpdateStatusCommand() *cobra.Command {
	var id, status string

	command := &cobra.Command{
		Use:   "update-status",
		Short: "Apply a status to a delivery by id",
		RunE: func(c *cobra.Command, _ []string) error {
			deliveryID, err := kernel.UUIDFromString(id)
			if err != nil {
				return err
			}
			next, err := delivery.ParseStatus(status)
			if err != nil {
				return err
			}
			updateCmd, err := commands.NewUpdateDeliveryStatusCommand(deliveryID, next)
			if err != nil {
				return err
			}

			return withApp(c.Context(), func(app *cmd.CompositionRoot, _ cmd.Config, _ *slog.Logger) error {
				change, err := app.CreateUpdateDeliveryStatusCommandHandler().Handle(c.Context(), updateCmd)
				if err != nil {
					return err
				}
				if !change.Changed {
					fmt.Fprintf(c.OutOrStdout(), "%s unchanged: %s\n", change.DeliveryID, change.Current)
					return nil
				}
				fmt.Fprintf(c.OutOrStdout(), "%s: %s -> %s\n", change.DeliveryID, change.Previous, change.Current)
				return nil
			})
		},
	}
	command.Flags().StringVar(&id, "id", "", "delivery id")
	command.Flags().StringVar(&status, "status", "", "new status (CREATED, IN_TRANSIT, DELIVERED, FAILED)")
	_ = command.MarkFlagRequired("id")
	_ = command.MarkFlagRequired("status")
	return command
}

func printReport(c *cobra.Command, report commands.ReconcileReport) {
	out := c.OutOrStdout()
	fmt.Fprintf(out, "%s: checked %d, updated %d, unchanged %d, skipped %d, failed %d\n",
		report.Provider, report.Checked, len(report.Updated), report.Unchanged,
		report.SkippedTerminal, len(report.Failures))
	for _, change := range report.Updated {
		fmt.Fprintf(out, "  %s %s: %s -> %s\n", change.DeliveryID, change.TrackingID, change.Previous, change.Current)
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(out, "  %s %s: %v\n", failure.DeliveryID, failure.TrackingID, failure.Err)
	}
}

// withApp opens the database, builds the composition root and closes both
// once fn returns.
func withApp(ctx context.Context, fn func(*cmd.CompositionRoot, cmd.Config, *slog.Logger) error) error {
	config, logger, err := setup()
	if err != nil {
		return err
	}

	conn, db, err := openDatabase(ctx, config)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if config.DBDriver == postgres.DriverSQLite {
		if err := postgres.Migrate(db); err != nil {
			return err
		}
	}

	app, err := cmd.NewCompositionRoot(config, db, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app, config, logger)
}

func setup() (cmd.Config, *slog.Logger, error) {
	config, err := cmd.LoadConfig()
	if err != nil {
		return cmd.Config{}, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.LogLevel}))
	slog.SetDefault(logger)
	return config, logger, nil
}

func openDatabase(ctx context.Context, config cmd.Config) (*postgres.Connection, *gorm.DB, error) {
	dialector, err := postgres.NewDialector(config.DBDriver, config.DSN())
	if err != nil {
		return nil, nil, err
	}

	conn := postgres.NewConnection(dialector)
	db, err := conn.Open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return conn, db, nil
}
