package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/office_scheduler/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, Telegram bot and reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on start")

	return cmd
}

func runServer(skipMigrations bool) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer app.SyncLogger(logger)

	logger.Info("Starting office scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.Store),
		zap.Bool("strict_transitions", cfg.StrictTransitions),
		zap.String("batch_policy", cfg.SlotBatchPolicy),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	if !skipMigrations {
		if err := container.Migrate(ctx); err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := container.HTTPServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if container.BotController != nil {
		if err := container.BotController.RegisterHandlers(ctx); err != nil {
			logger.Warn("Bot commands menu not set", zap.Error(err))
		}
		go container.BotController.Start(ctx)
	} else {
		logger.Info("TELEGRAM_TOKEN is empty, telegram channel disabled")
	}

	container.Scheduler.Start(ctx)
	defer container.Scheduler.Stop()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("HTTP server failed", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return container.HTTPServer.Shutdown(shutdownCtx)
}
