// Command scheduler runs the office appointment engine: HTTP API, Telegram bot,
// background reconciliation and maintenance commands.
package main

import (
	"context"
	"os"

	"github.com/Freeeeeet/office_scheduler/internal/app"
	"github.com/Freeeeeet/office_scheduler/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "scheduler",
		Short:         "Office appointment slots and bookings",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(generateCmd())
	cmd.AddCommand(reconcileCmd())
	cmd.AddCommand(tokenCmd())

	return cmd
}

// bootstrap загружает конфиг и логгер для любой команды
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := app.NewLogger(cfg.Environment)
	return cfg, logger, nil
}

// withContainer собирает контейнер без каналов, выполняет fn и освобождает ресурсы
func withContainer(ctx context.Context, fn func(*app.Container) error) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer app.SyncLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger, app.WithoutChannels())
	if err != nil {
		return err
	}
	defer container.Close()

	return fn(container)
}
