package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"freegamesbot/internal/app"
	"freegamesbot/internal/config"
	"freegamesbot/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runBot(cmd *cobra.Command, _ []string) error {
	log := logger.New()
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load configuration", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := app.NewBotWithFactory(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to create bot", zap.Error(err))
		return err
	}

	startErr := bot.Start(ctx)
	if startErr != nil {
		log.Error("Bot stopped with error", zap.Error(startErr))
	} else {
		log.Info("Shutdown signal received")
	}

	if err := bot.Stop(); err != nil {
		return fmt.Errorf("failed to stop bot: %w", err)
	}
	return startErr
}

