package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"freegamesbot/internal/app"
	"freegamesbot/internal/config"
	"freegamesbot/internal/service"
	"freegamesbot/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runCheck(cmd *cobra.Command, _ []string) error {
	log := logger.New()
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	factory, err := app.NewComponentFactory(cfg, log)
	if err != nil {
		return err
	}

	pipeline, cleanup, err := factory.CreateChecker(ctx)
	if err != nil {
		log.Error("Failed to create checker", zap.Error(err))
		return err
	}
	defer cleanup()

	result, err := pipeline.Preview(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch free games: %w", err)
	}

	printPreview(cmd.OutOrStdout(), result)
	return nil
}

func printPreview(w io.Writer, result *service.CycleResult) {
	fmt.Fprintf(w, "Date: %s\n", result.Today.Format("2006-01-02"))

	fmt.Fprintf(w, "Currently free (%d):\n", len(result.Fetched))
	for _, item := range result.Fetched {
		fmt.Fprintf(w, "  %s  %s\n", item.Title, item.URL)
	}

	fmt.Fprintf(w, "Would announce (%d):\n", len(result.Announced))
	for _, item := range result.Announced {
		fmt.Fprintf(w, "  %s\n", item.Title)
	}

	fmt.Fprintf(w, "Would expire (%d):\n", len(result.Expired))
	for _, item := range result.Expired {
		fmt.Fprintf(w, "  %s (added %s)\n", item.Title, item.AddedDate.Format("2006-01-02"))
	}

	if result.LoadErr != nil {
		fmt.Fprintf(w, "Warning: tracked state could not be loaded: %v\n", result.LoadErr)
	}
}
