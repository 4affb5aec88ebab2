// Package app содержит основную логику приложения.
package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"freegamesbot/internal/config"
	"freegamesbot/internal/external/discord"
	"freegamesbot/internal/health"
	"freegamesbot/internal/middleware"
	"freegamesbot/internal/service"
	"freegamesbot/internal/storage"

	"go.uber.org/zap"
)

const (
	cleanupInterval = 5 * time.Minute
	shutdownTimeout = 30 * time.Second
)

// Bot представляет основную логику бота
type Bot struct {
	config    *config.Config
	logger    *zap.Logger
	discord   *discord.Client
	store     storage.Store
	pipeline  *service.Pipeline
	scheduler *service.Scheduler
	router    *Router
	health    *health.Server
	limits    RouterOptions
	ready     atomic.Bool
	wg        sync.WaitGroup
	cancel    context.CancelFunc
	stopOnce  sync.Once
}

// NewBotWithFactory создает бота со всеми зависимостями
func NewBotWithFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Bot, error) {
	factory, err := NewComponentFactory(cfg, logger)
	if err != nil {
		return nil, err
	}
	return factory.CreateBot(ctx)
}

// Ready сообщает, завершен ли запуск
func (b *Bot) Ready() bool {
	return b.ready.Load()
}

// Start подключается к Discord, запускает планировщик и блокируется до отмены ctx
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot")

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.discord.OnMessage(b.router.HandleMessage)
	if err := b.discord.Open(ctx); err != nil {
		return err
	}

	if b.health != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			if err := b.health.Start(); err != nil {
				b.logger.Error("Health check server failed", zap.Error(err))
			}
		}()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.runCleanup(ctx)
	}()

	if err := b.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	if b.config.RunOnStartup {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			middleware.RecoverFunc(b.logger, "startup cycle", func() {
				if _, err := b.pipeline.Run(ctx, service.TriggerStartup, b.config.ChannelID); err != nil {
					b.logger.Error("Startup cycle failed", zap.Error(err))
				}
			})
		}()
	}

	b.ready.Store(true)
	b.logger.Info("Bot started successfully",
		zap.Time("next_run", b.scheduler.NextRun()),
		zap.Bool("run_on_startup", b.config.RunOnStartup))

	<-ctx.Done()
	b.logger.Info("Bot main loop cancelled by context")
	return nil
}

// Stop gracefully останавливает бота
func (b *Bot) Stop() error {
	b.stopOnce.Do(b.stop)
	return nil
}

func (b *Bot) stop() {
	b.logger.Info("Stopping bot gracefully")
	b.ready.Store(false)

	b.scheduler.Stop()

	if b.cancel != nil {
		b.cancel()
	}

	if b.health != nil {
		if err := b.health.Stop(); err != nil {
			b.logger.Error("Failed to stop health check server", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.wg.Wait()
	}()

	select {
	case <-done:
		b.logger.Info("All goroutines stopped successfully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("Graceful shutdown timeout exceeded, forcing stop")
	}

	if err := b.discord.Close(); err != nil {
		b.logger.Error("Failed to close discord session", zap.Error(err))
	}

	closeStoreIfNeeded(b.store, b.logger)

	b.logger.Info("Bot stopped successfully")
}

// runCleanup периодически очищает записи ограничителей команд
func (b *Bot) runCleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if b.limits.RateLimiter != nil {
				b.limits.RateLimiter.Cleanup()
			}
			if b.limits.Debouncer != nil {
				b.limits.Debouncer.Cleanup()
			}
		case <-ctx.Done():
			return
		}
	}
}

// closeStoreIfNeeded закрывает хранилище, если оно держит соединения
func closeStoreIfNeeded(store storage.Store, logger *zap.Logger) {
	closer, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Error("Failed to close state store", zap.Error(err))
	}
}
