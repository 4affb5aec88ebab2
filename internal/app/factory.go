// Package app содержит фабрику компонентов приложения.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"freegamesbot/internal/config"
	"freegamesbot/internal/external/discord"
	"freegamesbot/internal/external/epic"
	"freegamesbot/internal/external/telegram"
	"freegamesbot/internal/health"
	"freegamesbot/internal/metrics"
	"freegamesbot/internal/middleware"
	"freegamesbot/internal/service"
	"freegamesbot/internal/storage"
	"freegamesbot/internal/storage/gcs"
	"freegamesbot/internal/tracker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// ComponentFactory создает компоненты приложения
type ComponentFactory struct {
	config   *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// NewComponentFactory создает новую фабрику компонентов
func NewComponentFactory(cfg *config.Config, logger *zap.Logger) (*ComponentFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &ComponentFactory{
		config:   cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics.New(registry),
	}, nil
}

// CreateAppDataDirectory создает директорию данных приложения
func (f *ComponentFactory) CreateAppDataDirectory() error {
	dataDir := f.config.GetAppDataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		f.logger.Error("Failed to create app data directory", zap.String("dir", dataDir), zap.Error(err))
		return fmt.Errorf("failed to create app data directory: %w", err)
	}
	f.logger.Info("App data directory ready", zap.String("dir", dataDir))
	return nil
}

// CreateDiscordClient создает клиент Discord
func (f *ComponentFactory) CreateDiscordClient() (*discord.Client, error) {
	client, err := discord.NewClient(f.config.DiscordToken, f.logger.Named("discord"))
	if err != nil {
		return nil, fmt.Errorf("failed to create discord client: %w", err)
	}
	return client, nil
}

// CreateFetcher создает клиент каталога магазина
func (f *ComponentFactory) CreateFetcher() *epic.CatalogFetcher {
	httpCfg := f.config.HTTPClientConfig
	retryCfg := f.config.RetryConfig

	fetcher := epic.NewFetcher(epic.Config{
		PromotionsURL: f.config.StoreURL,
		Links: epic.Links{
			BaseURL: f.config.StoreBaseURL,
			Locale:  f.config.StoreLocale,
		},
		HTTPClientConfig: epic.HTTPClientConfig{
			Timeout:               httpCfg.Timeout,
			MaxIdleConns:          httpCfg.MaxIdleConns,
			MaxIdleConnsPerHost:   httpCfg.MaxIdleConnsPerHost,
			IdleConnTimeout:       httpCfg.IdleConnTimeout,
			TLSHandshakeTimeout:   httpCfg.TLSHandshakeTimeout,
			ResponseHeaderTimeout: httpCfg.ResponseHeaderTimeout,
			DisableKeepAlives:     httpCfg.DisableKeepAlives,
			MaxBodyBytes:          httpCfg.MaxBodyBytes,
		},
		RetryConfig: epic.RetryConfig{
			MaxRetries:        retryCfg.MaxRetries,
			InitialDelay:      retryCfg.InitialDelay,
			MaxDelay:          retryCfg.MaxDelay,
			BackoffMultiplier: retryCfg.BackoffMultiplier,
		},
	}, f.logger.Named("epic"))

	f.logger.Info("Catalog fetcher created", zap.String("url", f.config.StoreURL))
	return fetcher
}

// CreateStore создает хранилище отслеживаемого состояния
func (f *ComponentFactory) CreateStore(ctx context.Context, client *discord.Client) (storage.Store, error) {
	loc, err := f.config.Location()
	if err != nil {
		return nil, err
	}

	opts := storage.Options{
		Backend:     f.config.StateBackend,
		ChannelID:   f.config.ChannelID,
		Codec:       tracker.NewCodec(f.config.StrictDecode),
		DatabaseURL: f.config.DatabaseURL,
		GCS: gcs.Config{
			Bucket:          f.config.GCS.Bucket,
			Object:          f.config.GCS.Object,
			CredentialsFile: f.config.GCS.CredentialsFile,
			Endpoint:        f.config.GCS.Endpoint,
			Location:        loc,
		},
	}
	if client != nil {
		opts.Messenger = client
	}

	store, err := storage.New(ctx, opts, f.logger.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to create state store: %w", err)
	}

	f.logger.Info("State store created",
		zap.String("backend", store.Name()),
		zap.Bool("strict_decode", f.config.StrictDecode))
	return store, nil
}

// CreateNotifier создает уведомитель администратора
func (f *ComponentFactory) CreateNotifier() (*telegram.AdminNotifier, error) {
	notifier, err := telegram.NewAdminNotifier(f.config.TelegramBotToken, f.config.TelegramAdminChatID, f.logger.Named("telegram"))
	if err != nil {
		return nil, fmt.Errorf("failed to create admin notifier: %w", err)
	}
	return notifier, nil
}

// CreatePipeline создает цикл сверки
func (f *ComponentFactory) CreatePipeline(fetcher service.Fetcher, store storage.Store, dispatcher service.Dispatcher, notifier service.Notifier) (*service.Pipeline, error) {
	loc, err := f.config.Location()
	if err != nil {
		return nil, err
	}

	return service.NewPipeline(fetcher, store, dispatcher, notifier, service.PipelineConfig{
		Policy:   tracker.Policy{RetentionDays: f.config.RetentionDays},
		Location: loc,
	}, f.metrics, f.logger.Named("pipeline")), nil
}

// CreateScheduler создает планировщик ежедневного цикла
func (f *ComponentFactory) CreateScheduler(pipeline *service.Pipeline) (*service.Scheduler, error) {
	loc, err := f.config.Location()
	if err != nil {
		return nil, err
	}

	spec := f.config.ScheduleCron
	if spec == "" {
		spec, err = service.CronFromTime(f.config.ScheduleTime)
		if err != nil {
			return nil, err
		}
	}

	channelID := f.config.ChannelID
	return service.NewScheduler(spec, loc, func(ctx context.Context) error {
		_, err := pipeline.Run(ctx, service.TriggerScheduled, channelID)
		return err
	}, f.logger.Named("scheduler"))
}

// CreateMiddleware создает ограничители команд
func (f *ComponentFactory) CreateMiddleware() RouterOptions {
	return RouterOptions{
		RateLimiter: middleware.NewRateLimiter(f.config.CommandRateLimit, time.Minute, f.logger),
		Debouncer: middleware.NewDebouncer(0, map[string]time.Duration{
			CommandFreeGames: f.config.CommandDebounce,
		}, f.logger),
	}
}

// CreateHealthServer создает сервер health check
func (f *ComponentFactory) CreateHealthServer(ready func() bool, checkers ...health.Checker) *health.Server {
	if !f.config.HealthCheckEnabled {
		f.logger.Info("Health check server is disabled")
		return nil
	}

	server := health.NewServer(f.config.HealthPort, f.logger.Named("health"), f.registry, ready, checkers...)
	f.logger.Info("Health check server created", zap.String("port", f.config.HealthPort))
	return server
}

// CreateBot создает полный экземпляр бота со всеми зависимостями
func (f *ComponentFactory) CreateBot(ctx context.Context) (*Bot, error) {
	if err := f.CreateAppDataDirectory(); err != nil {
		return nil, err
	}

	client, err := f.CreateDiscordClient()
	if err != nil {
		return nil, err
	}

	store, err := f.CreateStore(ctx, client)
	if err != nil {
		return nil, err
	}

	notifier, err := f.CreateNotifier()
	if err != nil {
		return nil, err
	}

	announcer := service.NewAnnouncer(client, f.config.SendDelay, f.metrics, f.logger.Named("announcer"))

	pipeline, err := f.CreatePipeline(f.CreateFetcher(), store, announcer, notifier)
	if err != nil {
		return nil, err
	}

	scheduler, err := f.CreateScheduler(pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	limits := f.CreateMiddleware()
	router := NewRouter(pipeline, client, client, limits, f.metrics, f.logger.Named("router"))

	bot := &Bot{
		config:    f.config,
		logger:    f.logger,
		discord:   client,
		store:     store,
		pipeline:  pipeline,
		scheduler: scheduler,
		router:    router,
		limits:    limits,
	}

	channelID := f.config.ChannelID
	bot.health = f.CreateHealthServer(bot.Ready,
		store,
		health.CheckFunc{CheckName: "discord", Fn: func(ctx context.Context) error {
			return client.Ping(ctx, channelID)
		}},
	)

	f.logger.Info("Bot created successfully with all dependencies",
		zap.String("channel_id", channelID),
		zap.String("state_backend", store.Name()))
	return bot, nil
}

// CreateChecker создает цикл сверки только для просмотра: без рассылки и записи.
// Возвращает функцию освобождения ресурсов.
func (f *ComponentFactory) CreateChecker(ctx context.Context) (*service.Pipeline, func(), error) {
	var client *discord.Client
	cleanup := func() {}

	if f.config.StateBackend == config.StateBackendPinned {
		var err error
		client, err = f.CreateDiscordClient()
		if err != nil {
			return nil, cleanup, err
		}
		if err := client.Open(ctx); err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { _ = client.Close() }
	}

	store, err := f.CreateStore(ctx, client)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	closeStore := cleanup
	cleanup = func() {
		closeStoreIfNeeded(store, f.logger)
		closeStore()
	}

	pipeline, err := f.CreatePipeline(f.CreateFetcher(), store, nil, nil)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	return pipeline, cleanup, nil
}
