package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"freegamesbot/internal/model"
	"freegamesbot/internal/storage/repository"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"
)

// Postgres представляет хранилище состояния в PostgreSQL
type Postgres struct {
	db     *bun.DB
	items  *repository.TrackedItemRepository
	logger *zap.Logger
}

var _ Store = (*Postgres)(nil)

// NewPostgres создает новое подключение к PostgreSQL с retry логикой
func NewPostgres(ctx context.Context, databaseURL string, logger *zap.Logger) (*Postgres, error) {
	const maxRetries = 10
	const retryDelay = 5 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		logger.Info("Attempting to connect to database",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries))

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(databaseURL)))

		// Бот делает несколько запросов в сутки, большой пул не нужен
		sqldb.SetMaxOpenConns(4)
		sqldb.SetMaxIdleConns(2)
		sqldb.SetConnMaxLifetime(5 * time.Minute)
		sqldb.SetConnMaxIdleTime(1 * time.Minute)

		db := bun.NewDB(sqldb, pgdialect.New())

		if logger.Core().Enabled(zap.DebugLevel) {
			db.AddQueryHook(bundebug.NewQueryHook(
				bundebug.WithVerbose(true),
				bundebug.FromEnv("BUNDEBUG"),
			))
		}

		pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
		lastErr = db.PingContext(pingCtx)
		pingCancel()

		if lastErr != nil {
			logger.Warn("Failed to connect to database",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))

			if err := db.Close(); err != nil {
				logger.Warn("Failed to close database connection", zap.Error(err))
			}

			if attempt == maxRetries {
				break
			}

			logger.Info("Retrying connection", zap.Duration("delay", retryDelay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
			continue
		}

		logger.Info("Connected to PostgreSQL database with Bun ORM", zap.Int("attempt", attempt))

		p := &Postgres{
			db:     db,
			items:  repository.NewTrackedItemRepository(db, logger),
			logger: logger,
		}
		if err := p.items.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to prepare schema: %w", err)
		}
		return p, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
}

// Name возвращает имя хранилища
func (p *Postgres) Name() string { return BackendPostgres }

// Load загружает состояние в порядке вставки
func (p *Postgres) Load(ctx context.Context) (model.TrackedState, error) {
	rows, err := p.items.List(ctx)
	if err != nil {
		return nil, model.NewStateIOError(model.OpLoad, BackendPostgres, err)
	}

	state := make(model.TrackedState, 0, len(rows))
	for _, row := range rows {
		state = append(state, row.ToTrackedItem())
	}
	return state, nil
}

// Save перезаписывает состояние одной транзакцией
func (p *Postgres) Save(ctx context.Context, state model.TrackedState) error {
	if err := p.items.ReplaceAll(ctx, model.RowsFromState(state)); err != nil {
		return model.NewStateIOError(model.OpSave, BackendPostgres, err)
	}
	return nil
}

// Ping проверяет подключение к базе данных
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close закрывает соединение с базой данных
func (p *Postgres) Close() error {
	return p.db.Close()
}
