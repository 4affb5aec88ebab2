// Package repository содержит репозитории для работы с базой данных.
package repository

import (
	"context"
	"fmt"

	"freegamesbot/internal/model"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// TrackedItemRepository реализует работу с таблицей отслеживаемых раздач
type TrackedItemRepository struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewTrackedItemRepository создает новый репозиторий отслеживаемых раздач
func NewTrackedItemRepository(db *bun.DB, logger *zap.Logger) *TrackedItemRepository {
	return &TrackedItemRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema создает таблицу, если ее еще нет
func (r *TrackedItemRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*model.TrackedItemRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create tracked_items table: %w", err)
	}
	return nil
}

// List возвращает все записи по возрастанию позиции
func (r *TrackedItemRepository) List(ctx context.Context) ([]model.TrackedItemRow, error) {
	var rows []model.TrackedItemRow

	err := r.db.NewSelect().
		Model(&rows).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked items: %w", err)
	}

	return rows, nil
}

// ReplaceAll заменяет содержимое таблицы в одной транзакции
func (r *TrackedItemRepository) ReplaceAll(ctx context.Context, rows []model.TrackedItemRow) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*model.TrackedItemRow)(nil)).
			Where("1 = 1").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete tracked items: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}

		if _, err := tx.NewInsert().
			Model(&rows).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert tracked items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("Tracked items replaced", zap.Int("count", len(rows)))
	return nil
}
