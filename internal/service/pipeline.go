// Package service содержит цикл сверки раздач, рассылку объявлений и планировщик.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"freegamesbot/internal/metrics"
	"freegamesbot/internal/model"
	"freegamesbot/internal/storage"
	"freegamesbot/internal/tracker"

	"go.uber.org/zap"
)

// Источники запуска цикла
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
	TriggerStartup   = "startup"
)

// Ключи уведомлений администратора
const (
	alertFetch = "fetch"
	alertLoad  = "state_load"
	alertSave  = "state_save"
)

// Fetcher получает текущие бесплатные раздачи
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.FreeItem, error)
}

// Dispatcher рассылает объявления в канал
type Dispatcher interface {
	Announce(ctx context.Context, channelID string, items []model.FreeItem) Report
}

// Notifier уведомляет оператора о сбоях
type Notifier interface {
	Notify(ctx context.Context, key, message string) error
}

// PipelineConfig содержит параметры цикла
type PipelineConfig struct {
	Policy   tracker.Policy
	Location *time.Location
}

// CycleResult содержит итог одного цикла
type CycleResult struct {
	Trigger   string
	Today     time.Time
	Fetched   []model.FreeItem
	Announced []model.FreeItem
	Expired   []model.TrackedItem
	State     model.TrackedState
	Report    Report
	LoadErr   error
	Saved     bool
}

// Pipeline выполняет цикл: получение, загрузка состояния, сверка, рассылка, сохранение.
// Циклы выполняются строго по одному.
type Pipeline struct {
	fetcher    Fetcher
	store      storage.Store
	dispatcher Dispatcher
	notifier   Notifier
	config     PipelineConfig
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time

	mu sync.Mutex
}

// NewPipeline создает цикл сверки
func NewPipeline(
	fetcher Fetcher,
	store storage.Store,
	dispatcher Dispatcher,
	notifier Notifier,
	config PipelineConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Pipeline {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Pipeline{
		fetcher:    fetcher,
		store:      store,
		dispatcher: dispatcher,
		notifier:   notifier,
		config:     config,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// Run выполняет полный цикл для канала. Ошибка получения каталога не прерывает
// цикл: сверка идет с пустым списком, а ошибка возвращается вместе с результатом.
func (p *Pipeline) Run(ctx context.Context, trigger, channelID string) (*CycleResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	started := time.Now()
	result := &CycleResult{Trigger: trigger, Today: model.Today(p.now(), p.config.Location)}

	p.logger.Info("Reconciliation cycle started",
		zap.String("trigger", trigger),
		zap.String("channel_id", channelID),
		zap.String("today", model.FormatDate(result.Today)))

	fresh, fetchErr := p.fetcher.Fetch(ctx)
	if fetchErr != nil {
		p.logger.Error("Failed to fetch free games", zap.String("trigger", trigger), zap.Error(fetchErr))
		p.alert(ctx, alertFetch, fmt.Sprintf("Free games fetch failed: %v", fetchErr))
		fresh = nil
	}
	result.Fetched = fresh

	prior := p.load(ctx, result)

	reconciled := tracker.Reconcile(prior, fresh, result.Today, p.config.Policy)
	result.Announced = reconciled.Announce
	result.Expired = reconciled.Expired
	result.State = reconciled.State

	if len(reconciled.Announce) > 0 {
		result.Report = p.dispatcher.Announce(ctx, channelID, reconciled.Announce)
	}

	if err := p.store.Save(ctx, reconciled.State); err != nil {
		p.logger.Error("Failed to save tracked state, persisted state left unchanged",
			zap.String("backend", p.store.Name()),
			zap.Error(err))
		p.metrics.ObserveStateError(model.OpSave, p.store.Name())
		p.alert(ctx, alertSave, fmt.Sprintf("Tracked state save failed (%s): %v", p.store.Name(), err))
	} else {
		result.Saved = true
	}

	p.metrics.ObserveState(len(fresh), len(reconciled.State), len(reconciled.Expired))
	p.metrics.ObserveCycle(trigger, fetchErr, started)

	p.logger.Info("Reconciliation cycle finished",
		zap.String("trigger", trigger),
		zap.Int("fetched", len(fresh)),
		zap.Int("announced", result.Report.Sent),
		zap.Int("failed", result.Report.Failed()),
		zap.Int("expired", len(reconciled.Expired)),
		zap.Int("tracked", len(reconciled.State)),
		zap.Bool("saved", result.Saved),
		zap.Duration("duration", time.Since(started)))

	if fetchErr != nil {
		return result, fetchErr
	}
	return result, nil
}

// Preview вычисляет, что будет объявлено, без рассылки и сохранения
func (p *Pipeline) Preview(ctx context.Context) (*CycleResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := &CycleResult{Trigger: "preview", Today: model.Today(p.now(), p.config.Location)}

	fresh, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	result.Fetched = fresh

	prior := p.load(ctx, result)
	reconciled := tracker.Reconcile(prior, fresh, result.Today, p.config.Policy)
	result.Announced = reconciled.Announce
	result.Expired = reconciled.Expired
	result.State = reconciled.State

	return result, nil
}

// Clear сбрасывает отслеживаемое состояние
func (p *Pipeline) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Save(ctx, model.TrackedState{}); err != nil {
		p.metrics.ObserveStateError(model.OpSave, p.store.Name())
		return fmt.Errorf("failed to clear tracked state: %w", err)
	}

	p.metrics.ObserveState(0, 0, 0)
	p.logger.Info("Tracked state cleared", zap.String("backend", p.store.Name()))
	return nil
}

// load читает состояние. При ошибке цикл продолжается с пустым состоянием.
func (p *Pipeline) load(ctx context.Context, result *CycleResult) model.TrackedState {
	prior, err := p.store.Load(ctx)
	if err == nil {
		return prior
	}

	result.LoadErr = err
	fields := []zap.Field{zap.String("backend", p.store.Name()), zap.Error(err)}
	if errors.Is(err, model.ErrCorruptState) {
		fields = append(fields, zap.Bool("corrupt", true))
	}
	p.logger.Error("Failed to load tracked state, continuing with empty state", fields...)
	p.metrics.ObserveStateError(model.OpLoad, p.store.Name())
	p.alert(ctx, alertLoad, fmt.Sprintf("Tracked state load failed (%s): %v", p.store.Name(), err))

	return model.TrackedState{}
}

func (p *Pipeline) alert(ctx context.Context, key, message string) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, key, message); err != nil {
		p.logger.Warn("Failed to notify admin", zap.String("key", key), zap.Error(err))
	}
}
