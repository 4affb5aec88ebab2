package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultJobTimeout ограничивает время одного запуска по расписанию
const DefaultJobTimeout = 30 * time.Minute

// Job - задача, запускаемая по расписанию
type Job func(ctx context.Context) error

// Scheduler запускает одну задачу по cron-расписанию.
// Запуск, совпавший с еще выполняющимся, пропускается.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	job     Job
	timeout time.Duration
	logger  *zap.Logger
	mu      sync.RWMutex
	running bool
	entryID cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler создает планировщик. Выражение проверяется сразу.
func NewScheduler(spec string, location *time.Location, job Job, logger *zap.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	if location == nil {
		location = time.UTC
	}

	cronLogger := newCronLogger(logger)
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		spec:    spec,
		job:     job,
		timeout: DefaultJobTimeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start регистрирует задачу и запускает планировщик
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("scheduler is stopped")
	}

	id, err := s.cron.AddFunc(s.spec, s.execute)
	if err != nil {
		return fmt.Errorf("failed to add job to cron: %w", err)
	}
	s.entryID = id

	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started",
		zap.String("cron_expression", s.spec),
		zap.Time("next_run", s.cron.Entry(id).Next))
	return nil
}

// Stop останавливает планировщик и ждет завершения текущего запуска
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")

	s.cancel()
	<-s.cron.Stop().Done()

	s.logger.Info("Scheduler stopped")
}

// NextRun возвращает время следующего запуска или нулевое время
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Running сообщает, запущен ли планировщик
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) execute() {
	s.logger.Info("Executing scheduled job")

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if err := s.job(ctx); err != nil {
		s.logger.Error("Scheduled job failed", zap.Error(err))
	}
}

// CronFromTime переводит время суток HH:MM в ежедневное cron-выражение
func CronFromTime(value string) (string, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q: expected HH:MM", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid minute in %q", value)
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// cronLogger передает журнал cron в zap
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func newCronLogger(logger *zap.Logger) cron.Logger {
	return cronLogger{sugar: logger.Named("cron").Sugar()}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
