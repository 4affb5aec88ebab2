package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Debouncer пропускает повтор одного ключа не чаще раза в таймаут
type Debouncer struct {
	requests map[string]time.Time
	timeouts map[string]time.Duration
	mu       sync.Mutex
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewDebouncer создает debouncer. timeouts задает особые таймауты команд.
func NewDebouncer(timeout time.Duration, timeouts map[string]time.Duration, logger *zap.Logger) *Debouncer {
	if timeouts == nil {
		timeouts = map[string]time.Duration{}
	}
	return &Debouncer{
		requests: make(map[string]time.Time),
		timeouts: timeouts,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// CanProcess проверяет, можно ли обработать команду в канале
func (d *Debouncer) CanProcess(channelID, command string) bool {
	timeout := d.timeout
	if custom, ok := d.timeouts[command]; ok {
		timeout = custom
	}
	if timeout <= 0 {
		return true
	}

	key := channelID + ":" + command

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.requests[key]; ok && now.Sub(last) < timeout {
		return false
	}
	d.requests[key] = now
	return true
}

// Cleanup очищает устаревшие записи
func (d *Debouncer) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for key, last := range d.requests {
		if now.Sub(last) > d.maxTimeout() {
			delete(d.requests, key)
		}
	}
}

func (d *Debouncer) maxTimeout() time.Duration {
	longest := d.timeout
	for _, t := range d.timeouts {
		if t > longest {
			longest = t
		}
	}
	return longest
}

// Debounce отбрасывает повтор команды в том же канале внутри таймаута
func Debounce(debouncer *Debouncer, logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, m *discordgo.MessageCreate) error {
			command := commandOf(m)
			if !debouncer.CanProcess(channelOf(m), command) {
				logger.Info("Command debounced",
					zap.String("command", command),
					zap.String("channel_id", channelOf(m)),
					zap.String("user_id", authorOf(m)))
				return nil
			}
			return next(ctx, m)
		}
	}
}
