package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// RateLimiter ограничивает количество команд пользователя в скользящем окне
type RateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
	limit    int
	window   time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewRateLimiter создает ограничитель. limit <= 0 отключает ограничение.
func NewRateLimiter(limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
}

// Allow проверяет, разрешена ли команда пользователя, и учитывает ее
func (rl *RateLimiter) Allow(userID string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := recent(rl.requests[userID], now.Add(-rl.window))

	if len(valid) >= rl.limit {
		rl.requests[userID] = valid
		rl.logger.Warn("Rate limit exceeded",
			zap.String("user_id", userID),
			zap.Int("requests", len(valid)),
			zap.Int("limit", rl.limit))
		return false
	}

	rl.requests[userID] = append(valid, now)
	return true
}

// Cleanup удаляет записи за пределами окна
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	windowStart := rl.now().Add(-rl.window)
	for userID, requests := range rl.requests {
		valid := recent(requests, windowStart)
		if len(valid) == 0 {
			delete(rl.requests, userID)
			continue
		}
		rl.requests[userID] = valid
	}
}

func recent(requests []time.Time, windowStart time.Time) []time.Time {
	var valid []time.Time
	for _, reqTime := range requests {
		if reqTime.After(windowStart) {
			valid = append(valid, reqTime)
		}
	}
	return valid
}

// RateLimit пропускает команду, только если лимит пользователя не исчерпан
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, m *discordgo.MessageCreate) error {
			if !limiter.Allow(authorOf(m)) {
				return nil
			}
			return next(ctx, m)
		}
	}
}
