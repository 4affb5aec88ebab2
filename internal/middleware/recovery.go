package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Recovery перехватывает панику обработчика и возвращает ее как ошибку
func Recovery(logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, m *discordgo.MessageCreate) (err error) {
			defer func() {
				if panicErr := recover(); panicErr != nil {
					logger.Error("Panic recovered in command handler",
						zap.String("command", commandOf(m)),
						zap.String("channel_id", channelOf(m)),
						zap.String("user_id", authorOf(m)),
						zap.Any("panic", panicErr),
						zap.String("stack", string(debug.Stack())))
					err = fmt.Errorf("panic in command handler: %v", panicErr)
				}
			}()
			return next(ctx, m)
		}
	}
}

// RecoverFunc выполняет fn, перехватывая панику
func RecoverFunc(logger *zap.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered",
				zap.String("task", name),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
		}
	}()
	fn()
}
