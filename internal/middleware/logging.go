package middleware

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Logging логирует команду, длительность и ошибку обработки
func Logging(logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, m *discordgo.MessageCreate) error {
			start := time.Now()
			command := commandOf(m)

			logger.Debug("Processing command",
				zap.String("command", command),
				zap.String("channel_id", channelOf(m)),
				zap.String("user_id", authorOf(m)))

			err := next(ctx, m)

			fields := []zap.Field{
				zap.String("command", command),
				zap.String("channel_id", channelOf(m)),
				zap.String("user_id", authorOf(m)),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Error("Command failed", append(fields, zap.Error(err))...)
				return err
			}

			logger.Info("Command processed", fields...)
			return nil
		}
	}
}
