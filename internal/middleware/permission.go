package middleware

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// PermissionChecker проверяет право управления сообщениями в канале
type PermissionChecker interface {
	CanManageMessages(ctx context.Context, userID, channelID string) (bool, error)
}

// RequireManageMessages пропускает команду только пользователям с правом
// управления сообщениями; остальным вызывается denied, при сбое проверки - failed
func RequireManageMessages(checker PermissionChecker, denied, failed Handler, logger *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, m *discordgo.MessageCreate) error {
			userID := authorOf(m)
			if userID == "" {
				logger.Warn("No user information in message", zap.String("channel_id", channelOf(m)))
				return nil
			}

			allowed, err := checker.CanManageMessages(ctx, userID, channelOf(m))
			if err != nil {
				logger.Error("Failed to check permissions",
					zap.String("command", commandOf(m)),
					zap.String("channel_id", channelOf(m)),
					zap.String("user_id", userID),
					zap.Error(err))
				if failed != nil {
					_ = failed(ctx, m)
				}
				return fmt.Errorf("failed to check permissions: %w", err)
			}

			if !allowed {
				logger.Warn("Unauthorized access attempt",
					zap.String("command", commandOf(m)),
					zap.String("channel_id", channelOf(m)),
					zap.String("user_id", userID))
				return denied(ctx, m)
			}

			return next(ctx, m)
		}
	}
}
